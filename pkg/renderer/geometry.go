package renderer

import (
	"fmt"
	"image"
	"math"

	"github.com/menta2k/photo-editor/pkg/types"
)

// Geometry is the result of mapping a display-relative crop onto the source image
type Geometry struct {
	// Display is the crop in display pixels
	Display types.Rect
	// Source is the same region in native pixels
	Source types.Rect
	// Size is the output surface size: the display-pixel extent truncated to whole pixels
	Size image.Point
}

// Compute maps crop onto the display and native pixel grids. It applies no
// clamping; use Normalize first when the crop comes straight from user input.
//
// The output surface follows the crop's display size, so the same percentage
// crop exports more pixels when the image is shown larger.
func Compute(crop types.CropRect, display, native types.Dimensions) Geometry {
	crop = crop.Percent(display)

	d := types.Rect{
		X:      crop.X * display.Width / 100,
		Y:      crop.Y * display.Height / 100,
		Width:  crop.Width * display.Width / 100,
		Height: crop.Height * display.Height / 100,
	}

	sx := native.Width / display.Width
	sy := native.Height / display.Height

	return Geometry{
		Display: d,
		Source: types.Rect{
			X:      d.X * sx,
			Y:      d.Y * sy,
			Width:  d.Width * sx,
			Height: d.Height * sy,
		},
		Size: image.Point{X: truncate(d.Width), Y: truncate(d.Height)},
	}
}

// Normalize converts crop to percent units and clamps it inside the image:
// x and y into [0, 100], width into [0, 100-x], height into [0, 100-y].
// Non-finite coordinates are rejected with ErrInvalidCropGeometry.
func Normalize(crop types.CropRect, display types.Dimensions) (types.CropRect, error) {
	if !crop.Finite() {
		return types.CropRect{}, fmt.Errorf("%w: non-finite crop %+v", types.ErrInvalidCropGeometry, crop)
	}
	c := crop.Percent(display)
	c.X = clamp(c.X, 0, 100)
	c.Y = clamp(c.Y, 0, 100)
	c.Width = clamp(c.Width, 0, 100-c.X)
	c.Height = clamp(c.Height, 0, 100-c.Y)
	return c, nil
}

// truncate drops the fractional part the way a canvas size assignment does
func truncate(v float64) int {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	return int(math.Floor(v + types.Epsilon))
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
