package types

import "math"

// Unit identifies how the fields of a CropRect are expressed
type Unit string

const (
	// UnitPercent expresses a crop as percentages (0-100) of the displayed image
	UnitPercent Unit = "%"
	// UnitPixel expresses a crop in display pixels
	UnitPixel Unit = "px"
)

// CropRect is a user-selected crop region. With UnitPercent (or an empty Unit)
// all four fields are percentages of the displayed image, not its native size.
// Bounds are not enforced: values past 100 or below 0 are stored as given.
type CropRect struct {
	Unit   Unit    `json:"unit"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// FullCrop selects the whole image
var FullCrop = CropRect{Unit: UnitPercent, X: 0, Y: 0, Width: 100, Height: 100}

// Percent returns the rectangle in percent units. Pixel crops are converted
// using the display dimensions; a display with a zero axis yields zero on that axis.
func (c CropRect) Percent(display Dimensions) CropRect {
	if c.Unit != UnitPixel {
		c.Unit = UnitPercent
		return c
	}
	return CropRect{
		Unit:   UnitPercent,
		X:      percentOf(c.X, display.Width),
		Y:      percentOf(c.Y, display.Height),
		Width:  percentOf(c.Width, display.Width),
		Height: percentOf(c.Height, display.Height),
	}
}

// Finite reports whether every coordinate is a finite number
func (c CropRect) Finite() bool {
	for _, v := range [...]float64{c.X, c.Y, c.Width, c.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func percentOf(v, total float64) float64 {
	if total == 0 {
		return 0
	}
	return v * 100 / total
}

// Dimensions is a width/height pair. It is used both for the display size of
// the image (layout size before any visual zoom) and its native resolution.
type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Valid reports whether both axes are positive and finite
func (d Dimensions) Valid() bool {
	return d.Width > 0 && d.Height > 0 && !math.IsInf(d.Width, 0) && !math.IsInf(d.Height, 0)
}

// AspectRatio returns width divided by height
func (d Dimensions) AspectRatio() float64 {
	if d.Height == 0 {
		return 0
	}
	return d.Width / d.Height
}

// Rect is a rectangle with fractional coordinates, in display or native pixels
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Integral reports whether every coordinate lies on a whole pixel
func (r Rect) Integral() bool {
	for _, v := range [...]float64{r.X, r.Y, r.Width, r.Height} {
		if math.Abs(v-math.Round(v)) > Epsilon {
			return false
		}
	}
	return true
}

// Epsilon absorbs floating point noise when snapping computed pixel values
const Epsilon = 1e-9
