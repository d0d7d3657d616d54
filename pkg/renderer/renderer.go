// Package renderer extracts a crop from a source image at the crop's display size.
//
// The crop is given relative to the displayed image. It is mapped to native
// pixels, sampled from the full-resolution source and written to a fresh
// surface whose size is the crop's extent in display pixels.
package renderer

import (
	"fmt"
	"image"
	"math"
	"strings"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/menta2k/photo-editor/pkg/types"
)

// Interpolator names accepted in Config
const (
	NearestNeighbor = "nearest"
	ApproxBiLinear  = "approx-bilinear"
	BiLinear        = "bilinear"
	CatmullRom      = "catmull-rom"
)

var interpolators = map[string]xdraw.Interpolator{
	NearestNeighbor: xdraw.NearestNeighbor,
	ApproxBiLinear:  xdraw.ApproxBiLinear,
	BiLinear:        xdraw.BiLinear,
	CatmullRom:      xdraw.CatmullRom,
}

// ValidInterpolator reports whether name is a known interpolator
func ValidInterpolator(name string) bool {
	_, ok := interpolators[strings.ToLower(name)]
	return ok
}

// DefaultMaxPixels bounds the output surface when Config.MaxPixels is unset
const DefaultMaxPixels = 100_000_000

// Config holds configuration for the renderer
type Config struct {
	Interpolator string
	// MaxPixels rejects crops whose output surface would exceed it; 0 uses DefaultMaxPixels
	MaxPixels int
}

// Renderer turns a crop into a bitmap
type Renderer struct {
	config Config
	interp xdraw.Interpolator
}

// New creates a Renderer using bilinear sampling
func New() *Renderer {
	return NewWithConfig(Config{Interpolator: BiLinear, MaxPixels: DefaultMaxPixels})
}

// NewWithConfig creates a Renderer with custom configuration.
// Unknown interpolator names fall back to bilinear.
func NewWithConfig(config Config) *Renderer {
	interp, ok := interpolators[strings.ToLower(config.Interpolator)]
	if !ok {
		config.Interpolator = BiLinear
		interp = xdraw.BiLinear
	}
	if config.MaxPixels <= 0 {
		config.MaxPixels = DefaultMaxPixels
	}
	return &Renderer{config: config, interp: interp}
}

// Output is a rendered crop
type Output struct {
	Image    *image.NRGBA
	Geometry Geometry
}

// Plan validates the inputs and computes the geometry of a render without
// touching any pixels
func (r *Renderer) Plan(crop types.CropRect, display, native types.Dimensions) (Geometry, error) {
	if !display.Valid() {
		return Geometry{}, fmt.Errorf("%w: display size %vx%v", types.ErrNotReady, display.Width, display.Height)
	}
	if !native.Valid() {
		return Geometry{}, fmt.Errorf("%w: native size %vx%v", types.ErrNotReady, native.Width, native.Height)
	}

	normalized, err := Normalize(crop, display)
	if err != nil {
		return Geometry{}, err
	}

	g := Compute(normalized, display, native)
	if area := g.Display.Width * g.Display.Height; area > float64(r.config.MaxPixels) {
		return Geometry{}, fmt.Errorf("%w: crop %+v is %vx%v display pixels (maximum: %d pixels)",
			types.ErrInvalidCropGeometry, normalized, g.Display.Width, g.Display.Height, r.config.MaxPixels)
	}
	if g.Size.X < 1 || g.Size.Y < 1 {
		return Geometry{}, fmt.Errorf("%w: crop %+v is %vx%v display pixels",
			types.ErrInvalidCropGeometry, normalized, g.Display.Width, g.Display.Height)
	}
	return g, nil
}

// Render extracts crop from src. Native dimensions are read from src itself;
// display is the size src is currently laid out at.
func (r *Renderer) Render(src image.Image, crop types.CropRect, display types.Dimensions) (*Output, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: no source image", types.ErrNotReady)
	}
	b := src.Bounds()
	native := types.Dimensions{Width: float64(b.Dx()), Height: float64(b.Dy())}

	g, err := r.Plan(crop, display, native)
	if err != nil {
		return nil, err
	}

	dst := image.NewNRGBA(image.Rect(0, 0, g.Size.X, g.Size.Y))
	r.rasterize(dst, src, g)

	return &Output{Image: dst, Geometry: g}, nil
}

// rasterize resamples the native source rectangle onto dst. When both
// rectangles sit on whole pixels a plain scale is enough; otherwise an affine
// transform keeps the sub-pixel source offset.
func (r *Renderer) rasterize(dst *image.NRGBA, src image.Image, g Geometry) {
	b := src.Bounds()

	exactSize := math.Abs(g.Display.Width-float64(g.Size.X)) < types.Epsilon &&
		math.Abs(g.Display.Height-float64(g.Size.Y)) < types.Epsilon

	if exactSize && g.Source.Integral() {
		sr := image.Rect(
			int(math.Round(g.Source.X)),
			int(math.Round(g.Source.Y)),
			int(math.Round(g.Source.X+g.Source.Width)),
			int(math.Round(g.Source.Y+g.Source.Height)),
		).Add(b.Min).Intersect(b)
		r.interp.Scale(dst, dst.Bounds(), src, sr, xdraw.Src, nil)
		return
	}

	kx := g.Display.Width / g.Source.Width
	ky := g.Display.Height / g.Source.Height
	ox := float64(b.Min.X) + g.Source.X
	oy := float64(b.Min.Y) + g.Source.Y
	s2d := f64.Aff3{
		kx, 0, -ox * kx,
		0, ky, -oy * ky,
	}

	sr := image.Rect(
		int(math.Floor(g.Source.X)),
		int(math.Floor(g.Source.Y)),
		int(math.Ceil(g.Source.X+g.Source.Width)),
		int(math.Ceil(g.Source.Y+g.Source.Height)),
	).Add(b.Min).Intersect(b)
	r.interp.Transform(dst, s2d, src, sr, xdraw.Src, nil)
}
