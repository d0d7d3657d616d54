// Package preview produces the on-screen rendition of a source image: the
// image laid out at its display size, zoomed by the preview scale, with an
// optional crop overlay. Nothing here affects exported output.
package preview

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"

	"github.com/disintegration/imaging"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/menta2k/photo-editor/pkg/selector"
	"github.com/menta2k/photo-editor/pkg/source"
	"github.com/menta2k/photo-editor/pkg/types"
)

var filters = map[string]imaging.ResampleFilter{
	"nearest":    imaging.NearestNeighbor,
	"box":        imaging.Box,
	"linear":     imaging.Linear,
	"catmullrom": imaging.CatmullRom,
	"lanczos":    imaging.Lanczos,
}

// ParseFilter maps a config name onto a resampling filter
func ParseFilter(name string) (imaging.ResampleFilter, error) {
	if name == "" {
		return imaging.Lanczos, nil
	}
	f, ok := filters[strings.ToLower(name)]
	if !ok {
		return imaging.ResampleFilter{}, fmt.Errorf("unknown resample filter: %s", name)
	}
	return f, nil
}

// Config holds configuration for the preview renderer
type Config struct {
	Filter imaging.ResampleFilter
	// CacheSize is the number of rendered frames kept; 0 disables caching
	CacheSize  int
	ScaleRange selector.ScaleRange
	// MaxPixels rejects frames larger than this; 0 uses DefaultMaxPixels
	MaxPixels int
}

// DefaultMaxPixels bounds a preview frame when Config.MaxPixels is unset
const DefaultMaxPixels = 100_000_000

// DefaultConfig returns the default preview configuration
func DefaultConfig() Config {
	return Config{
		Filter:     imaging.Lanczos,
		CacheSize:  32,
		ScaleRange: selector.DefaultScaleRange,
		MaxPixels:  DefaultMaxPixels,
	}
}

type cacheKey struct {
	id     string
	width  int
	height int
}

// Renderer renders preview frames
type Renderer struct {
	config Config
	cache  *lru.Cache[cacheKey, *image.NRGBA]
}

// New creates a Renderer with default configuration
func New() *Renderer {
	r, _ := NewWithConfig(DefaultConfig())
	return r
}

// NewWithConfig creates a Renderer with custom configuration
func NewWithConfig(config Config) (*Renderer, error) {
	if config.ScaleRange == (selector.ScaleRange{}) {
		config.ScaleRange = selector.DefaultScaleRange
	}
	if config.MaxPixels <= 0 {
		config.MaxPixels = DefaultMaxPixels
	}
	r := &Renderer{config: config}
	if config.CacheSize > 0 {
		cache, err := lru.New[cacheKey, *image.NRGBA](config.CacheSize)
		if err != nil {
			return nil, fmt.Errorf("failed to create preview cache: %w", err)
		}
		r.cache = cache
	}
	return r, nil
}

// Frame is one preview rendition. Image is shared with the cache and must
// not be modified.
type Frame struct {
	Image *image.NRGBA
	// Display is the layout size the frame was derived from
	Display types.Dimensions
	Scale   float64
}

// Size returns the frame's pixel size
func (f *Frame) Size() image.Point {
	return f.Image.Bounds().Size()
}

// Render resizes src to display×scale. The scale is clamped to the configured
// range.
func (r *Renderer) Render(src *source.Image, display types.Dimensions, scale float64) (*Frame, error) {
	if src == nil {
		return nil, fmt.Errorf("%w: no source image", types.ErrNotReady)
	}
	if !display.Valid() {
		return nil, fmt.Errorf("%w: display size %vx%v", types.ErrNotReady, display.Width, display.Height)
	}

	scale = r.config.ScaleRange.Clamp(scale)
	if area := display.Width * scale * display.Height * scale; area > float64(r.config.MaxPixels) {
		return nil, fmt.Errorf("%w: preview of %vx%v at scale %v exceeds %d pixels",
			types.ErrInvalidCropGeometry, display.Width, display.Height, scale, r.config.MaxPixels)
	}
	w := scaledSide(display.Width, scale)
	h := scaledSide(display.Height, scale)
	key := cacheKey{id: src.ID(), width: w, height: h}

	if r.cache != nil {
		if img, ok := r.cache.Get(key); ok {
			return &Frame{Image: img, Display: display, Scale: scale}, nil
		}
	}

	img := imaging.Resize(src.Image(), w, h, r.config.Filter)
	if r.cache != nil {
		r.cache.Add(key, img)
	}
	return &Frame{Image: img, Display: display, Scale: scale}, nil
}

// Purge drops every cached frame
func (r *Renderer) Purge() {
	if r.cache != nil {
		r.cache.Purge()
	}
}

// Cached returns the number of cached frames
func (r *Renderer) Cached() int {
	if r.cache == nil {
		return 0
	}
	return r.cache.Len()
}

func scaledSide(v, scale float64) int {
	n := int(math.Round(v * scale))
	if n < 1 {
		return 1
	}
	return n
}

// Overlay colors
var (
	CropColor   = color.NRGBA{255, 204, 0, 255}
	CenterColor = color.NRGBA{255, 0, 0, 255}
	ShadeColor  = color.NRGBA{0, 0, 0, 96}
)

// Overlay returns a copy of img with the crop region outlined and the area
// outside it shaded. crop is relative to img.
func Overlay(img image.Image, crop types.CropRect) image.Image {
	nrgba := imaging.Clone(img)
	w := nrgba.Bounds().Dx()
	h := nrgba.Bounds().Dy()
	if w == 0 || h == 0 {
		return nrgba
	}

	crop = crop.Percent(types.Dimensions{Width: float64(w), Height: float64(h)})
	x0, y0, x1, y1 := cropToPixels(crop, w, h)

	stroke := int(math.Max(1, 0.004*float64(min(w, h))))
	cross := int(math.Max(3, 0.01*float64(min(w, h))))

	shadeOutside(nrgba, x0, y0, x1, y1, ShadeColor)
	drawBox(nrgba, x0, y0, x1, y1, CropColor, stroke)

	cx, cy := (x0+x1)/2, (y0+y1)/2
	drawHLine(nrgba, cy, cx-cross, cx+cross, CenterColor)
	drawVLine(nrgba, cx, cy-cross, cy+cross, CenterColor)

	return nrgba
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

func cropToPixels(crop types.CropRect, w, h int) (int, int, int, int) {
	x0 := int(clamp(crop.X, 0, 100)/100*float64(w) + 0.5)
	y0 := int(clamp(crop.Y, 0, 100)/100*float64(h) + 0.5)
	x1 := int(clamp(crop.X+crop.Width, 0, 100)/100*float64(w) + 0.5)
	y1 := int(clamp(crop.Y+crop.Height, 0, 100)/100*float64(h) + 0.5)
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}
	return x0, y0, x1, y1
}

func shadeOutside(img *image.NRGBA, x0, y0, x1, y1 int, c color.NRGBA) {
	b := img.Bounds()
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			if x >= x0 && x < x1 && y >= y0 && y < y1 {
				continue
			}
			i := y*img.Stride + x*4
			a := uint32(c.A)
			img.Pix[i+0] = uint8((uint32(img.Pix[i+0])*(255-a) + uint32(c.R)*a) / 255)
			img.Pix[i+1] = uint8((uint32(img.Pix[i+1])*(255-a) + uint32(c.G)*a) / 255)
			img.Pix[i+2] = uint8((uint32(img.Pix[i+2])*(255-a) + uint32(c.B)*a) / 255)
		}
	}
}

func drawBox(img *image.NRGBA, x0, y0, x1, y1 int, c color.NRGBA, stroke int) {
	for s := 0; s < stroke; s++ {
		drawHLine(img, y0+s, x0, x1, c)
		drawHLine(img, y1-1-s, x0, x1, c)
		drawVLine(img, x0+s, y0, y1, c)
		drawVLine(img, x1-1-s, y0, y1, c)
	}
}

func drawHLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	if y < 0 || y >= img.Bounds().Dy() {
		return
	}
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if x1 <= 0 || x0 >= img.Bounds().Dx() {
		return
	}
	x0 = max(x0, 0)
	x1 = min(x1, img.Bounds().Dx())
	i := y*img.Stride + x0*4
	for x := x0; x < x1; x++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += 4
	}
}

func drawVLine(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	if x < 0 || x >= img.Bounds().Dx() {
		return
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	if y1 <= 0 || y0 >= img.Bounds().Dy() {
		return
	}
	y0 = max(y0, 0)
	y1 = min(y1, img.Bounds().Dy())
	i := y0*img.Stride + x*4
	for y := y0; y < y1; y++ {
		img.Pix[i+0] = c.R
		img.Pix[i+1] = c.G
		img.Pix[i+2] = c.B
		img.Pix[i+3] = c.A
		i += img.Stride
	}
}
