package renderer

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	xdraw "golang.org/x/image/draw"

	"github.com/menta2k/photo-editor/pkg/types"
)

// createQuadrantImage fills each quadrant with a distinct opaque color
func createQuadrantImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			var c color.NRGBA
			switch {
			case x < width/2 && y < height/2:
				c = color.NRGBA{255, 0, 0, 255}
			case x >= width/2 && y < height/2:
				c = color.NRGBA{0, 255, 0, 255}
			case x < width/2:
				c = color.NRGBA{0, 0, 255, 255}
			default:
				c = color.NRGBA{255, 255, 0, 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func createGradientImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x * 255 / width), uint8(y * 255 / height), 128, 255})
		}
	}
	return img
}

func TestComputeGeometry(t *testing.T) {
	display := types.Dimensions{Width: 200, Height: 100}
	native := types.Dimensions{Width: 400, Height: 200}
	crop := types.CropRect{Unit: types.UnitPercent, X: 25, Y: 25, Width: 50, Height: 50}

	g := Compute(crop, display, native)

	assert.Equal(t, types.Rect{X: 50, Y: 25, Width: 100, Height: 50}, g.Display)
	assert.Equal(t, types.Rect{X: 100, Y: 50, Width: 200, Height: 100}, g.Source)
	assert.Equal(t, image.Pt(100, 50), g.Size)
}

func TestComputeTruncatesSize(t *testing.T) {
	g := Compute(types.CropRect{Width: 33.3, Height: 33.3}, types.Dimensions{Width: 300, Height: 150}, types.Dimensions{Width: 300, Height: 150})
	assert.Equal(t, image.Pt(99, 49), g.Size)
	assert.InDelta(t, 99.9, g.Display.Width, 1e-9)
}

func TestNormalize(t *testing.T) {
	display := types.Dimensions{Width: 200, Height: 100}

	tests := []struct {
		name string
		in   types.CropRect
		want types.CropRect
	}{
		{"inside", types.CropRect{X: 25, Y: 25, Width: 50, Height: 50}, types.CropRect{Unit: types.UnitPercent, X: 25, Y: 25, Width: 50, Height: 50}},
		{"past edge", types.CropRect{X: 90, Y: 90, Width: 50, Height: 50}, types.CropRect{Unit: types.UnitPercent, X: 90, Y: 90, Width: 10, Height: 10}},
		{"negative origin", types.CropRect{X: -10, Y: -5, Width: 30, Height: 30}, types.CropRect{Unit: types.UnitPercent, X: 0, Y: 0, Width: 30, Height: 30}},
		{"negative extent", types.CropRect{X: 10, Y: 10, Width: -5, Height: 20}, types.CropRect{Unit: types.UnitPercent, X: 10, Y: 10, Width: 0, Height: 20}},
		{"pixels", types.CropRect{Unit: types.UnitPixel, X: 100, Y: 50, Width: 200, Height: 50}, types.CropRect{Unit: types.UnitPercent, X: 50, Y: 50, Width: 50, Height: 50}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.in, display)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := Normalize(types.CropRect{X: math.NaN(), Width: 10, Height: 10}, display)
	assert.ErrorIs(t, err, types.ErrInvalidCropGeometry)
}

func TestRenderOutputSizeTracksDisplay(t *testing.T) {
	r := New()
	src := createQuadrantImage(400, 200)
	crop := types.CropRect{Unit: types.UnitPercent, X: 25, Y: 25, Width: 50, Height: 50}

	out, err := r.Render(src, crop, types.Dimensions{Width: 200, Height: 100})
	require.NoError(t, err)
	assert.Equal(t, 100, out.Image.Bounds().Dx())
	assert.Equal(t, 50, out.Image.Bounds().Dy())

	// the same percentage crop on a larger display exports more pixels
	out, err = r.Render(src, crop, types.Dimensions{Width: 800, Height: 400})
	require.NoError(t, err)
	assert.Equal(t, image.Pt(400, 200), out.Image.Bounds().Size())
}

func TestRenderFullCropIsResampleOfWholeImage(t *testing.T) {
	for _, name := range []string{NearestNeighbor, ApproxBiLinear, BiLinear, CatmullRom} {
		t.Run(name, func(t *testing.T) {
			r := NewWithConfig(Config{Interpolator: name})
			src := createGradientImage(400, 200)

			out, err := r.Render(src, types.FullCrop, types.Dimensions{Width: 200, Height: 100})
			require.NoError(t, err)

			want := image.NewNRGBA(image.Rect(0, 0, 200, 100))
			interpolators[name].Scale(want, want.Bounds(), src, src.Bounds(), xdraw.Src, nil)

			assert.Equal(t, want.Bounds(), out.Image.Bounds())
			assert.Equal(t, want.Pix, out.Image.Pix)
		})
	}
}

func TestRenderSamplesSourceRegion(t *testing.T) {
	r := New()
	src := createQuadrantImage(400, 200)
	display := types.Dimensions{Width: 200, Height: 100}

	tests := []struct {
		name string
		crop types.CropRect
		want color.NRGBA
	}{
		{"top left", types.CropRect{X: 0, Y: 0, Width: 50, Height: 50}, color.NRGBA{255, 0, 0, 255}},
		{"top right", types.CropRect{X: 50, Y: 0, Width: 50, Height: 50}, color.NRGBA{0, 255, 0, 255}},
		{"bottom left", types.CropRect{X: 0, Y: 50, Width: 50, Height: 50}, color.NRGBA{0, 0, 255, 255}},
		{"bottom right", types.CropRect{X: 50, Y: 50, Width: 50, Height: 50}, color.NRGBA{255, 255, 0, 255}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := r.Render(src, tt.crop, display)
			require.NoError(t, err)
			b := out.Image.Bounds()
			for _, p := range []image.Point{{0, 0}, {b.Dx() - 1, 0}, {b.Dx() / 2, b.Dy() / 2}, {b.Dx() - 1, b.Dy() - 1}} {
				assert.Equal(t, tt.want, out.Image.NRGBAAt(p.X, p.Y), "pixel %v", p)
			}
		})
	}
}

func TestRenderFractionalCropCoversSurface(t *testing.T) {
	r := New()
	src := image.NewNRGBA(image.Rect(0, 0, 400, 200))
	fill := color.NRGBA{10, 200, 30, 255}
	for i := 0; i < len(src.Pix); i += 4 {
		src.Pix[i], src.Pix[i+1], src.Pix[i+2], src.Pix[i+3] = fill.R, fill.G, fill.B, fill.A
	}

	crop := types.CropRect{X: 10.5, Y: 12.25, Width: 33.3, Height: 41.7}
	out, err := r.Render(src, crop, types.Dimensions{Width: 300, Height: 150})
	require.NoError(t, err)
	assert.Equal(t, image.Pt(99, 62), out.Image.Bounds().Size())

	for i := 0; i < len(out.Image.Pix); i += 4 {
		px := out.Image.Pix[i : i+4]
		if !assert.InDelta(t, fill.R, px[0], 1) || !assert.InDelta(t, fill.G, px[1], 1) ||
			!assert.InDelta(t, fill.B, px[2], 1) || !assert.InDelta(t, 255, px[3], 1) {
			t.FailNow()
		}
	}
}

func TestRenderOffsetBounds(t *testing.T) {
	r := New()
	full := createQuadrantImage(400, 200)
	// a sub-image keeps its parent's coordinates
	sub := full.SubImage(image.Rect(200, 100, 400, 200))

	out, err := r.Render(sub, types.CropRect{X: 0, Y: 0, Width: 50, Height: 50}, types.Dimensions{Width: 100, Height: 50})
	require.NoError(t, err)
	assert.Equal(t, color.NRGBA{255, 255, 0, 255}, out.Image.NRGBAAt(0, 0))
}

func TestRenderClampsPastEdge(t *testing.T) {
	r := New()
	src := createQuadrantImage(400, 200)

	out, err := r.Render(src, types.CropRect{X: 90, Y: 90, Width: 50, Height: 50}, types.Dimensions{Width: 200, Height: 100})
	require.NoError(t, err)
	assert.Equal(t, image.Pt(20, 10), out.Image.Bounds().Size())
	assert.Equal(t, types.Rect{X: 360, Y: 180, Width: 40, Height: 20}, out.Geometry.Source)
	assert.Equal(t, color.NRGBA{255, 255, 0, 255}, out.Image.NRGBAAt(19, 9))
}

func TestRenderErrors(t *testing.T) {
	r := New()
	src := createQuadrantImage(40, 20)
	display := types.Dimensions{Width: 200, Height: 100}

	_, err := r.Render(nil, types.FullCrop, display)
	assert.True(t, errors.Is(err, types.ErrNotReady))

	_, err = r.Render(src, types.FullCrop, types.Dimensions{})
	assert.ErrorIs(t, err, types.ErrNotReady)

	_, err = r.Render(src, types.CropRect{X: 10, Y: 10, Width: 0, Height: 50}, display)
	assert.ErrorIs(t, err, types.ErrInvalidCropGeometry)

	_, err = r.Render(src, types.CropRect{X: 10, Y: 10, Width: -20, Height: 50}, display)
	assert.ErrorIs(t, err, types.ErrInvalidCropGeometry)

	// 0.4% of 200px is under one pixel
	_, err = r.Render(src, types.CropRect{X: 0, Y: 0, Width: 0.4, Height: 50}, display)
	assert.ErrorIs(t, err, types.ErrInvalidCropGeometry)

	_, err = r.Render(src, types.CropRect{X: 120, Y: 0, Width: 10, Height: 50}, display)
	assert.ErrorIs(t, err, types.ErrInvalidCropGeometry)
}

func TestRenderRejectsOversizedOutput(t *testing.T) {
	src := createQuadrantImage(40, 20)

	_, err := New().Render(src, types.FullCrop, types.Dimensions{Width: 1e9, Height: 1e9})
	assert.ErrorIs(t, err, types.ErrInvalidCropGeometry)

	_, err = New().Plan(types.FullCrop, types.Dimensions{Width: 1e300, Height: 1e300}, types.Dimensions{Width: 40, Height: 20})
	assert.ErrorIs(t, err, types.ErrInvalidCropGeometry)

	r := NewWithConfig(Config{Interpolator: NearestNeighbor, MaxPixels: 100})
	_, err = r.Render(src, types.FullCrop, types.Dimensions{Width: 20, Height: 10})
	assert.ErrorIs(t, err, types.ErrInvalidCropGeometry)

	// a smaller crop of the same display fits the limit
	out, err := r.Render(src, types.CropRect{X: 0, Y: 0, Width: 50, Height: 50}, types.Dimensions{Width: 20, Height: 10})
	require.NoError(t, err)
	assert.Equal(t, image.Pt(10, 5), out.Image.Bounds().Size())
}

func TestNewWithConfigFallback(t *testing.T) {
	r := NewWithConfig(Config{Interpolator: "sinc"})
	assert.Equal(t, BiLinear, r.config.Interpolator)
	assert.Equal(t, DefaultMaxPixels, r.config.MaxPixels)
	assert.True(t, ValidInterpolator("Catmull-Rom"))
	assert.False(t, ValidInterpolator("sinc"))
}

func BenchmarkRender(b *testing.B) {
	r := New()
	src := createGradientImage(4000, 3000)
	crop := types.CropRect{X: 12.5, Y: 10, Width: 60, Height: 70}
	display := types.Dimensions{Width: 1200, Height: 900}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		r.Render(src, crop, display)
	}
}
