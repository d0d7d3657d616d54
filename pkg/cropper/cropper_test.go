package cropper

import (
	"context"
	"errors"
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/photo-editor/pkg/types"
)

// createTestImage creates a simple test image
func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))

	// Create a pattern with some high-contrast areas
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x > width/3 && x < 2*width/3 && y > height/3 && y < 2*height/3 {
				// Central bright region (subject)
				img.Set(x, y, color.RGBA{255, 255, 255, 255})
			} else {
				// Background
				img.Set(x, y, color.RGBA{64, 64, 64, 255})
			}
		}
	}

	return img
}

func TestNew(t *testing.T) {
	cropper := New()
	require.NotNil(t, cropper)
	assert.True(t, cropper.config.Smart)
	assert.Equal(t, 4, cropper.config.Workers)
}

func TestNewWithConfigClampsWorkers(t *testing.T) {
	cropper := NewWithConfig(CropConfig{Workers: -3})
	assert.Equal(t, 1, cropper.config.Workers)
	assert.False(t, cropper.config.Smart)
}

func TestCommonAspectRatios(t *testing.T) {
	ratios := CommonAspectRatios()
	require.Len(t, ratios, 6)
	assert.Contains(t, ratios, Square)

	r, err := LookupAspectRatio("WideScreen")
	require.NoError(t, err)
	assert.Equal(t, Widescreen, r)

	_, err = LookupAspectRatio("panorama")
	assert.Error(t, err)
}

func TestCenterRegion(t *testing.T) {
	tests := []struct {
		name   string
		bounds image.Rectangle
		ratio  AspectRatio
		want   image.Rectangle
	}{
		{"square in landscape", image.Rect(0, 0, 400, 200), Square, image.Rect(100, 0, 300, 200)},
		{"widescreen in square", image.Rect(0, 0, 160, 160), Widescreen, image.Rect(0, 35, 160, 125)},
		{"same ratio", image.Rect(0, 0, 400, 300), Landscape, image.Rect(0, 0, 400, 300)},
		{"offset bounds", image.Rect(10, 20, 110, 70), Square, image.Rect(35, 20, 85, 70)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CenterRegion(tt.bounds, tt.ratio))
		})
	}
}

func TestSuggestCentered(t *testing.T) {
	cropper := NewWithConfig(CropConfig{})

	s, err := cropper.Suggest(context.Background(), createTestImage(400, 200), Square)
	require.NoError(t, err)
	assert.False(t, s.Smart)
	assert.Equal(t, image.Rect(100, 0, 300, 200), s.Region)
	assert.Equal(t, types.CropRect{Unit: types.UnitPercent, X: 25, Y: 0, Width: 50, Height: 100}, s.Crop)
}

func TestSuggestSmart(t *testing.T) {
	cropper := New()
	img := createTestImage(300, 150)

	s, err := cropper.Suggest(context.Background(), img, Square)
	require.NoError(t, err)

	assert.True(t, s.Region.In(img.Bounds()), "region %v outside image", s.Region)
	assert.False(t, s.Region.Empty())
	assert.InDelta(t, 1.0, float64(s.Region.Dx())/float64(s.Region.Dy()), 0.05)

	crop := s.Crop
	assert.Equal(t, types.UnitPercent, crop.Unit)
	assert.GreaterOrEqual(t, crop.X, 0.0)
	assert.GreaterOrEqual(t, crop.Y, 0.0)
	assert.LessOrEqual(t, crop.X+crop.Width, 100.0+types.Epsilon)
	assert.LessOrEqual(t, crop.Y+crop.Height, 100.0+types.Epsilon)
}

func TestSuggestErrors(t *testing.T) {
	cropper := New()

	_, err := cropper.Suggest(context.Background(), nil, Square)
	assert.True(t, errors.Is(err, types.ErrNotReady))

	_, err = cropper.Suggest(context.Background(), createTestImage(10, 10), AspectRatio{0, 1, "bad"})
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = cropper.Suggest(ctx, createTestImage(10, 10), Square)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSuggestMany(t *testing.T) {
	cropper := NewWithConfig(CropConfig{Workers: 2})
	ratios := CommonAspectRatios()

	results, err := cropper.SuggestMany(context.Background(), createTestImage(320, 240), ratios)
	require.NoError(t, err)
	require.Len(t, results, len(ratios))

	for i, s := range results {
		assert.Equal(t, ratios[i], s.Ratio)
		assert.False(t, s.Region.Empty(), s.Ratio.Name)
	}
}

func TestSuggestManyError(t *testing.T) {
	_, err := New().SuggestMany(context.Background(), nil, []AspectRatio{Square, Story})
	assert.ErrorIs(t, err, types.ErrNotReady)
}

func BenchmarkSuggest(b *testing.B) {
	cropper := New()
	img := createTestImage(1920, 1080)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		cropper.Suggest(context.Background(), img, Square)
	}
}
