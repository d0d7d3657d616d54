// Package cropper proposes an initial crop rectangle for a target aspect ratio.
//
// Suggestions are content aware: the best region is located with smartcrop on
// the native image and returned as a percentage crop, which holds for any
// display size because the displayed image keeps the native aspect ratio.
package cropper

import (
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/muesli/smartcrop"
	"golang.org/x/sync/errgroup"

	"github.com/menta2k/photo-editor/pkg/types"
)

// AspectRatio represents common aspect ratios
type AspectRatio struct {
	Width  int
	Height int
	Name   string
}

// Ratio returns width over height
func (a AspectRatio) Ratio() float64 {
	return float64(a.Width) / float64(a.Height)
}

// Common aspect ratios
var (
	Square     = AspectRatio{1, 1, "square"}
	Portrait   = AspectRatio{3, 4, "portrait"}
	Landscape  = AspectRatio{4, 3, "landscape"}
	Widescreen = AspectRatio{16, 9, "widescreen"}
	Instagram  = AspectRatio{4, 5, "instagram"}
	Story      = AspectRatio{9, 16, "story"}
)

// CommonAspectRatios returns a list of commonly used aspect ratios
func CommonAspectRatios() []AspectRatio {
	return []AspectRatio{Square, Portrait, Landscape, Widescreen, Instagram, Story}
}

// LookupAspectRatio finds a common ratio by name
func LookupAspectRatio(name string) (AspectRatio, error) {
	for _, r := range CommonAspectRatios() {
		if strings.EqualFold(r.Name, name) {
			return r, nil
		}
	}
	return AspectRatio{}, fmt.Errorf("unknown aspect ratio: %s", name)
}

// CropConfig holds configuration for crop suggestions
type CropConfig struct {
	// Smart enables content-aware placement; otherwise suggestions are centered
	Smart bool
	// Workers bounds concurrent analyses in SuggestMany
	Workers int
	Filter  imaging.ResampleFilter
}

// SmartCropper suggests crops
type SmartCropper struct {
	config   CropConfig
	analyzer smartcrop.Analyzer
}

// New creates a new SmartCropper with default configuration
func New() *SmartCropper {
	return NewWithConfig(CropConfig{
		Smart:   true,
		Workers: 4,
		Filter:  imaging.Lanczos,
	})
}

// NewWithConfig creates a new SmartCropper with custom configuration
func NewWithConfig(config CropConfig) *SmartCropper {
	if config.Workers < 1 {
		config.Workers = 1
	}
	return &SmartCropper{
		config:   config,
		analyzer: smartcrop.NewAnalyzer(&resizer{filter: config.Filter}),
	}
}

// Suggestion is a proposed crop
type Suggestion struct {
	Ratio AspectRatio
	// Crop is in percent of the image and can be passed straight to a selector
	Crop types.CropRect
	// Region is the same area in native pixels
	Region image.Rectangle
	Smart  bool
}

// Suggest proposes the best crop of img for ratio
func (c *SmartCropper) Suggest(ctx context.Context, img image.Image, ratio AspectRatio) (Suggestion, error) {
	if img == nil {
		return Suggestion{}, fmt.Errorf("%w: no source image", types.ErrNotReady)
	}
	if ratio.Width <= 0 || ratio.Height <= 0 {
		return Suggestion{}, fmt.Errorf("invalid aspect ratio %d:%d", ratio.Width, ratio.Height)
	}
	if err := ctx.Err(); err != nil {
		return Suggestion{}, err
	}

	bounds := img.Bounds()
	region := CenterRegion(bounds, ratio)
	smart := false

	if c.config.Smart {
		found, err := c.findBestCrop(ctx, img, ratio)
		if err != nil {
			if ctx.Err() != nil {
				return Suggestion{}, ctx.Err()
			}
			// keep the centered region
		} else if !found.Empty() {
			region = found.Intersect(bounds)
			smart = true
		}
	}

	return Suggestion{
		Ratio:  ratio,
		Crop:   regionToPercent(region, bounds),
		Region: region,
		Smart:  smart,
	}, nil
}

// SuggestMany proposes a crop for each ratio, analyzing them concurrently.
// Results keep the order of ratios.
func (c *SmartCropper) SuggestMany(ctx context.Context, img image.Image, ratios []AspectRatio) ([]Suggestion, error) {
	results := make([]Suggestion, len(ratios))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(c.config.Workers)
	for i, ratio := range ratios {
		i, ratio := i, ratio
		g.Go(func() error {
			s, err := c.Suggest(ctx, img, ratio)
			if err != nil {
				return fmt.Errorf("failed to suggest %s: %w", ratio.Name, err)
			}
			results[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// findBestCrop runs the analyzer, which has no context support, in a goroutine
func (c *SmartCropper) findBestCrop(ctx context.Context, img image.Image, ratio AspectRatio) (image.Rectangle, error) {
	type cropResult struct {
		crop image.Rectangle
		err  error
	}
	resultChan := make(chan cropResult, 1)

	go func() {
		crop, err := c.analyzer.FindBestCrop(img, ratio.Width, ratio.Height)
		resultChan <- cropResult{crop: crop, err: err}
	}()

	select {
	case <-ctx.Done():
		return image.Rectangle{}, ctx.Err()
	case result := <-resultChan:
		if result.err != nil {
			return image.Rectangle{}, fmt.Errorf("finding best crop: %w", result.err)
		}
		return result.crop, nil
	}
}

// CenterRegion returns the largest region of the given ratio centered in bounds
func CenterRegion(bounds image.Rectangle, ratio AspectRatio) image.Rectangle {
	width, height := bounds.Dx(), bounds.Dy()
	target := ratio.Ratio()

	var cropWidth, cropHeight int
	if target > float64(width)/float64(height) {
		// Target is wider, constrain by width
		cropWidth = width
		cropHeight = int(float64(width) / target)
	} else {
		// Target is taller, constrain by height
		cropHeight = height
		cropWidth = int(float64(height) * target)
	}
	if cropWidth < 1 {
		cropWidth = 1
	}
	if cropHeight < 1 {
		cropHeight = 1
	}

	x := bounds.Min.X + (width-cropWidth)/2
	y := bounds.Min.Y + (height-cropHeight)/2
	return image.Rect(x, y, x+cropWidth, y+cropHeight)
}

func regionToPercent(region, bounds image.Rectangle) types.CropRect {
	w, h := float64(bounds.Dx()), float64(bounds.Dy())
	return types.CropRect{
		Unit:   types.UnitPercent,
		X:      float64(region.Min.X-bounds.Min.X) * 100 / w,
		Y:      float64(region.Min.Y-bounds.Min.Y) * 100 / h,
		Width:  float64(region.Dx()) * 100 / w,
		Height: float64(region.Dy()) * 100 / h,
	}
}

// resizer lets smartcrop downscale with imaging
type resizer struct {
	filter imaging.ResampleFilter
}

func (r *resizer) Resize(img image.Image, width, height uint) image.Image {
	return imaging.Resize(img, int(width), int(height), r.filter)
}
