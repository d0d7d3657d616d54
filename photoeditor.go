// Package photoeditor crops images the way an on-screen editor does.
//
// A crop is chosen as percentages of the image as it is displayed. Exports are
// sampled from the full-resolution source but sized by the crop's extent in
// display pixels, so the same selection exports more pixels when the image is
// shown larger. The preview scale never changes exported pixels.
//
// Basic usage:
//
//	editor := photoeditor.New()
//	s := editor.NewSession()
//
//	if _, err := s.LoadFile(ctx, "photo.jpg"); err != nil {
//		log.Fatal(err)
//	}
//	s.SetDisplay(types.Dimensions{Width: 800, Height: 600})
//	s.SetCrop(types.CropRect{Unit: types.UnitPercent, X: 25, Y: 25, Width: 50, Height: 50})
//
//	res, err := s.ExportTo(ctx, session.DirSink{Dir: "./output"})
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Printf("Saved %s (%dx%d)\n", res.Name, res.Width, res.Height)
//
// The package consists of these components:
//
//  1. Source (pkg/source): decodes user-supplied bytes
//  2. Selector (pkg/selector): holds the crop rectangle and preview scale
//  3. Renderer (pkg/renderer): maps the crop to native pixels and rasterizes it
//  4. Codec (pkg/codec): encodes the output as PNG, WebP or JPEG
//  5. Preview (pkg/preview) and Cropper (pkg/cropper): on-screen rendering and crop suggestions
//  6. Session (pkg/session): ties them together for one image
package photoeditor

import (
	"context"
	"fmt"
	"strings"

	"github.com/menta2k/photo-editor/internal/config"
	"github.com/menta2k/photo-editor/pkg/codec"
	"github.com/menta2k/photo-editor/pkg/cropper"
	"github.com/menta2k/photo-editor/pkg/preview"
	"github.com/menta2k/photo-editor/pkg/renderer"
	"github.com/menta2k/photo-editor/pkg/selector"
	"github.com/menta2k/photo-editor/pkg/session"
	"github.com/menta2k/photo-editor/pkg/source"
	"github.com/menta2k/photo-editor/pkg/types"
)

// Version of the photo editor library
const Version = "1.0.0"

// Editor creates sessions that share one configuration
type Editor struct {
	config   *config.Config
	loader   *source.Loader
	renderer *renderer.Renderer
	preview  *preview.Renderer
	cropper  *cropper.SmartCropper
	encoder  *codec.Encoder
}

// New creates a new Editor with default configuration
func New() *Editor {
	e, err := NewWithConfig(config.Default())
	if err != nil {
		// the default configuration always validates
		panic(err)
	}
	return e
}

// NewWithConfig creates a new Editor with custom configuration
func NewWithConfig(cfg *config.Config) (*Editor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	previewFilter, err := preview.ParseFilter(cfg.Preview.Filter)
	if err != nil {
		return nil, err
	}
	prev, err := preview.NewWithConfig(preview.Config{
		Filter:     previewFilter,
		CacheSize:  cfg.Preview.CacheSize,
		ScaleRange: cfg.Selector.ScaleRange,
		MaxPixels:  cfg.Preview.MaxPixels,
	})
	if err != nil {
		return nil, err
	}

	cropFilter, err := preview.ParseFilter(cfg.Cropper.Filter)
	if err != nil {
		return nil, err
	}

	compression, err := codec.ParseCompressionLevel(cfg.Output.Compression)
	if err != nil {
		return nil, err
	}
	encoder, err := codec.NewEncoderWithOptions(codec.Options{
		Format:           cfg.Output.Format,
		CompressionLevel: compression,
		Quality:          cfg.Output.Quality,
		Lossless:         cfg.Output.Lossless,
	})
	if err != nil {
		return nil, err
	}

	return &Editor{
		config: cfg,
		loader: source.NewWithConfig(source.Config{
			SupportedFormats: cfg.Source.SupportedFormats,
			MaxPixels:        cfg.Source.MaxPixels,
		}),
		renderer: renderer.NewWithConfig(renderer.Config{
			Interpolator: cfg.Renderer.Interpolator,
			MaxPixels:    cfg.Renderer.MaxPixels,
		}),
		preview:  prev,
		cropper: cropper.NewWithConfig(cropper.CropConfig{
			Smart:   cfg.Cropper.Smart,
			Workers: cfg.Cropper.Workers,
			Filter:  cropFilter,
		}),
		encoder: encoder,
	}, nil
}

// Config returns the editor configuration
func (e *Editor) Config() *config.Config {
	return e.config
}

// NewSession starts an empty session. Each session has its own selection.
func (e *Editor) NewSession() *session.Session {
	return e.newSession(e.config.Output.FileName)
}

func (e *Editor) newSession(fileName string) *session.Session {
	return session.NewWithComponents(session.Components{
		Loader: e.loader,
		Selector: selector.NewWithState(selector.State{
			Crop:  types.FullCrop,
			Scale: e.config.Selector.DefaultScale,
		}),
		Renderer: e.renderer,
		Preview:  e.preview,
		Cropper:  e.cropper,
		Encoder:  e.encoder,
		FileName: fileName,
	})
}

// CropOptions describes a one-shot crop
type CropOptions struct {
	// Display is the layout size; zero uses the native size
	Display types.Dimensions
	// Crop is applied unless Suggest names an aspect ratio
	Crop    types.CropRect
	Suggest string
	Scale   float64
	// Preview also saves the scaled preview with the crop outlined
	Preview bool
	// FileName overrides the configured export name, without extension
	FileName string
}

// CropResult is the outcome of CropFile
type CropResult struct {
	Export      *session.Result
	Suggestion  *cropper.Suggestion
	PreviewName string
}

// CropFile loads an image file, crops it and saves the result to sink
func (e *Editor) CropFile(ctx context.Context, inputPath string, opts CropOptions, sink session.Sink) (*CropResult, error) {
	fileName := opts.FileName
	if fileName == "" {
		fileName = e.config.Output.FileName
	}
	s := e.newSession(fileName)

	img, err := s.LoadFile(ctx, inputPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}

	display := opts.Display
	if !display.Valid() {
		display = img.Native()
	}
	s.SetDisplay(display)
	if opts.Scale > 0 {
		s.SetScale(opts.Scale)
	}

	result := &CropResult{}
	if opts.Suggest != "" {
		ratio, err := cropper.LookupAspectRatio(opts.Suggest)
		if err != nil {
			return nil, err
		}
		suggestion, err := s.Suggest(ctx, ratio)
		if err != nil {
			return nil, err
		}
		result.Suggestion = &suggestion
	} else if opts.Crop != (types.CropRect{}) {
		s.SetCrop(opts.Crop)
	}

	res, err := s.ExportTo(ctx, sink)
	if err != nil {
		return nil, fmt.Errorf("failed to export %s: %w", inputPath, err)
	}
	result.Export = res

	if opts.Preview {
		name, err := e.savePreview(ctx, s, sink)
		if err != nil {
			return nil, err
		}
		result.PreviewName = name
	}

	return result, nil
}

func (e *Editor) savePreview(ctx context.Context, s *session.Session, sink session.Sink) (string, error) {
	img, err := s.PreviewWithOverlay()
	if err != nil {
		return "", fmt.Errorf("failed to render preview: %w", err)
	}
	data, err := e.encoder.EncodeBytes(img)
	if err != nil {
		return "", fmt.Errorf("%w: encoding preview: %v", types.ErrExportFailure, err)
	}

	name := previewName(s.FileName(), e.encoder.Extension())
	if err := sink.Save(ctx, name, data); err != nil {
		return "", fmt.Errorf("%w: saving %s: %v", types.ErrExportFailure, name, err)
	}
	return name, nil
}

func previewName(fileName, ext string) string {
	return strings.TrimSuffix(fileName, "."+ext) + "-preview." + ext
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
