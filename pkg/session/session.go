// Package session ties one loaded image to its crop selection and produces
// the exported bitmap.
//
// A Session is safe for concurrent use. Loads are last-write-wins: starting a
// load cancels any load still in flight, and only the newest one may commit.
// Exports are serialized so each call owns its output surface exclusively.
package session

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/google/uuid"

	"github.com/menta2k/photo-editor/internal/logging"
	"github.com/menta2k/photo-editor/pkg/codec"
	"github.com/menta2k/photo-editor/pkg/cropper"
	"github.com/menta2k/photo-editor/pkg/preview"
	"github.com/menta2k/photo-editor/pkg/renderer"
	"github.com/menta2k/photo-editor/pkg/selector"
	"github.com/menta2k/photo-editor/pkg/source"
	"github.com/menta2k/photo-editor/pkg/types"
)

// DefaultFileName is the suggested name for an exported image, without extension
const DefaultFileName = "edited-image"

// Components are the collaborators a Session drives. Nil fields get defaults.
type Components struct {
	Loader   *source.Loader
	Selector *selector.Selector
	Renderer *renderer.Renderer
	Preview  *preview.Renderer
	Cropper  *cropper.SmartCropper
	Encoder  *codec.Encoder
	// FileName is the export name without extension
	FileName string
}

// Session is one editing session
type Session struct {
	id       string
	fileName string

	loader   *source.Loader
	selector *selector.Selector
	renderer *renderer.Renderer
	preview  *preview.Renderer
	cropper  *cropper.SmartCropper
	encoder  *codec.Encoder

	mu      sync.RWMutex
	img     *source.Image
	display types.Dimensions
	gen     uint64
	cancel  context.CancelFunc

	exportMu sync.Mutex
}

// New creates a Session with default components
func New() *Session {
	return NewWithComponents(Components{})
}

// NewWithComponents creates a Session from the given collaborators
func NewWithComponents(c Components) *Session {
	if c.Loader == nil {
		c.Loader = source.New()
	}
	if c.Selector == nil {
		c.Selector = selector.New()
	}
	if c.Renderer == nil {
		c.Renderer = renderer.New()
	}
	if c.Preview == nil {
		c.Preview = preview.New()
	}
	if c.Cropper == nil {
		c.Cropper = cropper.New()
	}
	if c.Encoder == nil {
		c.Encoder = codec.NewEncoder()
	}
	if c.FileName == "" {
		c.FileName = DefaultFileName
	}

	return &Session{
		id:       uuid.NewString(),
		fileName: c.FileName,
		loader:   c.Loader,
		selector: c.Selector,
		renderer: c.Renderer,
		preview:  c.Preview,
		cropper:  c.Cropper,
		encoder:  c.Encoder,
	}
}

// ID identifies the session
func (s *Session) ID() string {
	return s.id
}

// Load decodes data and makes it the session's image. The crop and scale are
// kept. If a newer Load starts before this one finishes, this one returns
// ErrSuperseded and changes nothing. A failed load also leaves the previous
// image in place.
func (s *Session) Load(ctx context.Context, data []byte) (*source.Image, error) {
	ctx, gen := s.beginLoad(ctx)
	img, err := s.loader.Load(ctx, data)
	return s.commitLoad(gen, img, err)
}

// LoadFile is Load for a file on disk
func (s *Session) LoadFile(ctx context.Context, path string) (*source.Image, error) {
	ctx, gen := s.beginLoad(ctx)
	img, err := s.loader.LoadFile(ctx, path)
	return s.commitLoad(gen, img, err)
}

// SetImage installs an already decoded image, superseding any load in flight
func (s *Session) SetImage(img *source.Image) {
	_, gen := s.beginLoad(context.Background())
	s.commitLoad(gen, img, nil)
}

func (s *Session) beginLoad(ctx context.Context) (context.Context, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	s.gen++
	s.cancel = cancel
	return ctx, s.gen
}

func (s *Session) commitLoad(gen uint64, img *source.Image, err error) (*source.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if gen != s.gen {
		logging.Debugf("session %s: load %d superseded by %d", s.id, gen, s.gen)
		return nil, fmt.Errorf("load %d: %w", gen, types.ErrSuperseded)
	}
	s.cancel()
	s.cancel = nil

	if err != nil {
		logging.Debugf("session %s: load %d failed: %v", s.id, gen, err)
		return nil, err
	}

	s.img = img
	logging.Debugf("session %s: loaded %s image %vx%v (%s)",
		s.id, img.Format(), img.Native().Width, img.Native().Height, img.ID())
	return img, nil
}

// Image returns the loaded image, or nil
func (s *Session) Image() *source.Image {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.img
}

// Ready reports whether an export could run: an image is loaded and the
// display size is known
func (s *Session) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.img != nil && s.display.Valid()
}

// SetDisplay records the size the image is laid out at, before any preview
// scale. It is stored as given; an unusable size makes exports fail with
// ErrNotReady.
func (s *Session) SetDisplay(display types.Dimensions) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.display = display
}

// Display returns the recorded display size
func (s *Session) Display() types.Dimensions {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.display
}

// SetCrop replaces the crop selection
func (s *Session) SetCrop(crop types.CropRect) {
	s.selector.SetCrop(crop)
}

// SetScale sets the preview scale
func (s *Session) SetScale(scale float64) {
	s.selector.SetScale(scale)
}

// Crop returns the current crop selection
func (s *Session) Crop() types.CropRect {
	return s.selector.Crop()
}

// Scale returns the current preview scale
func (s *Session) Scale() float64 {
	return s.selector.Scale()
}

// Snapshot returns crop and scale as one consistent value
func (s *Session) Snapshot() selector.State {
	return s.selector.Snapshot()
}

func (s *Session) current() (*source.Image, types.Dimensions, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.img == nil {
		return nil, types.Dimensions{}, fmt.Errorf("%w: no image loaded", types.ErrNotReady)
	}
	return s.img, s.display, nil
}

// Suggest computes a crop for ratio and makes it the current selection
func (s *Session) Suggest(ctx context.Context, ratio cropper.AspectRatio) (cropper.Suggestion, error) {
	img, _, err := s.current()
	if err != nil {
		return cropper.Suggestion{}, err
	}

	suggestion, err := s.cropper.Suggest(ctx, img.Image(), ratio)
	if err != nil {
		return cropper.Suggestion{}, fmt.Errorf("failed to suggest crop: %w", err)
	}

	s.selector.SetCrop(suggestion.Crop)
	logging.Debugf("session %s: suggested %s crop %+v (smart=%t)", s.id, ratio.Name, suggestion.Crop, suggestion.Smart)
	return suggestion, nil
}

// Preview renders the image at display size times the current scale
func (s *Session) Preview() (*preview.Frame, error) {
	img, display, err := s.current()
	if err != nil {
		return nil, err
	}
	return s.preview.Render(img, display, s.selector.Scale())
}

// PreviewWithOverlay is Preview with the crop selection drawn on top
func (s *Session) PreviewWithOverlay() (image.Image, error) {
	frame, err := s.Preview()
	if err != nil {
		return nil, err
	}
	return preview.Overlay(frame.Image, s.selector.Crop()), nil
}

// Render extracts the current crop. The result depends on the display size
// and crop only; the preview scale plays no part.
func (s *Session) Render() (*renderer.Output, error) {
	img, display, err := s.current()
	if err != nil {
		return nil, err
	}
	return s.renderer.Render(img.Image(), s.selector.Crop(), display)
}

// Result is an encoded export
type Result struct {
	Name        string
	ContentType string
	Data        []byte
	Width       int
	Height      int
	Geometry    renderer.Geometry
}

// FileName returns the suggested name for exported images
func (s *Session) FileName() string {
	return s.fileName + "." + s.encoder.Extension()
}

// Export renders the current crop and encodes it
func (s *Session) Export(ctx context.Context) (*Result, error) {
	s.exportMu.Lock()
	defer s.exportMu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out, err := s.Render()
	if err != nil {
		return nil, err
	}

	data, err := s.encoder.EncodeBytes(out.Image)
	if err != nil {
		return nil, fmt.Errorf("%w: encoding %s: %v", types.ErrExportFailure, s.encoder.Extension(), err)
	}

	logging.Debugf("session %s: exported %dx%d from source rect %+v (%d bytes)",
		s.id, out.Geometry.Size.X, out.Geometry.Size.Y, out.Geometry.Source, len(data))

	return &Result{
		Name:        s.FileName(),
		ContentType: s.encoder.ContentType(),
		Data:        data,
		Width:       out.Geometry.Size.X,
		Height:      out.Geometry.Size.Y,
		Geometry:    out.Geometry,
	}, nil
}

// ExportTo exports and hands the result to sink. The sink is not called when
// the export fails.
func (s *Session) ExportTo(ctx context.Context, sink Sink) (*Result, error) {
	res, err := s.Export(ctx)
	if err != nil {
		return nil, err
	}
	if err := sink.Save(ctx, res.Name, res.Data); err != nil {
		return nil, fmt.Errorf("%w: saving %s: %v", types.ErrExportFailure, res.Name, err)
	}
	return res, nil
}
