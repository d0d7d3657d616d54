package source

import (
	"context"
	"fmt"
	"image"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/menta2k/photo-editor/pkg/codec"
	"github.com/menta2k/photo-editor/pkg/types"
)

// Image is a decoded source image held by an editing session
type Image struct {
	id     string
	img    image.Image
	format string
	native types.Dimensions
}

// ID uniquely identifies this load of the image
func (i *Image) ID() string { return i.id }

// Image returns the decoded bitmap
func (i *Image) Image() image.Image { return i.img }

// Format returns the decoder name, e.g. "png" or "jpeg"
func (i *Image) Format() string { return i.format }

// Native returns the intrinsic pixel size
func (i *Image) Native() types.Dimensions { return i.native }

// Loader decodes user-supplied bytes into source images
type Loader struct {
	config Config
}

// Config holds configuration for the loader
type Config struct {
	SupportedFormats []string
	// MaxPixels rejects images whose header declares more pixels; 0 disables the check
	MaxPixels int
}

// DefaultConfig accepts every format the codec can decode
func DefaultConfig() Config {
	return Config{
		SupportedFormats: []string{"jpg", "jpeg", "png", "gif", "webp", "bmp", "tiff"},
		MaxPixels:        100_000_000,
	}
}

// New creates a new Loader with default configuration
func New() *Loader {
	return &Loader{config: DefaultConfig()}
}

// NewWithConfig creates a new Loader with custom configuration
func NewWithConfig(config Config) *Loader {
	return &Loader{config: config}
}

// Load decodes data. Any failure wraps types.ErrDecodeFailure.
func (l *Loader) Load(ctx context.Context, data []byte) (*Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", types.ErrDecodeFailure)
	}

	cfg, format, err := codec.DecodeConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrDecodeFailure, err)
	}
	if !l.isFormatSupported(format) {
		return nil, fmt.Errorf("%w: unsupported image format: %s", types.ErrDecodeFailure, format)
	}
	if l.config.MaxPixels > 0 && cfg.Width*cfg.Height > l.config.MaxPixels {
		return nil, fmt.Errorf("%w: image too large: %dx%d (maximum: %d pixels)",
			types.ErrDecodeFailure, cfg.Width, cfg.Height, l.config.MaxPixels)
	}

	img, _, err := codec.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrDecodeFailure, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := ValidateImage(img); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrDecodeFailure, err)
	}

	return &Image{
		id:     uuid.NewString(),
		img:    img,
		format: format,
		native: GetImageInfo(img).Native(),
	}, nil
}

// LoadFile reads and decodes an image file
func (l *Loader) LoadFile(ctx context.Context, path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image file: %w", err)
	}
	return l.Load(ctx, data)
}

// FromImage wraps an already decoded image
func FromImage(img image.Image, format string) (*Image, error) {
	if img == nil {
		return nil, fmt.Errorf("%w: nil image", types.ErrDecodeFailure)
	}
	if err := ValidateImage(img); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrDecodeFailure, err)
	}
	return &Image{
		id:     uuid.NewString(),
		img:    img,
		format: format,
		native: GetImageInfo(img).Native(),
	}, nil
}

// ImageInfo contains basic image metadata
type ImageInfo struct {
	Width       int
	Height      int
	AspectRatio float64
	Area        int
}

// Native returns the info as native dimensions
func (i ImageInfo) Native() types.Dimensions {
	return types.Dimensions{Width: float64(i.Width), Height: float64(i.Height)}
}

// GetImageInfo returns basic information about an image
func GetImageInfo(img image.Image) ImageInfo {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	info := ImageInfo{
		Width:  width,
		Height: height,
		Area:   width * height,
	}
	if height > 0 {
		info.AspectRatio = float64(width) / float64(height)
	}
	return info
}

// ValidateImage checks that an image has at least one pixel
func ValidateImage(img image.Image) error {
	bounds := img.Bounds()
	if bounds.Dx() < 1 || bounds.Dy() < 1 {
		return fmt.Errorf("image has no pixels: %dx%d", bounds.Dx(), bounds.Dy())
	}
	return nil
}

func (l *Loader) isFormatSupported(format string) bool {
	for _, supported := range l.config.SupportedFormats {
		if strings.EqualFold(format, supported) {
			return true
		}
	}
	return false
}
