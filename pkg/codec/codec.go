// Package codec decodes user-supplied image bytes and encodes rendered crops.
package codec

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"io"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// Supported output formats
const (
	FormatPNG  = "png"
	FormatWebP = "webp"
	FormatJPEG = "jpg"
)

// Decode decodes image bytes, applying EXIF orientation so the result has the
// same natural size a browser reports. It returns the detected format name.
func Decode(data []byte) (image.Image, string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err == nil {
		img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
		if err == nil {
			return img, format, nil
		}
	}

	// Fallback: explicit WebP decode
	if img, werr := webp.Decode(bytes.NewReader(data)); werr == nil {
		return img, FormatWebP, nil
	}

	if err == nil {
		err = fmt.Errorf("image: unknown or unsupported format")
	}
	return nil, "", err
}

// DecodeConfig reads the format and size from the image header only
func DecodeConfig(data []byte) (image.Config, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err == nil {
		return cfg, format, nil
	}
	if wcfg, werr := webp.DecodeConfig(bytes.NewReader(data)); werr == nil {
		return wcfg, FormatWebP, nil
	}
	return image.Config{}, "", err
}

// Options controls how images are encoded
type Options struct {
	Format           string
	CompressionLevel png.CompressionLevel
	Quality          int
	Lossless         bool
}

// DefaultOptions is lossless PNG, the editor's export format
var DefaultOptions = Options{
	Format:           FormatPNG,
	CompressionLevel: png.DefaultCompression,
	Quality:          100,
	Lossless:         true,
}

// Encoder writes images in a configured format
type Encoder struct {
	opts Options
}

// NewEncoder creates an Encoder with the default PNG options
func NewEncoder() *Encoder {
	return &Encoder{opts: DefaultOptions}
}

// NewEncoderWithOptions creates an Encoder with custom options
func NewEncoderWithOptions(opts Options) (*Encoder, error) {
	opts.Format = NormalizeFormat(opts.Format)
	if !ValidFormat(opts.Format) {
		return nil, fmt.Errorf("unsupported output format: %s", opts.Format)
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = DefaultOptions.Quality
	}
	return &Encoder{opts: opts}, nil
}

// Options returns the encoder options
func (e *Encoder) Options() Options {
	return e.opts
}

// Encode writes img to w
func (e *Encoder) Encode(w io.Writer, img image.Image) error {
	switch e.opts.Format {
	case FormatWebP:
		return webp.Encode(w, img, &webp.Options{Lossless: e.opts.Lossless, Quality: float32(e.opts.Quality), Exact: e.opts.Lossless})
	case FormatJPEG:
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(e.opts.Quality))
	default:
		enc := png.Encoder{CompressionLevel: e.opts.CompressionLevel}
		return enc.Encode(w, img)
	}
}

// EncodeBytes encodes img into a byte slice
func (e *Encoder) EncodeBytes(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := e.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Extension returns the file extension for the encoder's format, without the dot
func (e *Encoder) Extension() string {
	return e.opts.Format
}

// ContentType returns the media type for the encoder's format
func (e *Encoder) ContentType() string {
	switch e.opts.Format {
	case FormatWebP:
		return "image/webp"
	case FormatJPEG:
		return "image/jpeg"
	default:
		return "image/png"
	}
}

// NormalizeFormat lower-cases a format name and folds aliases
func NormalizeFormat(format string) string {
	f := strings.TrimPrefix(strings.ToLower(strings.TrimSpace(format)), ".")
	switch f {
	case "", "png":
		return FormatPNG
	case "jpeg", "jpg":
		return FormatJPEG
	}
	return f
}

// ValidFormat reports whether format can be encoded
func ValidFormat(format string) bool {
	switch NormalizeFormat(format) {
	case FormatPNG, FormatWebP, FormatJPEG:
		return true
	}
	return false
}

// ParseCompressionLevel maps a config name onto a PNG compression level
func ParseCompressionLevel(name string) (png.CompressionLevel, error) {
	switch strings.ToLower(name) {
	case "", "default":
		return png.DefaultCompression, nil
	case "none":
		return png.NoCompression, nil
	case "speed", "fast":
		return png.BestSpeed, nil
	case "best":
		return png.BestCompression, nil
	}
	return 0, fmt.Errorf("unknown png compression level: %s", name)
}
