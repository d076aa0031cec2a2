package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/spf13/afero"
)

// Format is an output container format.
type Format = imaging.Format

// Supported output formats.
const (
	JPEG = imaging.JPEG
	PNG  = imaging.PNG
	GIF  = imaging.GIF
	TIFF = imaging.TIFF
	BMP  = imaging.BMP
)

// Default encoding parameters.
const (
	DefaultQuality = 85
)

// ParseFormat resolves a case-insensitive format identifier such as "JPEG",
// "jpg", "png", "tiff" or "bmp".
//
// # Errors
//
//   - Returns ErrUnsupportedFormat for anything else, including formats that
//     can be decoded but not encoded (WebP)
func ParseFormat(name string) (Format, error) {
	f, err := imaging.FormatFromExtension(strings.TrimSpace(name))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedFormat, name)
	}
	return f, nil
}

// SupportsAlpha reports whether f can store an alpha channel. GIF is treated
// as opaque because its encoder quantizes to a palette without a transparent
// entry.
func SupportsAlpha(f Format) bool {
	switch f {
	case PNG, TIFF:
		return true
	default:
		return false
	}
}

// EncodeOptions controls Encode and EncodeAndSave.
type EncodeOptions struct {
	// Format is the output container. The zero value is JPEG.
	Format Format

	// Quality is the JPEG quality, 1-100. Zero selects DefaultQuality.
	// Other formats ignore it.
	Quality int

	// Optimize selects the smallest output the encoder can produce. It maps
	// to best compression for PNG; other formats ignore it.
	Optimize bool
}

// DefaultEncodeOptions returns JPEG at DefaultQuality with Optimize set.
func DefaultEncodeOptions() EncodeOptions {
	return EncodeOptions{Format: JPEG, Quality: DefaultQuality, Optimize: true}
}

// Encode writes img to w in the requested format.
//
// If the format cannot store alpha and img is not fully opaque, img is first
// alpha-composited onto a white background so the output is fully opaque.
//
// # Errors
//
//   - Returns ErrEmptyImage if img has no pixels
//   - Returns ErrUnsupportedFormat if opts.Format is not a known format
//   - Returns the encoder or writer error otherwise
func Encode(w io.Writer, img image.Image, opts EncodeOptions) error {
	b := img.Bounds()
	if b.Empty() {
		return ErrEmptyImage
	}

	var encOpts []imaging.EncodeOption
	switch opts.Format {
	case JPEG:
		encOpts = append(encOpts, imaging.JPEGQuality(normalizeQuality(opts.Quality)))
	case PNG:
		level := png.DefaultCompression
		if opts.Optimize {
			level = png.BestCompression
		}
		encOpts = append(encOpts, imaging.PNGCompressionLevel(level))
	case GIF, TIFF, BMP:
	default:
		return fmt.Errorf("%w: format %d", ErrUnsupportedFormat, int(opts.Format))
	}

	if !SupportsAlpha(opts.Format) && !isOpaque(img) {
		img = Flatten(img, color.White)
	}

	if err := imaging.Encode(w, img, opts.Format, encOpts...); err != nil {
		return fmt.Errorf("failed to encode %s: %w", opts.Format, err)
	}
	return nil
}

// EncodeAndSave encodes img and writes it to path on fsys.
//
// Encoding happens in memory first, so nothing is written when encoding
// fails. An existing file at path is replaced. The path is returned on
// success.
func EncodeAndSave(fsys afero.Fs, path string, img image.Image, opts EncodeOptions) (string, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, img, opts); err != nil {
		return "", err
	}
	if err := afero.WriteFile(fsys, path, buf.Bytes(), 0o644); err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}

// Flatten alpha-composites img onto an opaque background of color bg and
// returns the fully opaque result.
func Flatten(img image.Image, bg color.Color) *image.NRGBA {
	b := img.Bounds()
	canvas := imaging.New(b.Dx(), b.Dy(), opaque(bg))
	return imaging.Overlay(canvas, img, image.Pt(0, 0), 1.0)
}

func normalizeQuality(q int) int {
	if q == 0 {
		return DefaultQuality
	}
	return clampInt(q, 1, 100)
}
