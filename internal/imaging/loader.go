package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder

	"github.com/disintegration/imaging"
	_ "golang.org/x/image/webp" // Register WebP format decoder
)

// Decode converts raw file bytes into an in-memory image.
//
// Supported containers are JPEG, PNG, GIF, BMP, TIFF and WebP. The returned
// image is owned by the caller; nothing is cached.
//
// # Errors
//
//   - Returns ErrDecode if b is empty or not a recognized image container
func Decode(b []byte) (image.Image, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrDecode)
	}
	img, err := imaging.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, nil
}

// ImageInfo contains metadata about an encoded image.
type ImageInfo struct {
	// Width is the image width in pixels.
	Width int `json:"width"`

	// Height is the image height in pixels.
	Height int `json:"height"`

	// Format is the container detected from the file contents:
	// "jpeg", "png", "gif", "bmp", "tiff" or "webp".
	Format string `json:"format"`

	// ColorDepth indicates the bit depth per channel: "8-bit" or "16-bit".
	ColorDepth string `json:"color_depth"`

	// HasAlpha indicates whether the color model can carry transparency.
	HasAlpha bool `json:"has_alpha"`

	// SizeBytes is the length of the encoded data.
	SizeBytes int64 `json:"size_bytes"`
}

// Inspect reads the header of an encoded image and reports its metadata
// without decoding the pixel data.
//
// # Errors
//
//   - Returns ErrDecode if b is empty or not a recognized image container
func Inspect(b []byte) (*ImageInfo, error) {
	if len(b) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrDecode)
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	hasAlpha, depth := describeModel(cfg.ColorModel)
	return &ImageInfo{
		Width:      cfg.Width,
		Height:     cfg.Height,
		Format:     format,
		ColorDepth: depth,
		HasAlpha:   hasAlpha,
		SizeBytes:  int64(len(b)),
	}, nil
}

// describeModel maps a color model to alpha capability and channel depth.
func describeModel(m color.Model) (hasAlpha bool, depth string) {
	depth = "8-bit"
	if p, ok := m.(color.Palette); ok {
		for _, c := range p {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return true, depth
			}
		}
		return false, depth
	}
	switch m {
	case color.RGBAModel, color.NRGBAModel, color.AlphaModel:
		hasAlpha = true
	case color.RGBA64Model, color.NRGBA64Model, color.Alpha16Model:
		hasAlpha = true
		depth = "16-bit"
	case color.Gray16Model:
		depth = "16-bit"
	}
	return hasAlpha, depth
}

// isOpaque reports whether every pixel of img is fully opaque.
func isOpaque(img image.Image) bool {
	if o, ok := img.(interface{ Opaque() bool }); ok {
		return o.Opaque()
	}
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a != 0xffff {
				return false
			}
		}
	}
	return true
}
