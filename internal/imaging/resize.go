package imaging

import (
	"fmt"
	"image"

	"github.com/disintegration/imaging"
)

// Default thumbnail bounding box.
const (
	DefaultThumbnailWidth  = 200
	DefaultThumbnailHeight = 200
)

// Resize scales an image to the requested width and height.
//
// Parameters:
//   - img: The source image. It is never modified.
//   - width, height: Target dimensions in pixels. Zero means "not given"; a
//     missing dimension defaults to the image's own.
//   - keepAspect: When true the image is bounded so that neither side exceeds
//     the target, preserving the aspect ratio and never upscaling. When false
//     the image is force-resized to exactly width x height.
//
// If both width and height are zero the input is returned unchanged.
// Resampling uses the Lanczos filter.
//
// # Errors
//
//   - Returns ErrInvalidArgument if width or height is negative
func Resize(img image.Image, width, height int, keepAspect bool) (image.Image, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("%w: width and height must not be negative, got %dx%d",
			ErrInvalidArgument, width, height)
	}
	if width == 0 && height == 0 {
		return img, nil
	}

	bounds := img.Bounds()
	if width == 0 {
		width = bounds.Dx()
	}
	if height == 0 {
		height = bounds.Dy()
	}

	if keepAspect {
		return imaging.Fit(img, width, height, imaging.Lanczos), nil
	}
	return imaging.Resize(img, width, height, imaging.Lanczos), nil
}

// Thumbnail returns a copy of img bounded by maxWidth x maxHeight.
//
// The aspect ratio is preserved and images already inside the box are copied
// at their original size. Use DefaultThumbnailWidth and
// DefaultThumbnailHeight for the standard 200x200 box.
//
// # Errors
//
//   - Returns ErrInvalidArgument if either bound is not positive
func Thumbnail(img image.Image, maxWidth, maxHeight int) (image.Image, error) {
	if maxWidth <= 0 || maxHeight <= 0 {
		return nil, fmt.Errorf("%w: thumbnail bounds must be positive, got %dx%d",
			ErrInvalidArgument, maxWidth, maxHeight)
	}
	return imaging.Fit(img, maxWidth, maxHeight, imaging.Lanczos), nil
}
