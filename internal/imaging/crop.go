package imaging

import (
	"image"

	"github.com/disintegration/imaging"
)

// Crop extracts the rectangle [left,right) x [upper,lower) from an image.
//
// Coordinates are relative to the image origin and are not validated; they
// are handed to the library as-is:
//   - Edges outside the image are clamped to the image bounds.
//   - Inverted edges (right < left, lower < upper) are swapped by
//     image.Rect before cropping.
//   - A rectangle that is empty after clamping (left == right, upper ==
//     lower, or entirely outside the image) yields a 0x0 image. Encoding a
//     0x0 image fails with ErrEmptyImage.
func Crop(img image.Image, left, upper, right, lower int) image.Image {
	rect := image.Rect(left, upper, right, lower).Add(img.Bounds().Min)
	return imaging.Crop(img, rect)
}
