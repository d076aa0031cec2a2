package imaging

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/transform"
	"github.com/disintegration/imaging"
)

// Rotate turns an image counter-clockwise by angle degrees.
//
// When expand is true the canvas grows to hold the whole rotated image.
// When expand is false the canvas keeps the source size, the image turns
// around its center and corners that leave the canvas are clipped.
// Uncovered canvas area is transparent.
//
// Exact multiples of 90 degrees are done by pixel transposition so they are
// lossless; other angles are resampled.
func Rotate(img image.Image, angle float64, expand bool) image.Image {
	a := math.Mod(angle, 360)
	if a < 0 {
		a += 360
	}

	b := img.Bounds()
	square := b.Dx() == b.Dy()

	switch {
	case a == 0:
		return imaging.Clone(img)
	case a == 180:
		return imaging.Rotate180(img)
	case a == 90 && (expand || square):
		return imaging.Rotate90(img)
	case a == 270 && (expand || square):
		return imaging.Rotate270(img)
	}

	// bild rotates clockwise.
	return transform.Rotate(img, -a, &transform.RotationOptions{ResizeBounds: expand})
}
