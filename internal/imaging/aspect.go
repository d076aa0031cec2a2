package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// AspectMode selects how ChangeAspectRatio reconciles the source aspect ratio
// with the target one.
type AspectMode string

const (
	// ModeFit scales the image to be fully contained in the target and
	// composites it centered onto an opaque canvas of the fill color.
	ModeFit AspectMode = "fit"

	// ModeFill scales and center-crops so the target is fully covered.
	ModeFill AspectMode = "fill"

	// ModePad scales the image to be fully contained in the target and pastes
	// it centered onto a canvas of the fill color without blending.
	ModePad AspectMode = "pad"
)

// ParseAspectMode validates a mode name.
func ParseAspectMode(s string) (AspectMode, error) {
	switch m := AspectMode(s); m {
	case ModeFit, ModeFill, ModePad:
		return m, nil
	default:
		return "", fmt.Errorf("%w: unknown mode %q", ErrInvalidArgument, s)
	}
}

// ChangeAspectRatio normalizes an image to exactly targetW x targetH.
//
// Parameters:
//   - img: The source image. It is never modified.
//   - targetW, targetH: Output dimensions in pixels. Both must be positive.
//   - mode: One of ModeFit, ModeFill or ModePad.
//   - fill: Canvas color for ModeFit and ModePad. Nil means white.
//
// In ModeFit and ModePad the image may be scaled up as well as down so that
// it touches the canvas on at least one axis. The remaining space is split
// evenly on both sides.
//
// # Errors
//
//   - Returns ErrInvalidArgument for an unknown mode or non-positive target
func ChangeAspectRatio(img image.Image, targetW, targetH int, mode AspectMode, fill color.Color) (image.Image, error) {
	if targetW <= 0 || targetH <= 0 {
		return nil, fmt.Errorf("%w: target size must be positive, got %dx%d",
			ErrInvalidArgument, targetW, targetH)
	}
	if fill == nil {
		fill = color.White
	}

	switch mode {
	case ModeFit:
		contained := contain(img, targetW, targetH)
		canvas := imaging.New(targetW, targetH, opaque(fill))
		offset := image.Pt(
			(targetW-contained.Bounds().Dx())/2,
			(targetH-contained.Bounds().Dy())/2,
		)
		return imaging.Overlay(canvas, contained, offset, 1.0), nil

	case ModeFill:
		return imaging.Fill(img, targetW, targetH, imaging.Center, imaging.Lanczos), nil

	case ModePad:
		contained := contain(img, targetW, targetH)
		canvas := imaging.New(targetW, targetH, fill)
		return imaging.PasteCenter(canvas, contained), nil

	default:
		return nil, fmt.Errorf("%w: unknown mode %q", ErrInvalidArgument, string(mode))
	}
}

// contain scales img, up or down, to the largest size that fits inside
// w x h while keeping its aspect ratio.
func contain(img image.Image, w, h int) image.Image {
	b := img.Bounds()
	srcW, srcH := b.Dx(), b.Dy()
	if srcW == 0 || srcH == 0 {
		return img
	}

	ratio := math.Min(float64(w)/float64(srcW), float64(h)/float64(srcH))
	newW := int(math.Round(float64(srcW) * ratio))
	newH := int(math.Round(float64(srcH) * ratio))
	newW = clampInt(newW, 1, w)
	newH = clampInt(newH, 1, h)

	if newW == srcW && newH == srcH {
		return imaging.Clone(img)
	}
	return imaging.Resize(img, newW, newH, imaging.Lanczos)
}

// opaque drops the alpha of c so a canvas built from it is fully opaque.
func opaque(c color.Color) color.Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	n.A = 0xff
	return n
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
