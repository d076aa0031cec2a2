package imaging

import (
	"fmt"
	"image/color"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ParseFillColor parses a canvas color given as hex, in either the "#rgb"
// or "#rrggbb" form. The leading '#' is optional. An empty string selects
// opaque white.
//
// # Errors
//
//   - Returns ErrInvalidArgument if s is not a valid hex color
func ParseFillColor(s string) (color.Color, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}, nil
	}
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}

	c, err := colorful.Hex(s)
	if err != nil {
		return nil, fmt.Errorf("%w: fill color %q: %v", ErrInvalidArgument, s, err)
	}
	r, g, b := c.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 0xff}, nil
}
