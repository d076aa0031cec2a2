package imaging

import (
	"errors"
	"fmt"
)

var (
	// ErrDecode is returned when input bytes are not a recognized image.
	ErrDecode = errors.New("failed to decode image")

	// ErrInvalidArgument is returned for out-of-domain parameters.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrUnsupportedFormat is returned for unknown output format identifiers.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrEmptyImage is returned when asked to encode an image with no pixels.
	// errors.Is(ErrEmptyImage, ErrInvalidArgument) holds.
	ErrEmptyImage = fmt.Errorf("%w: image has no pixels", ErrInvalidArgument)
)
