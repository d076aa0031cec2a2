// Package imaging provides the image operations behind the photo editor.
//
// Every function in this package is a single synchronous transformation on a
// decoded image.Image. Nothing is cached and no function mutates its input:
// each returns a new image (or, for Resize with no dimensions, the input
// itself). Coordinates follow the standard Go image convention where (0,0) is
// the top-left corner, X increases rightward and Y increases downward.
//
// # Operations
//
//   - Decode: bytes to image (JPEG, PNG, GIF, BMP, TIFF, WebP)
//   - Resize: aspect-preserving containment or exact force-resize
//   - Crop: axis-aligned rectangle, bounds handled by the library
//   - ChangeAspectRatio: fit, fill or pad to a target size
//   - Rotate: arbitrary angle, with or without canvas expansion
//   - Thumbnail: bounded, never upscaled copy
//   - Encode / EncodeAndSave: re-encode to a target format
//
// # Coordinate System
//
// For regions, (left, upper) is inclusive and (right, lower) is exclusive, so
// the cropped width is right-left and the height is lower-upper.
//
// # Alpha Handling
//
// Formats that cannot carry an alpha channel (JPEG, BMP, GIF) receive an image
// that has been alpha-composited onto a white background. The encoded result
// is always fully opaque.
//
// # Error Handling
//
// Failures are reported with wrapped sentinel errors so callers can classify
// them with errors.Is:
//   - ErrDecode: the bytes are not a recognized image container
//   - ErrInvalidArgument: bad dimensions, unknown aspect mode, bad color
//   - ErrUnsupportedFormat: unknown output format identifier
//   - ErrEmptyImage: the image to encode has no pixels
//
// # Thread Safety
//
// All functions are stateless and safe for concurrent use on distinct images.
package imaging
