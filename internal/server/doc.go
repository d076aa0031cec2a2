// Package server defines the photo editor's HTTP contract once, independent
// of any web framework.
//
// The contract is a route table: each Route declares its method, path and
// parameters, and carries the handler that implements it. Front ends (see
// the httpmux and echoapi subpackages) register every route with their
// router, adapt the framework request to Request and render the Reply.
//
// # Routes
//
// Service:
//   - GET /: status and front end name
//   - GET /healthz: liveness probe
//   - GET /routes: the route table with parameter schema
//
// Storage:
//   - POST /upload: store a multipart "file" under "<unix>_<name>"
//   - GET /download/{kind}/{name}: stream a stored file as an attachment
//   - GET /info/{kind}/{name}: dimensions, format and alpha of a stored image
//
// Image operations, each reading an upload named by "filename" and writing a
// derived name into the processed namespace:
//   - POST /resize: resized_<name>, JPEG quality 85
//   - POST /crop: crop_<name>, JPEG quality 90
//   - POST /aspect: aspect_<mode>_<name>, JPEG quality 90
//   - POST /convert: <root>.<fmt>, requested format and quality
//   - POST /thumbnail: thumb_<name>, JPEG quality 80
//   - POST /rotate: rotate_<angle>_<name>, JPEG quality 90
//
// # Parameters
//
// Form values are bound against the route's Param list before the handler
// runs. Empty values count as absent and take the declared default. Booleans
// are false only for "0", "false" and "no".
//
// # Error Handling
//
// Handlers return errors wrapping the sentinels of the imaging and storage
// packages or ErrBadRequest. StatusFor maps them to a status once:
//   - 404: storage.ErrNotFound
//   - 400: bad parameters, invalid kind or name, undecodable or empty image,
//     unknown mode or format
//   - 413: request body over the configured limit
//   - 500: anything else, reported as "internal error"
//
// Every error body is {"detail": "..."}.
package server
