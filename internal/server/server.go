package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ironsheep/photo-editor/internal/imaging"
	"github.com/ironsheep/photo-editor/internal/metrics"
	"github.com/ironsheep/photo-editor/internal/storage"
)

// ErrBadRequest marks a missing or malformed request parameter.
var ErrBadRequest = errors.New("bad request")

// Request is the framework-neutral view of an incoming call that each front
// end provides.
type Request interface {
	Context() context.Context

	// FormValue returns a form field, or "" when it is absent.
	FormValue(name string) string

	// FormFile returns the header for a multipart file field.
	FormFile(name string) (*multipart.FileHeader, error)

	// PathParam returns a named segment of the matched route path.
	PathParam(name string) string

	// Framework names the front end serving the request.
	Framework() string
}

// Reply is the outcome of a route. Exactly one of JSON, Text or File is set.
type Reply struct {
	Status int
	JSON   any
	Text   string
	File   *Attachment
}

// Attachment is a stored file streamed back as a download. The front end
// closes Content after writing it.
type Attachment struct {
	Name        string
	ContentType string
	ModTime     time.Time
	Size        int64
	Content     io.ReadSeekCloser
}

// ContentDisposition returns the header value offering the attachment under
// its stored name.
func (a *Attachment) ContentDisposition() string {
	return mime.FormatMediaType("attachment", map[string]string{"filename": a.Name})
}

// ErrorBody is the JSON body of every failed request.
type ErrorBody struct {
	Detail string `json:"detail"`
}

// Server holds the route table and the collaborators its handlers need.
type Server struct {
	store   *storage.Store
	metrics metrics.Recorder
	routes  []Route
}

// Option configures a Server.
type Option func(*Server)

// WithMetrics sets the recorder for image operation outcomes. Nil keeps
// the no-op recorder.
func WithMetrics(r metrics.Recorder) Option {
	return func(s *Server) {
		if r != nil {
			s.metrics = r
		}
	}
}

// New creates a server operating on store.
func New(store *storage.Store, opts ...Option) *Server {
	s := &Server{
		store:   store,
		metrics: metrics.Noop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes = s.routeTable()
	return s
}

// Routes returns the route table. Front ends register every entry.
func (s *Server) Routes() []Route {
	return s.routes
}

// Store returns the storage the handlers read from and write to.
func (s *Server) Store() *storage.Store {
	return s.store
}

// Serve binds the route parameters from req, runs the handler and converts
// any failure into an error reply.
func (rt Route) Serve(req Request) *Reply {
	ctx := req.Context()

	args, err := bind(rt.Params, req)
	var reply *Reply
	if err == nil {
		reply, err = rt.handle(ctx, req, args)
	}

	if rt.Operation != "" && rt.recorder != nil {
		result := metrics.ResultOK
		if err != nil {
			result = metrics.ResultError
		}
		rt.recorder.ObserveOperation(rt.Operation, result)
	}

	if err != nil {
		return errorReply(ctx, rt, err)
	}
	return reply
}

// StatusFor maps an error to its HTTP status and the detail message shown to
// the caller. Unexpected errors are reported as "internal error".
func StatusFor(err error) (int, string) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return http.StatusNotFound, "file not found"
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, "file too large"
	case errors.Is(err, ErrBadRequest),
		errors.Is(err, imaging.ErrInvalidArgument),
		errors.Is(err, imaging.ErrUnsupportedFormat),
		errors.Is(err, imaging.ErrDecode),
		errors.Is(err, storage.ErrInvalidKind),
		errors.Is(err, storage.ErrInvalidName):
		return http.StatusBadRequest, err.Error()
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func errorReply(ctx context.Context, rt Route, err error) *Reply {
	status, detail := StatusFor(err)

	logger := log.Ctx(ctx)
	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).Str("route", rt.Name).Msg("request failed")
	} else {
		logger.Debug().Err(err).Str("route", rt.Name).Int("status", status).Msg("request rejected")
	}

	return &Reply{Status: status, JSON: ErrorBody{Detail: detail}}
}

// Write renders the reply on a net/http response.
func (r *Reply) Write(w http.ResponseWriter, req *http.Request) {
	switch {
	case r.File != nil:
		defer r.File.Content.Close()
		w.Header().Set("Content-Type", r.File.ContentType)
		w.Header().Set("Content-Disposition", r.File.ContentDisposition())
		http.ServeContent(w, req, r.File.Name, r.File.ModTime, r.File.Content)
	case r.JSON != nil:
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(r.Status)
		if err := json.NewEncoder(w).Encode(r.JSON); err != nil {
			log.Ctx(req.Context()).Error().Err(err).Msg("failed to encode response")
		}
	default:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(r.Status)
		fmt.Fprint(w, r.Text)
	}
}
