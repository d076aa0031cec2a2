// Package httpmux serves the photo editor contract on the standard library's
// pattern-routing ServeMux.
package httpmux

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ironsheep/photo-editor/internal/metrics"
	"github.com/ironsheep/photo-editor/internal/server"
)

// Framework is reported by the index route.
const Framework = "net/http"

// Options configures the handler.
type Options struct {
	// MaxUploadBytes caps request bodies. Zero disables the cap.
	MaxUploadBytes int64

	// Metrics records request observations. Nil records nothing.
	Metrics metrics.Recorder

	// MetricsHandler, when set, is served on GET /metrics.
	MetricsHandler http.Handler
}

// New returns an http.Handler serving every route of srv.
func New(srv *server.Server, opts Options) http.Handler {
	if opts.Metrics == nil {
		opts.Metrics = metrics.Noop{}
	}

	mux := http.NewServeMux()
	for _, rt := range srv.Routes() {
		mux.Handle(rt.Method+" "+pattern(rt.Path), routeHandler(rt, opts.MaxUploadBytes))
	}
	if opts.MetricsHandler != nil {
		mux.Handle("GET /metrics", opts.MetricsHandler)
	}
	mux.HandleFunc("/", notFound)

	return requestLogger(opts.Metrics, mux)
}

// pattern anchors the root path, which ServeMux otherwise treats as a
// catch-all.
func pattern(path string) string {
	if path == "/" {
		return "/{$}"
	}
	return path
}

func routeHandler(rt server.Route, maxBytes int64) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if maxBytes > 0 && r.Method == http.MethodPost {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		}
		rt.Serve(&request{r: r, maxMemory: maxMemory(maxBytes)}).Write(w, r)
	})
}

func notFound(w http.ResponseWriter, r *http.Request) {
	reply := &server.Reply{Status: http.StatusNotFound, JSON: server.ErrorBody{Detail: "not found"}}
	reply.Write(w, r)
}

// defaultMaxMemory matches the net/http default for multipart parsing.
const defaultMaxMemory = 32 << 20

func maxMemory(maxBytes int64) int64 {
	if maxBytes > 0 && maxBytes < defaultMaxMemory {
		return maxBytes
	}
	return defaultMaxMemory
}

// request adapts *http.Request to server.Request.
type request struct {
	r         *http.Request
	maxMemory int64
	parseErr  error
	parsed    bool
}

func (q *request) Context() context.Context { return q.r.Context() }

func (q *request) Framework() string { return Framework }

func (q *request) PathParam(name string) string { return q.r.PathValue(name) }

func (q *request) FormValue(name string) string {
	q.parse()
	return q.r.FormValue(name)
}

func (q *request) FormFile(name string) (*multipart.FileHeader, error) {
	if err := q.parse(); err != nil {
		return nil, err
	}
	if q.r.MultipartForm == nil || len(q.r.MultipartForm.File[name]) == 0 {
		return nil, http.ErrMissingFile
	}
	return q.r.MultipartForm.File[name][0], nil
}

// parse reads the body once as a multipart or URL-encoded form.
func (q *request) parse() error {
	if q.parsed {
		return q.parseErr
	}
	q.parsed = true

	err := q.r.ParseMultipartForm(q.maxMemory)
	if errors.Is(err, http.ErrNotMultipart) {
		err = q.r.ParseForm()
	}
	q.parseErr = err
	return err
}

// responseWriter captures the status code for logging and metrics.
type responseWriter struct {
	http.ResponseWriter
	status int
}

func (w *responseWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *responseWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(b)
}

func (w *responseWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

// requestLogger attaches a request-scoped logger and records the request
// once the response is written.
func requestLogger(rec metrics.Recorder, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rid := r.Header.Get("X-Request-ID")
		if rid == "" {
			rid = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", rid)

		logger := log.With().
			Str("request_id", rid).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Logger()
		r = r.WithContext(logger.WithContext(r.Context()))

		rw := &responseWriter{ResponseWriter: w}
		next.ServeHTTP(rw, r)

		status := rw.status
		if status == 0 {
			status = http.StatusOK
		}
		duration := time.Since(start)

		// Patterns carry the method, "POST /resize"; label by path only.
		_, route, ok := strings.Cut(r.Pattern, " ")
		switch {
		case !ok:
			route = "unmatched"
		case route == "/{$}":
			route = "/"
		}
		rec.ObserveRequest(r.Method, route, statusLabel(status), duration.Seconds())

		if status >= http.StatusInternalServerError {
			logger.Error().Int("status", status).Dur("duration", duration).Msg("http request failed")
		} else {
			logger.Info().Int("status", status).Dur("duration", duration).Msg("http request served")
		}
	})
}

func statusLabel(code int) string {
	return strconv.Itoa(code)
}
