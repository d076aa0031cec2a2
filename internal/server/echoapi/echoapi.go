// Package echoapi serves the photo editor contract on labstack/echo.
package echoapi

import (
	"context"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog/log"

	"github.com/ironsheep/photo-editor/internal/metrics"
	"github.com/ironsheep/photo-editor/internal/server"
)

// Framework is reported by the index route.
const Framework = "echo"

// Options configures the handler.
type Options struct {
	// MaxUploadBytes caps request bodies. Zero disables the cap.
	MaxUploadBytes int64

	// Metrics records request observations. Nil records nothing.
	Metrics metrics.Recorder

	// MetricsHandler, when set, is served on GET /metrics.
	MetricsHandler http.Handler
}

// New returns an echo instance serving every route of srv.
func New(srv *server.Server, opts Options) *echo.Echo {
	if opts.Metrics == nil {
		opts.Metrics = metrics.Noop{}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler
	e.Use(middleware.Recover())
	e.Use(RequestLogger(opts.Metrics))

	for _, rt := range srv.Routes() {
		var mw []echo.MiddlewareFunc
		if rt.Method == http.MethodPost && opts.MaxUploadBytes > 0 {
			mw = append(mw, bodyLimit(opts.MaxUploadBytes))
		}
		e.Add(rt.Method, echoPath(rt.Path), routeHandler(rt), mw...)
	}
	if opts.MetricsHandler != nil {
		e.GET("/metrics", echo.WrapHandler(opts.MetricsHandler))
	}

	return e
}

// echoPath rewrites "{name}" segments as echo's ":name".
func echoPath(path string) string {
	segs := strings.Split(path, "/")
	for i, s := range segs {
		if strings.HasPrefix(s, "{") && strings.HasSuffix(s, "}") {
			segs[i] = ":" + s[1:len(s)-1]
		}
	}
	return strings.Join(segs, "/")
}

func routeHandler(rt server.Route) echo.HandlerFunc {
	return func(c echo.Context) error {
		return write(c, rt.Serve(request{c: c}))
	}
}

// bodyLimit wraps the body so oversized uploads fail while the form is
// parsed, surfacing as http.MaxBytesError.
func bodyLimit(n int64) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			req.Body = http.MaxBytesReader(c.Response(), req.Body, n)
			return next(c)
		}
	}
}

func write(c echo.Context, reply *server.Reply) error {
	switch {
	case reply.File != nil:
		defer reply.File.Content.Close()
		h := c.Response().Header()
		h.Set(echo.HeaderContentType, reply.File.ContentType)
		h.Set(echo.HeaderContentDisposition, reply.File.ContentDisposition())
		http.ServeContent(c.Response(), c.Request(), reply.File.Name, reply.File.ModTime, reply.File.Content)
		return nil
	case reply.JSON != nil:
		return c.JSON(reply.Status, reply.JSON)
	default:
		return c.String(reply.Status, reply.Text)
	}
}

// errorHandler renders router and middleware errors in the contract's
// {"detail": ...} shape.
func errorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, detail := http.StatusInternalServerError, "internal error"
	var he *echo.HTTPError
	if errors.As(err, &he) {
		status = he.Code
		detail = strings.ToLower(http.StatusText(he.Code))
	}
	if status >= http.StatusInternalServerError {
		log.Ctx(c.Request().Context()).Error().Err(err).Msg("unhandled error")
	}

	if err := c.JSON(status, server.ErrorBody{Detail: detail}); err != nil {
		log.Ctx(c.Request().Context()).Error().Err(err).Msg("failed to write error response")
	}
}

// request adapts echo.Context to server.Request.
type request struct {
	c echo.Context
}

func (r request) Context() context.Context { return r.c.Request().Context() }

func (r request) Framework() string { return Framework }

func (r request) FormValue(name string) string { return r.c.FormValue(name) }

func (r request) PathParam(name string) string { return r.c.Param(name) }

func (r request) FormFile(name string) (*multipart.FileHeader, error) {
	return r.c.FormFile(name)
}

// RequestLogger returns middleware that logs requests using zerolog
// and records them on rec.
func RequestLogger(rec metrics.Recorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			req := c.Request()
			rid := req.Header.Get(echo.HeaderXRequestID)
			if rid == "" {
				rid = uuid.NewString()
			}
			c.Response().Header().Set(echo.HeaderXRequestID, rid)

			// Attach request-scoped logger
			logger := log.With().
				Str("request_id", rid).
				Str("method", req.Method).
				Str("path", req.URL.Path).
				Str("remote_ip", c.RealIP()).
				Logger()
			c.SetRequest(req.WithContext(logger.WithContext(req.Context())))

			if err := next(c); err != nil {
				c.Error(err)
			}

			status := c.Response().Status
			duration := time.Since(start)

			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			rec.ObserveRequest(req.Method, route, strconv.Itoa(status), duration.Seconds())

			if status >= http.StatusInternalServerError {
				logger.Error().Int("status", status).Dur("duration", duration).Msg("http request failed")
			} else {
				logger.Info().Int("status", status).Dur("duration", duration).Msg("http request served")
			}
			return nil
		}
	}
}
