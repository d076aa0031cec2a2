// Package servertest holds fixtures and the contract suite every front end
// must pass.
package servertest

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/photo-editor/internal/metrics"
	"github.com/ironsheep/photo-editor/internal/server"
	"github.com/ironsheep/photo-editor/internal/storage"
)

// UploadTime is the clock of stores built by NewStore.
var UploadTime = time.Unix(1700000000, 0)

// Config is what a front end needs beyond the server itself.
type Config struct {
	MaxUploadBytes int64
	Metrics        metrics.Recorder
	MetricsHandler http.Handler
}

// Factory builds a front end handler around srv.
type Factory func(srv *server.Server, cfg Config) http.Handler

// NewStore returns a provisioned in-memory store whose uploads are stamped
// with UploadTime.
func NewStore(t *testing.T) *storage.Store {
	t.Helper()
	store := storage.New(afero.NewMemMapFs(), "uploads", "processed",
		storage.WithClock(func() time.Time { return UploadTime }))
	require.NoError(t, store.Provision())
	return store
}

// SolidPNG encodes a w x h PNG filled with c.
func SolidPNG(t *testing.T, w, h int, c color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

// Client issues requests against a handler in process.
type Client struct {
	t       *testing.T
	handler http.Handler
}

// NewClient wraps h.
func NewClient(t *testing.T, h http.Handler) *Client {
	return &Client{t: t, handler: h}
}

// Do serves req and returns the recorded response.
func (c *Client) Do(req *http.Request) *httptest.ResponseRecorder {
	c.t.Helper()
	rec := httptest.NewRecorder()
	c.handler.ServeHTTP(rec, req)
	return rec
}

// Get issues a GET for path.
func (c *Client) Get(path string) *httptest.ResponseRecorder {
	c.t.Helper()
	return c.Do(httptest.NewRequest(http.MethodGet, path, nil))
}

// PostForm issues a URL-encoded POST.
func (c *Client) PostForm(path string, form url.Values) *httptest.ResponseRecorder {
	c.t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.Do(req)
}

// Upload posts data as the multipart field "file" named filename.
func (c *Client) Upload(filename string, data []byte) *httptest.ResponseRecorder {
	c.t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(c.t, err)
	_, err = part.Write(data)
	require.NoError(c.t, err)
	require.NoError(c.t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.Do(req)
}

// MustUpload uploads data and returns the stored name.
func (c *Client) MustUpload(filename string, data []byte) string {
	c.t.Helper()
	rec := c.Upload(filename, data)
	require.Equal(c.t, http.StatusOK, rec.Code, rec.Body.String())
	return DecodeJSON(c.t, rec)["filename"].(string)
}

// DecodeJSON decodes a JSON object body.
func DecodeJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}
