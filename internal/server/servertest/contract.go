package servertest

import (
	"image/color"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/photo-editor/internal/imaging"
	"github.com/ironsheep/photo-editor/internal/metrics"
	"github.com/ironsheep/photo-editor/internal/server"
	"github.com/ironsheep/photo-editor/internal/storage"
)

var red = color.NRGBA{255, 0, 0, 255}

type env struct {
	store  *storage.Store
	client *Client
}

func newEnv(t *testing.T, build Factory, cfg Config) *env {
	t.Helper()
	store := NewStore(t)
	srv := server.New(store, server.WithMetrics(cfg.Metrics))
	return &env{store: store, client: NewClient(t, build(srv, cfg))}
}

// processedNames lists the files in the processed namespace.
func (e *env) processedNames(t *testing.T) []string {
	t.Helper()
	entries, err := afero.ReadDir(e.store.Fs(), e.store.Dir(storage.Processed))
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, fi := range entries {
		names = append(names, fi.Name())
	}
	return names
}

// RunContract exercises the whole HTTP contract against the front end built
// by build. framework is the name the index route must report.
func RunContract(t *testing.T, framework string, build Factory) {
	cfg := Config{Metrics: metrics.Noop{}}

	t.Run("index", func(t *testing.T) {
		e := newEnv(t, build, cfg)
		rec := e.client.Get("/")
		require.Equal(t, http.StatusOK, rec.Code)
		body := DecodeJSON(t, rec)
		assert.Equal(t, "ok", body["status"])
		assert.Equal(t, framework, body["framework"])
	})

	t.Run("healthz", func(t *testing.T) {
		e := newEnv(t, build, cfg)
		rec := e.client.Get("/healthz")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "ok", rec.Body.String())
	})

	t.Run("routes", func(t *testing.T) {
		e := newEnv(t, build, cfg)
		rec := e.client.Get("/routes")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"name":"resize"`)
		assert.Contains(t, rec.Body.String(), `"path":"/download/{kind}/{name}"`)
	})

	t.Run("unknown path", func(t *testing.T) {
		e := newEnv(t, build, cfg)
		rec := e.client.Get("/nope")
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.NotEmpty(t, DecodeJSON(t, rec)["detail"])
	})

	t.Run("request id", func(t *testing.T) {
		e := newEnv(t, build, cfg)
		req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
		req.Header.Set("X-Request-ID", "abc-123")
		rec := e.client.Do(req)
		assert.Equal(t, "abc-123", rec.Header().Get("X-Request-ID"))

		rec = e.client.Get("/healthz")
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	})

	t.Run("upload", func(t *testing.T) {
		e := newEnv(t, build, cfg)
		data := SolidPNG(t, 10, 10, red)

		rec := e.client.Upload("my photo.png", data)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		body := DecodeJSON(t, rec)
		assert.Equal(t, "1700000000_my_photo.png", body["filename"])
		assert.Equal(t, filepath.Join("uploads", "1700000000_my_photo.png"), body["path"])

		stored, err := e.store.Read(storage.Uploads, "1700000000_my_photo.png")
		require.NoError(t, err)
		assert.Equal(t, data, stored)
	})

	t.Run("upload without file", func(t *testing.T) {
		e := newEnv(t, build, cfg)
		rec := e.client.PostForm("/upload", url.Values{"other": {"x"}})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.NotEmpty(t, DecodeJSON(t, rec)["detail"])
	})

	t.Run("upload too large", func(t *testing.T) {
		e := newEnv(t, build, Config{Metrics: metrics.Noop{}, MaxUploadBytes: 1024})
		rec := e.client.Upload("big.png", make([]byte, 64<<10))
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	})

	t.Run("aspect fit letterboxes", func(t *testing.T) {
		e := newEnv(t, build, cfg)
		name := e.client.MustUpload("wide.png", SolidPNG(t, 800, 600, red))

		rec := e.client.PostForm("/aspect", url.Values{
			"filename": {name},
			"target_w": {"100"},
			"target_h": {"100"},
			"mode":     {"fit"},
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		out := DecodeJSON(t, rec)["processed"].(string)
		assert.Equal(t, "aspect_fit_"+name, out)

		dl := e.client.Get("/download/processed/" + out)
		require.Equal(t, http.StatusOK, dl.Code)
		assert.Equal(t, "application/octet-stream", dl.Header().Get("Content-Type"))
		assert.Contains(t, dl.Header().Get("Content-Disposition"), "attachment")

		info, err := imaging.Inspect(dl.Body.Bytes())
		require.NoError(t, err)
		assert.Equal(t, "jpeg", info.Format)
		assert.Equal(t, 100, info.Width)
		assert.Equal(t, 100, info.Height)

		img, err := imaging.Decode(dl.Body.Bytes())
		require.NoError(t, err)
		for _, y := range []int{2, 97} {
			r, g, b, _ := img.At(50, y).RGBA()
			assert.True(t, r>>8 > 240 && g>>8 > 240 && b>>8 > 240, "row %d should be white border", y)
		}
		for _, x := range []int{2, 97} {
			r, g, b, _ := img.At(x, 50).RGBA()
			assert.True(t, r>>8 > 200 && g>>8 < 60 && b>>8 < 60, "column %d should be content", x)
		}
	})

	t.Run("download missing", func(t *testing.T) {
		e := newEnv(t, build, cfg)
		rec := e.client.Get("/download/uploads/doesnotexist.jpg")
		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "file not found", DecodeJSON(t, rec)["detail"])
	})

	t.Run("download invalid kind", func(t *testing.T) {
		e := newEnv(t, build, cfg)
		rec := e.client.Get("/download/secrets/a.jpg")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.NotEmpty(t, DecodeJSON(t, rec)["detail"])
	})

	t.Run("download traversal", func(t *testing.T) {
		e := newEnv(t, build, cfg)
		rec := e.client.Get("/download/uploads/..%2F..%2Fetc%2Fpasswd")
		assert.GreaterOrEqual(t, rec.Code, 400)
		assert.Less(t, rec.Code, 500)
	})

	t.Run("download upload", func(t *testing.T) {
		e := newEnv(t, build, cfg)
		data := SolidPNG(t, 3, 3, red)
		name := e.client.MustUpload("a.png", data)

		rec := e.client.Get("/download/uploads/" + name)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, data, rec.Body.Bytes())
		assert.Contains(t, rec.Header().Get("Content-Disposition"), name)
	})

	t.Run("crop empty rectangle", func(t *testing.T) {
		e := newEnv(t, build, cfg)
		name := e.client.MustUpload("c.png", SolidPNG(t, 50, 50, red))

		rec := e.client.PostForm("/crop", url.Values{
			"filename": {name},
			"left":     {"10"},
			"upper":    {"0"},
			"right":    {"10"},
			"lower":    {"50"},
		})
		require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
		assert.Empty(t, e.processedNames(t), "no output for a failed crop")
	})

	t.Run("crop", func(t *testing.T) {
		e := newEnv(t, build, cfg)
		name := e.client.MustUpload("c.png", SolidPNG(t, 50, 40, red))

		rec := e.client.PostForm("/crop", url.Values{
			"filename": {name},
			"left":     {"5"},
			"upper":    {"5"},
			"right":    {"25"},
			"lower":    {"15"},
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "crop_"+name, DecodeJSON(t, rec)["processed"])

		info := e.inspect(t, storage.Processed, "crop_"+name)
		assert.Equal(t, 20, info.Width)
		assert.Equal(t, 10, info.Height)
	})

	t.Run("crop missing coordinate", func(t *testing.T) {
		e := newEnv(t, build, cfg)
		name := e.client.MustUpload("c.png", SolidPNG(t, 5, 5, red))

		rec := e.client.PostForm("/crop", url.Values{"filename": {name}, "left": {"0"}, "upper": {"0"}, "right": {"2"}})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("aspect unknown mode", func(t *testing.T) {
		e := newEnv(t, build, cfg)
		name := e.client.MustUpload("m.png", SolidPNG(t, 20, 20, red))

		rec := e.client.PostForm("/aspect", url.Values{
			"filename": {name},
			"target_w": {"10"},
			"target_h": {"10"},
			"mode":     {"stretch"},
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.NotEmpty(t, DecodeJSON(t, rec)["detail"])
		assert.Empty(t, e.processedNames(t))
	})

	t.Run("aspect fill color", func(t *testing.T) {
		e := newEnv(t, build, cfg)
		name := e.client.MustUpload("p.png", SolidPNG(t, 40, 20, color.NRGBA{0, 0, 255, 255}))

		rec := e.client.PostForm("/aspect", url.Values{
			"filename":   {name},
			"target_w":   {"40"},
			"target_h":   {"40"},
			"mode":       {"pad"},
			"fill_color": {"#00ff00"},
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "aspect_pad_"+name, DecodeJSON(t, rec)["processed"])

		rec = e.client.PostForm("/aspect", url.Values{
			"filename":   {name},
			"target_w":   {"40"},
			"target_h":   {"40"},
			"fill_color": {"not-a-color"},
		})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("resize", func(t *testing.T) {
		e := newEnv(t, build, cfg)
		name := e.client.MustUpload("r.png", SolidPNG(t, 200, 100, red))

		rec := e.client.PostForm("/resize", url.Values{"filename": {name}, "width": {"50"}})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		body := DecodeJSON(t, rec)
		assert.Equal(t, "resized_"+name, body["processed"])
		assert.Equal(t, filepath.Join("processed", "resized_"+name), body["path"])

		info := e.inspect(t, storage.Processed, "resized_"+name)
		assert.Equal(t, "jpeg", info.Format)
		assert.Equal(t, 50, info.Width)
		assert.Equal(t, 25, info.Height)

		rec = e.client.PostForm("/resize", url.Values{"filename": {name}, "width": {"50"}, "height": {"50"}, "keep_aspect": {"false"}})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		info = e.inspect(t, storage.Processed, "resized_"+name)
		assert.Equal(t, 50, info.Height, "second call overwrites the same output")
	})

	t.Run("resize bad parameters", func(t *testing.T) {
		e := newEnv(t, build, cfg)
		name := e.client.MustUpload("r.png", SolidPNG(t, 20, 20, red))

		tests := []struct {
			name   string
			form   url.Values
			status int
		}{
			{"missing filename", url.Values{"width": {"10"}}, http.StatusBadRequest},
			{"non-numeric width", url.Values{"filename": {name}, "width": {"wide"}}, http.StatusBadRequest},
			{"negative height", url.Values{"filename": {name}, "height": {"-3"}}, http.StatusBadRequest},
			{"missing upload", url.Values{"filename": {"ghost.png"}}, http.StatusNotFound},
			{"path in filename", url.Values{"filename": {"../" + name}}, http.StatusBadRequest},
		}
		for _, tt := range tests {
			rec := e.client.PostForm("/resize", tt.form)
			assert.Equal(t, tt.status, rec.Code, "%s: %s", tt.name, rec.Body.String())
			assert.NotEmpty(t, DecodeJSON(t, rec)["detail"], tt.name)
		}
	})

	t.Run("undecodable upload", func(t *testing.T) {
		e := newEnv(t, build, cfg)
		name := e.client.MustUpload("notes.jpg", []byte("definitely not an image"))

		rec := e.client.PostForm("/thumbnail", url.Values{"filename": {name}})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, e.processedNames(t))
	})

	t.Run("convert", func(t *testing.T) {
		e := newEnv(t, build, cfg)
		name := e.client.MustUpload("photo.png", SolidPNG(t, 30, 20, red))
		root := strings.TrimSuffix(name, ".png")

		rec := e.client.PostForm("/convert", url.Values{"filename": {name}, "fmt": {"BMP"}})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, root+".bmp", DecodeJSON(t, rec)["processed"])
		assert.Equal(t, "bmp", e.inspect(t, storage.Processed, root+".bmp").Format)

		rec = e.client.PostForm("/convert", url.Values{"filename": {name}})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, root+".jpeg", DecodeJSON(t, rec)["processed"])

		rec = e.client.PostForm("/convert", url.Values{"filename": {name}, "fmt": {"heic"}})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("thumbnail", func(t *testing.T) {
		e := newEnv(t, build, cfg)
		name := e.client.MustUpload("t.png", SolidPNG(t, 1000, 500, red))

		rec := e.client.PostForm("/thumbnail", url.Values{"filename": {name}})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		body := DecodeJSON(t, rec)
		assert.Equal(t, "thumb_"+name, body["thumbnail"])

		info := e.inspect(t, storage.Processed, "thumb_"+name)
		assert.Equal(t, 200, info.Width)
		assert.Equal(t, 100, info.Height)
	})

	t.Run("rotate", func(t *testing.T) {
		e := newEnv(t, build, cfg)
		name := e.client.MustUpload("o.png", SolidPNG(t, 60, 20, red))

		rec := e.client.PostForm("/rotate", url.Values{"filename": {name}, "angle": {"90"}})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, "rotate_90_"+name, DecodeJSON(t, rec)["processed"])

		info := e.inspect(t, storage.Processed, "rotate_90_"+name)
		assert.Equal(t, 20, info.Width)
		assert.Equal(t, 60, info.Height)

		rec = e.client.PostForm("/rotate", url.Values{"filename": {name}, "angle": {"90"}, "expand": {"no"}})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		info = e.inspect(t, storage.Processed, "rotate_90_"+name)
		assert.Equal(t, 60, info.Width)
		assert.Equal(t, 20, info.Height)

		rec = e.client.PostForm("/rotate", url.Values{"filename": {name}})
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("info", func(t *testing.T) {
		e := newEnv(t, build, cfg)
		name := e.client.MustUpload("i.png", SolidPNG(t, 64, 48, red))

		rec := e.client.Get("/info/uploads/" + name)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		body := DecodeJSON(t, rec)
		assert.Equal(t, float64(64), body["width"])
		assert.Equal(t, float64(48), body["height"])
		assert.Equal(t, "png", body["format"])
		assert.Equal(t, name, body["name"])
	})

	t.Run("metrics", func(t *testing.T) {
		prom := metrics.NewProm(metrics.Namespace)
		e := newEnv(t, build, Config{Metrics: prom, MetricsHandler: prom.Handler()})
		name := e.client.MustUpload("m.png", SolidPNG(t, 8, 8, red))
		rec := e.client.PostForm("/thumbnail", url.Values{"filename": {name}, "w": {"4"}, "h": {"4"}})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		rec = e.client.Get("/metrics")
		require.Equal(t, http.StatusOK, rec.Code)
		text := rec.Body.String()
		assert.Contains(t, text, "photo_editor_http_requests_total")
		assert.Contains(t, text, `photo_editor_image_operations_total{operation="thumbnail",result="ok"} 1`)
	})
}

func (e *env) inspect(t *testing.T, kind storage.Kind, name string) *imaging.ImageInfo {
	t.Helper()
	data, err := e.store.Read(kind, name)
	require.NoError(t, err)
	info, err := imaging.Inspect(data)
	require.NoError(t, err)
	return info
}
