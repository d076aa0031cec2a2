package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoop(t *testing.T) {
	var r Recorder = Noop{}
	r.ObserveRequest("GET", "/", "200", 0.1)
	r.ObserveOperation("resize", ResultOK)
}

func TestProm_Observations(t *testing.T) {
	p := NewProm(Namespace)

	p.ObserveRequest("POST", "/resize", "200", 0.02)
	p.ObserveRequest("POST", "/resize", "200", 0.03)
	p.ObserveRequest("POST", "/crop", "400", 0.01)
	p.ObserveOperation("resize", ResultOK)
	p.ObserveOperation("crop", ResultError)

	assert.Equal(t, 2.0, testutil.ToFloat64(p.requests.WithLabelValues("POST", "/resize", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.requests.WithLabelValues("POST", "/crop", "400")))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.operations.WithLabelValues("resize", ResultOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(p.operations.WithLabelValues("crop", ResultError)))
	assert.Equal(t, 2, testutil.CollectAndCount(p.latency))
}

func TestProm_IndependentRegistries(t *testing.T) {
	a := NewProm(Namespace)
	b := NewProm(Namespace)

	a.ObserveOperation("rotate", ResultOK)

	assert.Equal(t, 1.0, testutil.ToFloat64(a.operations.WithLabelValues("rotate", ResultOK)))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.operations.WithLabelValues("rotate", ResultOK)))
}

func TestProm_Handler(t *testing.T) {
	p := NewProm(Namespace)
	p.ObserveRequest("GET", "/", "200", 0.001)
	p.ObserveOperation("thumbnail", ResultOK)

	rec := httptest.NewRecorder()
	p.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	text := string(body)

	for _, want := range []string{
		`photo_editor_http_requests_total{method="GET",route="/",status="200"} 1`,
		`photo_editor_http_request_duration_seconds_count{method="GET",route="/"} 1`,
		`photo_editor_image_operations_total{operation="thumbnail",result="ok"} 1`,
		"go_goroutines",
	} {
		assert.True(t, strings.Contains(text, want), "missing %q", want)
	}
}
