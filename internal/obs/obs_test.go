package obs

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexKimmel/prayerlite/internal/gateway"
)

func TestNewLoggerLevel(t *testing.T) {
	assert.Equal(t, zerolog.DebugLevel, NewLogger(&bytes.Buffer{}, "DEBUG").GetLevel())
	assert.Equal(t, zerolog.InfoLevel, NewLogger(&bytes.Buffer{}, "nonsense").GetLevel())
	assert.Equal(t, zerolog.InfoLevel, NewLogger(&bytes.Buffer{}, "").GetLevel())
}

func TestLoggerMiddlewareWritesAccessLine(t *testing.T) {
	var buf bytes.Buffer
	h := gateway.Chain(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}), gateway.ClientIP("X-Forwarded-For"), Logger(NewLogger(&buf, "info")))

	r := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	r.Header.Set("X-Request-ID", "abc")
	r.Header.Set("X-Forwarded-For", "203.0.113.9")
	h.ServeHTTP(httptest.NewRecorder(), r)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "req", line["message"])
	assert.Equal(t, "/api/stats", line["path"])
	assert.EqualValues(t, http.StatusTeapot, line["status"])
	assert.Equal(t, "203.0.113.9", line["client"])
	assert.Equal(t, "info", line["level"])
}

func TestMetricsMiddlewareUsesRoutePattern(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	r := chi.NewRouter()
	r.Use(m.Middleware(map[string]struct{}{"/health": {}}))
	r.Get("/api/items/{id}", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusAccepted) })
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {})

	for _, p := range []string{"/api/items/1", "/api/items/2", "/health"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, p, nil))
	}

	assert.Equal(t, 2.0, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/api/items/{id}", "GET", "202")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.RequestsTotal))
}
