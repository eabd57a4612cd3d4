package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/AlexKimmel/prayerlite/internal/api"
	"github.com/AlexKimmel/prayerlite/internal/auth"
	"github.com/AlexKimmel/prayerlite/internal/config"
	"github.com/AlexKimmel/prayerlite/internal/llm"
	"github.com/AlexKimmel/prayerlite/internal/obs"
	"github.com/AlexKimmel/prayerlite/internal/prompt"
	ratemem "github.com/AlexKimmel/prayerlite/internal/ratelimit/memory"
	"github.com/AlexKimmel/prayerlite/internal/session"
	"github.com/AlexKimmel/prayerlite/internal/store"
	tokenmem "github.com/AlexKimmel/prayerlite/internal/tokenlimit/memory"
	"github.com/AlexKimmel/prayerlite/internal/window"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		// database/sql keeps a connection opener goroutine per open DB until Close
		goleak.IgnoreTopFunction("database/sql.(*DB).connectionOpener"),
	)
}

type stubGenerator struct{}

func (stubGenerator) Generate(context.Context, string, string) (*llm.Result, error) {
	return &llm.Result{
		Output: prompt.Output{Reframe: "r", Prayer: "p", Tags: []string{}, BlessingCard: "b"},
		Usage:  llm.Usage{InputTokens: 10, OutputTokens: 20, Reported: true},
	}, nil
}

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func newTestHandler(t *testing.T, serverKey string, health Pinger) http.Handler {
	t.Helper()

	cfg, err := config.Parse([]byte("limits:\n  rate:\n    max_requests: 2\nserver:\n  max_body_bytes: 1024\n"))
	require.NoError(t, err)

	st, err := store.Open(context.Background(), filepath.Join(t.TempDir(), "server.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	reg := prometheus.NewRegistry()
	metrics := obs.NewMetrics(reg)
	noSweep := window.WithSweepProbability(0)

	return NewHandler(Deps{
		Config:      cfg,
		Logger:      zerolog.Nop(),
		Registry:    reg,
		Metrics:     metrics,
		RateLimiter: ratemem.New(cfg.Limits.Rate.Policy(), noSweep),
		Keys:        auth.NewResolver(cfg.LLM.ClientKeyHeader, serverKey, false),
		API: api.New(api.Options{
			Tokens:       tokenmem.New(cfg.Limits.Tokens.Budget(), noSweep),
			Generator:    stubGenerator{},
			Store:        st,
			Sessions:     session.NewManager(cfg.Session.CookieName, cfg.Session.MaxAge(), false),
			Metrics:      metrics,
			OutputTokens: cfg.LLM.MaxOutputTokens,
		}),
		Health:  health,
		Version: "v1.2.3",
	})
}

const generateBody = `{"reflection":"Today was long and I felt tired, but a friend called me.","style":"night","length":"short","locale":"en"}`

func generate(h http.Handler, ip string) *httptest.ResponseRecorder {
	r := httptest.NewRequest(http.MethodPost, "/api/generate", strings.NewReader(generateBody))
	r.Header.Set("X-Forwarded-For", ip+", 10.0.0.1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, r)
	return rec
}

func TestOpsEndpoints(t *testing.T) {
	h := newTestHandler(t, "sk-server", pinger{})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/version", nil))
	assert.Equal(t, "v1.2.3", rec.Body.String())
}

func TestHealthReportsBrokenStore(t *testing.T) {
	h := newTestHandler(t, "sk-server", pinger{err: errors.New("closed")})

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGenerateRateLimitedPerClient(t *testing.T) {
	h := newTestHandler(t, "sk-server", nil)

	for i := range 2 {
		rec := generate(h, "198.51.100.1")
		require.Equal(t, http.StatusOK, rec.Code, "request %d: %s", i, rec.Body.String())
		assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
		assert.NotEmpty(t, rec.Header().Get("X-TokenLimit-Requests-Remaining"))
	}

	rec := generate(h, "198.51.100.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
	assert.Contains(t, rec.Body.String(), "rate_limited")

	// another client has its own window
	assert.Equal(t, http.StatusOK, generate(h, "198.51.100.2").Code)
}

func TestGenerateWithoutProviderKey(t *testing.T) {
	h := newTestHandler(t, "", nil)

	for range 3 {
		rec := generate(h, "198.51.100.1")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "missing_provider_key")
		// rejected before the rate limiter runs
		assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
	}
}

func TestBodyLimitApplies(t *testing.T) {
	h := newTestHandler(t, "sk-server", nil)

	body := `{"event_name":"` + strings.Repeat("x", 2048) + `"}`
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/event", strings.NewReader(body)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestLiveServerServesMetrics(t *testing.T) {
	srv := httptest.NewServer(newTestHandler(t, "sk-server", nil))
	defer srv.Close()

	c := &http.Client{Timeout: 5 * time.Second}
	resp, err := c.Get(srv.URL + "/api/stats")
	require.NoError(t, err)
	b, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.JSONEq(t, `{"count":0}`, string(b))

	resp, err = c.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	b, _ = io.ReadAll(resp.Body)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(b), `prayerlite_requests_total{code="200",method="GET",route="/api/stats"} 1`)

	c.CloseIdleConnections()
}
