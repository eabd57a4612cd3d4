// Package server assembles the HTTP surface: ops endpoints, the metrics
// endpoint and the /api routes behind their limiters.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/AlexKimmel/prayerlite/internal/api"
	"github.com/AlexKimmel/prayerlite/internal/auth"
	"github.com/AlexKimmel/prayerlite/internal/config"
	"github.com/AlexKimmel/prayerlite/internal/gateway"
	"github.com/AlexKimmel/prayerlite/internal/obs"
	"github.com/AlexKimmel/prayerlite/internal/ratelimit"
)

// Pinger reports whether a backing dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Config   *config.Root
	Logger   zerolog.Logger
	Registry *prometheus.Registry
	Metrics  *obs.Metrics

	RateLimiter ratelimit.Limiter
	Keys        *auth.Resolver
	API         *api.Handler
	Health      Pinger // optional
	Version     string
}

// NewHandler builds the full middleware chain and router.
func NewHandler(d Deps) http.Handler {
	cfg := d.Config
	promPath := cfg.Observability.PrometheusPath
	skip := map[string]struct{}{
		"/health":  {},
		"/version": {},
		promPath:   {},
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(d.Metrics.Middleware(skip))

	r.Get("/health", health(d.Health))
	r.Get("/version", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(d.Version))
	})
	r.Method(http.MethodGet, promPath, promhttp.HandlerFor(d.Registry, promhttp.HandlerOpts{Registry: d.Registry}))

	r.Route("/api", func(r chi.Router) {
		r.With(
			d.Keys.Middleware(),
			gateway.RateLimit(d.RateLimiter,
				func() { d.Metrics.Limited.WithLabelValues("rate", "rate_window").Inc() },
				func() { d.Metrics.LimiterErrors.WithLabelValues("rate").Inc() },
			),
		).Post("/generate", d.API.Generate)
		r.Post("/entry", d.API.Entry)
		r.Post("/event", d.API.Event)
		r.Get("/stats", d.API.Stats)
	})

	return gateway.Chain(
		r,
		gateway.ClientIP(cfg.ClientIP.Header),
		obs.Logger(d.Logger),
		gateway.BodyLimit(cfg.Server.MaxBody()),
	)
}

// New returns an http.Server configured from d.Config. The caller owns
// ListenAndServe and Shutdown.
func New(d Deps) *http.Server {
	return &http.Server{
		Addr:              d.Config.Server.Addr,
		Handler:           NewHandler(d),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       d.Config.Server.ReadTimeout(),
		WriteTimeout:      d.Config.Server.WriteTimeout(),
		IdleTimeout:       d.Config.Server.IdleTimeout(),
	}
}

func health(p Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if p != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := p.Ping(ctx); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte(`{"ok":false}`))
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}
}
