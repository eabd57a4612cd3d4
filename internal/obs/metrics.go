package obs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/AlexKimmel/prayerlite/internal/gateway"
)

type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	Limited          *prometheus.CounterVec
	LimiterErrors    *prometheus.CounterVec
	TokensRecorded   *prometheus.CounterVec
	GenerationErrors *prometheus.CounterVec
	SafetyResponses  prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prayerlite_requests_total",
				Help: "Total HTTP requests processed",
			},
			[]string{"route", "method", "code"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "prayerlite_request_duration_seconds",
				Help:    "Request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route", "method"},
		),
		Limited: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prayerlite_limited_total",
				Help: "Total requests rejected by a limiter",
			},
			[]string{"limiter", "reason"},
		),
		LimiterErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prayerlite_limiter_errors_total",
				Help: "Total limiter backend errors",
			},
			[]string{"limiter"},
		),
		TokensRecorded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prayerlite_tokens_recorded_total",
				Help: "Tokens committed to the per-client budget",
			},
			[]string{"direction"},
		),
		GenerationErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "prayerlite_generation_errors_total",
				Help: "Failed calls to the generation provider",
			},
			[]string{"kind"},
		),
		SafetyResponses: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "prayerlite_safety_responses_total",
				Help: "Reflections answered with the fixed safety reply",
			},
		),
	}

	reg.MustRegister(m.RequestsTotal, m.RequestDuration, m.Limited, m.LimiterErrors,
		m.TokensRecorded, m.GenerationErrors, m.SafetyResponses)
	return m
}

type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusRecorder) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// Middleware records per-request metrics labelled by the chi route pattern.
func (m *Metrics) Middleware(skip map[string]struct{}) gateway.Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := skip[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}

			next.ServeHTTP(rec, r)

			route := "unknown"
			if rc := chi.RouteContext(r.Context()); rc != nil {
				if p := rc.RoutePattern(); p != "" {
					route = p
				}
			}

			method := r.Method
			code := rec.status
			if code == 0 {
				code = http.StatusOK
			}

			m.RequestDuration.WithLabelValues(route, method).Observe(time.Since(start).Seconds())
			m.RequestsTotal.WithLabelValues(route, method, strconv.Itoa(code)).Inc()
		})
	}
}
