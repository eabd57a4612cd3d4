package gateway

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog/hlog"

	"github.com/AlexKimmel/prayerlite/internal/ratelimit"
)

// RateLimit admits at most the limiter's quota per client key. The key comes
// from ClientIP, which must run earlier in the chain.
func RateLimit(
	lim ratelimit.Limiter,
	onLimited func(),
	onError func(),
) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key := ClientKeyFrom(r.Context())

			dec, err := lim.Allow(r.Context(), key, time.Now())
			if err != nil {
				if onError != nil {
					onError()
				}
				hlog.FromRequest(r).Error().Err(err).Str("client", key).Msg("rate limiter failed")
				writeJSON(w, http.StatusInternalServerError, "rate_limiter_error", "internal rate limiter error")
				return
			}

			// headers for good DX
			if dec.Limit > 0 {
				w.Header().Set("X-RateLimit-Limit", itoa(dec.Limit))
				w.Header().Set("X-RateLimit-Remaining", itoa(max(dec.Remaining, 0)))
				w.Header().Set("X-RateLimit-Reset", itoa64(dec.Reset.Unix()))
			}

			if !dec.Allowed {
				if onLimited != nil {
					onLimited()
				}
				hlog.FromRequest(r).Warn().Str("client", key).Dur("reset_in", dec.ResetIn).Msg("rate limited")
				w.Header().Set("Retry-After", itoa64(dec.RetryAfterSec()))
				writeJSON(w, http.StatusTooManyRequests, "rate_limited", "Too many requests, please try again shortly.")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func itoa(i int) string     { return fmtInt(int64(i)) }
func itoa64(i int64) string { return fmtInt(i) }

func fmtInt(i int64) string {
	var buf [32]byte
	return string(strconv.AppendInt(buf[:0], i, 10))
}

// local tiny JSON helper; messages are constants so no escaping is needed
func writeJSON(w http.ResponseWriter, code int, errCode, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(`{"error":{"code":"` + errCode + `","message":"` + msg + `"}}`))
}
