package obs

import (
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/AlexKimmel/prayerlite/internal/gateway"
)

func SetupLogger(level string) zerolog.Logger {
	return NewLogger(os.Stdout, level)
}

// NewLogger is SetupLogger with a caller-chosen sink.
func NewLogger(w io.Writer, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano

	return zerolog.New(w).With().Timestamp().Logger().Level(lvl)
}

// Logger returns a middleware that writes one access line per request and
// attaches the logger so handlers can use hlog.FromRequest. Run it after
// gateway.ClientIP to get the client key on the line.
func Logger(logger zerolog.Logger) gateway.Middleware {
	return func(next http.Handler) http.Handler {
		return hlog.NewHandler(logger)(
			hlog.AccessHandler(func(r *http.Request, status, size int, duration time.Duration) {
				lg := hlog.FromRequest(r)
				var ev *zerolog.Event
				if status >= http.StatusInternalServerError {
					ev = lg.Error()
				} else {
					ev = lg.Info()
				}
				ev.Str("method", r.Method).
					Str("path", r.URL.Path).
					Str("client", gateway.ClientKeyFrom(r.Context())).
					Int("status", status).
					Int("size", size).
					Dur("dur", duration).
					Msg("req")
			})(
				hlog.UserAgentHandler("ua")(
					hlog.RefererHandler("referer")(
						hlog.RequestIDHandler("req_id", "X-Request-ID")(next),
					),
				),
			),
		)
	}
}
