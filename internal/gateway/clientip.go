package gateway

import (
	"context"
	"net/http"
	"strings"
)

// UnknownClient is the shared key for requests without a usable client header.
const UnknownClient = "unknown"

type ctxKey int

const keyClient ctxKey = 0

// ClientKey returns the first comma-separated value of header, trimmed.
// Without one every such client lands in the UnknownClient bucket.
func ClientKey(r *http.Request, header string) string {
	v := r.Header.Get(header)
	if v == "" {
		return UnknownClient
	}
	first, _, _ := strings.Cut(v, ",")
	first = strings.TrimSpace(first)
	if first == "" {
		return UnknownClient
	}
	return first
}

// ClientIP stores the client key in the request context for later handlers.
func ClientIP(header string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := WithClientKey(r.Context(), ClientKey(r, header))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func WithClientKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, keyClient, key)
}

// ClientKeyFrom returns the key set by ClientIP, or UnknownClient.
func ClientKeyFrom(ctx context.Context) string {
	if v, ok := ctx.Value(keyClient).(string); ok && v != "" {
		return v
	}
	return UnknownClient
}
