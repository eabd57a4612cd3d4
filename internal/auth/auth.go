package auth

import (
	"context"
	"net/http"
	"strings"
)

type ctxKey int

const keyProvider ctxKey = 0

// Resolver picks the LLM provider key for a request: the server key when one
// is configured, otherwise (if allowed) a key the client sends in header.
type Resolver struct {
	header      string
	serverKey   string
	allowClient bool
}

// NewResolver creates a provider key resolver.
// header: HTTP header a client may use to bring its own key (e.g., "X-OpenRouter-Key")
// serverKey: key from the environment; takes precedence when non-empty
func NewResolver(header, serverKey string, allowClient bool) *Resolver {
	h := header
	if h == "" {
		h = "X-OpenRouter-Key"
	}
	return &Resolver{header: h, serverKey: serverKey, allowClient: allowClient}
}

func (s *Resolver) keyFor(r *http.Request) (string, bool) {
	if s.serverKey != "" {
		return s.serverKey, true
	}
	if !s.allowClient {
		return "", false
	}
	k := strings.TrimSpace(r.Header.Get(s.header))
	return k, k != ""
}

// WithProviderKey injects the provider key into context.
func WithProviderKey(ctx context.Context, key string) context.Context {
	return context.WithValue(ctx, keyProvider, key)
}

// ProviderKeyFrom extracts the provider key from context (if present).
func ProviderKeyFrom(ctx context.Context) (string, bool) {
	v := ctx.Value(keyProvider)
	if v == nil {
		return "", false
	}
	k, ok := v.(string)
	return k, ok && k != ""
}

// Middleware resolves the provider key and writes a JSON 401 when there is none.
func (s *Resolver) Middleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			key, ok := s.keyFor(r)
			if !ok {
				writeJSON(w, http.StatusUnauthorized, "missing_provider_key", "The generation service has no API key configured.")
				return
			}
			ctx := WithProviderKey(r.Context(), key)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func writeJSON(w http.ResponseWriter, code int, errCode, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write([]byte(`{"error":{"code":"` + errCode + `","message":"` + msg + `"}}`))
}
