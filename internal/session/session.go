// Package session identifies anonymous browsers by a long-lived cookie.
package session

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

type Manager struct {
	name   string
	maxAge time.Duration
	secure bool
}

func NewManager(cookieName string, maxAge time.Duration, secure bool) *Manager {
	return &Manager{name: cookieName, maxAge: maxAge, secure: secure}
}

// Resolve returns the session id carried by r. When there is none it mints
// a new one and sets the cookie on w; isNew reports which case applied.
// The cookie must be set before the response header is written.
func (m *Manager) Resolve(w http.ResponseWriter, r *http.Request) (id string, isNew bool) {
	if c, err := r.Cookie(m.name); err == nil {
		if v := strings.TrimSpace(c.Value); v != "" {
			return v, false
		}
	}

	id = uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     m.name,
		Value:    id,
		Path:     "/",
		MaxAge:   int(m.maxAge / time.Second),
		HttpOnly: true,
		Secure:   m.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return id, true
}
