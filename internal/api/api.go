// Package api implements the JSON endpoints under /api.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/AlexKimmel/prayerlite/internal/llm"
	"github.com/AlexKimmel/prayerlite/internal/obs"
	"github.com/AlexKimmel/prayerlite/internal/session"
	"github.com/AlexKimmel/prayerlite/internal/store"
	"github.com/AlexKimmel/prayerlite/internal/tokenlimit"
)

// Store is the persistence the handlers need.
type Store interface {
	SaveEntry(ctx context.Context, e store.Entry) (string, error)
	RecordEvent(ctx context.Context, ev store.Event) error
	PrayerCount(ctx context.Context) (int64, error)
}

type Handler struct {
	tokens    tokenlimit.Limiter
	generator llm.Generator
	store     Store
	sessions  *session.Manager
	metrics   *obs.Metrics

	// outputTokens is the generation cap, used as the pre-flight output estimate.
	outputTokens int
	now          func() time.Time
}

type Options struct {
	Tokens       tokenlimit.Limiter
	Generator    llm.Generator
	Store        Store
	Sessions     *session.Manager
	Metrics      *obs.Metrics // optional
	OutputTokens int
}

func New(o Options) *Handler {
	return &Handler{
		tokens:       o.Tokens,
		generator:    o.Generator,
		store:        o.Store,
		sessions:     o.Sessions,
		metrics:      o.Metrics,
		outputTokens: o.OutputTokens,
		now:          time.Now,
	}
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	ResetIn *int64 `json:"reset_in,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, errCode, msg string) {
	writeJSON(w, code, errorBody{Error: errorDetail{Code: errCode, Message: msg}})
}

func decode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

// badBody answers a body that failed to decode.
func badBody(w http.ResponseWriter, err error) {
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		writeError(w, http.StatusRequestEntityTooLarge, "payload_too_large", "Request body is too large.")
		return
	}
	writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request")
}
