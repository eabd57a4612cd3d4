package api

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/hlog"

	"github.com/AlexKimmel/prayerlite/internal/store"
)

type eventRequest struct {
	EventName string          `json:"event_name"`
	EntryID   string          `json:"entry_id"`
	Meta      json.RawMessage `json:"meta"`
}

func (e *eventRequest) validate() (map[string]any, string) {
	if e.EventName == "" {
		return nil, "event_name is required"
	}
	if e.EntryID != "" && !validEntryID(e.EntryID) {
		return nil, "entry_id must be a valid UUID"
	}

	raw := bytes.TrimSpace(e.Meta)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, ""
	}
	var meta map[string]any
	if raw[0] != '{' || json.Unmarshal(raw, &meta) != nil {
		return nil, "meta must be an object"
	}
	return meta, ""
}

// validEntryID accepts only the canonical hyphenated form of RFC 4122
// versions 1 to 5.
func validEntryID(s string) bool {
	if len(s) != 36 {
		return false
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return false
	}
	return id.Variant() == uuid.RFC4122 && id.Version() >= 1 && id.Version() <= 5
}

// Event records a client analytics event. It answers 204 with no body.
func (h *Handler) Event(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)

	var req eventRequest
	if err := decode(r, &req); err != nil {
		badBody(w, err)
		return
	}
	meta, msg := req.validate()
	if msg != "" {
		writeError(w, http.StatusBadRequest, "invalid_request", msg)
		return
	}

	sessionID, _ := h.sessions.Resolve(w, r)
	err := h.store.RecordEvent(r.Context(), store.Event{
		SessionID: sessionID,
		EntryID:   req.EntryID,
		Name:      req.EventName,
		Meta:      meta,
	})
	if err != nil {
		log.Error().Err(err).Str("event", req.EventName).Msg("record event")
		writeError(w, http.StatusInternalServerError, "store_error", "Failed to record event.")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
