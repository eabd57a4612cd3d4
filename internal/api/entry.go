package api

import (
	"net/http"
	"unicode/utf8"

	"github.com/rs/zerolog/hlog"

	"github.com/AlexKimmel/prayerlite/internal/store"
)

const (
	minJournalRunes = 20
	maxJournalRunes = 4000
)

type entryRequest struct {
	Journal      string  `json:"journal"`
	Reframe      string  `json:"reframe"`
	Prayer       string  `json:"prayer"`
	Blessing     *string `json:"blessing"`
	BlessingCard *string `json:"blessingCard"`
}

func (e *entryRequest) validate() string {
	n := utf8.RuneCountInString(e.Journal)
	switch {
	case n < minJournalRunes:
		return "Journal must be at least 20 characters"
	case n > maxJournalRunes:
		return "Journal must be under 4000 characters"
	case e.Reframe == "":
		return "Reframe is required"
	case e.Prayer == "":
		return "Prayer is required"
	}
	return ""
}

// blessing prefers the explicit field and falls back to the card text the
// generator returned.
func (e *entryRequest) blessing() string {
	switch {
	case e.Blessing != nil:
		return *e.Blessing
	case e.BlessingCard != nil:
		return *e.BlessingCard
	}
	return ""
}

type entryResponse struct {
	EntryID string `json:"entry_id"`
}

// Entry saves a journal together with the texts generated for it.
func (h *Handler) Entry(w http.ResponseWriter, r *http.Request) {
	log := hlog.FromRequest(r)

	var req entryRequest
	if err := decode(r, &req); err != nil {
		badBody(w, err)
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, "invalid_request", msg)
		return
	}

	sessionID, _ := h.sessions.Resolve(w, r)
	id, err := h.store.SaveEntry(r.Context(), store.Entry{
		SessionID: sessionID,
		Journal:   req.Journal,
		Reframe:   req.Reframe,
		Prayer:    req.Prayer,
		Blessing:  req.blessing(),
	})
	if err != nil {
		log.Error().Err(err).Msg("save entry")
		writeError(w, http.StatusInternalServerError, "store_error", "Failed to save entry.")
		return
	}

	log.Debug().Str("entry_id", id).Msg("entry saved")
	writeJSON(w, http.StatusCreated, entryResponse{EntryID: id})
}
