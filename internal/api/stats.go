package api

import (
	"net/http"

	"github.com/rs/zerolog/hlog"
)

type statsResponse struct {
	Count int64 `json:"count"`
}

// Stats reports the global prayer counter. A failing store yields a zero
// count rather than an error so the landing page always renders.
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	n, err := h.store.PrayerCount(r.Context())
	if err != nil {
		hlog.FromRequest(r).Warn().Err(err).Msg("read prayer count")
		n = 0
	}
	writeJSON(w, http.StatusOK, statsResponse{Count: n})
}
