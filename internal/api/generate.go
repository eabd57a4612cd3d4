package api

import (
	"errors"
	"net/http"
	"slices"
	"strconv"
	"unicode/utf8"

	"github.com/rs/zerolog/hlog"

	"github.com/AlexKimmel/prayerlite/internal/auth"
	"github.com/AlexKimmel/prayerlite/internal/gateway"
	"github.com/AlexKimmel/prayerlite/internal/llm"
	"github.com/AlexKimmel/prayerlite/internal/prompt"
	"github.com/AlexKimmel/prayerlite/internal/tokenlimit"
)

const (
	minReflectionRunes = 20
	maxReflectionRunes = 4000
)

type generateRequest struct {
	Reflection string           `json:"reflection"`
	Style      prompt.Style     `json:"style"`
	Length     prompt.Length    `json:"length"`
	Locale     prompt.Locale    `json:"locale"`
	Tradition  prompt.Tradition `json:"tradition"`
}

// validate applies defaults and returns the first problem found.
func (g *generateRequest) validate() string {
	if g.Locale == "" {
		g.Locale = prompt.LocaleZH
	}
	if g.Tradition == "" {
		g.Tradition = prompt.TraditionChristian
	}

	n := utf8.RuneCountInString(g.Reflection)
	switch {
	case n < minReflectionRunes:
		return "Please share at least 20 characters about your day"
	case n > maxReflectionRunes:
		return "Please keep your reflection under 4000 characters"
	case !slices.Contains(prompt.Styles, g.Style):
		return "style must be one of gentle, victorious, gratitude, night, morning"
	case !slices.Contains(prompt.Lengths, g.Length):
		return "length must be one of short, medium, long"
	case !slices.Contains(prompt.Locales, g.Locale):
		return "locale must be zh or en"
	case !slices.Contains(prompt.Traditions, g.Tradition):
		return "tradition must be christian or buddhist"
	}
	return ""
}

// Generate runs after the provider key and request-rate middleware. It
// checks the token budget with an estimate, calls the provider, and commits
// the real usage.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := hlog.FromRequest(r)
	client := gateway.ClientKeyFrom(ctx)

	var req generateRequest
	if err := decode(r, &req); err != nil {
		badBody(w, err)
		return
	}
	if msg := req.validate(); msg != "" {
		writeError(w, http.StatusBadRequest, "invalid_request", msg)
		return
	}

	if prompt.NeedsSafetyResponse(req.Reflection) {
		if h.metrics != nil {
			h.metrics.SafetyResponses.Inc()
		}
		log.Info().Str("client", client).Msg("safety response served")
		writeJSON(w, http.StatusOK, prompt.SafetyResponse(req.Locale, req.Tradition, req.Style))
		return
	}

	text, err := prompt.Build(prompt.Options{
		Reflection: req.Reflection,
		Style:      req.Style,
		Length:     req.Length,
		Locale:     req.Locale,
		Tradition:  req.Tradition,
	})
	if err != nil {
		log.Error().Err(err).Msg("build prompt")
		writeError(w, http.StatusInternalServerError, "internal", "Something went wrong. Please try again.")
		return
	}

	estInput := tokenlimit.EstimateTokens(text)
	dec, err := h.tokens.Check(ctx, client, estInput, h.outputTokens, h.now())
	if err != nil {
		h.limiterError(err)
		log.Error().Err(err).Str("client", client).Msg("token limiter check failed")
		writeError(w, http.StatusInternalServerError, "token_limiter_error", "internal token limiter error")
		return
	}
	if !dec.Allowed {
		if h.metrics != nil {
			h.metrics.Limited.WithLabelValues("tokens", string(dec.Reason)).Inc()
		}
		log.Warn().Str("client", client).Str("reason", string(dec.Reason)).Int("input_estimate", estInput).Msg("token budget exceeded")

		retry := dec.RetryAfterSec()
		setQuotaHeaders(w, dec)
		w.Header().Set("Retry-After", strconv.FormatInt(retry, 10))
		writeJSON(w, http.StatusTooManyRequests, errorBody{Error: errorDetail{
			Code:    string(dec.Reason),
			Message: dec.Message,
			ResetIn: &retry,
		}})
		return
	}

	apiKey, _ := auth.ProviderKeyFrom(ctx)
	res, err := h.generator.Generate(ctx, apiKey, text)
	if err != nil {
		h.generationError(w, r, err)
		return
	}

	// each count the provider left out falls back to its pre-flight estimate
	actualIn, actualOut := estInput, h.outputTokens
	if res.Usage.InputTokens > 0 {
		actualIn = res.Usage.InputTokens
	}
	if res.Usage.OutputTokens > 0 {
		actualOut = res.Usage.OutputTokens
	}
	now := h.now()
	if err := h.tokens.Record(ctx, client, actualIn, actualOut, now); err != nil {
		h.limiterError(err)
		log.Error().Err(err).Str("client", client).Msg("token usage not recorded")
	} else if h.metrics != nil {
		h.metrics.TokensRecorded.WithLabelValues("input").Add(float64(actualIn))
		h.metrics.TokensRecorded.WithLabelValues("output").Add(float64(actualOut))
	}

	if usage, err := h.tokens.Usage(ctx, client, now); err == nil {
		setQuotaHeaders(w, h.tokens.Budget().Remaining(usage))
	}
	w.Header().Set("X-TokenUsage-Input", strconv.Itoa(actualIn))
	w.Header().Set("X-TokenUsage-Output", strconv.Itoa(actualOut))

	log.Info().
		Str("client", client).
		Str("model", res.Model).
		Int("input_tokens", actualIn).
		Int("output_tokens", actualOut).
		Bool("usage_reported", res.Usage.Reported).
		Msg("generated")
	writeJSON(w, http.StatusOK, res.Output)
}

func (h *Handler) generationError(w http.ResponseWriter, r *http.Request, err error) {
	log := hlog.FromRequest(r)
	kind, code, errCode, msg := "other", http.StatusInternalServerError, "internal", "Something went wrong. Please try again."
	switch {
	case errors.Is(err, llm.ErrUnauthorized):
		kind, code, errCode, msg = "unauthorized", http.StatusUnauthorized, "provider_unauthorized", "The generation service API key is invalid or expired."
	case errors.Is(err, llm.ErrUnavailable):
		kind, code, errCode, msg = "unavailable", http.StatusServiceUnavailable, "provider_unavailable", "Unable to connect to the prayer generation service. Please try again."
	case errors.Is(err, llm.ErrEmptyOutput):
		kind = "empty_output"
	}
	if h.metrics != nil {
		h.metrics.GenerationErrors.WithLabelValues(kind).Inc()
	}
	log.Error().Err(err).Str("kind", kind).Msg("generation failed")
	writeError(w, code, errCode, msg)
}

func (h *Handler) limiterError(error) {
	if h.metrics != nil {
		h.metrics.LimiterErrors.WithLabelValues("tokens").Inc()
	}
}

func setQuotaHeaders(w http.ResponseWriter, d tokenlimit.Decision) {
	w.Header().Set("X-TokenLimit-Input-Remaining", strconv.Itoa(d.RemainingInput))
	w.Header().Set("X-TokenLimit-Output-Remaining", strconv.Itoa(d.RemainingOutput))
	w.Header().Set("X-TokenLimit-Requests-Remaining", strconv.Itoa(d.RemainingRequests))
}
