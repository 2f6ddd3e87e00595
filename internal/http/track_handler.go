package http

import (
	"encoding/json"
	"log/slog"

	"github.com/gofiber/fiber/v2"

	"courselytics/internal/tracker"
)

// TrackPageViewParams is the body of POST /api/v1/track. Consent is the
// raw client-persisted record, forwarded verbatim; the tracker parses it.
type TrackPageViewParams struct {
	URL       string          `json:"url"`
	Title     string          `json:"title"`
	Referrer  string          `json:"referrer"`
	SessionID string          `json:"sessionId"`
	UserID    string          `json:"userId"`
	Consent   json.RawMessage `json:"consent"`
	Timezone  string          `json:"timezone"`
	Locale    string          `json:"locale"`
}

// TrackDurationParams is the body of POST /api/v1/track/duration.
type TrackDurationParams struct {
	SessionID string          `json:"sessionId"`
	URL       string          `json:"url"`
	Seconds   int             `json:"seconds"`
	Consent   json.RawMessage `json:"consent"`
}

type trackResponse struct {
	Status    string `json:"status"`
	Reason    string `json:"reason,omitempty"`
	SessionID string `json:"sessionId,omitempty"`
}

// TrackPageViewAction records one navigation. Tracking is best-effort:
// malformed bodies, missing consent and storage failures all acknowledge
// with 202 so a broken pipeline never breaks page loads.
func (h *Handlers) TrackPageViewAction(c *fiber.Ctx) error {
	var params TrackPageViewParams
	if err := c.BodyParser(&params); err != nil {
		h.logger.Debug("Discarding unparsable track request", slog.Any("error", err))
		return accepted(c, tracker.Result{Outcome: tracker.OutcomeFailed, Reason: "bad-payload"}, "")
	}

	sessionID := params.SessionID
	if sessionID == "" {
		sessionID = tracker.NewSessionID()
	}

	session := &tracker.Session{
		ID:        sessionID,
		UserAgent: c.Get("User-Agent"),
		Host:      hostFromURL(params.URL, c.Hostname()),
		Consent:   params.Consent,
		Timezone:  params.Timezone,
		Locale:    params.Locale,
	}
	if params.UserID != "" {
		session.UserID = &params.UserID
	}

	result := h.tracker.TrackPageView(c.Context(), session, tracker.PageViewInput{
		PageURL:         pagePath(params.URL),
		PageTitle:       params.Title,
		Referrer:        params.Referrer,
		IP:              clientIP(c),
		EdgeCountryCode: c.Get("CF-IPCountry"),
	})

	return accepted(c, result, sessionID)
}

// TrackDurationAction backfills the dwell time of the session's most recent
// page view. Same best-effort contract as TrackPageViewAction.
func (h *Handlers) TrackDurationAction(c *fiber.Ctx) error {
	var params TrackDurationParams
	if err := c.BodyParser(&params); err != nil {
		h.logger.Debug("Discarding unparsable duration request", slog.Any("error", err))
		return accepted(c, tracker.Result{Outcome: tracker.OutcomeFailed, Reason: "bad-payload"}, "")
	}

	session := &tracker.Session{
		ID:      params.SessionID,
		Host:    hostFromURL(params.URL, c.Hostname()),
		Consent: params.Consent,
	}

	result := h.tracker.RecordDuration(c.Context(), session, pagePath(params.URL), params.Seconds)
	return accepted(c, result, params.SessionID)
}

func accepted(c *fiber.Ctx, result tracker.Result, sessionID string) error {
	resp := trackResponse{
		Status:    string(result.Outcome),
		Reason:    result.Reason,
		SessionID: sessionID,
	}
	return c.Status(fiber.StatusAccepted).JSON(resp)
}
