// Package tracker records page views and session summaries, best-effort.
//
// Nothing in this package returns an error to its caller: tracking sits on
// the page-render path of the host application and must be invisible to it.
// Every operation yields a Result the caller is free to discard; failures
// are logged and the affected write is simply lost.
package tracker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"gorm.io/gorm"

	"courselytics/internal/analytics"
	"courselytics/internal/consent"
	"courselytics/internal/geo"
	"courselytics/internal/useragent"
)

// Outcome says what happened to a best-effort write.
type Outcome string

const (
	// OutcomeRecorded means the write reached the store.
	OutcomeRecorded Outcome = "recorded"
	// OutcomeSuppressed means policy blocked the write (consent, localhost).
	OutcomeSuppressed Outcome = "suppressed"
	// OutcomeFailed means the write was attempted and lost.
	OutcomeFailed Outcome = "failed"
)

// Suppression and failure reasons carried on a Result.
const (
	ReasonNoConsent    = "no-consent"
	ReasonLocalHost    = "localhost"
	ReasonWriteFailed  = "write-failed"
	ReasonEmptySession = "empty-session"
)

// Result is the discardable outcome of a tracking call.
type Result struct {
	Outcome Outcome
	Reason  string
}

// Recorded reports whether the write reached the store.
func (r Result) Recorded() bool {
	return r.Outcome == OutcomeRecorded
}

func recorded() Result { return Result{Outcome: OutcomeRecorded} }

func suppressed(reason string) Result { return Result{Outcome: OutcomeSuppressed, Reason: reason} }

func failed(reason string) Result { return Result{Outcome: OutcomeFailed, Reason: reason} }

// PageViewInput carries the per-navigation attributes of one page view.
type PageViewInput struct {
	PageURL   string
	PageTitle string
	Referrer  string

	// IP and EdgeCountryCode are transport facts from the incoming
	// request, handed to the geo chain.
	IP              string
	EdgeCountryCode string
}

// Country cache bounds. Session IDs arrive from clients, so the cache must
// stay bounded against minted IDs; the TTL covers a realistic browsing
// session and the cap limits worst-case memory.
const (
	countryCacheTTL        = 30 * time.Minute
	countryCacheMaxEntries = 4096
)

type cachedCountry struct {
	country   string
	expiresAt time.Time
}

// Tracker orchestrates page-view and session writes.
type Tracker struct {
	db       *gorm.DB
	resolver *geo.Resolver
	logger   *slog.Logger

	// Country lookups can hit remote providers, so the answer is cached
	// per session to avoid redundant lookups across rapid navigations.
	countryMu    sync.Mutex
	countryCache map[string]cachedCountry
}

// New creates a Tracker writing through db and resolving countries with
// resolver.
func New(db *gorm.DB, resolver *geo.Resolver, logger *slog.Logger) *Tracker {
	return &Tracker{
		db:           db,
		resolver:     resolver,
		logger:       logger,
		countryCache: make(map[string]cachedCountry),
	}
}

// TrackPageView records one navigation: a page_views insert plus a
// user_sessions upsert. Best-effort; never blocks on correctness and never
// surfaces an error.
func (t *Tracker) TrackPageView(ctx context.Context, session *Session, input PageViewInput) Result {
	if session == nil || session.ID == "" {
		return suppressed(ReasonEmptySession)
	}
	if !consent.Allowed(session.Consent) {
		t.logger.Debug("Tracking suppressed: no analytics consent",
			slog.String("session_id", session.ID))
		return suppressed(ReasonNoConsent)
	}
	if consent.IsLocalHost(session.Host) {
		t.logger.Debug("Tracking suppressed: local development host",
			slog.String("host", session.Host))
		return suppressed(ReasonLocalHost)
	}

	profile := useragent.Classify(session.UserAgent)
	country := t.countryFor(ctx, session, input)

	referrer := input.Referrer
	if referrer == "" {
		referrer = analytics.ReferrerDirect
	}

	pageView := &analytics.PageView{
		SessionID:  session.ID,
		UserID:     session.UserID,
		PageURL:    input.PageURL,
		PageTitle:  input.PageTitle,
		Referrer:   referrer,
		UserAgent:  session.UserAgent,
		Country:    country,
		DeviceType: profile.DeviceType,
		Browser:    profile.Browser,
	}

	if err := t.db.WithContext(ctx).Create(pageView).Error; err != nil {
		t.logger.Error("Failed to store page view",
			slog.String("session_id", session.ID),
			slog.String("page_url", input.PageURL),
			slog.Any("error", err))
		return failed(ReasonWriteFailed)
	}

	t.upsertSession(ctx, session, input.PageURL, profile, country)

	return recorded()
}

// upsertSession creates the session row on first sight and advances it on
// every later page view. The read-then-write is deliberately not wrapped
// in a transaction: concurrent tabs sharing a session may undercount
// total_pages, which is tolerated; a failed update only loses the bump.
func (t *Tracker) upsertSession(ctx context.Context, session *Session, pageURL string, profile useragent.Profile, country string) {
	db := t.db.WithContext(ctx)

	var existing analytics.UserSession
	err := db.Where("session_id = ?", session.ID).First(&existing).Error

	switch {
	case err == nil:
		updates := map[string]any{
			"last_page":   pageURL,
			"total_pages": gorm.Expr("total_pages + 1"),
		}
		if err := db.Model(&analytics.UserSession{}).
			Where("session_id = ?", session.ID).
			Updates(updates).Error; err != nil {
			t.logger.Warn("Failed to update session summary",
				slog.String("session_id", session.ID),
				slog.Any("error", err))
		}

	case errors.Is(err, gorm.ErrRecordNotFound):
		record := &analytics.UserSession{
			SessionID:  session.ID,
			UserID:     session.UserID,
			UserAgent:  session.UserAgent,
			FirstPage:  pageURL,
			LastPage:   pageURL,
			TotalPages: 1,
			Country:    country,
			DeviceType: profile.DeviceType,
			Browser:    profile.Browser,
		}
		if err := db.Create(record).Error; err != nil {
			t.logger.Warn("Failed to create session summary",
				slog.String("session_id", session.ID),
				slog.Any("error", err))
		}

	default:
		t.logger.Warn("Failed to look up session summary",
			slog.String("session_id", session.ID),
			slog.Any("error", err))
	}
}

// RecordDuration backfills the time-on-page of the most recent page view
// for the session and path. The duration_seconds IS NULL guard makes the
// backfill at-most-once; a race with tab termination just loses the value.
func (t *Tracker) RecordDuration(ctx context.Context, session *Session, pageURL string, seconds int) Result {
	if session == nil || session.ID == "" {
		return suppressed(ReasonEmptySession)
	}
	if !consent.Allowed(session.Consent) {
		t.logger.Debug("Duration backfill suppressed: no analytics consent",
			slog.String("session_id", session.ID))
		return suppressed(ReasonNoConsent)
	}
	if consent.IsLocalHost(session.Host) {
		t.logger.Debug("Duration backfill suppressed: local development host",
			slog.String("host", session.Host))
		return suppressed(ReasonLocalHost)
	}
	if seconds < 0 {
		seconds = 0
	}

	query := `
		UPDATE page_views
		SET duration_seconds = ?
		WHERE id = (
			SELECT id FROM page_views
			WHERE session_id = ? AND page_url = ?
			ORDER BY created_at DESC, id DESC
			LIMIT 1
		) AND duration_seconds IS NULL
	`
	err := t.db.WithContext(ctx).Exec(query, seconds, session.ID, pageURL).Error
	if err != nil {
		t.logger.Warn("Failed to backfill page view duration",
			slog.String("session_id", session.ID),
			slog.String("page_url", pageURL),
			slog.Any("error", err))
		return failed(ReasonWriteFailed)
	}

	return recorded()
}

// countryFor resolves the visitor's country once per session and caches it
// with a TTL roughly matching a browsing session.
func (t *Tracker) countryFor(ctx context.Context, session *Session, input PageViewInput) string {
	now := time.Now()

	t.countryMu.Lock()
	if entry, ok := t.countryCache[session.ID]; ok && now.Before(entry.expiresAt) {
		t.countryMu.Unlock()
		return entry.country
	}
	t.countryMu.Unlock()

	result := t.resolver.Resolve(ctx, geo.Request{
		EdgeCountryCode: input.EdgeCountryCode,
		IP:              input.IP,
		Timezone:        session.Timezone,
		Locale:          session.Locale,
	})

	t.countryMu.Lock()
	t.pruneCountryCacheLocked(now)
	t.countryCache[session.ID] = cachedCountry{
		country:   result.Country,
		expiresAt: now.Add(countryCacheTTL),
	}
	t.countryMu.Unlock()

	return result.Country
}

// pruneCountryCacheLocked keeps the cache bounded. Expired entries are
// dropped first; if the cap is still hit the cache is reset wholesale,
// which only costs a re-resolution for sessions that are still active.
// Callers must hold countryMu.
func (t *Tracker) pruneCountryCacheLocked(now time.Time) {
	if len(t.countryCache) < countryCacheMaxEntries {
		return
	}

	for id, entry := range t.countryCache {
		if !now.Before(entry.expiresAt) {
			delete(t.countryCache, id)
		}
	}

	if len(t.countryCache) >= countryCacheMaxEntries {
		t.countryCache = make(map[string]cachedCountry)
	}
}
