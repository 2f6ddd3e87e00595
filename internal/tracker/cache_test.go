package tracker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"courselytics/internal/geo"
	"courselytics/internal/testsupport"
)

func newCacheTestTracker() *Tracker {
	logger := testsupport.Logger()
	resolver := geo.NewResolver(logger, geo.NewEdgeHeaderSource())
	return New(nil, resolver, logger)
}

func TestCountryCacheStaysBounded(t *testing.T) {
	tr := newCacheTestTracker()

	// Session IDs come from clients, so arbitrarily many distinct IDs can
	// show up. The cache must never grow past its cap.
	for i := 0; i < countryCacheMaxEntries+100; i++ {
		session := &Session{ID: fmt.Sprintf("s-%d", i)}
		tr.countryFor(context.Background(), session, PageViewInput{EdgeCountryCode: "IN"})
	}

	tr.countryMu.Lock()
	size := len(tr.countryCache)
	tr.countryMu.Unlock()
	assert.LessOrEqual(t, size, countryCacheMaxEntries)
}

func TestCountryCacheExpiredEntryReResolved(t *testing.T) {
	tr := newCacheTestTracker()

	tr.countryMu.Lock()
	tr.countryCache["s-stale"] = cachedCountry{
		country:   "Stale Country",
		expiresAt: time.Now().Add(-time.Minute),
	}
	tr.countryMu.Unlock()

	session := &Session{ID: "s-stale"}
	country := tr.countryFor(context.Background(), session, PageViewInput{EdgeCountryCode: "IN"})
	assert.Equal(t, "India", country)

	tr.countryMu.Lock()
	entry := tr.countryCache["s-stale"]
	tr.countryMu.Unlock()
	assert.Equal(t, "India", entry.country)
	assert.True(t, time.Now().Before(entry.expiresAt))
}

func TestCountryCachePruneDropsExpiredEntries(t *testing.T) {
	tr := newCacheTestTracker()
	now := time.Now()

	tr.countryMu.Lock()
	for i := 0; i < countryCacheMaxEntries; i++ {
		tr.countryCache[fmt.Sprintf("s-%d", i)] = cachedCountry{
			country:   "India",
			expiresAt: now.Add(-time.Minute),
		}
	}
	tr.pruneCountryCacheLocked(now)
	size := len(tr.countryCache)
	tr.countryMu.Unlock()

	assert.Equal(t, 0, size)
}
