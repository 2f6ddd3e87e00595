// Package seeder generates development traffic so dashboards and
// aggregation runs have data to work with.
package seeder

import (
	"context"
	"fmt"
	"math/rand/v2"
	"time"

	"log/slog"

	"gorm.io/gorm"

	"courselytics/internal/analytics"
	"courselytics/internal/tracker"
)

// Seeder handles the data seeding process.
type Seeder struct {
	DB           *gorm.DB
	Logger       *slog.Logger
	SessionCount int
	Days         int
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, logger *slog.Logger, sessionCount, days int) *Seeder {
	if logger == nil {
		logger = slog.Default()
	}
	if sessionCount <= 0 {
		sessionCount = 200
	}
	if days <= 0 {
		days = 30
	}
	return &Seeder{
		DB:           db,
		Logger:       logger,
		SessionCount: sessionCount,
		Days:         days,
	}
}

var seedPages = []struct {
	url   string
	title string
}{
	{"/", "Home"},
	{"/courses", "Course Catalog"},
	{"/courses/go-fundamentals", "Go Fundamentals"},
	{"/courses/web-development", "Web Development"},
	{"/courses/data-structures", "Data Structures"},
	{"/lessons/go-fundamentals/1", "Lesson 1: Getting Started"},
	{"/lessons/go-fundamentals/2", "Lesson 2: Types"},
	{"/pricing", "Pricing"},
	{"/about", "About Us"},
}

var seedReferrers = []string{
	analytics.ReferrerDirect,
	analytics.ReferrerDirect,
	"https://www.google.com/",
	"https://news.ycombinator.com/",
	"https://www.reddit.com/r/learnprogramming/",
}

var seedCountries = []string{
	"United States", "India", "Germany", "Brazil", "United Kingdom",
	"Japan", "Canada", "Unknown",
}

var seedAgents = []struct {
	ua      string
	device  string
	browser string
}{
	{"Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/126.0", "desktop", "Chrome"},
	{"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) Safari/605.1.15", "desktop", "Safari"},
	{"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) Safari/604.1", "mobile", "Safari"},
	{"Mozilla/5.0 (Linux; Android 14; Pixel 8) Chrome/126.0 Mobile", "mobile", "Chrome"},
	{"Mozilla/5.0 (iPad; CPU OS 17_0 like Mac OS X) Safari/604.1", "tablet", "Safari"},
	{"Mozilla/5.0 (X11; Linux x86_64) Firefox/128.0", "desktop", "Firefox"},
}

// Seed inserts randomized sessions and page views spread across the
// configured number of past days. Roughly a third of sessions bounce and
// roughly a quarter of page views never report a duration, which keeps the
// aggregated bounce rate and average duration looking like real traffic.
func (s *Seeder) Seed(ctx context.Context) error {
	start := time.Now()
	s.Logger.Info("Seeding analytics data...",
		slog.Int("sessions", s.SessionCount),
		slog.Int("days", s.Days))

	for i := 0; i < s.SessionCount; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.seedSession(); err != nil {
			return fmt.Errorf("seeding session %d: %w", i, err)
		}
	}

	s.Logger.Info("Seeding complete", slog.Duration("elapsed", time.Since(start)))
	return nil
}

func (s *Seeder) seedSession() error {
	sessionID := tracker.NewSessionID()
	agent := seedAgents[rand.IntN(len(seedAgents))]
	country := seedCountries[rand.IntN(len(seedCountries))]

	dayOffset := rand.IntN(s.Days)
	base := time.Now().AddDate(0, 0, -dayOffset).Add(-time.Duration(rand.IntN(20)) * time.Hour)

	pageCount := 1
	if rand.IntN(3) != 0 {
		pageCount = 2 + rand.IntN(4)
	}

	var userID *string
	if rand.IntN(4) == 0 {
		id := fmt.Sprintf("user-%d", rand.IntN(500))
		userID = &id
	}

	session := analytics.UserSession{
		SessionID:  sessionID,
		UserID:     userID,
		UserAgent:  agent.ua,
		TotalPages: pageCount,
		Country:    country,
		DeviceType: agent.device,
		Browser:    agent.browser,
		CreatedAt:  base,
	}

	for p := 0; p < pageCount; p++ {
		page := seedPages[rand.IntN(len(seedPages))]
		view := analytics.PageView{
			SessionID:  sessionID,
			UserID:     userID,
			PageURL:    page.url,
			PageTitle:  page.title,
			Referrer:   seedReferrers[rand.IntN(len(seedReferrers))],
			UserAgent:  agent.ua,
			Country:    country,
			DeviceType: agent.device,
			Browser:    agent.browser,
			CreatedAt:  base.Add(time.Duration(p) * time.Minute),
		}
		if rand.IntN(4) != 0 {
			seconds := 5 + rand.IntN(300)
			view.DurationSeconds = &seconds
		}
		if p == 0 {
			session.FirstPage = page.url
		}
		session.LastPage = page.url
		if err := s.DB.Create(&view).Error; err != nil {
			return err
		}
	}

	return s.DB.Create(&session).Error
}
