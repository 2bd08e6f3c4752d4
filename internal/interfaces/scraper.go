package interfaces

import (
	"context"

	"github.com/ternarybob/golfstats/internal/models"
)

// ScraperCredentials are the login details for one vendor dashboard.
// Username doubles as the email for vendors that log in by email.
type ScraperCredentials struct {
	Username string
	Password string
}

// Valid reports whether both fields are present.
func (c ScraperCredentials) Valid() bool {
	return c.Username != "" && c.Password != ""
}

// Scraper extracts rounds from one vendor dashboard via browser automation.
// Implementations log in, walk the session/round list up to limit entries,
// and return normalized rounds carrying the vendor's external IDs.
type Scraper interface {
	// Source returns the vendor identifier (models.SourceTrackman etc.)
	Source() string

	// Scrape logs in with creds and returns rounds for the given user.
	// A captcha or login failure aborts the vendor run with an error;
	// per-session extraction failures are logged and skipped.
	Scrape(ctx context.Context, userID string, creds ScraperCredentials, limit int) ([]*models.Round, error)
}
