package models

import "time"

// Snapshot kind constants
const (
	SnapshotKindSessionList = "session-list"
	SnapshotKindSession     = "session"
	SnapshotKindScreenshot  = "screenshot"
	SnapshotKindPage        = "page"
)

// ScrapeSnapshot archives one fetched vendor page or payload in the local
// spool. Snapshots are what the scrapers saw: raw HTML, the parsed payload,
// and a markdown rendition for preview. Error screenshots are stored as
// snapshots with the PNG bytes in Screenshot.
type ScrapeSnapshot struct {
	ID         string    `json:"id"` // snap_{uuid}
	Source     string    `json:"source"`
	UserID     string    `json:"user_id"`
	ExternalID string    `json:"external_id,omitempty"` // Vendor session/round ID when known
	Kind       string    `json:"kind"`
	CapturedAt time.Time `json:"captured_at"`

	URL         string `json:"url,omitempty"`
	PayloadJSON []byte `json:"payload_json,omitempty"` // Parsed records as JSON
	PageHTML    string `json:"page_html,omitempty"`
	Markdown    string `json:"markdown,omitempty"` // html-to-markdown rendition of PageHTML
	Screenshot  []byte `json:"screenshot,omitempty"`
	Note        string `json:"note,omitempty"` // e.g. captcha or login failure detail
}

// Expired reports whether the snapshot is older than the given TTL.
func (s *ScrapeSnapshot) Expired(ttl time.Duration, now time.Time) bool {
	if ttl <= 0 {
		return false
	}
	return now.Sub(s.CapturedAt) > ttl
}
