package models

import "time"

// Preferences holds per-user display and dashboard settings.
type Preferences struct {
	UserID         string                 `json:"user_id"`
	PreferredUnits string                 `json:"preferred_units"`
	Handicap       *float64               `json:"handicap,omitempty"`
	Dashboard      map[string]interface{} `json:"dashboard,omitempty"` // Card layout, default date range, chart options
	UpdatedAt      time.Time              `json:"updated_at"`
}

// DefaultPreferences returns the preferences used before a user saves any.
func DefaultPreferences(userID string) *Preferences {
	return &Preferences{
		UserID:         userID,
		PreferredUnits: UnitsYards,
		Dashboard:      map[string]interface{}{},
	}
}
