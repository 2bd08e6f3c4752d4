package models

import (
	"fmt"
	"time"
)

// Club type constants
const (
	ClubTypeDriver = "driver"
	ClubTypeWood   = "wood"
	ClubTypeHybrid = "hybrid"
	ClubTypeIron   = "iron"
	ClubTypeWedge  = "wedge"
	ClubTypePutter = "putter"
)

// Club represents a club in a user's bag.
type Club struct {
	ID          int64    `json:"id"`
	UserID      string   `json:"user_id"`
	Name        string   `json:"name"` // e.g. "Driver", "7 Iron"
	Type        string   `json:"type"`
	Brand       string   `json:"brand,omitempty"`
	Model       string   `json:"model,omitempty"`
	Loft        *float64 `json:"loft,omitempty"` // Degrees
	AvgDistance *float64 `json:"avg_distance,omitempty"`
	MaxDistance *float64 `json:"max_distance,omitempty"`
	IsActive    bool     `json:"is_active"`
	Notes       string   `json:"notes,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks a club for creation or update via the API.
func (c *Club) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("club name is required")
	}
	switch c.Type {
	case ClubTypeDriver, ClubTypeWood, ClubTypeHybrid, ClubTypeIron, ClubTypeWedge, ClubTypePutter:
	default:
		return fmt.Errorf("invalid club type: %s", c.Type)
	}
	return nil
}
