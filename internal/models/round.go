package models

import (
	"fmt"
	"time"
)

// Source system constants. Each scraped round carries the vendor it came
// from; manually entered rounds use SourceManual.
const (
	SourceTrackman = "trackman"
	SourceArccos   = "arccos"
	SourceSkyTrak  = "skytrak"
	SourceManual   = "manual"
)

// ScrapeSources lists the vendors the ETL runner iterates, in run order.
var ScrapeSources = []string{SourceTrackman, SourceArccos, SourceSkyTrak}

// Round represents a round of golf or a practice session. Range sessions
// from launch monitors are stored as a round with a single virtual hole
// holding the session's shots.
type Round struct {
	ID             int64     `json:"id"`
	UserID         string    `json:"user_id"`
	Date           time.Time `json:"date"`
	CourseName     string    `json:"course_name"`
	CourseLocation string    `json:"course_location,omitempty"`
	TeeColor       string    `json:"tee_color,omitempty"`
	TotalScore     *int      `json:"total_score,omitempty"`
	TotalPar       *int      `json:"total_par,omitempty"`
	FrontNine      *int      `json:"front_nine_score,omitempty"`
	BackNine       *int      `json:"back_nine_score,omitempty"`
	Weather        string    `json:"weather,omitempty"`
	Notes          string    `json:"notes,omitempty"`
	SourceSystem   string    `json:"source_system"`
	ExternalID     string    `json:"external_id,omitempty"` // Vendor session/round ID; dedupe key with user+source
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`

	// Populated when the round is loaded with detail
	Holes []Hole      `json:"holes,omitempty"`
	Stats *RoundStats `json:"stats,omitempty"`
}

// Validate checks a round for creation via the API.
func (r *Round) Validate() error {
	if r.Date.IsZero() {
		return fmt.Errorf("round date is required")
	}
	if r.CourseName == "" {
		return fmt.Errorf("course name is required")
	}
	switch r.SourceSystem {
	case "", SourceManual, SourceTrackman, SourceArccos, SourceSkyTrak:
	default:
		return fmt.Errorf("invalid source system: %s", r.SourceSystem)
	}
	return nil
}

// IsRangeSession reports whether this round is a practice session rather
// than an on-course round. Launch monitor sessions come in as a single
// virtual hole, so the source system plus the hole shape identifies
// them regardless of whether hole detail is loaded.
func (r *Round) IsRangeSession() bool {
	switch r.SourceSystem {
	case SourceTrackman, SourceSkyTrak:
		return len(r.Holes) <= 1
	default:
		return false
	}
}

// ShotCount returns the number of shots across all holes.
func (r *Round) ShotCount() int {
	count := 0
	for _, h := range r.Holes {
		count += len(h.Shots)
	}
	return count
}

// Hole represents one hole within a round.
type Hole struct {
	ID            int64  `json:"id"`
	RoundID       int64  `json:"round_id"`
	Number        int    `json:"hole_number"`
	Par           int    `json:"par"`
	Score         *int   `json:"score,omitempty"`
	FairwayHit    *bool  `json:"fairway_hit,omitempty"`
	GIR           *bool  `json:"green_in_regulation,omitempty"`
	Putts         *int   `json:"putts,omitempty"`
	DistanceYards *int   `json:"distance_yards,omitempty"`
	Notes         string `json:"notes,omitempty"`

	Shots []Shot `json:"shots,omitempty"`
}

// Shot represents a single shot. Launch monitor metrics are optional; shots
// parsed from course trackers usually carry only club/distance/location.
type Shot struct {
	ID           int64  `json:"id"`
	HoleID       int64  `json:"hole_id"`
	RoundID      int64  `json:"round_id"`
	Number       int    `json:"shot_number"`
	Club         string `json:"club,omitempty"`
	FromLocation string `json:"from_location,omitempty"` // tee, fairway, rough, sand, green
	ToLocation   string `json:"to_location,omitempty"`
	IsPenalty    bool   `json:"is_penalty"`

	Distance      *float64 `json:"distance,omitempty"` // Yards
	BallSpeed     *float64 `json:"ball_speed,omitempty"`
	ClubHeadSpeed *float64 `json:"club_head_speed,omitempty"`
	SmashFactor   *float64 `json:"smash_factor,omitempty"`
	LaunchAngle   *float64 `json:"launch_angle,omitempty"`
	SpinRate      *float64 `json:"spin_rate,omitempty"`
	SpinAxis      *float64 `json:"spin_axis,omitempty"`
	CarryDistance *float64 `json:"carry_distance,omitempty"`
	TotalDistance *float64 `json:"total_distance,omitempty"`
	SideDeviation *float64 `json:"side_deviation,omitempty"`
}

// RoundStats holds per-round aggregates. ExtendedStats carries
// source-specific extras (shot averages, data source) as JSONB.
type RoundStats struct {
	ID            int64                  `json:"id"`
	RoundID       int64                  `json:"round_id"`
	ScoreToPar    *int                   `json:"score_to_par,omitempty"`
	FairwaysHit   *int                   `json:"fairways_hit,omitempty"`
	FairwaysTotal *int                   `json:"fairways_total,omitempty"`
	GreensInReg   *int                   `json:"greens_in_regulation,omitempty"`
	TotalPutts    *int                   `json:"total_putts,omitempty"`
	PuttsPerHole  *float64               `json:"putts_per_hole,omitempty"`
	SandSaves     *int                   `json:"sand_saves,omitempty"`
	SandSaveAtts  *int                   `json:"sand_save_attempts,omitempty"`
	Penalties     *int                   `json:"penalties,omitempty"`
	AvgDriveDist  *float64               `json:"average_drive_distance,omitempty"`
	Scrambling    *float64               `json:"scrambling,omitempty"`
	UpAndDowns    *int                   `json:"up_and_downs,omitempty"`
	ThreePutts    *int                   `json:"three_putts,omitempty"`
	ExtendedStats map[string]interface{} `json:"extended_stats,omitempty"`
}
