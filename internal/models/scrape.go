package models

import "time"

// Raw vendor records as extracted from the dashboards, before normalization
// into rounds. Parsing keeps vendor semantics; the ETL transformer owns the
// mapping into Round/Hole/Shot.

// LaunchShot is one row from a launch monitor shot table (Trackman, SkyTrak).
type LaunchShot struct {
	Number        int      `json:"number"`
	Club          string   `json:"club,omitempty"`
	BallSpeed     *float64 `json:"ball_speed,omitempty"`      // mph
	ClubHeadSpeed *float64 `json:"club_head_speed,omitempty"` // mph
	SmashFactor   *float64 `json:"smash_factor,omitempty"`
	LaunchAngle   *float64 `json:"launch_angle,omitempty"` // degrees
	SpinRate      *float64 `json:"spin_rate,omitempty"`    // rpm
	CarryDistance *float64 `json:"carry_distance,omitempty"`
	TotalDistance *float64 `json:"total_distance,omitempty"`
}

// TrackmanSession is one range session from the Trackman dashboard.
type TrackmanSession struct {
	ID       string       `json:"id"`
	Title    string       `json:"title"`
	Date     time.Time    `json:"date"`
	Location string       `json:"location,omitempty"`
	Shots    []LaunchShot `json:"shots"`
}

// SkyTrakSession is one practice session from the SkyTrak dashboard.
type SkyTrakSession struct {
	ID    string       `json:"id"`
	Title string       `json:"title"`
	Date  time.Time    `json:"date"`
	Shots []LaunchShot `json:"shots"`
}

// CourseShot is one tracked shot within a hole on Arccos.
type CourseShot struct {
	Number       int      `json:"number"`
	Club         string   `json:"club,omitempty"`
	Distance     *float64 `json:"distance,omitempty"` // yards
	FromLocation string   `json:"from_location,omitempty"`
	ToLocation   string   `json:"to_location,omitempty"`
	IsPenalty    bool     `json:"is_penalty"`
}

// HoleResult is one hole of an Arccos round.
type HoleResult struct {
	Number        int          `json:"number"`
	Par           int          `json:"par"`
	Score         *int         `json:"score,omitempty"`
	DistanceYards *int         `json:"distance_yards,omitempty"`
	FairwayHit    *bool        `json:"fairway_hit,omitempty"`
	GIR           *bool        `json:"gir,omitempty"`
	Putts         *int         `json:"putts,omitempty"`
	Shots         []CourseShot `json:"shots,omitempty"`
}

// ArccosRoundStats are the aggregates shown on the Arccos round stats tab.
type ArccosRoundStats struct {
	FairwaysHit   *int     `json:"fairways_hit,omitempty"`
	FairwaysTotal *int     `json:"fairways_total,omitempty"`
	GreensInReg   *int     `json:"greens_in_regulation,omitempty"`
	TotalPutts    *int     `json:"total_putts,omitempty"`
	AvgDriveDist  *float64 `json:"average_drive_distance,omitempty"`
}

// ArccosRound is one round from the Arccos dashboard.
type ArccosRound struct {
	ID         string            `json:"id"`
	CourseName string            `json:"course_name"`
	Location   string            `json:"location,omitempty"`
	Date       time.Time         `json:"date"`
	TotalScore *int              `json:"total_score,omitempty"`
	TotalPar   *int              `json:"total_par,omitempty"`
	FrontNine  *int              `json:"front_nine,omitempty"`
	BackNine   *int              `json:"back_nine,omitempty"`
	Holes      []HoleResult      `json:"holes,omitempty"`
	Stats      *ArccosRoundStats `json:"stats,omitempty"`
}
