package etl

import (
	"strings"

	"github.com/ternarybob/golfstats/internal/models"
)

// Transformer normalizes scraped rounds before loading: it fills in
// derived aggregates (score to par, fairway and GIR counts, putt
// totals) and the shot-average extras stored as extended stats.
type Transformer struct{}

func NewTransformer() *Transformer {
	return &Transformer{}
}

// Enrich computes round stats in place. Vendor-supplied aggregates win
// over derived ones; only missing fields are filled.
func (t *Transformer) Enrich(round *models.Round) {
	if round.Stats == nil {
		round.Stats = &models.RoundStats{}
	}
	stats := round.Stats

	if stats.ScoreToPar == nil && round.TotalScore != nil && round.TotalPar != nil {
		toPar := *round.TotalScore - *round.TotalPar
		stats.ScoreToPar = &toPar
	}

	if !round.IsRangeSession() {
		t.fillCourseStats(round, stats)
	}

	shots := collectShots(round)
	if stats.AvgDriveDist == nil {
		stats.AvgDriveDist = averageDriveDistance(shots)
	}

	extended := map[string]interface{}{
		"shot_count":  len(shots),
		"data_source": round.SourceSystem,
	}
	if avg := averageMetric(shots, func(s models.Shot) *float64 { return s.BallSpeed }); avg != nil {
		extended["average_ball_speed"] = *avg
	}
	if avg := averageMetric(shots, func(s models.Shot) *float64 { return s.ClubHeadSpeed }); avg != nil {
		extended["average_club_speed"] = *avg
	}
	if avg := averageMetric(shots, func(s models.Shot) *float64 { return s.SmashFactor }); avg != nil {
		extended["average_smash_factor"] = *avg
	}
	if avg := averageMetric(shots, func(s models.Shot) *float64 { return s.LaunchAngle }); avg != nil {
		extended["average_launch_angle"] = *avg
	}
	if avg := averageMetric(shots, func(s models.Shot) *float64 { return s.SpinRate }); avg != nil {
		extended["average_spin_rate"] = *avg
	}

	if stats.ExtendedStats == nil {
		stats.ExtendedStats = extended
	} else {
		for key, value := range extended {
			if _, exists := stats.ExtendedStats[key]; !exists {
				stats.ExtendedStats[key] = value
			}
		}
	}
}

// fillCourseStats derives fairway, GIR, putt, and penalty counts from
// hole results when the vendor's stats tab did not supply them.
func (t *Transformer) fillCourseStats(round *models.Round, stats *models.RoundStats) {
	fairwaysHit, fairwaysTotal := 0, 0
	greens := 0
	putts, puttHoles := 0, 0
	penalties := 0
	haveFairway, haveGIR, havePutts := false, false, false

	for _, hole := range round.Holes {
		if hole.FairwayHit != nil {
			haveFairway = true
			// Par 3s have no fairway to hit.
			if hole.Par > 3 {
				fairwaysTotal++
				if *hole.FairwayHit {
					fairwaysHit++
				}
			}
		}
		if hole.GIR != nil {
			haveGIR = true
			if *hole.GIR {
				greens++
			}
		}
		if hole.Putts != nil {
			havePutts = true
			putts += *hole.Putts
			puttHoles++
		}
		for _, shot := range hole.Shots {
			if shot.IsPenalty {
				penalties++
			}
		}
	}

	if stats.FairwaysHit == nil && haveFairway {
		stats.FairwaysHit = &fairwaysHit
		stats.FairwaysTotal = &fairwaysTotal
	}
	if stats.GreensInReg == nil && haveGIR {
		stats.GreensInReg = &greens
	}
	if stats.TotalPutts == nil && havePutts {
		stats.TotalPutts = &putts
	}
	if stats.PuttsPerHole == nil && puttHoles > 0 {
		perHole := float64(putts) / float64(puttHoles)
		stats.PuttsPerHole = &perHole
	}
	if stats.Penalties == nil && penalties > 0 {
		stats.Penalties = &penalties
	}
}

func collectShots(round *models.Round) []models.Shot {
	var shots []models.Shot
	for _, hole := range round.Holes {
		shots = append(shots, hole.Shots...)
	}
	return shots
}

// driverNames are the club labels that count toward average drive
// distance.
var driverNames = map[string]bool{
	"driver": true,
	"1w":     true,
	"1-wood": true,
}

// averageDriveDistance averages total distance across driver shots.
// Returns nil when no driver shot carries a distance.
func averageDriveDistance(shots []models.Shot) *float64 {
	sum := 0.0
	count := 0
	for _, shot := range shots {
		if !driverNames[strings.ToLower(strings.TrimSpace(shot.Club))] {
			continue
		}
		distance := shot.TotalDistance
		if distance == nil {
			distance = shot.Distance
		}
		if distance == nil {
			continue
		}
		sum += *distance
		count++
	}
	if count == 0 {
		return nil
	}
	avg := sum / float64(count)
	return &avg
}

// averageMetric averages one launch metric across the shots that have
// it. Returns nil when no shot carries the metric.
func averageMetric(shots []models.Shot, metric func(models.Shot) *float64) *float64 {
	sum := 0.0
	count := 0
	for _, shot := range shots {
		if value := metric(shot); value != nil {
			sum += *value
			count++
		}
	}
	if count == 0 {
		return nil
	}
	avg := sum / float64(count)
	return &avg
}
