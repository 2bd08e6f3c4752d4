package etl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/golfstats/internal/models"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }
func boolPtr(v bool) *bool        { return &v }

func rangeRound(shots ...models.Shot) *models.Round {
	return &models.Round{
		SourceSystem: models.SourceTrackman,
		Holes:        []models.Hole{{Number: 1, Par: 4, Shots: shots}},
	}
}

func TestEnrichRangeSessionAverages(t *testing.T) {
	round := rangeRound(
		models.Shot{Club: "Driver", BallSpeed: floatPtr(160), ClubHeadSpeed: floatPtr(110), SmashFactor: floatPtr(1.45), LaunchAngle: floatPtr(12), SpinRate: floatPtr(2400), TotalDistance: floatPtr(280)},
		models.Shot{Club: "Driver", BallSpeed: floatPtr(150), ClubHeadSpeed: floatPtr(100), SmashFactor: floatPtr(1.50), LaunchAngle: floatPtr(14), SpinRate: floatPtr(2600), TotalDistance: floatPtr(260)},
		models.Shot{Club: "7 Iron", BallSpeed: floatPtr(120), TotalDistance: floatPtr(165)},
	)

	NewTransformer().Enrich(round)

	require.NotNil(t, round.Stats)
	stats := round.Stats
	require.NotNil(t, stats.AvgDriveDist)
	assert.InDelta(t, 270, *stats.AvgDriveDist, 0.001)

	ext := stats.ExtendedStats
	require.NotNil(t, ext)
	assert.Equal(t, 3, ext["shot_count"])
	assert.Equal(t, models.SourceTrackman, ext["data_source"])
	assert.InDelta(t, (160.0+150+120)/3, ext["average_ball_speed"].(float64), 0.001)
	assert.InDelta(t, 105, ext["average_club_speed"].(float64), 0.001)
	assert.InDelta(t, 1.475, ext["average_smash_factor"].(float64), 0.001)
	assert.InDelta(t, 13, ext["average_launch_angle"].(float64), 0.001)
	assert.InDelta(t, 2500, ext["average_spin_rate"].(float64), 0.001)
}

func TestEnrichSkipsMissingMetrics(t *testing.T) {
	round := rangeRound(models.Shot{Club: "Wedge"})

	NewTransformer().Enrich(round)

	ext := round.Stats.ExtendedStats
	require.NotNil(t, ext)
	assert.Equal(t, 1, ext["shot_count"])
	_, hasBallSpeed := ext["average_ball_speed"]
	assert.False(t, hasBallSpeed)
	assert.Nil(t, round.Stats.AvgDriveDist)
}

func TestEnrichScoreToPar(t *testing.T) {
	round := &models.Round{
		SourceSystem: models.SourceArccos,
		TotalScore:   intPtr(84),
		TotalPar:     intPtr(72),
	}

	NewTransformer().Enrich(round)

	require.NotNil(t, round.Stats.ScoreToPar)
	assert.Equal(t, 12, *round.Stats.ScoreToPar)
}

func TestEnrichDerivesCourseStats(t *testing.T) {
	round := &models.Round{
		SourceSystem: models.SourceArccos,
		Holes: []models.Hole{
			{Number: 1, Par: 4, FairwayHit: boolPtr(true), GIR: boolPtr(true), Putts: intPtr(2)},
			{Number: 2, Par: 3, FairwayHit: boolPtr(false), GIR: boolPtr(false), Putts: intPtr(3),
				Shots: []models.Shot{{Number: 1, IsPenalty: true}}},
			{Number: 3, Par: 5, FairwayHit: boolPtr(false), GIR: boolPtr(true), Putts: intPtr(1)},
		},
	}

	NewTransformer().Enrich(round)

	stats := round.Stats
	require.NotNil(t, stats.FairwaysHit)
	assert.Equal(t, 1, *stats.FairwaysHit)
	// Par 3 holes are excluded from the fairway denominator.
	assert.Equal(t, 2, *stats.FairwaysTotal)
	assert.Equal(t, 2, *stats.GreensInReg)
	assert.Equal(t, 6, *stats.TotalPutts)
	assert.InDelta(t, 2.0, *stats.PuttsPerHole, 0.001)
	assert.Equal(t, 1, *stats.Penalties)
}

func TestEnrichKeepsVendorStats(t *testing.T) {
	round := &models.Round{
		SourceSystem: models.SourceArccos,
		Holes: []models.Hole{
			{Number: 1, Par: 4, FairwayHit: boolPtr(false), Putts: intPtr(2)},
		},
		Stats: &models.RoundStats{
			FairwaysHit: intPtr(9),
			TotalPutts:  intPtr(30),
		},
	}

	NewTransformer().Enrich(round)

	// Vendor stats-tab values are not overwritten by derived counts.
	assert.Equal(t, 9, *round.Stats.FairwaysHit)
	assert.Equal(t, 30, *round.Stats.TotalPutts)
}

func TestAverageDriveDistanceClubNames(t *testing.T) {
	shots := []models.Shot{
		{Club: "Driver", TotalDistance: floatPtr(280)},
		{Club: "1W", TotalDistance: floatPtr(270)},
		{Club: "1-wood", Distance: floatPtr(260)},
		{Club: "3 Wood", TotalDistance: floatPtr(240)},
	}

	avg := averageDriveDistance(shots)
	require.NotNil(t, avg)
	assert.InDelta(t, 270, *avg, 0.001)

	assert.Nil(t, averageDriveDistance([]models.Shot{{Club: "Putter"}}))
}
