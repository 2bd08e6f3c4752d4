package scrapers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/golfstats/internal/common"
	"github.com/ternarybob/golfstats/internal/models"
)

func newTestArccos(t *testing.T) *ArccosScraper {
	t.Helper()
	profile, err := LoadProfile(models.SourceArccos)
	require.NoError(t, err)
	return &ArccosScraper{vendorScraper: &vendorScraper{
		source:  models.SourceArccos,
		baseURL: "https://dashboard.arccosgolf.com",
		profile: profile,
		logger:  common.GetLogger(),
	}}
}

const arccosListHTML = `<html><body>
<div class="rounds-list">
  <div class="round-card" data-round-id="rd-501">
    <div class="round-date">Jun 14, 2025</div>
    <div class="course-name">Pebble Creek GC</div>
  </div>
  <div class="round-card">
    <a href="https://dashboard.arccosgolf.com/rounds/rd-502">Old Mill Links</a>
  </div>
</div>
</body></html>`

func TestArccosParseRoundList(t *testing.T) {
	s := newTestArccos(t)

	entries, err := s.parseRoundList(arccosListHTML)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "rd-501", entries[0].id)
	assert.Equal(t, "Pebble Creek GC", entries[0].name)
	assert.Equal(t, "rd-502", entries[1].id)
}

const arccosDetailHTML = `<html><body>
<div class="round-details">
  <h1 class="course-name">Pebble Creek GC</h1>
  <div class="round-date">Jun 14, 2025</div>
  <div class="course-location">Austin, TX</div>
  <div class="total-score">84</div>
  <div class="total-par">72</div>
  <div class="front-nine-score">41</div>
  <div class="back-nine-score">43</div>
  <div class="hole-card fairway-hit gir">
    <div class="hole-number">1</div>
    <div class="hole-par">4</div>
    <div class="hole-score">4</div>
    <div class="hole-distance">385 yds</div>
    <div class="putts">2</div>
  </div>
  <div class="hole-card">
    <div class="hole-number">2</div>
    <div class="hole-par">3</div>
    <div class="hole-score">5</div>
    <div class="hole-distance">172 yds</div>
  </div>
</div>
</body></html>`

func TestArccosParseRoundDetail(t *testing.T) {
	s := newTestArccos(t)

	round, err := s.parseRoundDetail(arccosDetailHTML, "rd-501")
	require.NoError(t, err)

	assert.Equal(t, "Pebble Creek GC", round.CourseName)
	assert.Equal(t, "Austin, TX", round.Location)
	require.NotNil(t, round.TotalScore)
	assert.Equal(t, 84, *round.TotalScore)
	require.NotNil(t, round.TotalPar)
	assert.Equal(t, 72, *round.TotalPar)
	require.NotNil(t, round.FrontNine)
	assert.Equal(t, 41, *round.FrontNine)

	require.Len(t, round.Holes, 2)
	first := round.Holes[0]
	assert.Equal(t, 1, first.Number)
	assert.Equal(t, 4, first.Par)
	require.NotNil(t, first.Score)
	assert.Equal(t, 4, *first.Score)
	require.NotNil(t, first.FairwayHit)
	assert.True(t, *first.FairwayHit)
	require.NotNil(t, first.GIR)
	assert.True(t, *first.GIR)
	require.NotNil(t, first.Putts)
	assert.Equal(t, 2, *first.Putts)
	require.NotNil(t, first.DistanceYards)
	assert.Equal(t, 385, *first.DistanceYards)

	second := round.Holes[1]
	require.NotNil(t, second.FairwayHit)
	assert.False(t, *second.FairwayHit)
	assert.Nil(t, second.Putts)
}

func TestShotLocationClasses(t *testing.T) {
	assert.Equal(t, "tee", shotFromLocation("shot-item tee-shot to-fairway"))
	assert.Equal(t, "fairway", shotToLocation("shot-item tee-shot to-fairway"))
	assert.Equal(t, "sand", shotFromLocation("shot-item sand-shot to-green"))
	assert.Equal(t, "hole", shotToLocation("shot-item green-shot to-hole"))
	assert.Equal(t, "", shotFromLocation("shot-item"))
}

func TestArccosRoundToRound(t *testing.T) {
	score := 84
	par := 72
	fairwaysHit := 9
	fairwaysTotal := 14
	hit := true
	putts := 2
	distance := 240.5

	src := &models.ArccosRound{
		ID:         "rd-501",
		CourseName: "Pebble Creek GC",
		TotalScore: &score,
		TotalPar:   &par,
		Holes: []models.HoleResult{
			{
				Number: 1, Par: 4, Score: &score, FairwayHit: &hit, Putts: &putts,
				Shots: []models.CourseShot{
					{Number: 1, Club: "Driver", Distance: &distance, FromLocation: "tee", ToLocation: "fairway"},
					{Number: 2, Club: "9 Iron", FromLocation: "fairway", ToLocation: "green"},
				},
			},
		},
		Stats: &models.ArccosRoundStats{FairwaysHit: &fairwaysHit, FairwaysTotal: &fairwaysTotal},
	}

	round := arccosRoundToRound(src, "user-1")

	assert.Equal(t, models.SourceArccos, round.SourceSystem)
	assert.Equal(t, "rd-501", round.ExternalID)
	assert.False(t, round.IsRangeSession())
	require.Len(t, round.Holes, 1)
	require.Len(t, round.Holes[0].Shots, 2)
	assert.Equal(t, "tee", round.Holes[0].Shots[0].FromLocation)
	require.NotNil(t, round.Stats)
	assert.Equal(t, 9, *round.Stats.FairwaysHit)
	assert.Equal(t, 14, *round.Stats.FairwaysTotal)
}
