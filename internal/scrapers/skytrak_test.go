package scrapers

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/golfstats/internal/common"
	"github.com/ternarybob/golfstats/internal/models"
)

func newTestSkyTrak(t *testing.T) *SkyTrakScraper {
	t.Helper()
	profile, err := LoadProfile(models.SourceSkyTrak)
	require.NoError(t, err)
	return &SkyTrakScraper{vendorScraper: &vendorScraper{
		source:  models.SourceSkyTrak,
		baseURL: "https://app.skytrakgolf.com",
		profile: profile,
		logger:  common.GetLogger(),
	}}
}

const skyTrakDetailHTML = `<html><body>
<div class="session-details">
  <h1 class="session-title">Evening Practice</h1>
  <div class="session-date">2025-06-10 18:30</div>
  <table class="shots-table">
    <tr class="header-row"><th>Club</th><th>Ball</th><th>Club</th><th>Smash</th><th>Launch</th><th>Spin</th><th>Carry</th><th>Total</th></tr>
    <tr>
      <td>Driver</td><td>158.4</td><td>106.2</td><td>1.49</td><td>13.1</td><td>2610</td><td>248</td><td>266</td>
    </tr>
    <tr>
      <td>PW</td><td>92.0</td><td>74.5</td><td>1.23</td><td>28.4</td><td>9100</td><td>110</td><td>113</td>
    </tr>
    <tr><td>short row</td><td>1</td></tr>
  </table>
</div>
</body></html>`

func TestSkyTrakParseSession(t *testing.T) {
	s := newTestSkyTrak(t)

	session, err := s.parseSession(skyTrakDetailHTML, "st-77")
	require.NoError(t, err)

	assert.Equal(t, "Evening Practice", session.Title)
	assert.Equal(t, 2025, session.Date.Year())

	// Header has th cells and the short row fails column validation,
	// so only the two data rows survive.
	require.Len(t, session.Shots, 2)
	assert.Equal(t, "Driver", session.Shots[0].Club)
	require.NotNil(t, session.Shots[0].SpinRate)
	assert.InDelta(t, 2610, *session.Shots[0].SpinRate, 0.001)
	require.NotNil(t, session.Shots[1].TotalDistance)
	assert.InDelta(t, 113, *session.Shots[1].TotalDistance, 0.001)
}

func TestSkyTrakParseSessionList(t *testing.T) {
	s := newTestSkyTrak(t)

	html := `<html><body>
	<div class="practice-session" data-session-id="st-77">
	  <div class="session-date">2025-06-10</div>
	  <div class="session-name">Evening Practice</div>
	</div>
	</body></html>`

	entries, err := s.parseSessionList(html)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "st-77", entries[0].id)
	assert.Equal(t, "Evening Practice", entries[0].name)
}

func TestSkyTrakSessionToRound(t *testing.T) {
	session := &models.SkyTrakSession{
		ID:    "st-77",
		Title: "Evening Practice",
		Shots: []models.LaunchShot{{Number: 1, Club: "Driver"}},
	}

	round := skyTrakSessionToRound(session, "user-2")

	assert.Equal(t, models.SourceSkyTrak, round.SourceSystem)
	assert.Equal(t, "st-77", round.ExternalID)
	assert.True(t, round.IsRangeSession())
	require.Len(t, round.Holes, 1)
	assert.Equal(t, 4, round.Holes[0].Par)
}
