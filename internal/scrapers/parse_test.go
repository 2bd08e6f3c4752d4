package scrapers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFloat(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  float64
		nil_  bool
	}{
		{"plain", "142.3", 142.3, false},
		{"mph suffix", "142.3 mph", 142.3, false},
		{"degree suffix", "12.5°", 12.5, false},
		{"rpm with thousands comma", "2,450 rpm", 2450, false},
		{"decimal comma", "142,3", 142.3, false},
		{"yards", "265 yds", 265, false},
		{"negative", "-2.1", -2.1, false},
		{"surrounding text", "Carry: 234.5 yds", 234.5, false},
		{"empty", "", 0, true},
		{"dashes", "--", 0, true},
		{"words only", "no data", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseFloat(tt.input)
			if tt.nil_ {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.InDelta(t, tt.want, *got, 0.0001)
		})
	}
}

func TestParseInt(t *testing.T) {
	assert.Equal(t, 72, parseInt("72"))
	assert.Equal(t, 72, parseInt("Score: 72"))
	assert.Equal(t, 12, parseInt("12.7"))
	assert.Equal(t, 0, parseInt("n/a"))
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input string
		want  time.Time
	}{
		{"2025-06-14", time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)},
		{"06/14/2025", time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)},
		{"Jun 14, 2025", time.Date(2025, 6, 14, 0, 0, 0, 0, time.UTC)},
		{"2025-06-14T09:30:00", time.Date(2025, 6, 14, 9, 30, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		got := parseDate(tt.input, nil)
		assert.True(t, got.Equal(tt.want), "parseDate(%q) = %v", tt.input, got)
	}

	// Unparseable dates fall back to roughly now.
	fallback := parseDate("sometime last week", nil)
	assert.WithinDuration(t, time.Now().UTC(), fallback, 5*time.Second)
}

func TestParseFraction(t *testing.T) {
	hit, total, ok := parseFraction("9/14")
	require.True(t, ok)
	assert.Equal(t, 9, hit)
	assert.Equal(t, 14, total)

	hit, total, ok = parseFraction("Fairways: 10 / 14")
	require.True(t, ok)
	assert.Equal(t, 10, hit)
	assert.Equal(t, 14, total)

	_, _, ok = parseFraction("no fairway data")
	assert.False(t, ok)
}

func TestContainsCaptcha(t *testing.T) {
	assert.True(t, ContainsCaptcha(`<html><body>Please complete the CAPTCHA to continue</body></html>`))
	assert.True(t, ContainsCaptcha(`<html><body><iframe src="https://www.google.com/recaptcha/api2/anchor"></iframe></body></html>`))
	assert.True(t, ContainsCaptcha(`<html><body><div class="g-recaptcha"></div></body></html>`))
	assert.False(t, ContainsCaptcha(`<html><body><h1>Session History</h1></body></html>`))
}

func TestFindFirstFallbackChain(t *testing.T) {
	doc, err := newDocument(`<div><span class="new-date">2025-06-14</span></div>`)
	require.NoError(t, err)

	// First selector misses, second matches.
	got := textFirst(doc.Selection, []string{".old-date", ".new-date"})
	assert.Equal(t, "2025-06-14", got)

	assert.Equal(t, "", textFirst(doc.Selection, []string{".missing"}))
}
