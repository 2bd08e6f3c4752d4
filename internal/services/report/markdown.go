package report

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/golfstats/internal/models"
)

// buildWeeklyMarkdown renders the weekly summary document. The PDF
// renderer handles headings, paragraphs, emphasis, lists and tables, so
// the document sticks to those constructs.
func buildWeeklyMarkdown(user *models.User, rounds []*models.Round, clubs []*models.Club, from, to time.Time) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# Weekly Golf Report\n\n")
	fmt.Fprintf(&b, "**%s** | %s to %s\n\n", displayName(user),
		from.Format("Jan 2, 2006"), to.Format("Jan 2, 2006"))

	courseRounds, rangeSessions := splitRounds(rounds)

	fmt.Fprintf(&b, "Rounds played: **%d**", len(courseRounds))
	if len(rangeSessions) > 0 {
		fmt.Fprintf(&b, " | Range sessions: **%d**", len(rangeSessions))
	}
	if best := bestToPar(courseRounds); best != nil {
		fmt.Fprintf(&b, " | Best round: **%s**", formatToPar(*best))
	}
	b.WriteString("\n\n")

	if len(courseRounds) > 0 {
		b.WriteString("## Rounds\n\n")
		b.WriteString("| Date | Course | Source | Score | To Par | Putts |\n")
		b.WriteString("|------|--------|--------|-------|--------|-------|\n")
		for _, round := range courseRounds {
			fmt.Fprintf(&b, "| %s | %s | %s | %s | %s | %s |\n",
				round.Date.Format("2006-01-02"),
				round.CourseName,
				round.SourceSystem,
				formatIntPtr(round.TotalScore),
				formatToParPtr(statToPar(round)),
				formatIntPtr(statPutts(round)))
		}
		b.WriteString("\n")

		writeScoringAverages(&b, courseRounds)
	}

	if len(rangeSessions) > 0 {
		b.WriteString("## Practice Sessions\n\n")
		b.WriteString("| Date | Session | Source | Shots |\n")
		b.WriteString("|------|---------|--------|-------|\n")
		for _, session := range rangeSessions {
			fmt.Fprintf(&b, "| %s | %s | %s | %d |\n",
				session.Date.Format("2006-01-02"),
				session.CourseName,
				session.SourceSystem,
				session.ShotCount())
		}
		b.WriteString("\n")

		writeLaunchAverages(&b, rangeSessions)
	}

	writeBagDistances(&b, clubs)

	return b.String()
}

func splitRounds(rounds []*models.Round) (course, practice []*models.Round) {
	for _, round := range rounds {
		if round.IsRangeSession() {
			practice = append(practice, round)
		} else {
			course = append(course, round)
		}
	}
	return course, practice
}

func writeScoringAverages(b *strings.Builder, rounds []*models.Round) {
	fairwaysHit, fairwaysTotal := 0, 0
	girTotal, girRounds := 0, 0
	puttsTotal, puttsRounds := 0, 0
	var driveSum float64
	driveCount := 0

	for _, round := range rounds {
		stats := round.Stats
		if stats == nil {
			continue
		}
		if stats.FairwaysHit != nil && stats.FairwaysTotal != nil && *stats.FairwaysTotal > 0 {
			fairwaysHit += *stats.FairwaysHit
			fairwaysTotal += *stats.FairwaysTotal
		}
		if stats.GreensInReg != nil {
			girTotal += *stats.GreensInReg
			girRounds++
		}
		if stats.TotalPutts != nil {
			puttsTotal += *stats.TotalPutts
			puttsRounds++
		}
		if stats.AvgDriveDist != nil {
			driveSum += *stats.AvgDriveDist
			driveCount++
		}
	}

	var lines []string
	if fairwaysTotal > 0 {
		lines = append(lines, fmt.Sprintf("- Fairways hit: %d/%d (%.0f%%)",
			fairwaysHit, fairwaysTotal, 100*float64(fairwaysHit)/float64(fairwaysTotal)))
	}
	if girRounds > 0 {
		lines = append(lines, fmt.Sprintf("- Greens in regulation: %.1f per round",
			float64(girTotal)/float64(girRounds)))
	}
	if puttsRounds > 0 {
		lines = append(lines, fmt.Sprintf("- Putts: %.1f per round",
			float64(puttsTotal)/float64(puttsRounds)))
	}
	if driveCount > 0 {
		lines = append(lines, fmt.Sprintf("- Average drive: %.0f yds",
			driveSum/float64(driveCount)))
	}

	if len(lines) == 0 {
		return
	}
	b.WriteString("## Scoring Averages\n\n")
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n\n")
}

// launchMetrics are read from the extended stats the transformer stores
// per range session.
var launchMetrics = []struct {
	key   string
	label string
	unit  string
}{
	{"average_ball_speed", "Ball speed", "mph"},
	{"average_club_speed", "Club speed", "mph"},
	{"average_smash_factor", "Smash factor", ""},
	{"average_launch_angle", "Launch angle", "deg"},
	{"average_spin_rate", "Spin rate", "rpm"},
}

func writeLaunchAverages(b *strings.Builder, sessions []*models.Round) {
	sums := make(map[string]float64)
	counts := make(map[string]int)

	for _, session := range sessions {
		if session.Stats == nil || session.Stats.ExtendedStats == nil {
			continue
		}
		for _, metric := range launchMetrics {
			if value, ok := asFloat(session.Stats.ExtendedStats[metric.key]); ok {
				sums[metric.key] += value
				counts[metric.key]++
			}
		}
	}

	var lines []string
	for _, metric := range launchMetrics {
		if counts[metric.key] == 0 {
			continue
		}
		avg := sums[metric.key] / float64(counts[metric.key])
		if metric.unit != "" {
			lines = append(lines, fmt.Sprintf("- %s: %.1f %s", metric.label, avg, metric.unit))
		} else {
			lines = append(lines, fmt.Sprintf("- %s: %.2f", metric.label, avg))
		}
	}

	if len(lines) == 0 {
		return
	}
	b.WriteString("## Launch Averages\n\n")
	b.WriteString(strings.Join(lines, "\n"))
	b.WriteString("\n\n")
}

func writeBagDistances(b *strings.Builder, clubs []*models.Club) {
	var withDistance []*models.Club
	for _, club := range clubs {
		if club.IsActive && club.AvgDistance != nil {
			withDistance = append(withDistance, club)
		}
	}
	if len(withDistance) == 0 {
		return
	}

	sort.Slice(withDistance, func(i, j int) bool {
		return *withDistance[i].AvgDistance > *withDistance[j].AvgDistance
	})

	b.WriteString("## Bag Distances\n\n")
	b.WriteString("| Club | Avg (yds) | Max (yds) |\n")
	b.WriteString("|------|-----------|----------|\n")
	for _, club := range withDistance {
		maxText := "-"
		if club.MaxDistance != nil {
			maxText = fmt.Sprintf("%.0f", *club.MaxDistance)
		}
		fmt.Fprintf(b, "| %s | %.0f | %s |\n", club.Name, *club.AvgDistance, maxText)
	}
	b.WriteString("\n")
}

func statToPar(round *models.Round) *int {
	if round.Stats != nil && round.Stats.ScoreToPar != nil {
		return round.Stats.ScoreToPar
	}
	if round.TotalScore != nil && round.TotalPar != nil {
		diff := *round.TotalScore - *round.TotalPar
		return &diff
	}
	return nil
}

func statPutts(round *models.Round) *int {
	if round.Stats != nil {
		return round.Stats.TotalPutts
	}
	return nil
}

func bestToPar(rounds []*models.Round) *int {
	var best *int
	for _, round := range rounds {
		toPar := statToPar(round)
		if toPar == nil {
			continue
		}
		if best == nil || *toPar < *best {
			best = toPar
		}
	}
	return best
}

func formatIntPtr(value *int) string {
	if value == nil {
		return "-"
	}
	return fmt.Sprintf("%d", *value)
}

func formatToPar(value int) string {
	switch {
	case value > 0:
		return fmt.Sprintf("+%d", value)
	case value == 0:
		return "E"
	default:
		return fmt.Sprintf("%d", value)
	}
}

func formatToParPtr(value *int) string {
	if value == nil {
		return "-"
	}
	return formatToPar(*value)
}

func asFloat(value interface{}) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}
