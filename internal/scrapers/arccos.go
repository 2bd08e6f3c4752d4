package scrapers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/chromedp/chromedp"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/golfstats/internal/common"
	"github.com/ternarybob/golfstats/internal/interfaces"
	"github.com/ternarybob/golfstats/internal/models"
)

// arccosLoginURL is fixed; the login form lives on the dashboard host
// regardless of the configured base URL.
const arccosLoginURL = "https://dashboard.arccosgolf.com/login"

// ArccosScraper pulls on-course rounds from the Arccos dashboard,
// including per-hole results, tracked shots, and the round stats tab.
type ArccosScraper struct {
	*vendorScraper
}

var _ interfaces.Scraper = (*ArccosScraper)(nil)

func NewArccosScraper(pool *BrowserPool, snapshots interfaces.SnapshotStore, config *common.ScrapersConfig, logger arbor.ILogger) (*ArccosScraper, error) {
	base, err := newVendorScraper(models.SourceArccos, config.Arccos.URL, arccosLoginURL, pool, snapshots, config, logger)
	if err != nil {
		return nil, err
	}
	return &ArccosScraper{vendorScraper: base}, nil
}

func (s *ArccosScraper) Source() string {
	return models.SourceArccos
}

func (s *ArccosScraper) Scrape(ctx context.Context, userID string, creds interfaces.ScraperCredentials, limit int) ([]*models.Round, error) {
	tab, cancel, err := s.pool.NewTab(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open browser tab: %w", err)
	}
	defer cancel()

	if err := s.withRetry(ctx, "arccos login", func() error {
		return s.login(tab, creds)
	}); err != nil {
		return nil, err
	}

	var listHTML string
	if err := s.withRetry(ctx, "arccos round list", func() error {
		var navErr error
		listHTML, navErr = s.navigate(tab, s.listURL(), userID)
		return navErr
	}); err != nil {
		return nil, err
	}
	s.spoolPage(userID, "", models.SnapshotKindSessionList, s.listURL(), listHTML)

	entries, err := s.parseRoundList(listHTML)
	if err != nil {
		return nil, err
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	s.logger.Info().Int("rounds", len(entries)).Msg("Arccos round list parsed")

	rounds := make([]*models.Round, 0, len(entries))
	for _, entry := range entries {
		round, err := s.scrapeRound(ctx, tab, userID, entry.id)
		if err != nil {
			if isPermanent(err) {
				return rounds, err
			}
			s.logger.Warn().Err(err).Str("round_id", entry.id).Msg("Skipping round")
			continue
		}
		rounds = append(rounds, round)
	}

	return rounds, nil
}

func (s *ArccosScraper) parseRoundList(html string) ([]listEntry, error) {
	doc, err := newDocument(html)
	if err != nil {
		return nil, fmt.Errorf("failed to parse round list: %w", err)
	}

	var items *goquery.Selection
	for _, sel := range s.profile.List.Item {
		found := doc.Find(sel)
		if found.Length() > 0 {
			items = found
			break
		}
	}
	if items == nil {
		return nil, fmt.Errorf("no round entries found on list page")
	}

	var entries []listEntry
	items.Each(func(_ int, item *goquery.Selection) {
		id := s.extractItemID(item)
		if id == "" {
			return
		}
		entries = append(entries, listEntry{
			id:   id,
			date: textFirst(item, s.profile.List.Date),
			name: textFirst(item, s.profile.List.Name),
		})
	})
	return entries, nil
}

// scrapeRound loads a round detail page and assembles the full round:
// metadata, hole cards, per-hole shots, and the stats tab.
func (s *ArccosScraper) scrapeRound(ctx context.Context, tab context.Context, userID, roundID string) (*models.Round, error) {
	url := s.detailURL(roundID)

	var detailHTML string
	err := s.withRetry(ctx, "arccos round detail", func() error {
		var navErr error
		detailHTML, navErr = s.navigate(tab, url, userID)
		return navErr
	})
	if err != nil {
		return nil, err
	}
	s.spoolPage(userID, roundID, models.SnapshotKindSession, url, detailHTML)

	round, err := s.parseRoundDetail(detailHTML, roundID)
	if err != nil {
		return nil, err
	}

	s.collectHoleShots(tab, round)
	s.collectStats(tab, round)

	return arccosRoundToRound(round, userID), nil
}

// parseRoundDetail reads the round metadata and hole cards from the
// detail page HTML. Shots need card clicks and come later.
func (s *ArccosScraper) parseRoundDetail(html, roundID string) (*models.ArccosRound, error) {
	doc, err := newDocument(html)
	if err != nil {
		return nil, fmt.Errorf("failed to parse round %s: %w", roundID, err)
	}

	round := &models.ArccosRound{
		ID:         roundID,
		CourseName: textFirst(doc.Selection, s.profile.Detail.Title),
		Location:   textFirst(doc.Selection, s.profile.Detail.Location),
		Date:       parseDate(textFirst(doc.Selection, s.profile.Detail.Date), s.profile.DateFormats),
	}
	if round.CourseName == "" {
		round.CourseName = "Round " + roundID
	}

	round.TotalScore = intPtrFromText(textFirst(doc.Selection, s.profile.Detail.TotalScore))
	round.TotalPar = intPtrFromText(textFirst(doc.Selection, s.profile.Detail.TotalPar))
	round.FrontNine = intPtrFromText(textFirst(doc.Selection, s.profile.Detail.FrontNine))
	round.BackNine = intPtrFromText(textFirst(doc.Selection, s.profile.Detail.BackNine))

	cards := findHoleCards(doc, s.profile.Holes.Card)
	cards.Each(func(_ int, card *goquery.Selection) {
		number := parseInt(textFirst(card, s.profile.Holes.Number))
		if number == 0 {
			return
		}

		hole := models.HoleResult{
			Number:        number,
			Par:           parseInt(textFirst(card, s.profile.Holes.Par)),
			Score:         intPtrFromText(textFirst(card, s.profile.Holes.Score)),
			DistanceYards: intPtrFromText(textFirst(card, s.profile.Holes.Distance)),
			Putts:         intPtrFromText(textFirst(card, s.profile.Holes.Putts)),
		}

		// Fairway and GIR come from marker classes on the card itself.
		if class, ok := card.Attr("class"); ok {
			fairway := strings.Contains(class, "fairway-hit")
			gir := strings.Contains(class, "gir")
			hole.FairwayHit = &fairway
			hole.GIR = &gir
		}

		round.Holes = append(round.Holes, hole)
	})

	return round, nil
}

// collectHoleShots clicks each hole card to reveal its tracked shots
// and parses them from the refreshed DOM. Failures leave the hole
// without shots rather than dropping the round.
func (s *ArccosScraper) collectHoleShots(tab context.Context, round *models.ArccosRound) {
	cardSel := s.firstPresentSelector(tab, s.profile.Holes.Card)
	if cardSel == "" {
		return
	}

	for i := range round.Holes {
		if err := clickNth(tab, cardSel, i); err != nil {
			s.logger.Debug().Err(err).Int("hole", round.Holes[i].Number).Msg("Hole card click failed")
			continue
		}
		time.Sleep(time.Second)

		html, err := currentHTML(tab)
		if err != nil {
			continue
		}
		doc, err := newDocument(html)
		if err != nil {
			continue
		}

		var shots []models.CourseShot
		if items := findFirstAll(doc.Selection, s.profile.Holes.ShotItem); items != nil {
			items.Each(func(idx int, item *goquery.Selection) {
				shot := models.CourseShot{
					Number:   idx + 1,
					Club:     textFirst(item, s.profile.Holes.ShotClub),
					Distance: parseFloat(textFirst(item, s.profile.Holes.ShotDistance)),
				}
				if class, ok := item.Attr("class"); ok {
					shot.FromLocation = shotFromLocation(class)
					shot.ToLocation = shotToLocation(class)
					shot.IsPenalty = strings.Contains(class, "penalty")
				}
				shots = append(shots, shot)
			})
		}
		round.Holes[i].Shots = shots

		// Close the card so the next click lands on the right one.
		_ = clickFirst(tab, s.profile.Holes.CloseButton, 2*time.Second)
	}
}

// collectStats opens the stats tab and reads the round aggregates.
func (s *ArccosScraper) collectStats(tab context.Context, round *models.ArccosRound) {
	if err := clickFirst(tab, s.profile.Stats.Tab, 3*time.Second); err != nil {
		s.logger.Debug().Str("round_id", round.ID).Msg("No stats tab on round page")
		return
	}
	time.Sleep(time.Second)

	html, err := currentHTML(tab)
	if err != nil {
		return
	}
	doc, err := newDocument(html)
	if err != nil {
		return
	}

	stats := &models.ArccosRoundStats{}
	fairwaysText := textFirst(doc.Selection, s.profile.Stats.Fairways)
	if hit, total, ok := parseFraction(fairwaysText); ok {
		stats.FairwaysHit = &hit
		stats.FairwaysTotal = &total
	} else if fairwaysText != "" {
		stats.FairwaysHit = intPtrFromText(fairwaysText)
	}

	stats.GreensInReg = intPtrFromText(textFirst(doc.Selection, s.profile.Stats.GIR))
	stats.TotalPutts = intPtrFromText(textFirst(doc.Selection, s.profile.Stats.Putts))
	stats.AvgDriveDist = parseFloat(textFirst(doc.Selection, s.profile.Stats.AvgDrive))

	round.Stats = stats
}

// firstPresentSelector returns the first selector of a chain that
// matches at least one element in the live DOM.
func (s *ArccosScraper) firstPresentSelector(tab context.Context, selectors []string) string {
	html, err := currentHTML(tab)
	if err != nil {
		return ""
	}
	doc, err := newDocument(html)
	if err != nil {
		return ""
	}
	for _, sel := range selectors {
		if doc.Find(sel).Length() > 0 {
			return sel
		}
	}
	return ""
}

// clickNth JS-clicks the index-th element matching selector. Hole
// cards share one selector, so positional clicking is the only way to
// open a specific card.
func clickNth(tab context.Context, selector string, index int) error {
	script := fmt.Sprintf(`(() => {
		const els = document.querySelectorAll(%q);
		if (els.length <= %d) return false;
		els[%d].click();
		return true;
	})()`, selector, index, index)

	var clicked bool
	if err := chromedp.Run(tab, chromedp.Evaluate(script, &clicked)); err != nil {
		return err
	}
	if !clicked {
		return fmt.Errorf("element %d not found for selector %s", index, selector)
	}
	return nil
}

func findHoleCards(doc *goquery.Document, selectors []string) *goquery.Selection {
	for _, sel := range selectors {
		found := doc.Find(sel)
		if found.Length() > 0 {
			return found
		}
	}
	return doc.Find("nothing-matches")
}

// findFirstAll returns every element matched by the first selector in
// the chain that matches anything.
func findFirstAll(root *goquery.Selection, selectors []string) *goquery.Selection {
	for _, sel := range selectors {
		found := root.Find(sel)
		if found.Length() > 0 {
			return found
		}
	}
	return nil
}

func intPtrFromText(text string) *int {
	if parseFloat(text) == nil {
		return nil
	}
	value := parseInt(text)
	return &value
}

var shotLocations = []string{"tee", "fairway", "rough", "sand", "green"}

// shotFromLocation maps marker classes like "tee-shot" to a lie.
func shotFromLocation(class string) string {
	for _, loc := range shotLocations {
		if strings.Contains(class, loc+"-shot") {
			return loc
		}
	}
	return ""
}

// shotToLocation maps marker classes like "to-green" to a target lie.
func shotToLocation(class string) string {
	for _, loc := range append(shotLocations, "hole") {
		if strings.Contains(class, "to-"+loc) {
			return loc
		}
	}
	return ""
}

// arccosRoundToRound converts a parsed Arccos round to the normalized
// round shape, attaching stats-tab aggregates when present.
func arccosRoundToRound(src *models.ArccosRound, userID string) *models.Round {
	round := &models.Round{
		UserID:         userID,
		Date:           src.Date,
		CourseName:     src.CourseName,
		CourseLocation: src.Location,
		TotalScore:     src.TotalScore,
		TotalPar:       src.TotalPar,
		FrontNine:      src.FrontNine,
		BackNine:       src.BackNine,
		SourceSystem:   models.SourceArccos,
		ExternalID:     src.ID,
	}

	for _, holeResult := range src.Holes {
		hole := models.Hole{
			Number:        holeResult.Number,
			Par:           holeResult.Par,
			Score:         holeResult.Score,
			DistanceYards: holeResult.DistanceYards,
			FairwayHit:    holeResult.FairwayHit,
			GIR:           holeResult.GIR,
			Putts:         holeResult.Putts,
		}
		for _, shot := range holeResult.Shots {
			hole.Shots = append(hole.Shots, models.Shot{
				Number:       shot.Number,
				Club:         shot.Club,
				Distance:     shot.Distance,
				FromLocation: shot.FromLocation,
				ToLocation:   shot.ToLocation,
				IsPenalty:    shot.IsPenalty,
			})
		}
		round.Holes = append(round.Holes, hole)
	}

	if src.Stats != nil {
		round.Stats = &models.RoundStats{
			FairwaysHit:   src.Stats.FairwaysHit,
			FairwaysTotal: src.Stats.FairwaysTotal,
			GreensInReg:   src.Stats.GreensInReg,
			TotalPutts:    src.Stats.TotalPutts,
			AvgDriveDist:  src.Stats.AvgDriveDist,
		}
	}

	return round
}
