package scrapers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/golfstats/internal/common"
	"github.com/ternarybob/golfstats/internal/interfaces"
	"github.com/ternarybob/golfstats/internal/models"
)

// SkyTrakScraper pulls practice sessions from the SkyTrak portal.
// Unlike Trackman, the shot table has no per-metric classes, so cells
// are read by column position.
type SkyTrakScraper struct {
	*vendorScraper
}

var _ interfaces.Scraper = (*SkyTrakScraper)(nil)

func NewSkyTrakScraper(pool *BrowserPool, snapshots interfaces.SnapshotStore, config *common.ScrapersConfig, logger arbor.ILogger) (*SkyTrakScraper, error) {
	base, err := newVendorScraper(models.SourceSkyTrak, config.SkyTrak.URL, "", pool, snapshots, config, logger)
	if err != nil {
		return nil, err
	}
	return &SkyTrakScraper{vendorScraper: base}, nil
}

func (s *SkyTrakScraper) Source() string {
	return models.SourceSkyTrak
}

func (s *SkyTrakScraper) Scrape(ctx context.Context, userID string, creds interfaces.ScraperCredentials, limit int) ([]*models.Round, error) {
	tab, cancel, err := s.pool.NewTab(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open browser tab: %w", err)
	}
	defer cancel()

	if err := s.withRetry(ctx, "skytrak login", func() error {
		return s.login(tab, creds)
	}); err != nil {
		return nil, err
	}

	var listHTML string
	if err := s.withRetry(ctx, "skytrak session list", func() error {
		var navErr error
		listHTML, navErr = s.navigate(tab, s.listURL(), userID)
		return navErr
	}); err != nil {
		return nil, err
	}
	s.spoolPage(userID, "", models.SnapshotKindSessionList, s.listURL(), listHTML)

	entries, err := s.parseSessionList(listHTML)
	if err != nil {
		return nil, err
	}
	if len(entries) > limit {
		entries = entries[:limit]
	}
	s.logger.Info().Int("sessions", len(entries)).Msg("SkyTrak session list parsed")

	rounds := make([]*models.Round, 0, len(entries))
	for _, entry := range entries {
		url := s.detailURL(entry.id)

		var detailHTML string
		err := s.withRetry(ctx, "skytrak session detail", func() error {
			var navErr error
			detailHTML, navErr = s.navigate(tab, url, userID)
			if navErr != nil {
				return navErr
			}
			// Some layouts hide the shot table behind a data tab.
			if len(s.profile.Detail.DataTab) > 0 {
				if err := clickFirst(tab, s.profile.Detail.DataTab, 2*time.Second); err == nil {
					time.Sleep(time.Second)
					if refreshed, herr := currentHTML(tab); herr == nil {
						detailHTML = refreshed
					}
				}
			}
			return nil
		})
		if err != nil {
			if isPermanent(err) {
				return rounds, err
			}
			s.logger.Warn().Err(err).Str("session_id", entry.id).Msg("Skipping session, detail page failed to load")
			continue
		}
		s.spoolPage(userID, entry.id, models.SnapshotKindSession, url, detailHTML)

		session, err := s.parseSession(detailHTML, entry.id)
		if err != nil {
			s.logger.Warn().Err(err).Str("session_id", entry.id).Msg("Skipping session, parse failed")
			continue
		}
		rounds = append(rounds, skyTrakSessionToRound(session, userID))
	}

	return rounds, nil
}

func (s *SkyTrakScraper) parseSessionList(html string) ([]listEntry, error) {
	doc, err := newDocument(html)
	if err != nil {
		return nil, fmt.Errorf("failed to parse session list: %w", err)
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
		return nil, fmt.Errorf("no session entries found on list page")
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

// skyTrakShotColumns is the fixed column order of the portal's shot
// table: club, ball speed, club speed, smash, launch, spin, carry, total.
const skyTrakShotColumns = 8

func (s *SkyTrakScraper) parseSession(html, sessionID string) (*models.SkyTrakSession, error) {
	doc, err := newDocument(html)
	if err != nil {
		return nil, fmt.Errorf("failed to parse session %s: %w", sessionID, err)
	}

	session := &models.SkyTrakSession{
		ID:    sessionID,
		Title: textFirst(doc.Selection, s.profile.Detail.Title),
		Date:  parseDate(textFirst(doc.Selection, s.profile.Detail.Date), s.profile.DateFormats),
	}
	if session.Title == "" {
		session.Title = "Session " + sessionID
	}

	for _, rowSel := range s.profile.Shots.Rows {
		rows := doc.Find(rowSel)
		if rows.Length() == 0 {
			continue
		}
		rows.Each(func(_ int, row *goquery.Selection) {
			cells := row.Find("td")
			if cells.Length() < skyTrakShotColumns {
				return
			}
			cell := func(i int) string {
				return strings.TrimSpace(cells.Eq(i).Text())
			}
			session.Shots = append(session.Shots, models.LaunchShot{
				Number:        len(session.Shots) + 1,
				Club:          cell(0),
				BallSpeed:     parseFloat(cell(1)),
				ClubHeadSpeed: parseFloat(cell(2)),
				SmashFactor:   parseFloat(cell(3)),
				LaunchAngle:   parseFloat(cell(4)),
				SpinRate:      parseFloat(cell(5)),
				CarryDistance: parseFloat(cell(6)),
				TotalDistance: parseFloat(cell(7)),
			})
		})
		break
	}

	if len(session.Shots) == 0 {
		s.logger.Warn().Str("session_id", sessionID).Msg("No shot data found in session")
	}
	return session, nil
}

func skyTrakSessionToRound(session *models.SkyTrakSession, userID string) *models.Round {
	hole := models.Hole{Number: 1, Par: 4}
	for _, shot := range session.Shots {
		hole.Shots = append(hole.Shots, models.Shot{
			Number:        shot.Number,
			Club:          shot.Club,
			BallSpeed:     shot.BallSpeed,
			ClubHeadSpeed: shot.ClubHeadSpeed,
			SmashFactor:   shot.SmashFactor,
			LaunchAngle:   shot.LaunchAngle,
			SpinRate:      shot.SpinRate,
			CarryDistance: shot.CarryDistance,
			TotalDistance: shot.TotalDistance,
			Distance:      shot.TotalDistance,
		})
	}

	name := session.Title
	if name == "" {
		name = "SkyTrak Practice Session"
	}

	return &models.Round{
		UserID:       userID,
		Date:         session.Date,
		CourseName:   name,
		SourceSystem: models.SourceSkyTrak,
		ExternalID:   session.ID,
		Holes:        []models.Hole{hole},
	}
}
