package scrapers

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/golfstats/internal/common"
	"github.com/ternarybob/golfstats/internal/interfaces"
	"github.com/ternarybob/golfstats/internal/models"
)

// TrackmanScraper pulls range sessions from the Trackman web portal.
type TrackmanScraper struct {
	*vendorScraper
}

var _ interfaces.Scraper = (*TrackmanScraper)(nil)

// NewTrackmanScraper creates a Trackman scraper backed by the shared
// browser pool and snapshot spool.
func NewTrackmanScraper(pool *BrowserPool, snapshots interfaces.SnapshotStore, config *common.ScrapersConfig, logger arbor.ILogger) (*TrackmanScraper, error) {
	base, err := newVendorScraper(models.SourceTrackman, config.Trackman.URL, "", pool, snapshots, config, logger)
	if err != nil {
		return nil, err
	}
	return &TrackmanScraper{vendorScraper: base}, nil
}

func (s *TrackmanScraper) Source() string {
	return models.SourceTrackman
}

// Scrape logs in, walks the session list up to limit entries, and
// returns each session as a range round. Sessions that fail to parse
// are logged and skipped; a CAPTCHA or login failure aborts the run.
func (s *TrackmanScraper) Scrape(ctx context.Context, userID string, creds interfaces.ScraperCredentials, limit int) ([]*models.Round, error) {
	tab, cancel, err := s.pool.NewTab(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open browser tab: %w", err)
	}
	defer cancel()

	if err := s.withRetry(ctx, "trackman login", func() error {
		return s.login(tab, creds)
	}); err != nil {
		return nil, err
	}

	var listHTML string
	if err := s.withRetry(ctx, "trackman session list", func() error {
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
	s.logger.Info().Int("sessions", len(entries)).Msg("Trackman session list parsed")

	rounds := make([]*models.Round, 0, len(entries))
	for _, entry := range entries {
		url := s.detailURL(entry.id)

		var detailHTML string
		err := s.withRetry(ctx, "trackman session detail", func() error {
			var navErr error
			detailHTML, navErr = s.navigate(tab, url, userID)
			return navErr
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
		rounds = append(rounds, trackmanSessionToRound(session, userID))
	}

	return rounds, nil
}

type listEntry struct {
	id   string
	date string
	name string
}

// parseSessionList extracts session IDs, dates, and names from the
// session index page.
func (s *TrackmanScraper) parseSessionList(html string) ([]listEntry, error) {
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

// parseSession extracts shot rows and metadata from a session detail page.
func (s *TrackmanScraper) parseSession(html, sessionID string) (*models.TrackmanSession, error) {
	doc, err := newDocument(html)
	if err != nil {
		return nil, fmt.Errorf("failed to parse session %s: %w", sessionID, err)
	}

	session := &models.TrackmanSession{
		ID:       sessionID,
		Title:    textFirst(doc.Selection, s.profile.Detail.Title),
		Date:     parseDate(textFirst(doc.Selection, s.profile.Detail.Date), s.profile.DateFormats),
		Location: textFirst(doc.Selection, s.profile.Detail.Location),
	}
	if session.Title == "" {
		session.Title = "Session " + sessionID
	}

	for _, rowSel := range s.profile.Shots.Rows {
		rows := doc.Find(rowSel)
		if rows.Length() == 0 {
			continue
		}
		rows.Each(func(i int, row *goquery.Selection) {
			session.Shots = append(session.Shots, models.LaunchShot{
				Number:        i + 1,
				Club:          strings.TrimSpace(textFirst(row, s.profile.Shots.Club)),
				BallSpeed:     parseFloat(textFirst(row, s.profile.Shots.BallSpeed)),
				ClubHeadSpeed: parseFloat(textFirst(row, s.profile.Shots.ClubSpeed)),
				SmashFactor:   parseFloat(textFirst(row, s.profile.Shots.Smash)),
				LaunchAngle:   parseFloat(textFirst(row, s.profile.Shots.Launch)),
				SpinRate:      parseFloat(textFirst(row, s.profile.Shots.Spin)),
				CarryDistance: parseFloat(textFirst(row, s.profile.Shots.Carry)),
				TotalDistance: parseFloat(textFirst(row, s.profile.Shots.Total)),
			})
		})
		break
	}

	if len(session.Shots) == 0 {
		s.logger.Warn().Str("session_id", sessionID).Msg("No shot data found in session")
	}
	return session, nil
}

// trackmanSessionToRound stores a range session as a round with one
// virtual par-4 hole holding the session's shots.
func trackmanSessionToRound(session *models.TrackmanSession, userID string) *models.Round {
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
		name = "Trackman Range Session"
	}

	return &models.Round{
		UserID:         userID,
		Date:           session.Date,
		CourseName:     name,
		CourseLocation: session.Location,
		SourceSystem:   models.SourceTrackman,
		ExternalID:     session.ID,
		Holes:          []models.Hole{hole},
	}
}
