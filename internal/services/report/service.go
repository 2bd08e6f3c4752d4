// -----------------------------------------------------------------------
// Report Service - weekly per-user PDF summaries
// -----------------------------------------------------------------------

package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/golfstats/internal/common"
	"github.com/ternarybob/golfstats/internal/interfaces"
	"github.com/ternarybob/golfstats/internal/models"
)

const reportWindow = 7 * 24 * time.Hour

// Service builds weekly markdown summaries per user, renders them to
// PDF and writes the files to the configured output directory.
type Service struct {
	storage   interfaces.StorageManager
	pdf       interfaces.PDFService
	mailer    interfaces.MailerService
	events    interfaces.EventService
	outputDir string
	logger    arbor.ILogger
}

var _ interfaces.ReportService = (*Service)(nil)

func NewService(storage interfaces.StorageManager, pdfService interfaces.PDFService, mailerService interfaces.MailerService, events interfaces.EventService, config *common.Config, logger arbor.ILogger) *Service {
	return &Service{
		storage:   storage,
		pdf:       pdfService,
		mailer:    mailerService,
		events:    events,
		outputDir: config.ETL.OutputDir,
		logger:    logger,
	}
}

// GenerateWeekly builds a report for every active user. Users with no
// rounds in the window are skipped; per-user failures are logged and do
// not stop the batch.
func (s *Service) GenerateWeekly(ctx context.Context) ([]interfaces.ReportInfo, error) {
	users, err := s.storage.UserStorage().ListActiveUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	var reports []interfaces.ReportInfo
	for _, user := range users {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		info, err := s.generate(ctx, user)
		if err != nil {
			s.logger.Warn().
				Str("user_id", user.ID).
				Err(err).
				Msg("Report generation failed for user")
			continue
		}
		if info != nil {
			reports = append(reports, *info)
		}
	}

	s.logger.Info().
		Int("reports", len(reports)).
		Int("users", len(users)).
		Msg("Weekly report generation completed")
	return reports, nil
}

// GenerateForUser builds one user's report. Unlike the batch path, a
// week with no rounds is an error so the caller gets feedback.
func (s *Service) GenerateForUser(ctx context.Context, userID string) (*interfaces.ReportInfo, error) {
	user, err := s.storage.UserStorage().GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	info, err := s.generate(ctx, user)
	if err != nil {
		return nil, err
	}
	if info == nil {
		return nil, fmt.Errorf("no rounds in the last 7 days")
	}
	return info, nil
}

func (s *Service) generate(ctx context.Context, user *models.User) (*interfaces.ReportInfo, error) {
	since := time.Now().UTC().Add(-reportWindow)
	rounds, err := s.storage.RoundStorage().GetRoundsSince(ctx, user.ID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load rounds: %w", err)
	}
	if len(rounds) == 0 {
		return nil, nil
	}

	clubs, err := s.storage.ClubStorage().ListClubs(ctx, user.ID)
	if err != nil {
		// Bag distances are a nice-to-have section; the report still
		// has value without them.
		s.logger.Warn().Str("user_id", user.ID).Err(err).Msg("Failed to load clubs for report")
		clubs = nil
	}

	markdown := buildWeeklyMarkdown(user, rounds, clubs, since, time.Now().UTC())

	title := fmt.Sprintf("Weekly Golf Report - %s", displayName(user))
	pdfBytes, err := s.pdf.ConvertMarkdownToPDF(markdown, title)
	if err != nil {
		return nil, fmt.Errorf("failed to render PDF: %w", err)
	}
	if err := s.pdf.ValidatePDF(pdfBytes); err != nil {
		return nil, fmt.Errorf("generated PDF failed validation: %w", err)
	}

	if err := os.MkdirAll(s.outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	filename := reportFilename(user, time.Now().UTC())
	path := filepath.Join(s.outputDir, filename)
	if err := os.WriteFile(path, pdfBytes, 0644); err != nil {
		return nil, fmt.Errorf("failed to write report: %w", err)
	}

	info := &interfaces.ReportInfo{
		Name:      filename,
		UserID:    user.ID,
		SizeBytes: int64(len(pdfBytes)),
		CreatedAt: time.Now().Unix(),
	}

	s.logger.Info().
		Str("user_id", user.ID).
		Str("file", filename).
		Int("rounds", len(rounds)).
		Msg("Weekly report generated")

	if s.events != nil {
		if err := s.events.Publish(ctx, interfaces.Event{
			Type:    interfaces.EventReportGenerated,
			Payload: info,
		}); err != nil {
			s.logger.Warn().Err(err).Msg("Failed to publish report event")
		}
	}

	if s.mailer != nil && s.mailer.Enabled() && user.Email != "" {
		subject := fmt.Sprintf("Your weekly golf report (%s)", time.Now().UTC().Format("Jan 2"))
		if err := s.mailer.SendReport(ctx, user.Email, subject, pdfBytes, filename); err != nil {
			s.logger.Warn().Str("user_id", user.ID).Err(err).Msg("Failed to mail report")
		}
	}

	return info, nil
}

// ListReports returns the user's generated report files, newest first.
// Report files belong to the user named in the filename; other users'
// files stay out of the listing.
func (s *Service) ListReports(userID string) ([]interfaces.ReportInfo, error) {
	entries, err := os.ReadDir(s.outputDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read report directory: %w", err)
	}

	var reports []interfaces.ReportInfo
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".pdf") {
			continue
		}
		owner := userFromFilename(entry.Name())
		if owner != userID {
			continue
		}
		fi, err := entry.Info()
		if err != nil {
			continue
		}
		reports = append(reports, interfaces.ReportInfo{
			Name:      entry.Name(),
			UserID:    owner,
			SizeBytes: fi.Size(),
			CreatedAt: fi.ModTime().Unix(),
		})
	}

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].CreatedAt > reports[j].CreatedAt
	})
	return reports, nil
}

// ReportPath resolves a report name to its path under the output
// directory. Names with separators or traversal components are
// rejected, and a name owned by another user is not found, same as a
// missing file.
func (s *Service) ReportPath(userID, name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.Contains(name, "..") {
		return "", fmt.Errorf("invalid report name")
	}
	if userFromFilename(name) != userID {
		return "", fmt.Errorf("report not found: %s", name)
	}

	path := filepath.Join(s.outputDir, name)
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("report not found: %s", name)
	}
	return path, nil
}

// reportFilename builds golfstats_weekly_<user_id>_<date>.pdf. The user
// ID keys ownership checks on listing and download, so it goes in the
// name verbatim.
func reportFilename(user *models.User, now time.Time) string {
	return fmt.Sprintf("golfstats_weekly_%s_%s.pdf", user.ID, now.Format("2006-01-02"))
}

// userFromFilename recovers the owning user ID from a report filename,
// or returns empty for files that do not match the naming scheme.
func userFromFilename(name string) string {
	trimmed := strings.TrimSuffix(strings.TrimPrefix(name, "golfstats_weekly_"), ".pdf")
	if trimmed == name || trimmed == "" {
		return ""
	}
	idx := strings.LastIndex(trimmed, "_")
	if idx <= 0 {
		return ""
	}
	return trimmed[:idx]
}

func displayName(user *models.User) string {
	if user.FullName != "" {
		return user.FullName
	}
	if user.Username != "" {
		return user.Username
	}
	return user.Email
}
