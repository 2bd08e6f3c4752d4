package report

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ternarybob/golfstats/internal/common"
	"github.com/ternarybob/golfstats/internal/interfaces"
	"github.com/ternarybob/golfstats/internal/models"
)

func intPtr(v int) *int { return &v }
func floatPtr(v float64) *float64 { return &v }

// fakeStorage satisfies interfaces.StorageManager with canned data.
type fakeStorage struct {
	interfaces.StorageManager
	users  *fakeUserStorage
	rounds *fakeRoundStorage
	clubs  *fakeClubStorage
}

func (f *fakeStorage) UserStorage() interfaces.UserStorage   { return f.users }
func (f *fakeStorage) RoundStorage() interfaces.RoundStorage { return f.rounds }
func (f *fakeStorage) ClubStorage() interfaces.ClubStorage   { return f.clubs }

type fakeUserStorage struct {
	interfaces.UserStorage
	users []*models.User
}

func (f *fakeUserStorage) ListActiveUsers(ctx context.Context) ([]*models.User, error) {
	return f.users, nil
}

func (f *fakeUserStorage) GetUser(ctx context.Context, id string) (*models.User, error) {
	for _, user := range f.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

type fakeRoundStorage struct {
	interfaces.RoundStorage
	byUser map[string][]*models.Round
}

func (f *fakeRoundStorage) GetRoundsSince(ctx context.Context, userID string, since time.Time) ([]*models.Round, error) {
	return f.byUser[userID], nil
}

type fakeClubStorage struct {
	interfaces.ClubStorage
	byUser map[string][]*models.Club
}

func (f *fakeClubStorage) ListClubs(ctx context.Context, userID string) ([]*models.Club, error) {
	return f.byUser[userID], nil
}

// fakePDF produces a recognizable fake document without fpdf.
type fakePDF struct {
	lastMarkdown string
}

func (f *fakePDF) ConvertMarkdownToPDF(markdown, title string) ([]byte, error) {
	f.lastMarkdown = markdown
	return []byte("%PDF-1.4 fake report"), nil
}

func (f *fakePDF) ValidatePDF(data []byte) error {
	if len(data) == 0 {
		return fmt.Errorf("empty")
	}
	return nil
}

type fakeMailer struct {
	enabled bool
	sent    []string
}

func (f *fakeMailer) Enabled() bool { return f.enabled }

func (f *fakeMailer) SendPasswordReset(ctx context.Context, to, token string) error { return nil }

func (f *fakeMailer) SendReport(ctx context.Context, to, subject string, pdf []byte, filename string) error {
	f.sent = append(f.sent, to)
	return nil
}

func testRound(course string, score, par int) *models.Round {
	return &models.Round{
		Date:         time.Now().UTC().Add(-24 * time.Hour),
		CourseName:   course,
		TotalScore:   intPtr(score),
		TotalPar:     intPtr(par),
		SourceSystem: models.SourceArccos,
		Holes:        []models.Hole{{Number: 1, Par: 4}},
		Stats: &models.RoundStats{
			ScoreToPar: intPtr(score - par),
			TotalPutts: intPtr(31),
		},
	}
}

func testRangeSession() *models.Round {
	hole := models.Hole{Number: 1, Par: 4, Shots: []models.Shot{
		{Number: 1, Club: "Driver", BallSpeed: floatPtr(160)},
		{Number: 2, Club: "7 Iron", BallSpeed: floatPtr(120)},
	}}
	return &models.Round{
		Date:         time.Now().UTC().Add(-48 * time.Hour),
		CourseName:   "Trackman Range Session",
		SourceSystem: models.SourceTrackman,
		Holes:        []models.Hole{hole},
		Stats: &models.RoundStats{
			ExtendedStats: map[string]interface{}{
				"average_ball_speed": 140.0,
				"shot_count":         2,
			},
		},
	}
}

func newTestService(t *testing.T, storage *fakeStorage, pdf *fakePDF, mailer interfaces.MailerService) *Service {
	t.Helper()
	config := common.NewDefaultConfig()
	config.ETL.OutputDir = t.TempDir()
	return NewService(storage, pdf, mailer, nil, config, common.GetLogger())
}

func singleUserStorage(user *models.User, rounds []*models.Round, clubs []*models.Club) *fakeStorage {
	return &fakeStorage{
		users:  &fakeUserStorage{users: []*models.User{user}},
		rounds: &fakeRoundStorage{byUser: map[string][]*models.Round{user.ID: rounds}},
		clubs:  &fakeClubStorage{byUser: map[string][]*models.Club{user.ID: clubs}},
	}
}

func TestGenerateForUser(t *testing.T) {
	user := &models.User{ID: "u1", Username: "golfer1", Email: "golfer@example.com", IsActive: true}
	storage := singleUserStorage(user, []*models.Round{testRound("Pebble Creek", 84, 72)}, nil)
	pdf := &fakePDF{}
	service := newTestService(t, storage, pdf, &fakeMailer{})

	info, err := service.GenerateForUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "u1", info.UserID)
	assert.Contains(t, info.Name, "golfstats_weekly_u1_")
	assert.Greater(t, info.SizeBytes, int64(0))

	// The file landed in the output directory and resolves via ReportPath.
	path, err := service.ReportPath("u1", info.Name)
	require.NoError(t, err)
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(data[:4]))

	// Markdown carried the round.
	assert.Contains(t, pdf.lastMarkdown, "Pebble Creek")
	assert.Contains(t, pdf.lastMarkdown, "+12")
}

func TestGenerateForUserNoRounds(t *testing.T) {
	user := &models.User{ID: "u1", Username: "golfer1", IsActive: true}
	storage := singleUserStorage(user, nil, nil)
	service := newTestService(t, storage, &fakePDF{}, &fakeMailer{})

	_, err := service.GenerateForUser(context.Background(), "u1")
	assert.Error(t, err)
}

func TestGenerateWeeklySkipsEmptyUsers(t *testing.T) {
	active := &models.User{ID: "u1", Username: "golfer1", IsActive: true}
	idle := &models.User{ID: "u2", Username: "golfer2", IsActive: true}
	storage := &fakeStorage{
		users: &fakeUserStorage{users: []*models.User{active, idle}},
		rounds: &fakeRoundStorage{byUser: map[string][]*models.Round{
			"u1": {testRound("Royal Pines", 79, 72)},
		}},
		clubs: &fakeClubStorage{},
	}
	service := newTestService(t, storage, &fakePDF{}, &fakeMailer{})

	reports, err := service.GenerateWeekly(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "u1", reports[0].UserID)
}

func TestGenerateMailsReportWhenEnabled(t *testing.T) {
	user := &models.User{ID: "u1", Username: "golfer1", Email: "golfer@example.com", IsActive: true}
	storage := singleUserStorage(user, []*models.Round{testRound("Pebble Creek", 84, 72)}, nil)
	mailer := &fakeMailer{enabled: true}
	service := newTestService(t, storage, &fakePDF{}, mailer)

	_, err := service.GenerateForUser(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, []string{"golfer@example.com"}, mailer.sent)
}

func TestReportPathRejectsTraversal(t *testing.T) {
	service := newTestService(t, &fakeStorage{
		users: &fakeUserStorage{}, rounds: &fakeRoundStorage{}, clubs: &fakeClubStorage{},
	}, &fakePDF{}, &fakeMailer{})

	for _, name := range []string{"", "../secret.pdf", "a/b.pdf", "..", "dir/../../x.pdf"} {
		_, err := service.ReportPath("u1", name)
		assert.Error(t, err, name)
	}

	// Unknown but well-formed names fail with not found.
	_, err := service.ReportPath("nobody", "golfstats_weekly_nobody_2026-01-01.pdf")
	assert.Error(t, err)
}

func TestReportPathRejectsForeignOwner(t *testing.T) {
	dir := t.TempDir()
	config := common.NewDefaultConfig()
	config.ETL.OutputDir = dir
	service := NewService(&fakeStorage{}, &fakePDF{}, &fakeMailer{}, nil, config, common.GetLogger())

	name := "golfstats_weekly_u1_2026-08-20.pdf"
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("%PDF u1 report"), 0644))

	// The owner resolves it; anyone else gets not found.
	_, err := service.ReportPath("u1", name)
	require.NoError(t, err)
	_, err = service.ReportPath("u2", name)
	assert.Error(t, err)
}

func TestListReportsOwnedNewestFirst(t *testing.T) {
	dir := t.TempDir()
	config := common.NewDefaultConfig()
	config.ETL.OutputDir = dir
	service := NewService(&fakeStorage{}, &fakePDF{}, &fakeMailer{}, nil, config, common.GetLogger())

	older := filepath.Join(dir, "golfstats_weekly_u1_2026-08-10.pdf")
	newer := filepath.Join(dir, "golfstats_weekly_u1_2026-08-20.pdf")
	require.NoError(t, os.WriteFile(older, []byte("%PDF old"), 0644))
	require.NoError(t, os.WriteFile(newer, []byte("%PDF new"), 0644))
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(older, past, past))

	// Another user's file and non-PDF files stay out of the listing.
	require.NoError(t, os.WriteFile(filepath.Join(dir, "golfstats_weekly_u2_2026-08-20.pdf"), []byte("%PDF other"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0644))

	reports, err := service.ListReports("u1")
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "golfstats_weekly_u1_2026-08-20.pdf", reports[0].Name)
	assert.Equal(t, "u1", reports[0].UserID)
	assert.Equal(t, "u1", reports[1].UserID)
}

func TestUserFromFilename(t *testing.T) {
	assert.Equal(t, "golfer1", userFromFilename("golfstats_weekly_golfer1_2026-08-20.pdf"))
	assert.Equal(t, "a_b", userFromFilename("golfstats_weekly_a_b_2026-08-20.pdf"))
	assert.Equal(t, "", userFromFilename("random.pdf"))
}

func TestBuildWeeklyMarkdownSections(t *testing.T) {
	user := &models.User{ID: "u1", FullName: "Test Golfer"}
	rounds := []*models.Round{
		testRound("Pebble Creek", 84, 72),
		testRangeSession(),
	}
	clubs := []*models.Club{
		{Name: "Driver", Type: models.ClubTypeDriver, IsActive: true, AvgDistance: floatPtr(255), MaxDistance: floatPtr(280)},
		{Name: "Putter", Type: models.ClubTypePutter, IsActive: true},
	}

	md := buildWeeklyMarkdown(user, rounds, clubs, time.Now().Add(-7*24*time.Hour), time.Now())

	assert.Contains(t, md, "# Weekly Golf Report")
	assert.Contains(t, md, "Test Golfer")
	assert.Contains(t, md, "## Rounds")
	assert.Contains(t, md, "## Practice Sessions")
	assert.Contains(t, md, "## Launch Averages")
	assert.Contains(t, md, "Ball speed: 140.0 mph")
	assert.Contains(t, md, "## Bag Distances")
	assert.Contains(t, md, "| Driver | 255 | 280 |")
	// The putter has no distance data so it stays out of the table.
	assert.NotContains(t, md, "| Putter |")
}
