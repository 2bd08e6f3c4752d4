package interfaces

import (
	"context"

	"github.com/ternarybob/golfstats/internal/models"
)

// ETLService runs the scrape-transform-load pipeline.
type ETLService interface {
	// RunAll executes the pipeline for every active user with tracker
	// credentials. Per-user and per-source failures are collected into
	// the returned run; only setup failures return an error.
	RunAll(ctx context.Context, trigger string) (*models.ETLRun, error)

	// RunUser executes the pipeline for a single user.
	RunUser(ctx context.Context, userID, trigger string) (*models.ETLRun, error)

	// IsRunning reports whether a run is currently in flight.
	IsRunning() bool
}

// ReportInfo describes one generated report file.
type ReportInfo struct {
	Name      string `json:"name"`
	UserID    string `json:"user_id,omitempty"`
	SizeBytes int64  `json:"size_bytes"`
	CreatedAt int64  `json:"created_at"`
}

// ReportService generates and lists weekly summary reports.
type ReportService interface {
	// GenerateWeekly builds a PDF report per active user covering the
	// trailing seven days and returns the files written.
	GenerateWeekly(ctx context.Context) ([]ReportInfo, error)

	// GenerateForUser builds one user's report.
	GenerateForUser(ctx context.Context, userID string) (*ReportInfo, error)

	// ListReports returns the user's generated report files, newest
	// first.
	ListReports(userID string) ([]ReportInfo, error)

	// ReportPath resolves a report name to its path under the output
	// directory, rejecting traversal outside it. Names owned by another
	// user resolve as not found.
	ReportPath(userID, name string) (string, error)
}
