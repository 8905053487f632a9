package services

import (
	"context"

	"github.com/gcbaptista/chess-retrieval-bench/model"
)

// EventStream is a push-based reader over one run's event log
type EventStream interface {
	// Next blocks until events exist past cursor or the log is closed, then
	// returns every event from cursor on. closed reports that no further events will follow.
	Next(ctx context.Context, cursor int) (events []model.RunEvent, closed bool, err error)
}

// RunManager starts benchmark runs in the background and tracks them
type RunManager interface {
	Start(ctx context.Context, numGames, workers int) (string, error)
	Poll(runID string, cursor int) ([]model.RunEvent, bool, error)
	Snapshot(runID string, cursor int) (*model.RunSnapshot, error)
	Subscribe(runID string) (EventStream, error)
	Await(ctx context.Context, runID string) (*model.BenchmarkReport, error)
	Cancel(runID string) error
	Delete(runID string) error
	GetMetrics() model.RunMetrics
}

// ReportWriter persists a finished benchmark report and returns its file name
type ReportWriter interface {
	WriteReport(report *model.BenchmarkReport) (string, error)
}

// ReportStore reads persisted benchmark reports
type ReportStore interface {
	ReportWriter
	ListReports() ([]model.ReportListing, error)
	LoadReport(name string) (*model.BenchmarkReport, error)
}

// GameStore reads and writes single-game PGN records
type GameStore interface {
	SaveGame(pgn, white, black string) (string, error)
	ListGames() ([]string, error)
	LoadGame(name string) (*model.GameRecord, error)
}

// AnalyticsProvider aggregates persisted results
type AnalyticsProvider interface {
	GetDashboardData() (*model.AnalyticsDashboard, error)
}
