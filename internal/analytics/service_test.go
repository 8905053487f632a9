package analytics

import (
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testutil "github.com/gcbaptista/chess-retrieval-bench/internal/testing"
	"github.com/gcbaptista/chess-retrieval-bench/model"
)

// MockReportLister returns fixed listings
type MockReportLister struct {
	listings []model.ReportListing
	err      error
}

func (m *MockReportLister) ListReports() ([]model.ReportListing, error) { return m.listings, m.err }

// MockGameLister returns fixed game names
type MockGameLister struct {
	names []string
	err   error
}

func (m *MockGameLister) ListGames() ([]string, error) { return m.names, m.err }

func TestAnalyticsService_Totals(t *testing.T) {
	reports := &MockReportLister{listings: []model.ReportListing{
		{
			Filename: "benchmark_20250102_000000.json", Timestamp: "2025-01-02T00:00:00.000000", NumGames: 2,
			Summary: model.Summary{BaselineWins: 2, AvgMoves: 40, TotalHits: 10, TotalMisses: 30, HitRatePct: 25},
		},
		{
			Filename: "benchmark_20250101_000000.json", Timestamp: "2025-01-01T00:00:00.000000", NumGames: 3,
			Summary: model.Summary{BaselineWins: 1, RetrievalWins: 1, Draws: 1, AvgMoves: 55, TotalHits: 30, TotalMisses: 30, HitRatePct: 50},
		},
	}}
	service := NewService(reports, &MockGameLister{names: []string{"a.pgn", "b.pgn"}}, zerolog.Nop())

	dashboard, err := service.GetDashboardData()
	require.NoError(t, err)

	assert.Equal(t, 2, dashboard.TotalReports)
	assert.Equal(t, 5, dashboard.TotalGames)
	assert.Equal(t, 3, dashboard.BaselineWins)
	assert.Equal(t, 1, dashboard.RetrievalWins)
	assert.Equal(t, 1, dashboard.Draws)
	assert.Equal(t, 49.0, dashboard.AvgMovesPerGame, "(40*2 + 55*3) / 5")
	assert.Equal(t, 40, dashboard.TotalHits)
	assert.Equal(t, 60, dashboard.TotalMisses)
	assert.Equal(t, 40.0, dashboard.OverallHitRate)
	assert.Equal(t, 50.0, dashboard.BestHitRate)
	assert.Equal(t, 2, dashboard.StoredGameRecord)

	require.NotNil(t, dashboard.LatestReport)
	assert.Equal(t, "benchmark_20250102_000000.json", dashboard.LatestReport.Filename)

	require.Len(t, dashboard.HitRateHistory, 2)
	assert.Equal(t, "benchmark_20250101_000000.json", dashboard.HitRateHistory[0].Filename, "History is oldest first")
	assert.Equal(t, 25.0, dashboard.HitRateHistory[1].HitRatePct)
}

func TestAnalyticsService_Empty(t *testing.T) {
	service := NewService(&MockReportLister{}, nil, zerolog.Nop())

	dashboard, err := service.GetDashboardData()
	require.NoError(t, err)
	assert.Zero(t, dashboard.TotalReports)
	assert.Zero(t, dashboard.AvgMovesPerGame)
	assert.Zero(t, dashboard.OverallHitRate)
	assert.Nil(t, dashboard.LatestReport)
	assert.NotNil(t, dashboard.HitRateHistory)
}

func TestAnalyticsService_Errors(t *testing.T) {
	service := NewService(&MockReportLister{err: errors.New("disk gone")}, nil, zerolog.Nop())
	_, err := service.GetDashboardData()
	assert.Error(t, err)

	service = NewService(&MockReportLister{}, &MockGameLister{err: errors.New("denied")}, zerolog.Nop())
	dashboard, err := service.GetDashboardData()
	require.NoError(t, err, "Game listing failures do not fail the dashboard")
	assert.Zero(t, dashboard.StoredGameRecord)
}

func TestAnalyticsService_PersistedReports(t *testing.T) {
	reports, games := testutil.CreateTestStores(t)

	_, err := reports.WriteReport(&model.BenchmarkReport{
		Timestamp: "2025-03-01T10:00:00.000000",
		Mode:      model.DefaultMode,
		NumGames:  1,
		Workers:   1,
		Summary:   model.Summary{RetrievalWins: 1, AvgMoves: 33, TotalHits: 3, TotalMisses: 1, HitRatePct: 75},
	})
	require.NoError(t, err)
	_, err = games.SaveGame("1. e4 e5 *", "Baseline", "Retrieval")
	require.NoError(t, err)

	dashboard, err := NewService(reports, games, zerolog.Nop()).GetDashboardData()
	require.NoError(t, err)
	assert.Equal(t, 1, dashboard.TotalReports)
	assert.Equal(t, 1, dashboard.RetrievalWins)
	assert.Equal(t, 33.0, dashboard.AvgMovesPerGame)
	assert.Equal(t, 75.0, dashboard.OverallHitRate)
	assert.Equal(t, 1, dashboard.StoredGameRecord)
}
