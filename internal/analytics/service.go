// Package analytics aggregates persisted benchmark reports into dashboard totals.
package analytics

import (
	"github.com/rs/zerolog"

	"github.com/gcbaptista/chess-retrieval-bench/internal/benchmark"
	"github.com/gcbaptista/chess-retrieval-bench/model"
	"github.com/gcbaptista/chess-retrieval-bench/services"
)

// ReportLister is the read side of a report store
type ReportLister interface {
	ListReports() ([]model.ReportListing, error)
}

// GameLister is the read side of a game store
type GameLister interface {
	ListGames() ([]string, error)
}

// Service implements services.AnalyticsProvider over the persisted reports
type Service struct {
	reports ReportLister
	games   GameLister
	log     zerolog.Logger
}

// NewService creates a new analytics service; games may be nil
func NewService(reports ReportLister, games GameLister, log zerolog.Logger) *Service {
	return &Service{reports: reports, games: games, log: log}
}

// GetDashboardData returns totals across every persisted report
func (s *Service) GetDashboardData() (*model.AnalyticsDashboard, error) {
	listings, err := s.reports.ListReports()
	if err != nil {
		return nil, err
	}

	dashboard := &model.AnalyticsDashboard{
		TotalReports:   len(listings),
		HitRateHistory: make([]model.HitRatePoint, 0, len(listings)),
	}

	totalMoves := 0
	// listings are newest first; history is oldest first
	for i := len(listings) - 1; i >= 0; i-- {
		l := listings[i]
		sum := l.Summary

		dashboard.TotalGames += l.NumGames
		dashboard.BaselineWins += sum.BaselineWins
		dashboard.RetrievalWins += sum.RetrievalWins
		dashboard.Draws += sum.Draws
		dashboard.Unfinished += sum.Unfinished
		dashboard.TotalHits += sum.TotalHits
		dashboard.TotalMisses += sum.TotalMisses
		totalMoves += sum.AvgMoves * l.NumGames

		if sum.HitRatePct > dashboard.BestHitRate {
			dashboard.BestHitRate = sum.HitRatePct
		}
		dashboard.HitRateHistory = append(dashboard.HitRateHistory, model.HitRatePoint{
			Filename:   l.Filename,
			Timestamp:  l.Timestamp,
			HitRatePct: sum.HitRatePct,
		})
	}

	if dashboard.TotalGames > 0 {
		dashboard.AvgMovesPerGame = benchmark.Round1(float64(totalMoves) / float64(dashboard.TotalGames))
	}
	dashboard.OverallHitRate = benchmark.HitRatePct(dashboard.TotalHits, dashboard.TotalMisses)
	if len(listings) > 0 {
		latest := listings[0]
		dashboard.LatestReport = &latest
	}

	if s.games != nil {
		names, err := s.games.ListGames()
		if err != nil {
			s.log.Warn().Err(err).Msg("failed to list game records")
		} else {
			dashboard.StoredGameRecord = len(names)
		}
	}
	return dashboard, nil
}

var _ services.AnalyticsProvider = (*Service)(nil)
