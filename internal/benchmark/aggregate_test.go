package benchmark

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gcbaptista/chess-retrieval-bench/model"
)

func TestSummarize_CountsAndAverages(t *testing.T) {
	games := []*model.GameResult{
		{Game: 1, Result: model.OutcomeWhiteWins, Moves: 40, AvgBaselineMs: 12, AvgRetrievalMs: 3, Hits: 5, Misses: 15},
		{Game: 2, Result: model.OutcomeDraw, Moves: 50, AvgBaselineMs: 10, AvgRetrievalMs: 4, Hits: 10, Misses: 15},
		{Game: 3, Result: model.OutcomeBlackWins, Moves: 61, AvgBaselineMs: 11, AvgRetrievalMs: 2.5, Hits: 0, Misses: 31},
	}

	s := Summarize(games, 3)

	assert.Equal(t, 1, s.BaselineWins)
	assert.Equal(t, 1, s.RetrievalWins)
	assert.Equal(t, 1, s.Draws)
	assert.Equal(t, 0, s.Unfinished)
	assert.Equal(t, 50, s.AvgMoves, "round(151/3)")
	assert.Equal(t, 11, s.AvgBaselineMs)
	assert.Equal(t, 3, s.AvgRetrievalMs, "round(9.5/3)")
	assert.Equal(t, 15, s.TotalHits)
	assert.Equal(t, 61, s.TotalMisses)
	assert.Equal(t, 19.7, s.HitRatePct)
}

func TestSummarize_FailedGamesCountAsUnfinished(t *testing.T) {
	games := []*model.GameResult{
		{Game: 1, Result: model.OutcomeWhiteWins, Moves: 30},
		model.FailedGame(2, errors.New("engine crashed")),
	}

	s := Summarize(games, 2)
	assert.Equal(t, 1, s.BaselineWins)
	assert.Equal(t, 1, s.Unfinished)
	assert.Equal(t, 15, s.AvgMoves, "Averages divide by the requested game count")
}

func TestSummarize_RoundsHalvesToEven(t *testing.T) {
	games := []*model.GameResult{
		{Game: 1, Result: model.OutcomeWhiteWins, Moves: 40, AvgBaselineMs: 2.5, AvgRetrievalMs: 3.5},
		{Game: 2, Result: model.OutcomeWhiteWins, Moves: 41, AvgBaselineMs: 2.5, AvgRetrievalMs: 3.5},
	}

	s := Summarize(games, 2)
	assert.Equal(t, 40, s.AvgMoves, "40.5 rounds down to the even neighbour")
	assert.Equal(t, 2, s.AvgBaselineMs, "2.5 rounds down to the even neighbour")
	assert.Equal(t, 4, s.AvgRetrievalMs, "3.5 rounds up to the even neighbour")

	games[1].Moves = 43
	assert.Equal(t, 42, Summarize(games, 2).AvgMoves, "41.5 rounds up to the even neighbour")
}

func TestSummarize_ZeroGames(t *testing.T) {
	s := Summarize(nil, 0)
	assert.Equal(t, model.Summary{}, s)
}

func TestRound1(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0.25, 0.2},
		{0.75, 0.8},
		{0.35, 0.3},
		{12.45, 12.4},
		{66.66666666666667, 66.7},
		{100, 100},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Round1(tt.in), "Round1(%v)", tt.in)
	}
}

func TestHitRatePct(t *testing.T) {
	tests := []struct {
		hits, misses int
		want         float64
	}{
		{0, 0, 0},
		{1, 0, 100},
		{0, 7, 0},
		{2, 1, 66.7},
		{1, 2, 33.3},
		{1, 7, 12.5},
		{123, 877, 12.3},
		{1, 399, 0.2},
		{3, 397, 0.8},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HitRatePct(tt.hits, tt.misses), "hits=%d misses=%d", tt.hits, tt.misses)
	}
}
