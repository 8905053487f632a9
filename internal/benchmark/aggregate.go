package benchmark

import (
	"math"
	"strconv"

	"github.com/gcbaptista/chess-retrieval-bench/model"
)

// Summarize aggregates the games of a run. Averages divide by numGames, the
// number of games requested, and round halves to even; nil entries count as zero.
func Summarize(games []*model.GameResult, numGames int) model.Summary {
	var (
		s                       model.Summary
		moves                   int
		baselineMs, retrievalMs float64
	)
	for _, g := range games {
		if g == nil {
			continue
		}
		switch g.Result {
		case model.OutcomeWhiteWins:
			s.BaselineWins++
		case model.OutcomeBlackWins:
			s.RetrievalWins++
		case model.OutcomeDraw:
			s.Draws++
		default:
			s.Unfinished++
		}
		moves += g.Moves
		baselineMs += g.AvgBaselineMs
		retrievalMs += g.AvgRetrievalMs
		s.TotalHits += g.Hits
		s.TotalMisses += g.Misses
	}

	if numGames > 0 {
		n := float64(numGames)
		s.AvgMoves = int(math.RoundToEven(float64(moves) / n))
		s.AvgBaselineMs = int(math.RoundToEven(baselineMs / n))
		s.AvgRetrievalMs = int(math.RoundToEven(retrievalMs / n))
	}
	s.HitRatePct = HitRatePct(s.TotalHits, s.TotalMisses)
	return s
}

// HitRatePct returns hits/(hits+misses) as a percentage rounded to one decimal,
// or 0 when there were no lookups.
func HitRatePct(hits, misses int) float64 {
	return roundedPct(hits, hits+misses)
}

func roundedPct(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return Round1(float64(part) / float64(total) * 100)
}

// Round1 rounds x to one decimal place, halves to even on the decimal value
// x actually holds: 0.25 becomes 0.2 while 0.35 (stored as 0.34999...) becomes 0.3.
func Round1(x float64) float64 {
	r, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', 1, 64), 64)
	if err != nil {
		return x
	}
	return r
}
