// Package game plays one benchmark game: the baseline oracle as white against the
// retrieval policy as black.
package game

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/notnil/chess"
	"github.com/rs/zerolog"

	internalErrors "github.com/gcbaptista/chess-retrieval-bench/internal/errors"
	"github.com/gcbaptista/chess-retrieval-bench/internal/oracle"
	"github.com/gcbaptista/chess-retrieval-bench/internal/retrieval"
	"github.com/gcbaptista/chess-retrieval-bench/model"
)

// DefaultOracleTimeout bounds a single baseline move
const DefaultOracleTimeout = 60 * time.Second

// RetrievalSource is the move source playing black
type RetrievalSource interface {
	Decide(ctx context.Context, pos *chess.Position) retrieval.Decision
	Stats() retrieval.Stats
}

// Runner owns the move sources of exactly one game
type Runner struct {
	baseline      oracle.Oracle
	retrieval     RetrievalSource
	oracleTimeout time.Duration
	startFEN      string
	whiteLabel    string
	blackLabel    string
	log           zerolog.Logger
	now           func() time.Time
}

// RunnerOption customizes a Runner
type RunnerOption func(*Runner)

// WithStartFEN starts the game from fen instead of the initial position
func WithStartFEN(fen string) RunnerOption {
	return func(r *Runner) { r.startFEN = fen }
}

// WithOracleTimeout bounds each baseline move
func WithOracleTimeout(d time.Duration) RunnerOption {
	return func(r *Runner) {
		if d > 0 {
			r.oracleTimeout = d
		}
	}
}

// WithLogger attaches a logger
func WithLogger(log zerolog.Logger) RunnerOption {
	return func(r *Runner) { r.log = log }
}

// WithPlayers sets the PGN player names
func WithPlayers(white, black string) RunnerOption {
	return func(r *Runner) { r.whiteLabel, r.blackLabel = white, black }
}

// NewRunner creates a runner. The runner takes ownership of baseline.
func NewRunner(baseline oracle.Oracle, policy RetrievalSource, opts ...RunnerOption) *Runner {
	r := &Runner{
		baseline:      baseline,
		retrieval:     policy,
		oracleTimeout: DefaultOracleTimeout,
		whiteLabel:    "Baseline (" + baseline.Name() + ")",
		blackLabel:    "Retrieval",
		log:           zerolog.Nop(),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Close releases the baseline oracle
func (r *Runner) Close() error {
	return r.baseline.Close()
}

// Play runs the game to a terminal state, or until a move source has no move.
// gameNumber is recorded in the result and the PGN event tag.
func (r *Runner) Play(ctx context.Context, gameNumber int) (*model.GameResult, error) {
	var gameOpts []func(*chess.Game)
	if r.startFEN != "" {
		fenOpt, err := chess.FEN(r.startFEN)
		if err != nil {
			return nil, internalErrors.NewValidationError("start_fen", err.Error())
		}
		gameOpts = append(gameOpts, fenOpt)
	}
	g := chess.NewGame(gameOpts...)
	log := r.log.With().Int("game", gameNumber).Logger()

	var (
		plies                         []model.PlyRecord
		baselineTotal, retrievalTotal time.Duration
		baselineCount, retrievalCount int
	)

	for g.Outcome() == chess.NoOutcome {
		if claimDraw(g) {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, internalErrors.NewGameError(gameNumber, len(plies)+1, "context", err)
		}

		pos := g.Position()
		var (
			move   *chess.Move
			source model.MoveSource
			hit    *bool
		)
		start := time.Now()
		if pos.Turn() == chess.White {
			source = model.SourceBaseline
			octx, cancel := context.WithTimeout(ctx, r.oracleTimeout)
			m, err := r.baseline.BestMove(octx, pos)
			cancel()
			if err != nil {
				if errors.Is(err, internalErrors.ErrNoMove) && len(pos.ValidMoves()) == 0 {
					break
				}
				return nil, internalErrors.NewGameError(gameNumber, len(plies)+1, string(source), err)
			}
			move = m
		} else {
			source = model.SourceRetrieval
			d := r.retrieval.Decide(ctx, pos)
			if d.Move == nil {
				break
			}
			move = d.Move
			h := d.Hit
			hit = &h
		}
		elapsed := time.Since(start)

		san := chess.AlgebraicNotation{}.Encode(pos, move)
		uci := chess.UCINotation{}.Encode(pos, move)
		if err := g.Move(move); err != nil {
			return nil, internalErrors.NewGameError(gameNumber, len(plies)+1, string(source), fmt.Errorf("apply %s: %w", uci, err))
		}

		if source == model.SourceBaseline {
			baselineTotal += elapsed
			baselineCount++
		} else {
			retrievalTotal += elapsed
			retrievalCount++
		}
		plies = append(plies, model.PlyRecord{
			Ply:       len(plies) + 1,
			Source:    source,
			Move:      uci,
			SAN:       san,
			LatencyMs: durationMs(elapsed),
			Hit:       hit,
		})
	}

	stats := r.retrieval.Stats()
	result := &model.GameResult{
		Game:           gameNumber,
		Result:         string(g.Outcome()),
		Reason:         terminationReason(g),
		Moves:          len(plies),
		AvgBaselineMs:  averageMs(baselineTotal, baselineCount),
		AvgRetrievalMs: averageMs(retrievalTotal, retrievalCount),
		Hits:           stats.Hits,
		Misses:         stats.Misses,
		Plies:          plies,
	}

	g.AddTagPair("Event", fmt.Sprintf("Retrieval Benchmark Game %d", gameNumber))
	g.AddTagPair("White", r.whiteLabel)
	g.AddTagPair("Black", r.blackLabel)
	g.AddTagPair("Date", r.now().Format("2006.01.02"))
	g.AddTagPair("Result", result.Result)
	g.AddTagPair("Termination", result.Reason)
	result.PGN = g.String()

	log.Debug().
		Str("result", result.Result).
		Str("reason", result.Reason).
		Int("plies", result.Moves).
		Int("hits", result.Hits).
		Msg("game finished")
	return result, nil
}

// claimDraw claims a threefold repetition or fifty-move draw as soon as one is available
func claimDraw(g *chess.Game) bool {
	for _, m := range g.EligibleDraws() {
		if m == chess.ThreefoldRepetition || m == chess.FiftyMoveRule {
			return g.Draw(m) == nil
		}
	}
	return false
}

// terminationReason maps the game's end method onto the report vocabulary
func terminationReason(g *chess.Game) string {
	if g.Outcome() == chess.NoOutcome {
		return model.ReasonUnknown
	}
	switch g.Method() {
	case chess.Checkmate:
		return model.ReasonCheckmate
	case chess.Stalemate:
		return model.ReasonStalemate
	case chess.InsufficientMaterial:
		return model.ReasonInsufficient
	case chess.FiftyMoveRule, chess.SeventyFiveMoveRule:
		return model.ReasonFiftyMove
	case chess.ThreefoldRepetition, chess.FivefoldRepetition:
		return model.ReasonRepetition
	default:
		return model.ReasonUnknown
	}
}

func durationMs(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

func averageMs(total time.Duration, n int) float64 {
	if n == 0 {
		return 0
	}
	return durationMs(total) / float64(n)
}
