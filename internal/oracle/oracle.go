// Package oracle provides the baseline move source the retrieval policy plays against.
package oracle

import (
	"context"
	"fmt"

	"github.com/notnil/chess"
	"github.com/rs/zerolog"

	internalErrors "github.com/gcbaptista/chess-retrieval-bench/internal/errors"
)

// Engine kinds
const (
	KindBuiltin = "builtin"
	KindUCI     = "uci"
)

// DefaultDepth is the fixed search depth of the baseline
const DefaultDepth = 4

// Oracle returns a move for the side to move
type Oracle interface {
	// BestMove returns nil with ErrNoMove when the position has no legal moves
	// or when ctx expires before any move was found.
	BestMove(ctx context.Context, pos *chess.Position) (*chess.Move, error)
	Name() string
	Close() error
}

// Config selects and tunes an oracle
type Config struct {
	Kind    string
	Depth   int
	UCIPath string
	Logger  zerolog.Logger
}

// New builds an oracle from cfg. Each game should own its own oracle.
func New(cfg Config) (Oracle, error) {
	if cfg.Depth <= 0 {
		cfg.Depth = DefaultDepth
	}
	switch cfg.Kind {
	case "", KindBuiltin:
		return NewSearcher(cfg.Depth), nil
	case KindUCI:
		return NewUCIEngine(cfg.UCIPath, cfg.Depth, cfg.Logger)
	default:
		return nil, internalErrors.NewConfigError("BASELINE_ENGINE", fmt.Sprintf("unknown engine '%s'", cfg.Kind))
	}
}

// legalMatch resolves a UCI string against the legal moves of pos
func legalMatch(pos *chess.Position, uci string) *chess.Move {
	enc := chess.UCINotation{}
	for _, m := range pos.ValidMoves() {
		if enc.Encode(pos, m) == uci {
			return m
		}
	}
	return nil
}
