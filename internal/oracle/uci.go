package oracle

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/freeeve/uci"
	"github.com/notnil/chess"
	"github.com/rs/zerolog"

	internalErrors "github.com/gcbaptista/chess-retrieval-bench/internal/errors"
)

// UCIEngine drives an external UCI engine process at a fixed depth
type UCIEngine struct {
	mu     sync.Mutex
	engine *uci.Engine
	path   string
	depth  int
	log    zerolog.Logger
	broken atomic.Bool
}

// NewUCIEngine starts the engine binary at path
func NewUCIEngine(path string, depth int, log zerolog.Logger) (*UCIEngine, error) {
	if path == "" {
		return nil, internalErrors.NewConfigError("UCI_ENGINE_PATH", "missing")
	}
	engine, err := uci.NewEngine(path)
	if err != nil {
		return nil, fmt.Errorf("start uci engine %s: %w", path, err)
	}
	opts := uci.Options{
		Hash:    64,
		Threads: 1,
		MultiPV: 1,
		Ponder:  false,
		OwnBook: false,
	}
	if err := engine.SetOptions(opts); err != nil {
		engine.Close()
		return nil, fmt.Errorf("set engine options: %w", err)
	}
	log.Debug().Str("path", path).Int("depth", depth).Msg("uci engine started")
	return &UCIEngine{engine: engine, path: path, depth: depth, log: log}, nil
}

// Name implements Oracle
func (u *UCIEngine) Name() string { return "uci:" + u.path }

type uciReply struct {
	best string
	err  error
}

// BestMove implements Oracle. A search that outlives ctx leaves the engine unusable.
func (u *UCIEngine) BestMove(ctx context.Context, pos *chess.Position) (*chess.Move, error) {
	if len(pos.ValidMoves()) == 0 {
		return nil, internalErrors.ErrNoMove
	}

	u.mu.Lock()
	if u.broken.Load() {
		u.mu.Unlock()
		return nil, fmt.Errorf("uci engine %s abandoned after a timeout", u.path)
	}

	reply := make(chan uciReply, 1)
	go func() {
		defer u.mu.Unlock()
		if err := u.engine.SetFEN(pos.String()); err != nil {
			reply <- uciReply{err: fmt.Errorf("set FEN: %w", err)}
			return
		}
		results, err := u.engine.GoDepth(u.depth, uci.HighestDepthOnly)
		if err != nil {
			reply <- uciReply{err: fmt.Errorf("uci search: %w", err)}
			return
		}
		reply <- uciReply{best: results.BestMove}
	}()

	select {
	case r := <-reply:
		if r.err != nil {
			return nil, r.err
		}
		m := legalMatch(pos, r.best)
		if m == nil {
			return nil, fmt.Errorf("engine returned illegal move '%s': %w", r.best, internalErrors.ErrNoMove)
		}
		return m, nil
	case <-ctx.Done():
		u.broken.Store(true)
		u.log.Warn().Err(ctx.Err()).Msg("uci search timed out")
		return nil, fmt.Errorf("uci search: %w: %w", ctx.Err(), internalErrors.ErrNoMove)
	}
}

// Close stops the engine process
func (u *UCIEngine) Close() error {
	u.engine.Close()
	return nil
}
