package game

import (
	"math/rand"
	"time"

	"github.com/rs/zerolog"

	"github.com/gcbaptista/chess-retrieval-bench/config"
	"github.com/gcbaptista/chess-retrieval-bench/internal/benchmark"
	"github.com/gcbaptista/chess-retrieval-bench/internal/oracle"
	"github.com/gcbaptista/chess-retrieval-bench/internal/retrieval"
	"github.com/gcbaptista/chess-retrieval-bench/internal/vectorindex"
)

// Factory builds an isolated Runner per game: a fresh retrieval policy with its
// own counters and RNG, and a fresh baseline oracle.
type Factory struct {
	Index         vectorindex.Index
	Oracle        oracle.Config
	Retrieval     retrieval.Config
	OracleTimeout time.Duration
	// Seed derives each game's RNG as Seed+gameNumber, so a seeded benchmark
	// replays the same fallback choices.
	Seed     int64
	StartFEN string
	Logger   zerolog.Logger
}

// NewFactory builds a factory from process settings
func NewFactory(s *config.Settings, index vectorindex.Index, log zerolog.Logger) *Factory {
	return &Factory{
		Index: index,
		Oracle: oracle.Config{
			Kind:    s.BaselineEngine,
			Depth:   s.BaselineDepth,
			UCIPath: s.UCIEnginePath,
			Logger:  log,
		},
		Retrieval: retrieval.Config{
			Threshold:    s.RetrievalThreshold,
			QueryTimeout: s.QueryTimeout,
		},
		OracleTimeout: s.OracleTimeout,
		Seed:          s.Seed(),
		Logger:        log,
	}
}

// NewRunner creates the runner for gameNumber
func (f *Factory) NewRunner(gameNumber int) (*Runner, error) {
	baseline, err := oracle.New(f.Oracle)
	if err != nil {
		return nil, err
	}

	rcfg := f.Retrieval
	rcfg.Logger = f.Logger.With().Int("game", gameNumber).Logger()
	policy := retrieval.NewPolicy(f.Index, rand.New(rand.NewSource(f.Seed+int64(gameNumber))), rcfg)

	opts := []RunnerOption{
		WithOracleTimeout(f.OracleTimeout),
		WithLogger(f.Logger),
	}
	if f.StartFEN != "" {
		opts = append(opts, WithStartFEN(f.StartFEN))
	}
	return NewRunner(baseline, policy, opts...), nil
}

// Sessions adapts the factory to the orchestrator's session constructor
func (f *Factory) Sessions() benchmark.SessionFactory {
	return func(gameNumber int) (benchmark.Session, error) {
		r, err := f.NewRunner(gameNumber)
		if err != nil {
			return nil, err
		}
		return r, nil
	}
}
