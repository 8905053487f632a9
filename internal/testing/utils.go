// Package testing provides utilities and helpers for testing the benchmark packages.
package testing

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/notnil/chess"
	"github.com/stretchr/testify/require"

	internalErrors "github.com/gcbaptista/chess-retrieval-bench/internal/errors"
	"github.com/gcbaptista/chess-retrieval-bench/internal/features"
	"github.com/gcbaptista/chess-retrieval-bench/internal/persistence"
	"github.com/gcbaptista/chess-retrieval-bench/internal/vectorindex"
	"github.com/gcbaptista/chess-retrieval-bench/model"
	"github.com/gcbaptista/chess-retrieval-bench/services"
)

// StaticIndex answers every query with the same matches.
// Delay simulates a slow backend and honours the query context.
type StaticIndex struct {
	Matches []vectorindex.Match
	Err     error
	Delay   time.Duration

	mu      sync.Mutex
	queries int
	points  []vectorindex.Point
}

// NewStaticIndex returns an index that always answers with matches
func NewStaticIndex(matches ...vectorindex.Match) *StaticIndex {
	return &StaticIndex{Matches: matches}
}

// Query implements vectorindex.Index
func (s *StaticIndex) Query(ctx context.Context, vector features.Vector, limit int) ([]vectorindex.Match, error) {
	s.mu.Lock()
	s.queries++
	s.mu.Unlock()

	if len(vector) != features.Dim {
		return nil, internalErrors.NewValidationError("vector", "wrong dimension")
	}
	if s.Delay > 0 {
		select {
		case <-time.After(s.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.Err != nil {
		return nil, s.Err
	}
	if limit > len(s.Matches) {
		limit = len(s.Matches)
	}
	return append([]vectorindex.Match(nil), s.Matches[:limit]...), nil
}

// Upsert implements vectorindex.Index by recording the points
func (s *StaticIndex) Upsert(ctx context.Context, points []vectorindex.Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.points = append(s.points, points...)
	return s.Err
}

// Count implements vectorindex.Index
func (s *StaticIndex) Count(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.points), nil
}

// Close implements vectorindex.Index
func (s *StaticIndex) Close() error { return nil }

// Queries returns how many queries were served
func (s *StaticIndex) Queries() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queries
}

// Points returns the upserted points
func (s *StaticIndex) Points() []vectorindex.Point {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]vectorindex.Point(nil), s.points...)
}

// MatchFor builds a well-formed match recommending move with the given similarity
func MatchFor(move string, similarity float64) vectorindex.Match {
	return vectorindex.Match{
		ID:      "match-" + move,
		Score:   similarity,
		Payload: vectorindex.Payload{BestMove: move, Score: 100, MoveNumber: 1, Source: "test"},
	}
}

// PositionFromFEN parses fen or fails the test
func PositionFromFEN(t *testing.T, fen string) *chess.Position {
	t.Helper()
	opt, err := chess.FEN(fen)
	require.NoError(t, err, "Failed to parse FEN")
	return chess.NewGame(opt).Position()
}

// UCI renders m in UCI notation for pos
func UCI(pos *chess.Position, m *chess.Move) string {
	return chess.UCINotation{}.Encode(pos, m)
}

// ScriptedOracle plays the listed UCI moves in order, then the first legal move
type ScriptedOracle struct {
	Moves []string
	Err   error

	mu   sync.Mutex
	next int
}

// BestMove implements oracle.Oracle
func (o *ScriptedOracle) BestMove(ctx context.Context, pos *chess.Position) (*chess.Move, error) {
	if o.Err != nil {
		return nil, o.Err
	}
	legal := pos.ValidMoves()
	if len(legal) == 0 {
		return nil, internalErrors.ErrNoMove
	}
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.next < len(o.Moves) {
		want := o.Moves[o.next]
		o.next++
		for _, m := range legal {
			if UCI(pos, m) == want {
				return m, nil
			}
		}
	}
	return legal[0], nil
}

// Name implements oracle.Oracle
func (o *ScriptedOracle) Name() string { return "scripted" }

// Close implements oracle.Oracle
func (o *ScriptedOracle) Close() error { return nil }

// CreateTestStores creates report and game stores under a per-test directory
func CreateTestStores(t *testing.T) (*persistence.ReportStore, *persistence.GameStore) {
	dir := t.TempDir()
	return persistence.NewReportStore(filepath.Join(dir, "benchmarks")), persistence.NewGameStore(filepath.Join(dir, "games"))
}

// WaitForRunCompletion blocks until the run's terminal event or fails the test after timeout
func WaitForRunCompletion(t *testing.T, manager services.RunManager, runID string, timeout time.Duration) *model.BenchmarkReport {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	report, err := manager.Await(ctx, runID)
	require.NoError(t, err, "Run %s did not complete successfully", runID)
	return report
}

// CollectEvents drains a run's event stream until it is closed
func CollectEvents(t *testing.T, stream services.EventStream, timeout time.Duration) []model.RunEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	var events []model.RunEvent
	for {
		batch, closed, err := stream.Next(ctx, len(events))
		require.NoError(t, err, "Event stream did not close within %v", timeout)
		events = append(events, batch...)
		if closed {
			return events
		}
	}
}
