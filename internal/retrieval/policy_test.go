package retrieval

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"
	"time"

	"github.com/notnil/chess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	testutil "github.com/gcbaptista/chess-retrieval-bench/internal/testing"
	"github.com/gcbaptista/chess-retrieval-bench/internal/vectorindex"
)

const (
	afterE4   = "rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq - 0 1"
	foolsMate = "rnb1kbnr/pppp1ppp/8/4p3/6Pq/5P2/PPPPP2P/RNBQKBNR w KQkq - 1 3"
)

func seeded(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

func TestPolicy_AcceptsSimilarMatchWithLegalMove(t *testing.T) {
	pos := testutil.PositionFromFEN(t, afterE4)
	index := testutil.NewStaticIndex(testutil.MatchFor("e7e5", 0.95))
	p := NewPolicy(index, seeded(1), Config{})

	m := p.Move(context.Background(), pos)

	require.NotNil(t, m)
	assert.Equal(t, "e7e5", testutil.UCI(pos, m))
	assert.Equal(t, Stats{Hits: 1, Misses: 0, HitRate: 1}, p.Stats())
	assert.Equal(t, 1, index.Queries())
}

func TestPolicy_DecisionCarriesMatch(t *testing.T) {
	pos := testutil.PositionFromFEN(t, afterE4)
	p := NewPolicy(testutil.NewStaticIndex(testutil.MatchFor("c7c5", 0.9)), seeded(1), Config{})

	d := p.Decide(context.Background(), pos)
	require.True(t, d.Hit)
	require.NotNil(t, d.Match)
	assert.Equal(t, "c7c5", d.Match.Payload.BestMove)
	assert.Equal(t, 0.9, d.Match.Score)
}

func TestPolicy_ThresholdBoundary(t *testing.T) {
	pos := testutil.PositionFromFEN(t, afterE4)

	atThreshold := NewPolicy(testutil.NewStaticIndex(testutil.MatchFor("e7e5", DefaultThreshold)), seeded(1), Config{})
	assert.True(t, atThreshold.Decide(context.Background(), pos).Hit, "Similarity equal to the threshold is accepted")

	below := NewPolicy(testutil.NewStaticIndex(testutil.MatchFor("e7e5", 0.79)), seeded(1), Config{})
	d := below.Decide(context.Background(), pos)
	assert.False(t, d.Hit)
	assert.NotNil(t, d.Move)
	assert.Equal(t, Stats{Misses: 1}, below.Stats())

	custom := NewPolicy(testutil.NewStaticIndex(testutil.MatchFor("e7e5", 0.79)), seeded(1), Config{Threshold: ThresholdOf(0.5)})
	assert.True(t, custom.Decide(context.Background(), pos).Hit)
}

func TestPolicy_ZeroThresholdIsHonoured(t *testing.T) {
	pos := testutil.PositionFromFEN(t, afterE4)
	orthogonal := testutil.NewStaticIndex(testutil.MatchFor("e7e5", 0))

	zero := NewPolicy(orthogonal, seeded(1), Config{Threshold: ThresholdOf(0)})
	assert.True(t, zero.Decide(context.Background(), pos).Hit, "An explicit zero threshold accepts a zero similarity")

	defaulted := NewPolicy(orthogonal, seeded(1), Config{})
	assert.False(t, defaulted.Decide(context.Background(), pos).Hit)
}

func TestPolicy_MissesFallBackToLegalMoves(t *testing.T) {
	pos := testutil.PositionFromFEN(t, afterE4)
	slow := testutil.NewStaticIndex(testutil.MatchFor("e7e5", 0.99))
	slow.Delay = time.Second

	tests := []struct {
		name   string
		index  vectorindex.Index
		config Config
	}{
		{"illegal recorded move", testutil.NewStaticIndex(testutil.MatchFor("e2e4", 0.99)), Config{}},
		{"malformed recorded move", testutil.NewStaticIndex(testutil.MatchFor("castle", 0.99)), Config{}},
		{"empty result", testutil.NewStaticIndex(), Config{}},
		{"index error", &testutil.StaticIndex{Err: errors.New("connection refused")}, Config{}},
		{"query timeout", slow, Config{QueryTimeout: 10 * time.Millisecond}},
		{"no index", nil, Config{}},
	}

	legal := make(map[string]bool)
	for _, m := range pos.ValidMoves() {
		legal[testutil.UCI(pos, m)] = true
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := NewPolicy(tt.index, seeded(7), tt.config)
			d := p.Decide(context.Background(), pos)

			require.NotNil(t, d.Move)
			assert.False(t, d.Hit)
			assert.Nil(t, d.Match)
			assert.True(t, legal[testutil.UCI(pos, d.Move)], "Fallback move must be legal")
			assert.Equal(t, Stats{Misses: 1}, p.Stats())
		})
	}
}

func TestPolicy_NoLegalMoves(t *testing.T) {
	pos := testutil.PositionFromFEN(t, foolsMate)
	require.Equal(t, chess.Checkmate, pos.Status())

	index := testutil.NewStaticIndex(testutil.MatchFor("e1f2", 0.99))
	p := NewPolicy(index, seeded(1), Config{})

	assert.Nil(t, p.Move(context.Background(), pos))
	assert.Equal(t, Stats{}, p.Stats(), "Counters are untouched without legal moves")
	assert.Zero(t, index.Queries())
}

func TestPolicy_FallbackIsUniform(t *testing.T) {
	pos := chess.NewGame().Position()
	legal := pos.ValidMoves()
	require.Len(t, legal, 20)

	p := NewPolicy(testutil.NewStaticIndex(testutil.MatchFor("e2e4", 0.1)), seeded(42), Config{})

	const trials = 20000
	counts := make(map[string]int)
	for i := 0; i < trials; i++ {
		counts[testutil.UCI(pos, p.Move(context.Background(), pos))]++
	}

	assert.Len(t, counts, len(legal), "Every legal move should be drawn")
	expected := float64(trials) / float64(len(legal))
	chi2 := 0.0
	for _, m := range legal {
		d := float64(counts[testutil.UCI(pos, m)]) - expected
		chi2 += d * d / expected
	}
	// 19 degrees of freedom; the 0.999 quantile is about 43.8
	assert.Less(t, chi2, 43.8)
	assert.Equal(t, trials, p.Stats().Misses)
}

func TestPolicy_SeededRNGIsReproducible(t *testing.T) {
	pos := chess.NewGame().Position()
	a := NewPolicy(nil, seeded(99), Config{})
	b := NewPolicy(nil, seeded(99), Config{})

	for i := 0; i < 50; i++ {
		ma := a.Move(context.Background(), pos)
		mb := b.Move(context.Background(), pos)
		require.Equal(t, testutil.UCI(pos, ma), testutil.UCI(pos, mb), "draw %d", i)
	}
}

func TestPolicy_InstancesDoNotShareCounters(t *testing.T) {
	index := testutil.NewStaticIndex(testutil.MatchFor("e7e5", 0.95))
	hitter := NewPolicy(index, seeded(1), Config{})
	misser := NewPolicy(index, seeded(2), Config{Threshold: ThresholdOf(0.99)})

	var wg sync.WaitGroup
	for _, p := range []*Policy{hitter, misser} {
		// positions cache their legal moves, so each goroutine gets its own
		pos := testutil.PositionFromFEN(t, afterE4)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				p.Move(context.Background(), pos)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, Stats{Hits: 25, HitRate: 1}, hitter.Stats())
	assert.Equal(t, Stats{Misses: 25}, misser.Stats())
}

func TestPolicy_String(t *testing.T) {
	pos := testutil.PositionFromFEN(t, afterE4)
	index := testutil.NewStaticIndex(testutil.MatchFor("e7e5", 0.95))
	p := NewPolicy(index, seeded(1), Config{})

	assert.Equal(t, "Retrieval: 0/0 hits (0%)", p.String())

	p.Move(context.Background(), pos)
	index.Matches = nil
	p.Move(context.Background(), pos)
	p.Move(context.Background(), pos)

	assert.Equal(t, "Retrieval: 1/3 hits (33%)", p.String())
	assert.InDelta(t, 1.0/3.0, p.Stats().HitRate, 1e-9)
}
