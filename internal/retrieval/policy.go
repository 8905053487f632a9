// Package retrieval picks moves by looking up the most similar known position and
// replaying the move recorded there, falling back to a uniformly random legal move.
package retrieval

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/notnil/chess"
	"github.com/rs/zerolog"

	"github.com/gcbaptista/chess-retrieval-bench/internal/features"
	"github.com/gcbaptista/chess-retrieval-bench/internal/vectorindex"
)

const (
	DefaultThreshold    = 0.80
	DefaultQueryTimeout = 5 * time.Second
)

// Config tunes a Policy. Zero values select the defaults; a nil Threshold
// selects DefaultThreshold, so an explicit 0 accepts any non-negative similarity.
type Config struct {
	Threshold    *float64
	QueryTimeout time.Duration
	Logger       zerolog.Logger
}

// ThresholdOf returns v for use as Config.Threshold
func ThresholdOf(v float64) *float64 { return &v }

// Decision is the outcome of one policy call
type Decision struct {
	Move  *chess.Move
	Hit   bool
	Match *vectorindex.Match // the accepted match on a hit
}

// Stats is a snapshot of a policy's counters
type Stats struct {
	Hits    int     `json:"hits"`
	Misses  int     `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

// Policy is the retrieval move source. Each game owns its own Policy so the
// counters describe that game only.
type Policy struct {
	index     vectorindex.Index
	threshold float64
	timeout   time.Duration
	log       zerolog.Logger

	mu     sync.Mutex
	rng    *rand.Rand
	hits   int
	misses int
}

// NewPolicy creates a policy over index drawing fallback moves from rng
func NewPolicy(index vectorindex.Index, rng *rand.Rand, cfg Config) *Policy {
	threshold := DefaultThreshold
	if cfg.Threshold != nil {
		threshold = *cfg.Threshold
	}
	if cfg.QueryTimeout == 0 {
		cfg.QueryTimeout = DefaultQueryTimeout
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Policy{
		index:     index,
		threshold: threshold,
		timeout:   cfg.QueryTimeout,
		log:       cfg.Logger,
		rng:       rng,
	}
}

// Move returns the policy's move for pos, or nil when pos has no legal moves
func (p *Policy) Move(ctx context.Context, pos *chess.Position) *chess.Move {
	return p.Decide(ctx, pos).Move
}

// Decide picks a move and records whether it came from the index.
// A position without legal moves yields an empty Decision and leaves the counters untouched.
func (p *Policy) Decide(ctx context.Context, pos *chess.Position) Decision {
	legal := pos.ValidMoves()
	if len(legal) == 0 {
		return Decision{}
	}

	match, err := p.Lookup(ctx, pos)
	if err != nil {
		p.log.Debug().Err(err).Msg("index lookup failed, falling back")
	}
	if match != nil {
		if m := findLegal(pos, legal, match.Payload.BestMove); m != nil {
			p.mu.Lock()
			p.hits++
			p.mu.Unlock()
			return Decision{Move: m, Hit: true, Match: match}
		}
	}

	p.mu.Lock()
	p.misses++
	m := legal[p.rng.Intn(len(legal))]
	p.mu.Unlock()
	return Decision{Move: m}
}

// Lookup queries the index for the nearest position and returns it only when the
// similarity reaches the threshold. A nil match with nil error means no acceptable match.
func (p *Policy) Lookup(ctx context.Context, pos *chess.Position) (*vectorindex.Match, error) {
	if p.index == nil {
		return nil, nil
	}
	qctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	matches, err := p.index.Query(qctx, features.Encode(pos), 1)
	if err != nil {
		return nil, fmt.Errorf("query index: %w", err)
	}
	if len(matches) == 0 || matches[0].Score < p.threshold {
		return nil, nil
	}
	if err := matches[0].Payload.Validate(); err != nil {
		return nil, err
	}
	m := matches[0]
	return &m, nil
}

// findLegal returns the legal move whose UCI form equals uci
func findLegal(pos *chess.Position, legal []*chess.Move, uci string) *chess.Move {
	enc := chess.UCINotation{}
	for _, m := range legal {
		if enc.Encode(pos, m) == uci {
			return m
		}
	}
	return nil
}

// Stats returns the current counters
func (p *Policy) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()
	s := Stats{Hits: p.hits, Misses: p.misses}
	if total := p.hits + p.misses; total > 0 {
		s.HitRate = float64(p.hits) / float64(total)
	}
	return s
}

// String renders the counters as "Retrieval: h/t hits (p%)"
func (p *Policy) String() string {
	s := p.Stats()
	return fmt.Sprintf("Retrieval: %d/%d hits (%.0f%%)", s.Hits, s.Hits+s.Misses, s.HitRate*100)
}
