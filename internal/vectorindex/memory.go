package vectorindex

import (
	"context"
	"errors"
	"os"
	"sort"
	"sync"

	"gonum.org/v1/gonum/floats"

	"github.com/gcbaptista/chess-retrieval-bench/internal/features"
	"github.com/gcbaptista/chess-retrieval-bench/internal/persistence"
)

type memoryEntry struct {
	ID      string
	Vector  []float64
	Norm    float64
	Payload Payload
}

// memorySnapshot is the gob form of a MemoryIndex
type memorySnapshot struct {
	Dim     int
	Entries []memoryEntry
}

// MemoryIndex is a brute-force in-process index. Ties are broken by insertion order.
type MemoryIndex struct {
	mu      sync.RWMutex
	entries []memoryEntry
	byID    map[string]int
	path    string
}

// NewMemoryIndex creates an empty index
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{byID: make(map[string]int)}
}

// OpenMemoryIndex loads the gob snapshot at path, starting empty when it does not exist.
// Close writes the snapshot back.
func OpenMemoryIndex(path string) (*MemoryIndex, error) {
	idx := NewMemoryIndex()
	idx.path = path

	var snap memorySnapshot
	if err := persistence.LoadGob(path, &snap); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return idx, nil
		}
		return nil, err
	}
	for _, e := range snap.Entries {
		idx.byID[e.ID] = len(idx.entries)
		idx.entries = append(idx.entries, e)
	}
	return idx, nil
}

// Query implements Index
func (m *MemoryIndex) Query(ctx context.Context, vector features.Vector, limit int) ([]Match, error) {
	if err := checkDim(vector); err != nil {
		return nil, err
	}
	if limit <= 0 {
		return []Match{}, nil
	}
	q := vector.Float64s()
	qNorm := floats.Norm(q, 2)

	m.mu.RLock()
	defer m.mu.RUnlock()

	matches := make([]Match, 0, limit+1)
	for i := range m.entries {
		if i%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		e := &m.entries[i]
		if e.Payload.Validate() != nil {
			continue
		}
		var score float64
		if qNorm > 0 && e.Norm > 0 {
			score = floats.Dot(q, e.Vector) / (qNorm * e.Norm)
		}
		matches = insertTopK(matches, Match{ID: e.ID, Payload: e.Payload, Score: score}, limit)
	}
	return matches, nil
}

// insertTopK keeps matches sorted by descending score with at most k entries.
// Equal scores keep their arrival order.
func insertTopK(matches []Match, m Match, k int) []Match {
	pos := sort.Search(len(matches), func(i int) bool { return matches[i].Score < m.Score })
	if pos >= k {
		return matches
	}
	matches = append(matches, Match{})
	copy(matches[pos+1:], matches[pos:])
	matches[pos] = m
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches
}

// Upsert implements Index
func (m *MemoryIndex) Upsert(ctx context.Context, points []Point) error {
	for _, p := range points {
		if err := checkDim(p.Vector); err != nil {
			return err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range points {
		v := p.Vector.Float64s()
		e := memoryEntry{ID: p.ID, Vector: v, Norm: floats.Norm(v, 2), Payload: p.Payload}
		if i, ok := m.byID[p.ID]; ok {
			m.entries[i] = e
			continue
		}
		m.byID[p.ID] = len(m.entries)
		m.entries = append(m.entries, e)
	}
	return nil
}

// Count implements Index
func (m *MemoryIndex) Count(ctx context.Context) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}

// Save writes a gob snapshot to path
func (m *MemoryIndex) Save(path string) error {
	m.mu.RLock()
	snap := memorySnapshot{Dim: features.Dim, Entries: append([]memoryEntry(nil), m.entries...)}
	m.mu.RUnlock()
	return persistence.SaveGob(path, snap)
}

// Close persists the index when it was opened from a snapshot path
func (m *MemoryIndex) Close() error {
	if m.path == "" {
		return nil
	}
	return m.Save(m.path)
}
