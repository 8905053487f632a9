// Package vectorindex stores encoded positions with the move played from them and
// answers nearest-neighbour queries by cosine similarity.
package vectorindex

import (
	"context"
	"fmt"
	"math"
	"regexp"
	"strings"

	internalErrors "github.com/gcbaptista/chess-retrieval-bench/internal/errors"
	"github.com/gcbaptista/chess-retrieval-bench/internal/features"
)

// Payload is the record stored alongside every indexed position
type Payload struct {
	FEN        string  `json:"fen"`
	BestMove   string  `json:"best_move"` // UCI notation
	Score      float64 `json:"score"`     // game outcome from the mover's perspective: +100, 0 or -100
	MoveNumber int     `json:"move_number"`
	Source     string  `json:"source"`
}

var uciMovePattern = regexp.MustCompile(`^[a-h][1-8][a-h][1-8][qrbn]?$`)

// Validate checks the fields the retrieval policy depends on
func (p Payload) Validate() error {
	if strings.TrimSpace(p.BestMove) == "" {
		return internalErrors.NewPayloadError("best_move", "missing")
	}
	if !uciMovePattern.MatchString(p.BestMove) {
		return internalErrors.NewPayloadError("best_move", fmt.Sprintf("'%s' is not a UCI move", p.BestMove))
	}
	if math.IsNaN(p.Score) || math.IsInf(p.Score, 0) {
		return internalErrors.NewPayloadError("score", "not a finite number")
	}
	if p.MoveNumber < 0 {
		return internalErrors.NewPayloadError("move_number", "negative")
	}
	return nil
}

// Match is one query result
type Match struct {
	ID      string  `json:"id"`
	Payload Payload `json:"payload"`
	Score   float64 `json:"score"` // cosine similarity in [-1, 1]
}

// Point is an indexed position
type Point struct {
	ID      string
	Vector  features.Vector
	Payload Payload
}

// Index is a similarity index over encoded positions
type Index interface {
	// Query returns up to limit matches ordered by descending similarity.
	// Points whose payload fails validation are never returned.
	Query(ctx context.Context, vector features.Vector, limit int) ([]Match, error)
	// Upsert inserts or replaces points by ID
	Upsert(ctx context.Context, points []Point) error
	// Count returns the number of indexed points
	Count(ctx context.Context) (int, error)
	Close() error
}

func checkDim(v features.Vector) error {
	if len(v) != features.Dim {
		return internalErrors.NewValidationError("vector", fmt.Sprintf("expected %d dimensions, got %d", features.Dim, len(v)))
	}
	return nil
}
