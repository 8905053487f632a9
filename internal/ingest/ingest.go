// Package ingest turns finished games into indexed positions: every position where
// the tracked player was to move becomes a point carrying the move they played.
package ingest

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/notnil/chess"
	"github.com/rs/zerolog"

	"github.com/gcbaptista/chess-retrieval-bench/internal/features"
	"github.com/gcbaptista/chess-retrieval-bench/internal/vectorindex"
	"github.com/gcbaptista/chess-retrieval-bench/model"
)

// DefaultBatchSize is the number of points sent per upsert
const DefaultBatchSize = 256

// Options tunes an Ingester
type Options struct {
	// Player restricts ingestion to the moves of a player whose name contains
	// this string, case-insensitively. Empty ingests both sides.
	Player    string
	BatchSize int
	Logger    zerolog.Logger
}

// Stats summarizes one ingestion
type Stats struct {
	Games      int `json:"games"`
	Skipped    int `json:"skipped"`
	Positions  int `json:"positions"`
	Duplicates int `json:"duplicates"`
}

// Ingester writes positions into an index, skipping positions it has already stored
type Ingester struct {
	index vectorindex.Index
	opts  Options
	seen  map[string]struct{}
	batch []vectorindex.Point
}

// NewIngester creates an ingester over index
func NewIngester(index vectorindex.Index, opts Options) *Ingester {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	return &Ingester{
		index: index,
		opts:  opts,
		seen:  make(map[string]struct{}),
	}
}

// PointID derives the stable point id of a position from its FEN
func PointID(fen string) string {
	return uuid.NewSHA1(uuid.NameSpaceDNS, []byte(fen)).String()
}

// ScoreFor scores a game result from the perspective of the side to move
func ScoreFor(result string, turn chess.Color) float64 {
	switch result {
	case model.OutcomeWhiteWins:
		if turn == chess.White {
			return 100
		}
		return -100
	case model.OutcomeBlackWins:
		if turn == chess.Black {
			return 100
		}
		return -100
	default:
		return 0
	}
}

// IngestPGN reads every game of r and upserts its positions. Unfinished games are skipped.
func (in *Ingester) IngestPGN(ctx context.Context, r io.Reader) (Stats, error) {
	var stats Stats
	scanner := chess.NewScanner(r)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		if err := in.ingestGame(ctx, scanner.Next(), &stats); err != nil {
			return stats, err
		}
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return stats, fmt.Errorf("read pgn: %w", err)
	}
	if err := in.flush(ctx); err != nil {
		return stats, err
	}

	in.opts.Logger.Info().
		Int("games", stats.Games).
		Int("skipped", stats.Skipped).
		Int("positions", stats.Positions).
		Int("duplicates", stats.Duplicates).
		Msg("ingestion finished")
	return stats, nil
}

func tag(g *chess.Game, key string) string {
	if pair := g.GetTagPair(key); pair != nil {
		return pair.Value
	}
	return ""
}

// emptyGame reports a scanner record with neither tags nor moves, as produced
// by trailing blank lines
func emptyGame(g *chess.Game) bool {
	return len(g.TagPairs()) == 0 && len(g.Moves()) == 0
}

func (in *Ingester) ingestGame(ctx context.Context, g *chess.Game, stats *Stats) error {
	if emptyGame(g) {
		return nil
	}
	result := tag(g, "Result")
	if result == "" {
		result = string(g.Outcome())
	}
	if result == "" || result == model.OutcomeUnfinished {
		stats.Skipped++
		return nil
	}
	stats.Games++

	white, black := tag(g, "White"), tag(g, "Black")
	tracksWhite, tracksBlack := true, true
	if in.opts.Player != "" {
		player := strings.ToLower(in.opts.Player)
		tracksWhite = strings.Contains(strings.ToLower(white), player)
		tracksBlack = strings.Contains(strings.ToLower(black), player)
	}
	in.opts.Logger.Debug().Str("white", white).Str("black", black).Str("result", result).Msg("ingesting game")

	positions := g.Positions()
	enc := chess.UCINotation{}
	for ply, move := range g.Moves() {
		pos := positions[ply]
		turn := pos.Turn()
		if (turn == chess.White && !tracksWhite) || (turn == chess.Black && !tracksBlack) {
			continue
		}

		fen := pos.String()
		id := PointID(fen)
		if _, ok := in.seen[id]; ok {
			stats.Duplicates++
			continue
		}
		in.seen[id] = struct{}{}

		in.batch = append(in.batch, vectorindex.Point{
			ID:     id,
			Vector: features.Encode(pos),
			Payload: vectorindex.Payload{
				FEN:        fen,
				BestMove:   enc.Encode(pos, move),
				Score:      ScoreFor(result, turn),
				MoveNumber: ply/2 + 1,
				Source:     fmt.Sprintf("%s vs %s", white, black),
			},
		})
		stats.Positions++
		if len(in.batch) >= in.opts.BatchSize {
			if err := in.flush(ctx); err != nil {
				return err
			}
		}
	}
	return nil
}

func (in *Ingester) flush(ctx context.Context) error {
	if len(in.batch) == 0 {
		return nil
	}
	if err := in.index.Upsert(ctx, in.batch); err != nil {
		return fmt.Errorf("upsert %d points: %w", len(in.batch), err)
	}
	in.opts.Logger.Debug().Int("points", len(in.batch)).Msg("upserted batch")
	in.batch = nil
	return nil
}
