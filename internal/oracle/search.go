package oracle

import (
	"context"
	"sort"

	"github.com/notnil/chess"

	internalErrors "github.com/gcbaptista/chess-retrieval-bench/internal/errors"
)

const (
	infinity  = 1 << 30
	mateScore = 100000
	// nodes between context checks
	checkInterval = 256
)

// Searcher is a deterministic fixed-depth negamax alpha-beta search with
// material and piece-square evaluation.
type Searcher struct {
	depth int
	nodes int
}

// NewSearcher creates a searcher that looks depth plies ahead
func NewSearcher(depth int) *Searcher {
	if depth <= 0 {
		depth = DefaultDepth
	}
	return &Searcher{depth: depth}
}

// Name implements Oracle
func (s *Searcher) Name() string { return "builtin" }

// Close implements Oracle
func (s *Searcher) Close() error { return nil }

// Nodes returns the node count of the last search
func (s *Searcher) Nodes() int { return s.nodes }

type abortSearch struct{}

// BestMove implements Oracle. It deepens iteratively; when ctx expires the best
// move of the deepest completed iteration is returned.
func (s *Searcher) BestMove(ctx context.Context, pos *chess.Position) (best *chess.Move, err error) {
	moves := orderMoves(pos, pos.ValidMoves(), nil)
	if len(moves) == 0 {
		return nil, internalErrors.ErrNoMove
	}
	if len(moves) == 1 {
		return moves[0], nil
	}
	s.nodes = 0

	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(abortSearch); !ok {
				panic(r)
			}
			if best == nil {
				err = internalErrors.ErrNoMove
			}
		}
	}()

	for depth := 1; depth <= s.depth; depth++ {
		m := s.searchRoot(ctx, pos, moves, depth)
		best = m
		moves = orderMoves(pos, moves, m)
	}
	return best, nil
}

func (s *Searcher) searchRoot(ctx context.Context, pos *chess.Position, moves []*chess.Move, depth int) *chess.Move {
	alpha, beta := -infinity, infinity
	var best *chess.Move
	for _, m := range moves {
		score := -s.negamax(ctx, pos.Update(m), depth-1, 1, -beta, -alpha)
		if best == nil || score > alpha {
			alpha = score
			best = m
		}
	}
	return best
}

func (s *Searcher) negamax(ctx context.Context, pos *chess.Position, depth, ply, alpha, beta int) int {
	s.nodes++
	if s.nodes%checkInterval == 0 && ctx.Err() != nil {
		panic(abortSearch{})
	}

	moves := pos.ValidMoves()
	if len(moves) == 0 {
		if pos.Status() == chess.Checkmate {
			return -mateScore + ply
		}
		return 0
	}
	if depth == 0 {
		return evaluate(pos)
	}

	for _, m := range orderMoves(pos, moves, nil) {
		score := -s.negamax(ctx, pos.Update(m), depth-1, ply+1, -beta, -alpha)
		if score >= beta {
			return beta
		}
		if score > alpha {
			alpha = score
		}
	}
	return alpha
}

// orderMoves puts first ahead, then captures by most valuable victim and
// least valuable attacker, then promotions. The input order breaks ties.
func orderMoves(pos *chess.Position, moves []*chess.Move, first *chess.Move) []*chess.Move {
	board := pos.Board()
	type scored struct {
		m     *chess.Move
		score int
	}
	list := make([]scored, len(moves))
	for i, m := range moves {
		sc := 0
		switch {
		case first != nil && m == first:
			sc = infinity
		case m.HasTag(chess.Capture) || m.HasTag(chess.EnPassant):
			victim := pieceValue[chess.Pawn]
			if p := board.Piece(m.S2()); p != chess.NoPiece {
				victim = pieceValue[p.Type()]
			}
			attacker := pieceValue[board.Piece(m.S1()).Type()]
			sc = 10*victim - attacker + 10000
		}
		if m.Promo() != chess.NoPieceType {
			sc += pieceValue[m.Promo()]
		}
		list[i] = scored{m, sc}
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].score > list[j].score })

	out := make([]*chess.Move, len(list))
	for i, s := range list {
		out[i] = s.m
	}
	return out
}
