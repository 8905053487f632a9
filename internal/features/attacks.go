package features

import "github.com/notnil/chess"

var (
	knightSteps = [8][2]int{{1, 2}, {2, 1}, {2, -1}, {1, -2}, {-1, -2}, {-2, -1}, {-2, 1}, {-1, 2}}
	kingSteps   = [8][2]int{{1, 0}, {1, 1}, {0, 1}, {-1, 1}, {-1, 0}, {-1, -1}, {0, -1}, {1, -1}}
	rookRays    = [4][2]int{{1, 0}, {-1, 0}, {0, 1}, {0, -1}}
	bishopRays  = [4][2]int{{1, 1}, {1, -1}, {-1, 1}, {-1, -1}}
)

func onBoard(file, rank int) bool {
	return file >= 0 && file < 8 && rank >= 0 && rank < 8
}

// attacked reports whether any piece of color c attacks sq. Pins and checks
// are ignored: this is attack geometry, not move legality.
func attacked(board *chess.Board, sq chess.Square, c chess.Color) bool {
	file, rank := int(sq.File()), int(sq.Rank())

	is := func(f, r int, types ...chess.PieceType) bool {
		if !onBoard(f, r) {
			return false
		}
		p := board.Piece(square(f, r))
		if p == chess.NoPiece || p.Color() != c {
			return false
		}
		for _, t := range types {
			if p.Type() == t {
				return true
			}
		}
		return false
	}

	// a white pawn attacks upward, so it sits one rank below the target
	pawnRank := rank - 1
	if c == chess.Black {
		pawnRank = rank + 1
	}
	if is(file-1, pawnRank, chess.Pawn) || is(file+1, pawnRank, chess.Pawn) {
		return true
	}

	for _, s := range knightSteps {
		if is(file+s[0], rank+s[1], chess.Knight) {
			return true
		}
	}
	for _, s := range kingSteps {
		if is(file+s[0], rank+s[1], chess.King) {
			return true
		}
	}

	if rayHits(board, file, rank, rookRays[:], c, chess.Rook, chess.Queen) {
		return true
	}
	return rayHits(board, file, rank, bishopRays[:], c, chess.Bishop, chess.Queen)
}

// rayHits walks each ray until the first occupied square and checks it
// against the given slider types.
func rayHits(board *chess.Board, file, rank int, rays [][2]int, c chess.Color, types ...chess.PieceType) bool {
	for _, ray := range rays {
		f, r := file+ray[0], rank+ray[1]
		for onBoard(f, r) {
			p := board.Piece(square(f, r))
			if p != chess.NoPiece {
				if p.Color() == c {
					for _, t := range types {
						if p.Type() == t {
							return true
						}
					}
				}
				break
			}
			f += ray[0]
			r += ray[1]
		}
	}
	return false
}
