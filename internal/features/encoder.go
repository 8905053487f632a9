// Package features turns a chess position into the fixed-length vector used for
// similarity retrieval: a 768-value piece occupancy block followed by a 64-value
// block of strategic features.
package features

import (
	"github.com/notnil/chess"
)

const (
	// Dim is the length of every encoded vector
	Dim = OccupancyDim + StrategicDim
	// OccupancyDim covers one plane of 64 squares per piece type and color
	OccupancyDim = 768
	// StrategicDim is the size of the strategic feature block
	StrategicDim = 64
)

// Offsets into the strategic block, relative to OccupancyDim.
const (
	OffMaterial    = 0  // 6: pawn..king
	OffPawnFiles   = 6  // 16: white a..h, black a..h
	OffKings       = 22 // 4: white file, white rank, black file, black rank
	OffCenter      = 26 // 8: e4,d4,e5,d5 x white,black
	OffCastling    = 34 // 4: WK, WQ, BK, BQ
	OffSideToMove  = 38
	OffMobility    = 39
	OffPhase       = 40
	OffOpenFiles   = 41 // 8
	OffPassed      = 49 // 2
	OffBishopPair  = 51 // 2
	OffKingShield  = 53 // 2
	OffReserved    = 55 // 9, always zero
	mobilityNorm   = 60.0
	startingPieces = 32.0
)

// Vector is an encoded position
type Vector []float32

var pieceOrder = [...]chess.PieceType{chess.Pawn, chess.Knight, chess.Bishop, chess.Rook, chess.Queen, chess.King}

var centerSquares = [...]chess.Square{chess.E4, chess.D4, chess.E5, chess.D5}

// occupancyOffset returns the start of the 64-square plane for a piece.
func occupancyOffset(p chess.Piece) int {
	idx := -1
	for i, pt := range pieceOrder {
		if pt == p.Type() {
			idx = i
			break
		}
	}
	if idx < 0 {
		return -1
	}
	if p.Color() == chess.Black {
		idx += len(pieceOrder)
	}
	return idx * 64
}

func colorIndex(c chess.Color) int {
	if c == chess.Black {
		return 1
	}
	return 0
}

func square(file, rank int) chess.Square {
	return chess.Square(rank*8 + file)
}

// Encode returns the feature vector for pos. It never mutates pos.
func Encode(pos *chess.Position) Vector {
	return encode(pos.Board(), pos.Turn(), pos.CastleRights(), len(pos.ValidMoves()))
}

func encode(board *chess.Board, turn chess.Color, rights chess.CastleRights, legalMoves int) Vector {
	vec := make(Vector, Dim)

	var (
		counts     [2][6]int
		pawns      [2][8][8]bool // [color][file][rank]
		kingFile   = [2]int{-1, -1}
		kingRank   = [2]int{-1, -1}
		totalCount int
	)

	for sq := chess.Square(0); sq < 64; sq++ {
		p := board.Piece(sq)
		if p == chess.NoPiece {
			continue
		}
		off := occupancyOffset(p)
		if off < 0 {
			continue
		}
		vec[off+int(sq)] = 1
		totalCount++

		ci := colorIndex(p.Color())
		counts[ci][(off/64)%len(pieceOrder)]++
		file, rank := int(sq.File()), int(sq.Rank())
		switch p.Type() {
		case chess.Pawn:
			pawns[ci][file][rank] = true
		case chess.King:
			kingFile[ci], kingRank[ci] = file, rank
		}
	}

	f := vec[OccupancyDim:]

	for i := range pieceOrder {
		w, b := counts[0][i], counts[1][i]
		denom := w + b
		if denom < 1 {
			denom = 1
		}
		f[OffMaterial+i] = float32(w-b) / float32(denom)
	}

	for ci := 0; ci < 2; ci++ {
		for file := 0; file < 8; file++ {
			for rank := 0; rank < 8; rank++ {
				if pawns[ci][file][rank] {
					f[OffPawnFiles+ci*8+file] = 1
					break
				}
			}
		}
	}

	for ci := 0; ci < 2; ci++ {
		if kingFile[ci] < 0 {
			continue
		}
		f[OffKings+ci*2] = float32(kingFile[ci]) / 7
		f[OffKings+ci*2+1] = float32(kingRank[ci]) / 7
	}

	for i, sq := range centerSquares {
		if attacked(board, sq, chess.White) {
			f[OffCenter+i*2] = 1
		}
		if attacked(board, sq, chess.Black) {
			f[OffCenter+i*2+1] = 1
		}
	}

	f[OffCastling+0] = flag(rights.CanCastle(chess.White, chess.KingSide))
	f[OffCastling+1] = flag(rights.CanCastle(chess.White, chess.QueenSide))
	f[OffCastling+2] = flag(rights.CanCastle(chess.Black, chess.KingSide))
	f[OffCastling+3] = flag(rights.CanCastle(chess.Black, chess.QueenSide))

	f[OffSideToMove] = flag(turn == chess.White)
	f[OffMobility] = float32(legalMoves) / mobilityNorm
	f[OffPhase] = float32(totalCount) / startingPieces

	for file := 0; file < 8; file++ {
		open := true
		for rank := 0; rank < 8; rank++ {
			if pawns[0][file][rank] || pawns[1][file][rank] {
				open = false
				break
			}
		}
		f[OffOpenFiles+file] = flag(open)
	}

	for ci := 0; ci < 2; ci++ {
		f[OffPassed+ci] = float32(passedPawns(pawns, ci)) / 8
	}

	f[OffBishopPair+0] = flag(counts[0][2] >= 2)
	f[OffBishopPair+1] = flag(counts[1][2] >= 2)

	for ci := 0; ci < 2; ci++ {
		if kingFile[ci] < 0 {
			continue
		}
		f[OffKingShield+ci] = float32(kingShield(pawns, ci, kingFile[ci], kingRank[ci])) / 6
	}

	return vec
}

// passedPawns counts pawns of color ci with no enemy pawn on the same or an
// adjacent file on any rank strictly ahead of them.
func passedPawns(pawns [2][8][8]bool, ci int) int {
	opp := 1 - ci
	dir := 1
	if ci == 1 {
		dir = -1
	}
	passed := 0
	for file := 0; file < 8; file++ {
		for rank := 0; rank < 8; rank++ {
			if !pawns[ci][file][rank] {
				continue
			}
			blocked := false
			for af := file - 1; af <= file+1 && !blocked; af++ {
				if af < 0 || af > 7 {
					continue
				}
				for r := rank + dir; r >= 0 && r < 8; r += dir {
					if pawns[opp][af][r] {
						blocked = true
						break
					}
				}
			}
			if !blocked {
				passed++
			}
		}
	}
	return passed
}

// kingShield counts friendly pawns on the two ranks in front of the king,
// within one file either side.
func kingShield(pawns [2][8][8]bool, ci, kFile, kRank int) int {
	dir := 1
	if ci == 1 {
		dir = -1
	}
	shield := 0
	for file := kFile - 1; file <= kFile+1; file++ {
		if file < 0 || file > 7 {
			continue
		}
		for step := 1; step <= 2; step++ {
			r := kRank + step*dir
			if r < 0 || r > 7 {
				continue
			}
			if pawns[ci][file][r] {
				shield++
			}
		}
	}
	return shield
}

func flag(b bool) float32 {
	if b {
		return 1
	}
	return 0
}
