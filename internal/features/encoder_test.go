package features

import (
	"testing"

	"github.com/notnil/chess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func positionFromFEN(t *testing.T, fen string) *chess.Position {
	t.Helper()
	opt, err := chess.FEN(fen)
	require.NoError(t, err)
	return chess.NewGame(opt).Position()
}

func TestEncodeStartingPosition(t *testing.T) {
	pos := chess.NewGame().Position()
	vec := Encode(pos)
	require.Len(t, vec, Dim)

	f := vec[OccupancyDim:]

	// white pawns on rank 2, black king on e8
	for file := 0; file < 8; file++ {
		assert.Equal(t, float32(1), vec[8+file], "white pawn on file %d", file)
	}
	assert.Equal(t, float32(1), vec[704+int(chess.E8)])
	assert.Equal(t, float32(0), vec[704+int(chess.E1)])

	var occupied int
	for _, v := range vec[:OccupancyDim] {
		if v == 1 {
			occupied++
		}
	}
	assert.Equal(t, 32, occupied)

	for i := 0; i < 6; i++ {
		assert.Zero(t, f[OffMaterial+i])
	}
	for i := 0; i < 16; i++ {
		assert.Equal(t, float32(1), f[OffPawnFiles+i])
	}
	assert.InDelta(t, 4.0/7, f[OffKings], 1e-6)
	assert.Zero(t, f[OffKings+1])
	assert.InDelta(t, 4.0/7, f[OffKings+2], 1e-6)
	assert.Equal(t, float32(1), f[OffKings+3])

	for i := 0; i < 8; i++ {
		assert.Zero(t, f[OffCenter+i], "no piece reaches the center at the start")
	}
	for i := 0; i < 4; i++ {
		assert.Equal(t, float32(1), f[OffCastling+i])
	}
	assert.Equal(t, float32(1), f[OffSideToMove])
	assert.InDelta(t, 20.0/60, f[OffMobility], 1e-6)
	assert.Equal(t, float32(1), f[OffPhase])
	for i := 0; i < 8; i++ {
		assert.Zero(t, f[OffOpenFiles+i])
	}
	assert.Zero(t, f[OffPassed])
	assert.Zero(t, f[OffPassed+1])
	assert.Equal(t, float32(1), f[OffBishopPair])
	assert.Equal(t, float32(1), f[OffBishopPair+1])
	assert.InDelta(t, 0.5, f[OffKingShield], 1e-6)
	assert.InDelta(t, 0.5, f[OffKingShield+1], 1e-6)
	for i := OffReserved; i < StrategicDim; i++ {
		assert.Zero(t, f[i])
	}
}

func TestEncodeIsDeterministic(t *testing.T) {
	fens := []string{
		"rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1",
		"r1bqkb1r/pppp1ppp/2n2n2/4p2Q/2B1P3/8/PPPP1PPP/RNB1K1NR w KQkq - 4 4",
		"8/5k2/8/3P4/8/8/5K2/8 w - - 0 1",
	}
	for _, fen := range fens {
		t.Run(fen, func(t *testing.T) {
			pos := positionFromFEN(t, fen)
			before := pos.String()
			a := Encode(pos)
			b := Encode(pos)
			assert.Equal(t, a, b)
			assert.Equal(t, before, pos.String(), "encoding must not mutate the position")
		})
	}
}

func TestEncodeBounds(t *testing.T) {
	pos := positionFromFEN(t, "r1bqkb1r/pppp1ppp/2n2n2/4p2Q/2B1P3/8/PPPP1PPP/RNB1K1NR w KQkq - 4 4")
	vec := Encode(pos)
	f := vec[OccupancyDim:]

	for i, v := range vec[:OccupancyDim] {
		assert.True(t, v == 0 || v == 1, "occupancy %d = %v", i, v)
	}
	for i := 0; i < 6; i++ {
		assert.GreaterOrEqual(t, f[OffMaterial+i], float32(-1))
		assert.LessOrEqual(t, f[OffMaterial+i], float32(1))
	}
	flags := []int{}
	for i := OffPawnFiles; i < OffKings; i++ {
		flags = append(flags, i)
	}
	for i := OffCenter; i <= OffSideToMove; i++ {
		flags = append(flags, i)
	}
	for i := OffOpenFiles; i < OffPassed; i++ {
		flags = append(flags, i)
	}
	flags = append(flags, OffBishopPair, OffBishopPair+1)
	for _, i := range flags {
		assert.True(t, f[i] == 0 || f[i] == 1, "flag %d = %v", i, f[i])
	}
}

func TestEncodeMaterialAndCenter(t *testing.T) {
	// white is a knight up, pawn on e4 attacks d5
	pos := positionFromFEN(t, "4k3/8/8/8/4P3/8/8/1N2K1N1 w - - 0 1")
	f := Encode(pos)[OccupancyDim:]

	assert.Equal(t, float32(1), f[OffMaterial+0])
	assert.Equal(t, float32(1), f[OffMaterial+1])
	assert.Zero(t, f[OffMaterial+5])

	// center order is e4,d4,e5,d5 with white then black
	assert.Zero(t, f[OffCenter+0], "nothing white attacks e4")
	assert.Zero(t, f[OffCenter+2], "nothing white attacks d4")
	assert.Zero(t, f[OffCenter+4], "nothing white attacks e5")
	assert.Equal(t, float32(1), f[OffCenter+6], "pawn e4 attacks d5")
	for i := 0; i < 4; i++ {
		assert.Zero(t, f[OffCenter+i*2+1], "black has no attacker")
	}

	assert.Equal(t, float32(1), f[OffPassed]*8, "lone e-pawn is passed")
	assert.Equal(t, float32(1), f[OffSideToMove])
}

func TestSliderAttacksAreBlocked(t *testing.T) {
	// rook on e1 behind a knight on e2 does not reach e4
	blocked := positionFromFEN(t, "7k/8/8/8/8/8/4N3/K3R3 w - - 0 1")
	f := Encode(blocked)[OccupancyDim:]
	assert.Zero(t, f[OffCenter+0])

	open := positionFromFEN(t, "7k/8/8/8/8/8/8/K3R3 w - - 0 1")
	f = Encode(open)[OccupancyDim:]
	assert.Equal(t, float32(1), f[OffCenter+0])
	assert.Equal(t, float32(1), f[OffCenter+4], "rook sees through e4 to e5")
}

func TestPassedPawnsAreColorRelative(t *testing.T) {
	// black pawn on d6 is ahead of the white d4 pawn; the white h2 pawn is passed.
	// from black's side the d6 pawn has the white d4 pawn in front of it.
	pos := positionFromFEN(t, "4k3/8/3p4/8/3P4/8/7P/4K3 w - - 0 1")
	f := Encode(pos)[OccupancyDim:]

	assert.InDelta(t, 1.0/8, f[OffPassed], 1e-6)
	assert.Zero(t, f[OffPassed+1])
}

func TestKingShieldUsesRanksInFrontOfKing(t *testing.T) {
	// white king g1 with f2 g2 h3; black king g8 with f7 g6 h5 (h5 is too far)
	pos := positionFromFEN(t, "6k1/5p2/6p1/7p/8/7P/5PP1/6K1 w - - 0 1")
	f := Encode(pos)[OccupancyDim:]

	assert.InDelta(t, 3.0/6, f[OffKingShield], 1e-6)
	assert.InDelta(t, 2.0/6, f[OffKingShield+1], 1e-6)

	// a king that has walked up the board is shielded by pawns ahead of it, not on its home ranks
	advanced := positionFromFEN(t, "4k3/8/8/3PP3/4K3/8/3PPP2/8 w - - 0 1")
	f = Encode(advanced)[OccupancyDim:]
	assert.InDelta(t, 2.0/6, f[OffKingShield], 1e-6)
}

func TestEncodeMissingKing(t *testing.T) {
	board := chess.NewBoard(map[chess.Square]chess.Piece{
		chess.E1: chess.WhiteKing,
		chess.E2: chess.WhitePawn,
		chess.D7: chess.BlackPawn,
	})

	var vec Vector
	require.NotPanics(t, func() {
		vec = encode(board, chess.White, chess.CastleRights("-"), 0)
	})
	f := vec[OccupancyDim:]

	assert.Zero(t, f[OffKings+2])
	assert.Zero(t, f[OffKings+3])
	assert.Zero(t, f[OffKingShield+1])
	assert.InDelta(t, 1.0/6, f[OffKingShield], 1e-6)
	assert.Equal(t, float32(1), f[OffMaterial+5], "only white has a king")
}

func TestCosine(t *testing.T) {
	a := []float64{1, 0, 1}
	assert.InDelta(t, 1.0, Cosine(a, a), 1e-9)
	assert.InDelta(t, 0.0, Cosine(a, []float64{0, 1, 0}), 1e-9)
	assert.InDelta(t, -1.0, Cosine(a, []float64{-1, 0, -1}), 1e-9)
	assert.Zero(t, Cosine(a, []float64{0, 0, 0}))
	assert.Zero(t, Cosine(a, []float64{1, 0}))

	start := Encode(chess.NewGame().Position()).Float64s()
	assert.InDelta(t, 1.0, Cosine(start, start), 1e-9)
}
