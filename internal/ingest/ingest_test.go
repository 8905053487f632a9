package ingest

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/notnil/chess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/chess-retrieval-bench/internal/features"
	testutil "github.com/gcbaptista/chess-retrieval-bench/internal/testing"
	"github.com/gcbaptista/chess-retrieval-bench/internal/vectorindex"
)

const samplePGN = `[Event "Casual Blitz"]
[White "DrNykterstein"]
[Black "Opponent"]
[Result "1-0"]

1. e4 e5 2. Nf3 Nc6 1-0

[Event "Casual Blitz"]
[White "Someone"]
[Black "Else"]
[Result "*"]

1. d4 *

`

func TestScoreFor(t *testing.T) {
	assert.Equal(t, 100.0, ScoreFor("1-0", chess.White))
	assert.Equal(t, -100.0, ScoreFor("1-0", chess.Black))
	assert.Equal(t, -100.0, ScoreFor("0-1", chess.White))
	assert.Equal(t, 100.0, ScoreFor("0-1", chess.Black))
	assert.Equal(t, 0.0, ScoreFor("1/2-1/2", chess.White))
}

func TestPointID_IsStable(t *testing.T) {
	fen := chess.StartingPosition().String()
	assert.Equal(t, PointID(fen), PointID(fen))
	assert.NotEqual(t, PointID(fen), PointID(fen+" "))
	// uuid5 in the DNS namespace, as produced by other tooling for the same FEN
	assert.Equal(t, byte('5'), PointID(fen)[14])
}

func TestIngester_BothSides(t *testing.T) {
	index := testutil.NewStaticIndex()
	in := NewIngester(index, Options{})

	stats, err := in.IngestPGN(context.Background(), strings.NewReader(samplePGN))
	require.NoError(t, err)

	assert.Equal(t, Stats{Games: 1, Skipped: 1, Positions: 4}, stats)
	points := index.Points()
	require.Len(t, points, 4)

	first := points[0]
	assert.Equal(t, chess.StartingPosition().String(), first.Payload.FEN)
	assert.Equal(t, PointID(first.Payload.FEN), first.ID)
	assert.Equal(t, "e2e4", first.Payload.BestMove)
	assert.Equal(t, 100.0, first.Payload.Score)
	assert.Equal(t, 1, first.Payload.MoveNumber)
	assert.Equal(t, "DrNykterstein vs Opponent", first.Payload.Source)
	assert.Len(t, first.Vector, features.Dim)

	second := points[1]
	assert.Equal(t, "e7e5", second.Payload.BestMove)
	assert.Equal(t, -100.0, second.Payload.Score, "Score is from the mover's perspective")
	assert.Equal(t, 1, second.Payload.MoveNumber)

	assert.Equal(t, 2, points[2].Payload.MoveNumber)
	for _, p := range points {
		assert.NoError(t, p.Payload.Validate())
	}
}

func TestIngester_TrailingBlankLinesAreNotGames(t *testing.T) {
	index := testutil.NewStaticIndex()
	in := NewIngester(index, Options{})

	stats, err := in.IngestPGN(context.Background(), strings.NewReader("[Result \"1-0\"]\n\n1. e4 e5 1-0\n\n\n"))
	require.NoError(t, err)

	assert.Equal(t, Stats{Games: 1, Positions: 2}, stats)
	assert.Len(t, index.Points(), 2)
}

func TestIngester_PlayerFilterAndDuplicates(t *testing.T) {
	index := testutil.NewStaticIndex()
	in := NewIngester(index, Options{Player: "drnyk", BatchSize: 1})

	stats, err := in.IngestPGN(context.Background(), strings.NewReader(samplePGN+samplePGN))
	require.NoError(t, err)

	assert.Equal(t, 2, stats.Games)
	assert.Equal(t, 2, stats.Skipped)
	assert.Equal(t, 2, stats.Positions)
	assert.Equal(t, 2, stats.Duplicates)

	points := index.Points()
	require.Len(t, points, 2)
	assert.Equal(t, "e2e4", points[0].Payload.BestMove)
	assert.Equal(t, "g1f3", points[1].Payload.BestMove)
}

func TestIngester_IngestedPositionsAreRetrievable(t *testing.T) {
	index := vectorindex.NewMemoryIndex()
	in := NewIngester(index, Options{})

	_, err := in.IngestPGN(context.Background(), strings.NewReader(samplePGN))
	require.NoError(t, err)

	count, err := index.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 4, count)

	opt, err := chess.FEN("rnbqkbnr/pppppppp/8/8/4P3/8/PPPP1PPP/RNBQKBNR b KQkq e3 0 1")
	require.NoError(t, err)
	pos := chess.NewGame(opt).Position()

	matches, err := index.Query(context.Background(), features.Encode(pos), 1)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "e7e5", matches[0].Payload.BestMove)
	assert.InDelta(t, 1.0, matches[0].Score, 1e-6)
}

func TestIngester_UpsertFailure(t *testing.T) {
	index := &testutil.StaticIndex{Err: assert.AnError}
	in := NewIngester(index, Options{})

	_, err := in.IngestPGN(context.Background(), strings.NewReader(samplePGN))
	assert.ErrorIs(t, err, assert.AnError)
}

func TestOpenPGN_Zstd(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "games.pgn.zst")

	f, err := os.Create(path)
	require.NoError(t, err)
	w, err := zstd.NewWriter(f)
	require.NoError(t, err)
	_, err = io.WriteString(w, samplePGN)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	r, err := OpenPGN(path)
	require.NoError(t, err)
	defer r.Close()

	body, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, samplePGN, string(body))
}

func TestOpenPGN_Plain(t *testing.T) {
	path := filepath.Join(t.TempDir(), "games.pgn")
	require.NoError(t, os.WriteFile(path, []byte(samplePGN), 0o644))

	r, err := OpenPGN(path)
	require.NoError(t, err)
	defer r.Close()

	stats, err := NewIngester(testutil.NewStaticIndex(), Options{}).IngestPGN(context.Background(), r)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Positions)

	_, err = OpenPGN(filepath.Join(t.TempDir(), "missing.pgn"))
	assert.Error(t, err)
}

func TestLichessClient_FetchGames(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/games/user/DrNykterstein", r.URL.Path)
		assert.Equal(t, "25", r.URL.Query().Get("max"))
		assert.Equal(t, "application/x-chess-pgn", r.Header.Get("Accept"))
		_, _ = io.WriteString(w, samplePGN)
	}))
	defer server.Close()

	client := &LichessClient{BaseURL: server.URL, HTTP: server.Client()}
	body, err := client.FetchGames(context.Background(), "DrNykterstein", 25)
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, samplePGN, string(data))
}

func TestLichessClient_Errors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "no such user", http.StatusNotFound)
	}))
	defer server.Close()

	client := &LichessClient{BaseURL: server.URL, HTTP: server.Client()}
	_, err := client.FetchGames(context.Background(), "ghost", 10)
	assert.ErrorContains(t, err, "404")

	_, err = client.FetchGames(context.Background(), " ", 10)
	assert.Error(t, err)
}
