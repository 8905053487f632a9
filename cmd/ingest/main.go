package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/schollz/progressbar/v3"

	"github.com/gcbaptista/chess-retrieval-bench/config"
	"github.com/gcbaptista/chess-retrieval-bench/internal/ingest"
	"github.com/gcbaptista/chess-retrieval-bench/internal/logging"
	"github.com/gcbaptista/chess-retrieval-bench/internal/vectorindex"
)

func main() {
	var (
		pgnPath = flag.String("pgn", "", "PGN file to ingest (.pgn or .pgn.zst)")
		user    = flag.String("user", "DrNykterstein", "Lichess user whose games are fetched when -pgn is not set")
		max     = flag.Int("max", 200, "Number of Lichess games to fetch")
		player  = flag.String("player", "", "Only store the moves of this player (default: -user when fetching, both sides for files)")
		batch   = flag.Int("batch", ingest.DefaultBatchSize, "Points per upsert")
	)
	flag.Parse()

	settings, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log := logging.New(settings.LogLevel, true)
	if err := settings.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	index, err := vectorindex.Open(ctx, settings, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open position index")
	}
	defer func() {
		if err := index.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close position index")
		}
	}()

	var (
		source io.ReadCloser
		size   int64 = -1
	)
	if *pgnPath != "" {
		source, err = ingest.OpenPGN(*pgnPath)
		if info, statErr := os.Stat(*pgnPath); statErr == nil && !strings.HasSuffix(*pgnPath, ".zst") {
			size = info.Size()
		}
	} else {
		if *player == "" {
			*player = *user
		}
		log.Info().Str("user", *user).Int("max", *max).Msg("fetching games from lichess")
		source, err = ingest.NewLichessClient().FetchGames(ctx, *user, *max)
	}
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open games")
	}
	defer source.Close()

	// progress counts decoded PGN bytes; compressed and fetched sources show a spinner
	bar := progressbar.DefaultBytes(size, "ingesting")
	var reader io.Reader = io.TeeReader(source, bar)

	ingester := ingest.NewIngester(index, ingest.Options{
		Player:    *player,
		BatchSize: *batch,
		Logger:    log,
	})
	stats, err := ingester.IngestPGN(ctx, reader)
	_ = bar.Finish()
	if err != nil {
		log.Error().Err(err).Int("positions", stats.Positions).Msg("ingestion failed")
		return
	}

	count, err := index.Count(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("failed to count indexed positions")
	}
	fmt.Printf("\nDone. %d positions from %d games stored (%d duplicates, %d unfinished games skipped, %d in index).\n",
		stats.Positions, stats.Games, stats.Duplicates, stats.Skipped, count)
}
