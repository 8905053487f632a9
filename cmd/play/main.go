package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/notnil/chess"

	"github.com/gcbaptista/chess-retrieval-bench/config"
	"github.com/gcbaptista/chess-retrieval-bench/internal/game"
	"github.com/gcbaptista/chess-retrieval-bench/internal/logging"
	"github.com/gcbaptista/chess-retrieval-bench/internal/persistence"
	"github.com/gcbaptista/chess-retrieval-bench/internal/vectorindex"
	"github.com/gcbaptista/chess-retrieval-bench/model"
)

func main() {
	var (
		fen     = flag.String("fen", "", "Start from this position instead of the initial one")
		verbose = flag.Bool("verbose", false, "Print every ply with its source and latency")
		noSave  = flag.Bool("no-save", false, "Do not write the game to the games directory")
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
	defer index.Close()

	factory := game.NewFactory(settings, index, log)
	factory.StartFEN = *fen
	runner, err := factory.NewRunner(1)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create game")
	}
	defer runner.Close()

	banner := strings.Repeat("=", 40)
	fmt.Printf("\n%s\nBaseline (%s, White) vs Retrieval (Black)\n%s\n\n", banner, settings.BaselineEngine, banner)

	result, err := runner.Play(ctx, 1)
	if err != nil {
		log.Error().Err(err).Msg("game failed")
		return
	}

	if *verbose {
		printPlies(result.Plies)
	}
	if opt, err := chess.PGN(strings.NewReader(result.PGN)); err == nil {
		fmt.Println(chess.NewGame(opt).Position().Board().Draw())
	}
	fmt.Println(result.PGN)
	fmt.Printf("\nResult: %s\nReason: %s\n", result.Result, result.Reason)
	fmt.Printf("Retrieval: %d/%d hits\n", result.Hits, result.Hits+result.Misses)

	if *noSave {
		return
	}
	name, err := persistence.NewGameStore(settings.GamesDir).SaveGame(result.PGN, "Baseline", "Retrieval")
	if err != nil {
		log.Error().Err(err).Msg("failed to save game")
		return
	}
	fmt.Printf("Game saved to %s/%s\n", settings.GamesDir, name)
}

func printPlies(plies []model.PlyRecord) {
	for _, p := range plies {
		side := "White"
		if p.Source == model.SourceRetrieval {
			side = "Black"
		}
		note := ""
		if p.Hit != nil {
			note = " (fallback)"
			if *p.Hit {
				note = " (retrieved)"
			}
		}
		fmt.Printf("%3d. %s %-7s %8.1f ms%s\n", (p.Ply+1)/2, side, p.SAN, p.LatencyMs, note)
	}
	fmt.Println()
}
