package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/schollz/progressbar/v3"

	"github.com/gcbaptista/chess-retrieval-bench/config"
	"github.com/gcbaptista/chess-retrieval-bench/internal/benchmark"
	"github.com/gcbaptista/chess-retrieval-bench/internal/game"
	"github.com/gcbaptista/chess-retrieval-bench/internal/logging"
	"github.com/gcbaptista/chess-retrieval-bench/internal/persistence"
	"github.com/gcbaptista/chess-retrieval-bench/internal/vectorindex"
	"github.com/gcbaptista/chess-retrieval-bench/model"
)

// defaultNumGames is the game count when neither -n nor a positional count is given
const defaultNumGames = 5

type options struct {
	numGames int
	workers  int
	verbose  bool
}

func parseOptions(name string, args []string, output io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)
	fs.IntVar(&opts.numGames, "n", defaultNumGames, "Number of games to play")
	fs.IntVar(&opts.workers, "workers", 0, "Games played in parallel (default: one per game)")
	fs.BoolVar(&opts.verbose, "verbose", false, "Log every game as it finishes")
	fs.Usage = func() {
		fmt.Fprintf(output, "Usage: %s [options] [num_games]\n\nOptions:\n", name)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	// a positional count wins over -n
	if arg := fs.Arg(0); arg != "" {
		n, err := strconv.Atoi(arg)
		if err != nil {
			return options{}, fmt.Errorf("invalid game count %q", arg)
		}
		opts.numGames = n
	}
	if opts.numGames < 1 {
		return options{}, fmt.Errorf("game count must be positive, got %d", opts.numGames)
	}
	if opts.workers == 0 {
		opts.workers = opts.numGames
	}
	return opts, nil
}

func main() {
	opts, err := parseOptions(os.Args[0], os.Args[1:], os.Stderr)
	if errors.Is(err, flag.ErrHelp) {
		os.Exit(0)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	settings, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	level := settings.LogLevel
	if !opts.verbose && level == "info" {
		level = "warn"
	}
	log := logging.New(level, true)
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
	orchestrator := benchmark.NewOrchestrator(factory.Sessions(), persistence.NewReportStore(settings.BenchmarksDir), benchmark.Options{
		Logger: &log,
	})
	defer orchestrator.Stop()

	fmt.Printf("Benchmark: %s vs retrieval + random fallback x %d games (%d parallel)\n", settings.BaselineEngine, opts.numGames, opts.workers)
	fmt.Println(strings.Repeat("=", 50))

	bar := progressbar.NewOptions(opts.numGames,
		progressbar.OptionSetDescription("Games"),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("game"),
		progressbar.OptionShowIts(),
		progressbar.OptionClearOnFinish(),
	)

	var filename string
	report, err := orchestrator.Run(ctx, opts.numGames, opts.workers, func(ev model.RunEvent) {
		switch {
		case ev.Done:
			filename = ev.Filename
		case ev.Error != "":
			_ = bar.Add(1)
			log.Warn().Int("game", ev.Game).Str("error", ev.Error).Msg("game failed")
		default:
			_ = bar.Add(1)
			log.Info().Int("game", ev.Game).Str("result", ev.Result).Str("reason", ev.Reason).Int("moves", ev.Moves).Msg("game finished")
		}
	})
	_ = bar.Finish()
	if err != nil {
		log.Error().Err(err).Msg("benchmark did not produce a report")
		os.Exit(1)
	}

	printSummary(os.Stdout, report)
	fmt.Printf("\nReport saved to %s\n", filename)
}

func printSummary(w io.Writer, report *model.BenchmarkReport) {
	s := report.Summary
	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 50))
	fmt.Fprintf(w, "Results (%d games):\n", report.NumGames)
	fmt.Fprintf(w, "  Baseline wins:   %d\n", s.BaselineWins)
	fmt.Fprintf(w, "  Retrieval wins:  %d\n", s.RetrievalWins)
	fmt.Fprintf(w, "  Draws:           %d\n", s.Draws)
	if s.Unfinished > 0 {
		fmt.Fprintf(w, "  Unfinished:      %d\n", s.Unfinished)
	}
	fmt.Fprintf(w, "  Avg moves/game:  %d\n", s.AvgMoves)
	fmt.Fprintf(w, "  Avg move time:\n")
	fmt.Fprintf(w, "    Baseline:      %d ms\n", s.AvgBaselineMs)
	fmt.Fprintf(w, "    Retrieval:     %d ms\n", s.AvgRetrievalMs)
	fmt.Fprintf(w, "  Retrieval: %d/%d hits (%.1f%%)\n", s.TotalHits, s.TotalHits+s.TotalMisses, s.HitRatePct)
}
