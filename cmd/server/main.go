package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gcbaptista/chess-retrieval-bench/api"
	"github.com/gcbaptista/chess-retrieval-bench/config"
	"github.com/gcbaptista/chess-retrieval-bench/internal/analytics"
	"github.com/gcbaptista/chess-retrieval-bench/internal/benchmark"
	"github.com/gcbaptista/chess-retrieval-bench/internal/game"
	"github.com/gcbaptista/chess-retrieval-bench/internal/logging"
	"github.com/gcbaptista/chess-retrieval-bench/internal/persistence"
	"github.com/gcbaptista/chess-retrieval-bench/internal/vectorindex"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Define command-line flags
	var (
		help    = flag.Bool("help", false, "Show help message")
		version = flag.Bool("version", false, "Show version information")
		port    = flag.String("port", "8080", "Port to run the server on")
		host    = flag.String("host", "0.0.0.0", "Interface to listen on")
		pretty  = flag.Bool("pretty", false, "Human-readable console logs")
	)

	flag.Parse()

	// Handle help flag
	if *help {
		fmt.Printf("Chess Retrieval Bench - benchmark server for retrieval-driven chess play\n\n")
		fmt.Printf("Usage: %s [options]\n\n", os.Args[0])
		fmt.Printf("Options:\n")
		flag.PrintDefaults()
		fmt.Printf("\nExamples:\n")
		fmt.Printf("  %s                          # Start server on 0.0.0.0:8080\n", os.Args[0])
		fmt.Printf("  %s --port 9000              # Start server on port 9000\n", os.Args[0])
		fmt.Printf("  %s --host 127.0.0.1         # Listen on loopback only\n", os.Args[0])
		return
	}

	// Handle version flag
	if *version {
		fmt.Printf("Chess Retrieval Bench v1.0.0\n")
		return
	}

	settings, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	settings.LogPretty = settings.LogPretty || *pretty
	log := logging.New(settings.LogLevel, settings.LogPretty)
	if err := settings.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	index, err := vectorindex.Open(ctx, settings, log)
	if err != nil {
		log.Fatal().Err(err).Str("backend", settings.IndexBackend).Msg("failed to open position index")
	}
	defer func() {
		if err := index.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close position index")
		}
	}()

	reports := persistence.NewReportStore(settings.BenchmarksDir)
	games := persistence.NewGameStore(settings.GamesDir)
	factory := game.NewFactory(settings, index, log)

	runs := benchmark.NewOrchestrator(factory.Sessions(), reports, benchmark.Options{
		MaxRuns:      settings.MaxRuns,
		RunRetention: settings.RunRetention,
		Logger:       &log,
	})
	defer runs.Stop()

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	// Setup API routes
	api.SetupRoutes(router, api.Dependencies{
		Runs:      runs,
		Reports:   reports,
		Games:     games,
		Analytics: analytics.NewService(reports, games, log),
		Logger:    log,

		IndexBackend: settings.IndexBackend,
	})

	srv := &http.Server{
		Addr:              net.JoinHostPort(*host, *port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Str("index", settings.IndexBackend).Str("baseline", settings.BaselineEngine).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
}
