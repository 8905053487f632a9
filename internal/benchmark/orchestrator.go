package benchmark

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	internalErrors "github.com/gcbaptista/chess-retrieval-bench/internal/errors"
	"github.com/gcbaptista/chess-retrieval-bench/model"
	"github.com/gcbaptista/chess-retrieval-bench/services"
)

// TimestampLayout is the local-time layout written into report timestamps
const TimestampLayout = "2006-01-02T15:04:05.000000"

// Session plays a single game with its own move sources
type Session interface {
	Play(ctx context.Context, gameNumber int) (*model.GameResult, error)
	Close() error
}

// SessionFactory builds a fresh session for the 1-based game number
type SessionFactory func(gameNumber int) (Session, error)

// Options configures an Orchestrator; zero values select the defaults
type Options struct {
	MaxRuns         int
	RunRetention    time.Duration
	CleanupInterval time.Duration
	Mode            string
	Logger          *zerolog.Logger
}

// Orchestrator runs benchmark batches in the background and tracks them in a bounded registry
type Orchestrator struct {
	registry *Registry
	sessions SessionFactory
	reports  services.ReportWriter
	metrics  *RunMetricsCollector
	log      zerolog.Logger
	mode     string
	now      func() time.Time
	wg       sync.WaitGroup
}

// NewOrchestrator creates an orchestrator and starts its registry cleanup routine
func NewOrchestrator(sessions SessionFactory, reports services.ReportWriter, opts Options) *Orchestrator {
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}
	mode := opts.Mode
	if mode == "" {
		mode = model.DefaultMode
	}
	metrics := NewRunMetricsCollector()
	o := &Orchestrator{
		registry: NewRegistry(opts.MaxRuns, opts.RunRetention, opts.CleanupInterval, metrics, log),
		sessions: sessions,
		reports:  reports,
		metrics:  metrics,
		log:      log,
		mode:     mode,
		now:      time.Now,
	}
	o.registry.Start()
	return o
}

// Stop cancels active runs, waits for them to write their terminal event and stops the registry
func (o *Orchestrator) Stop() {
	for _, run := range o.registry.Active() {
		_ = o.Cancel(run.ID)
	}
	o.wg.Wait()
	o.registry.Stop()
	o.log.Info().Msg("benchmark orchestrator stopped")
}

func validateRequest(numGames, workers int) error {
	if numGames < 1 {
		return internalErrors.NewValidationError("num_games", "must be at least 1")
	}
	if workers < 1 {
		return internalErrors.NewValidationError("workers", "must be at least 1")
	}
	return nil
}

// Start registers a run of numGames games across workers and returns its id immediately.
// The run outlives ctx; use Cancel to stop it.
func (o *Orchestrator) Start(ctx context.Context, numGames, workers int) (string, error) {
	run, err := o.register(numGames, workers)
	if err != nil {
		return "", err
	}

	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	run.setCancel(cancel)

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		defer cancel()
		o.execute(runCtx, run)
	}()
	return run.ID, nil
}

// Run executes a batch synchronously, calling onEvent for every event in log order.
// Cancelling ctx stops scheduling new games.
func (o *Orchestrator) Run(ctx context.Context, numGames, workers int, onEvent func(model.RunEvent)) (*model.BenchmarkReport, error) {
	run, err := o.register(numGames, workers)
	if err != nil {
		return nil, err
	}
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	run.setCancel(cancel)

	streamDone := make(chan struct{})
	go func() {
		defer close(streamDone)
		cursor := 0
		for {
			events, closed, err := run.Events().Next(context.Background(), cursor)
			if err != nil {
				return
			}
			for _, ev := range events {
				if onEvent != nil {
					onEvent(ev)
				}
			}
			cursor += len(events)
			if closed {
				return
			}
		}
	}()

	o.execute(runCtx, run)
	<-streamDone
	return o.result(run)
}

func (o *Orchestrator) register(numGames, workers int) (*Run, error) {
	if err := validateRequest(numGames, workers); err != nil {
		return nil, err
	}
	run := newRun(uuid.New().String(), numGames, workers, o.now())
	if err := o.registry.Add(run); err != nil {
		return nil, err
	}
	o.metrics.RecordRunCreated()
	o.log.Info().Str("run_id", run.ID).Int("num_games", numGames).Int("workers", workers).Msg("benchmark run started")
	return run, nil
}

// execute plays every game of run through the pool, then aggregates and persists the report
func (o *Orchestrator) execute(ctx context.Context, run *Run) {
	log := o.log.With().Str("run_id", run.ID).Logger()

	tasks := make([]Task[*model.GameResult], run.NumGames)
	for i := range tasks {
		gameNumber := i + 1
		tasks[i] = func(ctx context.Context) *model.GameResult {
			return o.playOne(ctx, gameNumber, log)
		}
	}

	played := 0
	for c := range RunPool(ctx, run.Workers, tasks) {
		played++
		run.recordGame(c.Index, c.Value)
		o.metrics.RecordGame(c.Value.Failed())
		if _, err := run.Events().Append(model.GameEvent(c.Value)); err != nil {
			log.Error().Err(err).Int("game", c.Value.Game).Msg("failed to append game event")
		}
	}

	if played < run.NumGames {
		err := fmt.Errorf("cancelled after %d of %d games", played, run.NumGames)
		o.finish(run, model.RunStatusCancelled, nil, "", err, log)
		return
	}

	report := &model.BenchmarkReport{
		Timestamp: o.now().Format(TimestampLayout),
		Mode:      o.mode,
		NumGames:  run.NumGames,
		Workers:   run.Workers,
		Games:     run.gamesSnapshot(),
	}
	report.Summary = Summarize(report.Games, run.NumGames)

	filename, err := o.reports.WriteReport(report)
	if err != nil {
		o.finish(run, model.RunStatusFailed, report, "", err, log)
		return
	}
	o.finish(run, model.RunStatusCompleted, report, filename, nil, log)
}

// playOne runs a single game and turns any failure, panics included, into a placeholder result
func (o *Orchestrator) playOne(ctx context.Context, gameNumber int, log zerolog.Logger) (result *model.GameResult) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Int("game", gameNumber).Interface("panic", r).Msg("game panicked")
			result = model.FailedGame(gameNumber, fmt.Errorf("game %d panicked: %v", gameNumber, r))
		}
	}()

	session, err := o.sessions(gameNumber)
	if err != nil {
		log.Error().Err(err).Int("game", gameNumber).Msg("failed to create game session")
		return model.FailedGame(gameNumber, err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Warn().Err(err).Int("game", gameNumber).Msg("failed to close game session")
		}
	}()

	g, err := session.Play(ctx, gameNumber)
	if err != nil {
		log.Error().Err(err).Int("game", gameNumber).Msg("game failed")
		return model.FailedGame(gameNumber, err)
	}
	g.Game = gameNumber
	log.Debug().Int("game", gameNumber).Str("result", g.Result).Str("reason", g.Reason).Int("moves", g.Moves).Msg("game finished")
	return g
}

func (o *Orchestrator) finish(run *Run, status model.RunStatus, report *model.BenchmarkReport, filename string, err error, log zerolog.Logger) {
	ev := model.DoneEvent(filename)
	if err != nil {
		ev = model.ErrorEvent(err)
	}
	if _, appendErr := run.Events().Append(ev); appendErr != nil {
		log.Error().Err(appendErr).Msg("failed to append terminal event")
	}

	at := o.now()
	old := run.finish(status, report, filename, err, at)
	o.metrics.RecordStatusChange(old, status)
	o.metrics.RecordRunFinished(status, at.Sub(run.CreatedAt))
	run.markDone()

	if err != nil {
		log.Warn().Err(err).Str("status", string(status)).Msg("benchmark run ended without a report")
		return
	}
	log.Info().Str("filename", filename).Msg("benchmark run completed")
}

// Poll returns the events from cursor on and whether the run has finished
func (o *Orchestrator) Poll(runID string, cursor int) ([]model.RunEvent, bool, error) {
	run, err := o.registry.Get(runID)
	if err != nil {
		return nil, false, err
	}
	events, closed, _ := run.Events().Since(cursor)
	return events, closed, nil
}

// Snapshot returns a polling view of the run
func (o *Orchestrator) Snapshot(runID string, cursor int) (*model.RunSnapshot, error) {
	run, err := o.registry.Get(runID)
	if err != nil {
		return nil, err
	}
	return run.Snapshot(cursor), nil
}

// Subscribe returns a push-based reader over the run's event log
func (o *Orchestrator) Subscribe(runID string) (services.EventStream, error) {
	run, err := o.registry.Get(runID)
	if err != nil {
		return nil, err
	}
	return run.Events(), nil
}

// Await blocks until the run finishes and returns its report
func (o *Orchestrator) Await(ctx context.Context, runID string) (*model.BenchmarkReport, error) {
	run, err := o.registry.Get(runID)
	if err != nil {
		return nil, err
	}
	select {
	case <-run.Done():
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return o.result(run)
}

func (o *Orchestrator) result(run *Run) (*model.BenchmarkReport, error) {
	run.mu.RLock()
	defer run.mu.RUnlock()
	if run.err != nil {
		return run.report, run.err
	}
	return run.report, nil
}

// Cancel stops scheduling new games for the run; games already in flight finish
func (o *Orchestrator) Cancel(runID string) error {
	run, err := o.registry.Get(runID)
	if err != nil {
		return err
	}
	old, ok := run.setStatus(model.RunStatusCancelling)
	if !ok {
		return nil
	}
	if old != model.RunStatusCancelling {
		o.metrics.RecordStatusChange(old, model.RunStatusCancelling)
		o.log.Info().Str("run_id", runID).Msg("benchmark run cancelling")
	}
	run.mu.RLock()
	cancel := run.cancel
	run.mu.RUnlock()
	cancel()
	return nil
}

// Delete removes a finished run from the registry
func (o *Orchestrator) Delete(runID string) error {
	return o.registry.Delete(runID)
}

// GetMetrics returns run counters plus the current registry occupancy
func (o *Orchestrator) GetMetrics() model.RunMetrics {
	m := o.metrics.GetMetrics()
	m.RegisteredRuns = o.registry.Len()
	return m
}

var _ services.RunManager = (*Orchestrator)(nil)
