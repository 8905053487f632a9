package benchmark

import (
	"context"
	"sync"
	"time"

	"github.com/gcbaptista/chess-retrieval-bench/model"
)

// Run is one benchmark batch tracked by the registry
type Run struct {
	ID        string
	NumGames  int
	Workers   int
	CreatedAt time.Time

	log    *EventLog
	cancel context.CancelFunc
	done   chan struct{}

	mu          sync.RWMutex
	status      model.RunStatus
	completedAt *time.Time
	games       []*model.GameResult // index-stable, slot i holds game i+1
	completed   int
	failed      int
	report      *model.BenchmarkReport
	filename    string
	err         error
}

func newRun(id string, numGames, workers int, now time.Time) *Run {
	return &Run{
		ID:        id,
		NumGames:  numGames,
		Workers:   workers,
		CreatedAt: now,
		log:       NewEventLog(),
		cancel:    func() {},
		done:      make(chan struct{}),
		status:    model.RunStatusRunning,
		games:     make([]*model.GameResult, numGames),
	}
}

// Events returns the run's event log
func (r *Run) Events() *EventLog { return r.log }

// Status returns the current lifecycle state
func (r *Run) Status() model.RunStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.status
}

// Done is closed once the terminal event has been appended
func (r *Run) Done() <-chan struct{} { return r.done }

func (r *Run) recordGame(index int, g *model.GameResult) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.games[index] = g
	if g.Failed() {
		r.failed++
	} else {
		r.completed++
	}
}

// setCancel installs the function that stops scheduling; a run already
// cancelling is stopped at once
func (r *Run) setCancel(cancel context.CancelFunc) {
	r.mu.Lock()
	r.cancel = cancel
	cancelling := r.status == model.RunStatusCancelling
	r.mu.Unlock()
	if cancelling {
		cancel()
	}
}

// setStatus moves a non-terminal run to status and returns the previous one
func (r *Run) setStatus(status model.RunStatus) (model.RunStatus, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	old := r.status
	if old.Terminal() {
		return old, false
	}
	r.status = status
	return old, true
}

// finish records the terminal state; it must be called exactly once
func (r *Run) finish(status model.RunStatus, report *model.BenchmarkReport, filename string, err error, at time.Time) model.RunStatus {
	r.mu.Lock()
	old := r.status
	r.status = status
	r.report = report
	r.filename = filename
	r.err = err
	r.completedAt = &at
	r.mu.Unlock()
	return old
}

// markDone releases Await callers; call once, after finish
func (r *Run) markDone() { close(r.done) }

// gamesSnapshot returns a copy of the index-ordered results
func (r *Run) gamesSnapshot() []*model.GameResult {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]*model.GameResult(nil), r.games...)
}

// Snapshot returns a polling view of the run with events from cursor on
func (r *Run) Snapshot(cursor int) *model.RunSnapshot {
	events, closed, _ := r.log.Since(cursor)

	r.mu.RLock()
	defer r.mu.RUnlock()

	if cursor < 0 {
		cursor = 0
	}
	snap := &model.RunSnapshot{
		ID:       r.ID,
		Status:   r.status,
		NumGames: r.NumGames,
		Workers:  r.Workers,
		Progress: model.RunProgress{
			Completed: r.completed,
			Failed:    r.failed,
			Total:     r.NumGames,
		},
		Events:     events,
		NextCursor: cursor + len(events),
		Done:       closed,
		Filename:   r.filename,
		CreatedAt:  r.CreatedAt,
	}
	if snap.NextCursor > r.log.Len() {
		snap.NextCursor = r.log.Len()
	}
	if r.err != nil {
		snap.Error = r.err.Error()
	}
	if r.completedAt != nil {
		t := *r.completedAt
		snap.CompletedAt = &t
	}
	return snap
}
