package benchmark

import (
	"sync"
	"time"

	"github.com/rs/zerolog"

	internalErrors "github.com/gcbaptista/chess-retrieval-bench/internal/errors"
)

const (
	DefaultMaxRuns         = 64
	DefaultRunRetention    = 24 * time.Hour
	DefaultCleanupInterval = time.Hour
)

// Registry holds the runs a server can report on. It is bounded: when full,
// the oldest finished run is evicted, and finished runs expire after the retention window.
type Registry struct {
	mu        sync.RWMutex
	runs      map[string]*Run
	maxRuns   int
	retention time.Duration
	interval  time.Duration
	stopChan  chan struct{}
	stopOnce  sync.Once
	wg        sync.WaitGroup
	metrics   *RunMetricsCollector
	log       zerolog.Logger
	now       func() time.Time
}

// NewRegistry creates a registry; zero arguments select the defaults
func NewRegistry(maxRuns int, retention, interval time.Duration, metrics *RunMetricsCollector, log zerolog.Logger) *Registry {
	if maxRuns <= 0 {
		maxRuns = DefaultMaxRuns
	}
	if retention <= 0 {
		retention = DefaultRunRetention
	}
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	if metrics == nil {
		metrics = NewRunMetricsCollector()
	}
	return &Registry{
		runs:      make(map[string]*Run),
		maxRuns:   maxRuns,
		retention: retention,
		interval:  interval,
		stopChan:  make(chan struct{}),
		metrics:   metrics,
		log:       log,
		now:       time.Now,
	}
}

// Start begins the background cleanup routine
func (r *Registry) Start() {
	r.log.Info().Int("max_runs", r.maxRuns).Dur("retention", r.retention).Msg("run registry started")
	r.wg.Add(1)
	go r.cleanupRoutine()
}

// Stop ends the cleanup routine
func (r *Registry) Stop() {
	r.stopOnce.Do(func() {
		close(r.stopChan)
	})
	r.wg.Wait()
}

// Add registers run, evicting the oldest finished run when the registry is full
func (r *Registry) Add(run *Run) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.runs) >= r.maxRuns {
		var oldest *Run
		for _, candidate := range r.runs {
			if !candidate.Status().Terminal() {
				continue
			}
			if oldest == nil || candidate.CreatedAt.Before(oldest.CreatedAt) {
				oldest = candidate
			}
		}
		if oldest == nil {
			return internalErrors.ErrRegistryFull
		}
		delete(r.runs, oldest.ID)
		r.metrics.RecordRunEvicted(oldest.Status())
		r.log.Debug().Str("run_id", oldest.ID).Msg("evicted run to make room")
	}

	r.runs[run.ID] = run
	return nil
}

// Get returns the run with id
func (r *Registry) Get(id string) (*Run, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	run, ok := r.runs[id]
	if !ok {
		return nil, internalErrors.NewRunNotFoundError(id)
	}
	return run, nil
}

// Delete removes a finished run
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	run, ok := r.runs[id]
	if !ok {
		return internalErrors.NewRunNotFoundError(id)
	}
	if !run.Status().Terminal() {
		return internalErrors.NewRunActiveError(id)
	}
	delete(r.runs, id)
	r.metrics.RecordRunEvicted(run.Status())
	return nil
}

// Len returns the number of registered runs
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.runs)
}

// Active returns the runs that have not finished yet
func (r *Registry) Active() []*Run {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var active []*Run
	for _, run := range r.runs {
		if !run.Status().Terminal() {
			active = append(active, run)
		}
	}
	return active
}

// cleanupRoutine runs periodic run cleanup
func (r *Registry) cleanupRoutine() {
	defer r.wg.Done()
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.CleanupOldRuns(r.retention)
		case <-r.stopChan:
			return
		}
	}
}

// CleanupOldRuns removes finished runs that completed more than maxAge ago
func (r *Registry) CleanupOldRuns(maxAge time.Duration) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	cutoff := r.now().Add(-maxAge)
	cleaned := 0
	for id, run := range r.runs {
		run.mu.RLock()
		expired := run.completedAt != nil && run.completedAt.Before(cutoff)
		status := run.status
		run.mu.RUnlock()
		if expired {
			delete(r.runs, id)
			r.metrics.RecordRunEvicted(status)
			cleaned++
		}
	}

	if cleaned > 0 {
		r.log.Info().Int("runs", cleaned).Msg("cleaned up old runs")
	}
	return cleaned
}
