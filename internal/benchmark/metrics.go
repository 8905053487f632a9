package benchmark

import (
	"sync"
	"time"

	"github.com/gcbaptista/chess-retrieval-bench/model"
)

// RunMetricsCollector tracks run and game counters for the registry
type RunMetricsCollector struct {
	mu             sync.RWMutex
	runsCreated    int64
	runsCompleted  int64
	runsFailed     int64
	runsCancelled  int64
	runsEvicted    int64
	gamesCompleted int64
	gamesFailed    int64
	totalRunTime   time.Duration
	finishedRuns   int64
	runsByStatus   map[model.RunStatus]int64
	lastUpdated    time.Time
}

// NewRunMetricsCollector creates a new metrics collector
func NewRunMetricsCollector() *RunMetricsCollector {
	return &RunMetricsCollector{
		runsByStatus: make(map[model.RunStatus]int64),
		lastUpdated:  time.Now(),
	}
}

// RecordRunCreated increments the creation counter
func (m *RunMetricsCollector) RecordRunCreated() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.runsCreated++
	m.runsByStatus[model.RunStatusRunning]++
	m.lastUpdated = time.Now()
}

// RecordStatusChange updates status counters
func (m *RunMetricsCollector) RecordStatusChange(oldStatus, newStatus model.RunStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if oldStatus != "" {
		m.runsByStatus[oldStatus]--
		if m.runsByStatus[oldStatus] < 0 {
			m.runsByStatus[oldStatus] = 0
		}
	}
	m.runsByStatus[newStatus]++
	m.lastUpdated = time.Now()
}

// RecordRunFinished records a terminal run and its duration
func (m *RunMetricsCollector) RecordRunFinished(status model.RunStatus, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch status {
	case model.RunStatusCompleted:
		m.runsCompleted++
	case model.RunStatusFailed:
		m.runsFailed++
	case model.RunStatusCancelled:
		m.runsCancelled++
	}
	m.totalRunTime += duration
	m.finishedRuns++
	m.lastUpdated = time.Now()
}

// RecordRunEvicted counts a run removed from the registry, and drops it from the status counts
func (m *RunMetricsCollector) RecordRunEvicted(status model.RunStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.runsEvicted++
	if m.runsByStatus[status] > 0 {
		m.runsByStatus[status]--
	}
	m.lastUpdated = time.Now()
}

// RecordGame counts one finished game
func (m *RunMetricsCollector) RecordGame(failed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if failed {
		m.gamesFailed++
	} else {
		m.gamesCompleted++
	}
}

// GetMetrics returns a copy of the current metrics
func (m *RunMetricsCollector) GetMetrics() model.RunMetrics {
	m.mu.RLock()
	defer m.mu.RUnlock()

	byStatus := make(map[model.RunStatus]int64, len(m.runsByStatus))
	for k, v := range m.runsByStatus {
		byStatus[k] = v
	}

	out := model.RunMetrics{
		RunsCreated:        m.runsCreated,
		RunsCompleted:      m.runsCompleted,
		RunsFailed:         m.runsFailed,
		RunsCancelled:      m.runsCancelled,
		RunsEvicted:        m.runsEvicted,
		GamesCompleted:     m.gamesCompleted,
		GamesFailed:        m.gamesFailed,
		TotalRunTime:       m.totalRunTime,
		RunsByStatus:       byStatus,
		ActiveRuns:         byStatus[model.RunStatusRunning] + byStatus[model.RunStatusCancelling],
		GameSuccessRatePct: 100,
		LastUpdated:        m.lastUpdated,
	}
	if m.finishedRuns > 0 {
		out.AverageRunTime = m.totalRunTime / time.Duration(m.finishedRuns)
	}
	if games := m.gamesCompleted + m.gamesFailed; games > 0 {
		out.GameSuccessRatePct = roundedPct(int(m.gamesCompleted), int(games))
	}
	return out
}
