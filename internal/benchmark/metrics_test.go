package benchmark

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gcbaptista/chess-retrieval-bench/model"
)

func TestRunMetricsCollector(t *testing.T) {
	m := NewRunMetricsCollector()

	initial := m.GetMetrics()
	assert.Equal(t, 100.0, initial.GameSuccessRatePct, "No games means nothing failed")
	assert.Zero(t, initial.ActiveRuns)

	m.RecordRunCreated()
	m.RecordRunCreated()
	assert.Equal(t, int64(2), m.GetMetrics().ActiveRuns)

	m.RecordStatusChange(model.RunStatusRunning, model.RunStatusCancelling)
	assert.Equal(t, int64(2), m.GetMetrics().ActiveRuns, "Cancelling runs are still active")

	m.RecordGame(false)
	m.RecordGame(false)
	m.RecordGame(true)

	m.RecordStatusChange(model.RunStatusRunning, model.RunStatusCompleted)
	m.RecordRunFinished(model.RunStatusCompleted, 2*time.Second)
	m.RecordStatusChange(model.RunStatusCancelling, model.RunStatusCancelled)
	m.RecordRunFinished(model.RunStatusCancelled, 4*time.Second)
	m.RecordRunEvicted(model.RunStatusCompleted)

	metrics := m.GetMetrics()
	assert.Equal(t, int64(2), metrics.RunsCreated)
	assert.Equal(t, int64(1), metrics.RunsCompleted)
	assert.Equal(t, int64(1), metrics.RunsCancelled)
	assert.Equal(t, int64(1), metrics.RunsEvicted)
	assert.Equal(t, int64(2), metrics.GamesCompleted)
	assert.Equal(t, int64(1), metrics.GamesFailed)
	assert.Equal(t, 66.7, metrics.GameSuccessRatePct)
	assert.Equal(t, 3*time.Second, metrics.AverageRunTime)
	assert.Zero(t, metrics.ActiveRuns)
	assert.Zero(t, metrics.RunsByStatus[model.RunStatusCompleted], "Evicted runs leave the status counts")
	assert.Equal(t, int64(1), metrics.RunsByStatus[model.RunStatusCancelled])
}

func TestRunMetricsCollector_StatusCountsNeverNegative(t *testing.T) {
	m := NewRunMetricsCollector()
	m.RecordStatusChange(model.RunStatusRunning, model.RunStatusFailed)

	metrics := m.GetMetrics()
	assert.Zero(t, metrics.RunsByStatus[model.RunStatusRunning])
	assert.Equal(t, int64(1), metrics.RunsByStatus[model.RunStatusFailed])
}
