package model

import (
	"encoding/json"
	"time"
)

// RunStatus represents the lifecycle state of a benchmark run
type RunStatus string

const (
	RunStatusRunning    RunStatus = "running"
	RunStatusCancelling RunStatus = "cancelling"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusFailed     RunStatus = "failed"
	RunStatusCancelled  RunStatus = "cancelled"
)

// Terminal reports whether no further events will be appended for this status.
func (s RunStatus) Terminal() bool {
	return s == RunStatusCompleted || s == RunStatusFailed || s == RunStatusCancelled
}

// RunEvent is one entry of a run's append-only event log.
//
// A game event carries Game/Result/Reason/Moves, a failed game carries Game/Error,
// and the single terminal event carries Done with either Filename or Error.
type RunEvent struct {
	Seq      int
	Game     int
	Result   string
	Reason   string
	Moves    int
	Done     bool
	Filename string
	Error    string
}

// GameEvent builds the completion event for a finished game.
func GameEvent(g *GameResult) RunEvent {
	if g.Failed() {
		return RunEvent{Game: g.Game, Error: g.Error}
	}
	return RunEvent{Game: g.Game, Result: g.Result, Reason: g.Reason, Moves: g.Moves}
}

// DoneEvent builds the terminal success event.
func DoneEvent(filename string) RunEvent {
	return RunEvent{Done: true, Filename: filename}
}

// ErrorEvent builds the terminal failure event.
func ErrorEvent(err error) RunEvent {
	return RunEvent{Done: true, Error: err.Error()}
}

// MarshalJSON emits only the fields that belong to the event's kind.
func (e RunEvent) MarshalJSON() ([]byte, error) {
	out := map[string]interface{}{"seq": e.Seq}
	switch {
	case e.Done:
		out["done"] = true
		if e.Error != "" {
			out["error"] = e.Error
		} else {
			out["filename"] = e.Filename
		}
	case e.Error != "":
		out["game"] = e.Game
		out["error"] = e.Error
	default:
		out["game"] = e.Game
		out["result"] = e.Result
		out["reason"] = e.Reason
		out["moves"] = e.Moves
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts any of the event shapes produced by MarshalJSON.
func (e *RunEvent) UnmarshalJSON(data []byte) error {
	var raw struct {
		Seq      int    `json:"seq"`
		Game     int    `json:"game"`
		Result   string `json:"result"`
		Reason   string `json:"reason"`
		Moves    int    `json:"moves"`
		Done     bool   `json:"done"`
		Filename string `json:"filename"`
		Error    string `json:"error"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*e = RunEvent(raw)
	return nil
}

// RunProgress tracks how many games of a run have finished
type RunProgress struct {
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Total     int `json:"total"`
}

// GetProgressPercentage returns the progress as a percentage (0-100)
func (rp *RunProgress) GetProgressPercentage() float64 {
	if rp.Total == 0 {
		return 0
	}
	return float64(rp.Completed+rp.Failed) / float64(rp.Total) * 100
}

// RunSnapshot is a point-in-time copy of a run for polling clients
type RunSnapshot struct {
	ID          string      `json:"run_id"`
	Status      RunStatus   `json:"status"`
	NumGames    int         `json:"num_games"`
	Workers     int         `json:"workers"`
	Progress    RunProgress `json:"progress"`
	Events      []RunEvent  `json:"events"`
	NextCursor  int         `json:"next_cursor"`
	Done        bool        `json:"done"`
	Filename    string      `json:"filename,omitempty"`
	Error       string      `json:"error,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	CompletedAt *time.Time  `json:"completed_at,omitempty"`
}

// RunMetrics represents run registry metrics (safe for copying)
type RunMetrics struct {
	RunsCreated        int64               `json:"runs_created"`
	RunsCompleted      int64               `json:"runs_completed"`
	RunsFailed         int64               `json:"runs_failed"`
	RunsCancelled      int64               `json:"runs_cancelled"`
	RunsEvicted        int64               `json:"runs_evicted"`
	GamesCompleted     int64               `json:"games_completed"`
	GamesFailed        int64               `json:"games_failed"`
	TotalRunTime       time.Duration       `json:"total_run_time_ns"`
	AverageRunTime     time.Duration       `json:"average_run_time_ns"`
	RunsByStatus       map[RunStatus]int64 `json:"runs_by_status"`
	ActiveRuns         int64               `json:"active_runs"`
	RegisteredRuns     int                 `json:"registered_runs"`
	GameSuccessRatePct float64             `json:"game_success_rate_pct"`
	LastUpdated        time.Time           `json:"last_updated"`
}
