package benchmark

import (
	"context"
	"sync"

	internalErrors "github.com/gcbaptista/chess-retrieval-bench/internal/errors"
	"github.com/gcbaptista/chess-retrieval-bench/model"
)

// EventLog is an append-only, single-writer, many-reader log of run events.
// The first event with Done set closes it; later appends fail.
type EventLog struct {
	mu      sync.Mutex
	events  []model.RunEvent
	closed  bool
	changed chan struct{} // closed and replaced on every append
}

// NewEventLog creates an empty open log
func NewEventLog() *EventLog {
	return &EventLog{changed: make(chan struct{})}
}

// Append assigns the next sequence number to ev and wakes every waiting reader
func (l *EventLog) Append(ev model.RunEvent) (model.RunEvent, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return ev, internalErrors.ErrLogClosed
	}
	ev.Seq = len(l.events)
	l.events = append(l.events, ev)
	if ev.Done {
		l.closed = true
	}
	close(l.changed)
	l.changed = make(chan struct{})
	return ev, nil
}

// Since returns a copy of the events from cursor on, whether the log is closed,
// and a channel that is closed on the next append.
func (l *EventLog) Since(cursor int) ([]model.RunEvent, bool, <-chan struct{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(l.events) {
		cursor = len(l.events)
	}
	out := make([]model.RunEvent, len(l.events)-cursor)
	copy(out, l.events[cursor:])
	return out, l.closed, l.changed
}

// Next implements services.EventStream
func (l *EventLog) Next(ctx context.Context, cursor int) ([]model.RunEvent, bool, error) {
	for {
		events, closed, wait := l.Since(cursor)
		if len(events) > 0 || closed {
			return events, closed, nil
		}
		select {
		case <-wait:
		case <-ctx.Done():
			return nil, false, ctx.Err()
		}
	}
}

// Len returns the number of events appended so far
func (l *EventLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.events)
}

// Closed reports whether the terminal event has been appended
func (l *EventLog) Closed() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.closed
}
