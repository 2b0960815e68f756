package worker

import (
	"context"
	"time"

	"github.com/Anshuman-Jagani/Neurocanvas/internal/domain/model"
)

type EventType string

const (
	EventAdded     EventType = "added"
	EventStarted   EventType = "started"
	EventProgress  EventType = "progress"
	EventCompleted EventType = "completed"
	EventFailed    EventType = "failed"
	EventCancelled EventType = "cancelled"
)

// Event carries a job snapshot, never the live job, so subscribers can
// read it without racing the worker loop.
type Event struct {
	Type EventType
	Job  model.Job
	At   time.Time
}

// Subscriber receives queue events. Calls run on the dispatcher pool's
// goroutines; a slow subscriber delays other events but never the worker.
type Subscriber func(ev Event)

type progressKey struct{}

func withProgress(ctx context.Context, fn func(percent int)) context.Context {
	return context.WithValue(ctx, progressKey{}, fn)
}

// ReportProgress lets the executor surface pipeline progress through the
// queue's event stream. No-op when the context carries no reporter.
func ReportProgress(ctx context.Context, percent int) {
	if fn, ok := ctx.Value(progressKey{}).(func(int)); ok {
		fn(percent)
	}
}
