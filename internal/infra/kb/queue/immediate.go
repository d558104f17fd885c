// Package queue provides kb.JobQueue implementations.
package queue

import (
	"context"

	"github.com/yanqian/campusbot/internal/domain/kb"
)

// Handler executes one queued job.
type Handler func(ctx context.Context, name string, payload map[string]any)

// HandlerQueue is a JobQueue whose consumer can be attached after wiring,
// which breaks the construction cycle between the queue and the service
// processing its jobs.
type HandlerQueue interface {
	kb.JobQueue
	SetHandler(handler Handler)
}

// Immediate runs each job on its own goroutine as soon as it is enqueued.
type Immediate struct {
	handler Handler
}

// NewImmediate constructs the queue.
func NewImmediate() *Immediate {
	return &Immediate{}
}

// SetHandler replaces the handler used for queued jobs.
func (q *Immediate) SetHandler(handler Handler) {
	q.handler = handler
}

// Enqueue invokes the handler asynchronously.
func (q *Immediate) Enqueue(ctx context.Context, name string, payload any) error {
	typed, ok := payload.(map[string]any)
	if !ok {
		typed = map[string]any{}
	}
	if q.handler == nil {
		return nil
	}
	go q.handler(context.WithoutCancel(ctx), name, typed)
	return nil
}

var _ HandlerQueue = (*Immediate)(nil)
