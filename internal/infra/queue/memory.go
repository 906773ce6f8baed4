package queue

import (
	"context"
	"errors"
	"sync"

	"github.com/mahidhar9542/mortgage-app/internal/entity"
)

var ErrQueueFull = errors.New("notification queue is full")

// MemoryQueue is an in-process stand-in for RabbitMQ used in development and tests.
// Jobs still pending when Run returns are lost.
type MemoryQueue struct {
	jobs      chan entity.Notification
	processor *Processor

	mu   sync.Mutex
	dead []entity.Notification
}

func NewMemoryQueue(size int, processor *Processor) *MemoryQueue {
	if size < 1 {
		size = 100
	}
	return &MemoryQueue{jobs: make(chan entity.Notification, size), processor: processor}
}

// Publish never blocks: a full buffer is an error.
func (q *MemoryQueue) Publish(_ context.Context, n entity.Notification) error {
	select {
	case q.jobs <- n:
		return nil
	default:
		observe(q.processor.Observe, n.Template, OutcomePublishFailed)
		return ErrQueueFull
	}
}

func (q *MemoryQueue) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case n := <-q.jobs:
			switch q.processor.Process(ctx, &n) {
			case OutcomeRetry:
				if err := q.Publish(ctx, n); err != nil {
					q.bury(n)
				}
			case OutcomeDead:
				q.bury(n)
			}
		}
	}
}

// Dead returns the jobs that exhausted their attempts.
func (q *MemoryQueue) Dead() []entity.Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := make([]entity.Notification, len(q.dead))
	copy(out, q.dead)
	return out
}

func (q *MemoryQueue) bury(n entity.Notification) {
	q.mu.Lock()
	q.dead = append(q.dead, n)
	q.mu.Unlock()
}
