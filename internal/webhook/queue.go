package webhook

import (
	"context"
	"errors"
)

// ErrQueueFull is the backpressure error returned by Enqueue in fail mode
// when the queue is at capacity. Events are never silently dropped.
var ErrQueueFull = errors.New("webhook queue full")

// EnqueueMode selects producer behavior on a full queue.
type EnqueueMode int

const (
	// EnqueueFail returns ErrQueueFull immediately so the producer can shed
	// load or surface the backpressure.
	EnqueueFail EnqueueMode = iota
	// EnqueueBlock suspends the producer until space frees up or its context
	// is cancelled.
	EnqueueBlock
)

// DefaultQueueCapacity bounds pending deliveries when none is configured.
const DefaultQueueCapacity = 1000

// task is one pending delivery owned by the queue until it is delivered or
// dead-lettered.
type task struct {
	event    Event
	attempts []Attempt
}

// Queue is a bounded multi-producer/multi-consumer queue of pending webhook
// deliveries. The channel provides the producer/consumer mutual exclusion;
// no external locking is required.
type Queue struct {
	ch   chan *task
	mode EnqueueMode
}

// NewQueue builds a queue with the given capacity and enqueue mode.
func NewQueue(capacity int, mode EnqueueMode) *Queue {
	if capacity <= 0 {
		capacity = DefaultQueueCapacity
	}
	return &Queue{ch: make(chan *task, capacity), mode: mode}
}

// Enqueue submits an event for delivery. In block mode it waits for space,
// returning ctx.Err() on cancellation; in fail mode it returns ErrQueueFull
// when at capacity.
func (q *Queue) Enqueue(ctx context.Context, e Event) error {
	return q.push(ctx, &task{event: e})
}

func (q *Queue) push(ctx context.Context, t *task) error {
	if q.mode == EnqueueBlock {
		select {
		case q.ch <- t:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	select {
	case q.ch <- t:
		return nil
	default:
		return ErrQueueFull
	}
}

// requeue returns a task to the queue for its next attempt. Retries block
// for space regardless of enqueue mode: an in-flight event must not be
// dropped because producers filled the queue meanwhile.
func (q *Queue) requeue(ctx context.Context, t *task) error {
	select {
	case q.ch <- t:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Len is the number of queued (not in-flight) deliveries.
func (q *Queue) Len() int { return len(q.ch) }

// Cap is the queue capacity.
func (q *Queue) Cap() int { return cap(q.ch) }
