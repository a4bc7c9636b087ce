// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ringq

import (
	"sync"
	"time"

	"github.com/eapache/queue"
)

// dequeueWait bounds how long a Blocking consumer sleeps on an empty queue
// before giving up with ErrWouldBlock, so drain loops terminate without a
// separate shutdown signal.
const dequeueWait = 10 * time.Millisecond

// Blocking is a conventional mutex + condition-variable bounded FIFO.
//
// It is the baseline the lock-free ring is benchmarked against, and a
// ready-made fallback for callers that want blocking semantics instead of
// layering a retry loop over MPMC. Enqueue blocks until space is
// available; Dequeue waits a bounded time for data and then reports
// ErrWouldBlock.
//
// Not lock-free: throughput degrades under contention as every operation
// serializes on one mutex.
type Blocking[T any] struct {
	mu       sync.Mutex
	notEmpty *sync.Cond
	notFull  *sync.Cond
	buf      *queue.Queue
	capacity int
}

// NewBlocking creates a bounded blocking queue.
// Capacity must be >= 1; returns ErrInvalidCapacity otherwise. Unlike the
// ring variants, capacity need not be a power of two.
func NewBlocking[T any](capacity int) (*Blocking[T], error) {
	if capacity < 1 {
		return nil, ErrInvalidCapacity
	}
	q := &Blocking[T]{
		buf:      queue.New(),
		capacity: capacity,
	}
	q.notEmpty = sync.NewCond(&q.mu)
	q.notFull = sync.NewCond(&q.mu)
	return q, nil
}

// Enqueue adds an element to the queue, blocking while the queue is full.
// Always returns nil; the error return exists to satisfy Producer[T].
func (q *Blocking[T]) Enqueue(elem *T) error {
	q.mu.Lock()
	for q.buf.Length() >= q.capacity {
		q.notFull.Wait()
	}
	q.buf.Add(*elem)
	q.notEmpty.Signal()
	q.mu.Unlock()
	return nil
}

// Dequeue removes and returns the oldest element. If the queue stays empty
// for dequeueWait, returns (zero-value, ErrWouldBlock) so callers polling
// for completion do not sleep forever.
func (q *Blocking[T]) Dequeue() (T, error) {
	q.mu.Lock()
	if q.buf.Length() == 0 {
		expired := false
		timer := time.AfterFunc(dequeueWait, func() {
			q.mu.Lock()
			expired = true
			q.notEmpty.Broadcast()
			q.mu.Unlock()
		})
		for q.buf.Length() == 0 && !expired {
			q.notEmpty.Wait()
		}
		timer.Stop()
		if q.buf.Length() == 0 {
			q.mu.Unlock()
			var zero T
			return zero, ErrWouldBlock
		}
	}
	elem := q.buf.Remove().(T)
	q.notFull.Signal()
	q.mu.Unlock()
	return elem, nil
}

// Cap returns the queue capacity.
func (q *Blocking[T]) Cap() int {
	return q.capacity
}
