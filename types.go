// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ringq

import "unsafe"

// Queue is the combined producer-consumer interface for a bounded FIFO
// queue.
//
// Queue provides non-blocking Enqueue and Dequeue operations. Both
// operations return ErrWouldBlock when they cannot proceed (queue full or
// empty).
//
// The interface intentionally excludes length. The cursor difference is
// only a transient snapshot under concurrency, and an accurate count would
// require cross-core synchronization the lock-free design exists to avoid.
// Track counts in application logic when needed.
type Queue[T any] interface {
	Producer[T]
	Consumer[T]
	Cap() int
}

// Producer is the interface for enqueueing elements.
//
// The element is passed by pointer to avoid copying large structs. The
// queue stores a copy of the pointed-to value, so the original can be
// modified after Enqueue returns.
type Producer[T any] interface {
	// Enqueue adds an element to the queue (non-blocking).
	// Returns nil on success, ErrWouldBlock if the queue is full.
	Enqueue(elem *T) error
}

// Consumer is the interface for dequeueing elements.
//
// The element is returned by value (copied out of the ring). The cell is
// cleared on dequeue so the GC can reclaim referenced objects.
type Consumer[T any] interface {
	// Dequeue removes and returns an element from the queue (non-blocking).
	// Returns (zero-value, ErrWouldBlock) if the queue is empty.
	Dequeue() (T, error)
}

// QueuePtr is the combined interface for unsafe.Pointer queues.
//
// QueuePtr passes pointers without copying the pointed-to object. The
// producer transfers ownership to the consumer: after enqueueing, the
// producer should not access the object.
type QueuePtr interface {
	// Enqueue adds a pointer to the queue.
	// Returns ErrWouldBlock immediately if the queue is full.
	Enqueue(elem unsafe.Pointer) error
	// Dequeue removes and returns a pointer from the queue.
	// Returns (nil, ErrWouldBlock) immediately if the queue is empty.
	Dequeue() (unsafe.Pointer, error)
	Cap() int
}

// QueueIndirect is the combined interface for uintptr queues.
//
// QueueIndirect passes indices or handles instead of full objects. This is
// useful for buffer pools, object pools, or any index-based structure:
//
//	pool := make([][]byte, 1024)
//	freeList, _ := ringq.NewMPMCIndirect(1024)
//
//	for i := range pool {
//	    pool[i] = make([]byte, 4096)
//	    freeList.Enqueue(uintptr(i))
//	}
//
//	idx, _ := freeList.Dequeue() // allocate
//	buf := pool[idx]
//	freeList.Enqueue(idx)        // free
type QueueIndirect interface {
	// Enqueue adds a value to the queue.
	// Returns ErrWouldBlock immediately if the queue is full.
	Enqueue(elem uintptr) error
	// Dequeue removes and returns a value from the queue.
	// Returns (0, ErrWouldBlock) immediately if the queue is empty.
	Dequeue() (uintptr, error)
	Cap() int
}
