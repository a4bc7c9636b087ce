// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ringq

import (
	"unsafe"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// MPMCPtr is a bounded MPMC ring queue for unsafe.Pointer values.
//
// Same sequence handshake as MPMC, specialized for zero-copy pointer
// passing: the producer enqueues a pointer and transfers ownership to
// whichever consumer dequeues it. After enqueueing, the producer must not
// access the pointed-to object.
//
// Memory: n cells, one allocation at construction.
type MPMCPtr struct {
	_        pad
	tail     atomix.Uint64 // Producer cursor
	_        pad
	head     atomix.Uint64 // Consumer cursor
	_        pad
	buffer   []ptrCell
	mask     uint64
	capacity uint64
}

type ptrCell struct {
	seq  atomix.Uint64
	data unsafe.Pointer
	_    padShort // Pad to cache line
}

// NewMPMCPtr creates a bounded MPMC ring queue for unsafe.Pointer values.
// Capacity must be a power of two and >= 2; returns ErrInvalidCapacity
// otherwise.
func NewMPMCPtr(capacity int) (*MPMCPtr, error) {
	if err := checkCapacity(capacity); err != nil {
		return nil, err
	}

	n := uint64(capacity)
	q := &MPMCPtr{
		buffer:   make([]ptrCell, n),
		mask:     n - 1,
		capacity: n,
	}

	for i := uint64(0); i < n; i++ {
		q.buffer[i].seq.StoreRelaxed(i)
	}

	return q, nil
}

// Enqueue adds a pointer to the queue (multiple producers safe).
// Returns ErrWouldBlock immediately if the queue is full.
func (q *MPMCPtr) Enqueue(elem unsafe.Pointer) error {
	sw := spin.Wait{}
	for {
		tail := q.tail.LoadRelaxed()
		slot := &q.buffer[tail&q.mask]
		seq := slot.seq.LoadAcquire()
		diff := int64(seq) - int64(tail)

		if diff == 0 {
			if q.tail.CompareAndSwapRelaxed(tail, tail+1) {
				slot.data = elem
				slot.seq.StoreRelease(tail + 1)
				return nil
			}
		} else if diff < 0 {
			return ErrWouldBlock
		}
		sw.Once()
	}
}

// Dequeue removes and returns a pointer (multiple consumers safe).
// Returns (nil, ErrWouldBlock) immediately if the queue is empty.
func (q *MPMCPtr) Dequeue() (unsafe.Pointer, error) {
	sw := spin.Wait{}
	for {
		head := q.head.LoadRelaxed()
		slot := &q.buffer[head&q.mask]
		seq := slot.seq.LoadAcquire()
		diff := int64(seq) - int64(head+1)

		if diff == 0 {
			if q.head.CompareAndSwapRelaxed(head, head+1) {
				elem := slot.data
				slot.data = nil
				slot.seq.StoreRelease(head + q.capacity)
				return elem, nil
			}
		} else if diff < 0 {
			return nil, ErrWouldBlock
		}
		sw.Once()
	}
}

// Cap returns the queue capacity.
func (q *MPMCPtr) Cap() int {
	return int(q.capacity)
}
