// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ringq

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// MPMCIndirect is a bounded MPMC ring queue for uintptr values.
//
// Intended for indices or handles into external pools rather than raw
// pointers: a buffer pool enqueues slot indices on the free list and
// dequeues them on allocation. Any uintptr value is valid, including zero.
//
// Memory: n cells, one allocation at construction.
type MPMCIndirect struct {
	_        pad
	tail     atomix.Uint64 // Producer cursor
	_        pad
	head     atomix.Uint64 // Consumer cursor
	_        pad
	buffer   []indirectCell
	mask     uint64
	capacity uint64
}

type indirectCell struct {
	seq  atomix.Uint64
	data uintptr
	_    padShort // Pad to cache line
}

// NewMPMCIndirect creates a bounded MPMC ring queue for uintptr values.
// Capacity must be a power of two and >= 2; returns ErrInvalidCapacity
// otherwise.
func NewMPMCIndirect(capacity int) (*MPMCIndirect, error) {
	if err := checkCapacity(capacity); err != nil {
		return nil, err
	}

	n := uint64(capacity)
	q := &MPMCIndirect{
		buffer:   make([]indirectCell, n),
		mask:     n - 1,
		capacity: n,
	}

	for i := uint64(0); i < n; i++ {
		q.buffer[i].seq.StoreRelaxed(i)
	}

	return q, nil
}

// Enqueue adds a value to the queue (multiple producers safe).
// Returns ErrWouldBlock immediately if the queue is full.
func (q *MPMCIndirect) Enqueue(elem uintptr) error {
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

// Dequeue removes and returns a value (multiple consumers safe).
// Returns (0, ErrWouldBlock) immediately if the queue is empty.
func (q *MPMCIndirect) Dequeue() (uintptr, error) {
	sw := spin.Wait{}
	for {
		head := q.head.LoadRelaxed()
		slot := &q.buffer[head&q.mask]
		seq := slot.seq.LoadAcquire()
		diff := int64(seq) - int64(head+1)

		if diff == 0 {
			if q.head.CompareAndSwapRelaxed(head, head+1) {
				elem := slot.data
				slot.seq.StoreRelease(head + q.capacity)
				return elem, nil
			}
		} else if diff < 0 {
			return 0, ErrWouldBlock
		}
		sw.Once()
	}
}

// Cap returns the queue capacity.
func (q *MPMCIndirect) Cap() int {
	return int(q.capacity)
}
