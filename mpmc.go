// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ringq

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// MPMC is a CAS-based multi-producer multi-consumer bounded ring queue.
//
// Based on Dmitry Vyukov's bounded MPMC queue. Each cell carries a sequence
// counter; a producer may write cell i once seq == pos, a consumer may read
// it once seq == pos+1, and the consumer releases it for the next lap with
// seq = pos+capacity. Exclusive access to a cell's payload is established
// entirely by this handshake, never by a lock.
//
// Cursors wrap modulo 2^64. The signed difference int64(seq)-int64(pos)
// stays correct across the wrap, which the full/empty tests rely on.
//
// Memory: n cells (16+ bytes per cell), one allocation at construction.
type MPMC[T any] struct {
	_        pad
	tail     atomix.Uint64 // Producer cursor
	_        pad
	head     atomix.Uint64 // Consumer cursor
	_        pad
	buffer   []cell[T]
	mask     uint64
	capacity uint64
}

type cell[T any] struct {
	seq  atomix.Uint64
	data T
	_    padShort // Pad to cache line
}

// NewMPMC creates a bounded MPMC ring queue.
// Capacity must be a power of two and >= 2; returns ErrInvalidCapacity
// otherwise. The cell array is allocated once and reused lap after lap.
func NewMPMC[T any](capacity int) (*MPMC[T], error) {
	if err := checkCapacity(capacity); err != nil {
		return nil, err
	}

	n := uint64(capacity)
	q := &MPMC[T]{
		buffer:   make([]cell[T], n),
		mask:     n - 1,
		capacity: n,
	}

	// Cell i starts ready for the first write of lap 0.
	for i := uint64(0); i < n; i++ {
		q.buffer[i].seq.StoreRelaxed(i)
	}

	return q, nil
}

// Enqueue adds an element to the queue (multiple producers safe).
// Returns ErrWouldBlock immediately if the queue is full. Spinning occurs
// only when racing other producers for the cursor, never on capacity.
func (q *MPMC[T]) Enqueue(elem *T) error {
	sw := spin.Wait{}
	for {
		// The cursor is only a hint here; the CAS below reconciles it.
		tail := q.tail.LoadRelaxed()
		slot := &q.buffer[tail&q.mask]
		seq := slot.seq.LoadAcquire()
		diff := int64(seq) - int64(tail)

		if diff == 0 {
			// Cell is free for this lap. Claim the position.
			if q.tail.CompareAndSwapRelaxed(tail, tail+1) {
				slot.data = *elem
				// Publish to the consumer that claims dequeue position tail.
				slot.seq.StoreRelease(tail + 1)
				return nil
			}
		} else if diff < 0 {
			// Cell still holds the previous lap's value: ring is full.
			return ErrWouldBlock
		}
		// diff > 0: another producer advanced the cursor past our stale
		// read but has not published yet. Reload and retry.
		sw.Once()
	}
}

// Dequeue removes and returns an element from the queue (multiple
// consumers safe). Returns (zero-value, ErrWouldBlock) immediately if the
// queue is empty.
func (q *MPMC[T]) Dequeue() (T, error) {
	sw := spin.Wait{}
	for {
		head := q.head.LoadRelaxed()
		slot := &q.buffer[head&q.mask]
		seq := slot.seq.LoadAcquire()
		diff := int64(seq) - int64(head+1)

		if diff == 0 {
			if q.head.CompareAndSwapRelaxed(head, head+1) {
				elem := slot.data
				var zero T
				slot.data = zero
				// Free the cell and advance it to the next lap's sequence.
				slot.seq.StoreRelease(head + q.capacity)
				return elem, nil
			}
		} else if diff < 0 {
			// Nothing published at this position yet: queue is empty.
			var zero T
			return zero, ErrWouldBlock
		}
		sw.Once()
	}
}

// Cap returns the queue capacity.
func (q *MPMC[T]) Cap() int {
	return int(q.capacity)
}
