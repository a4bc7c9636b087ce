// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package ringq provides a bounded lock-free multi-producer multi-consumer
// ring queue.
//
// The queue is a fixed array of cells addressed by index & (capacity-1).
// Each cell carries a sequence counter that encodes which lap around the
// ring the cell is currently valid for. Producers and consumers claim
// logical positions by CAS on two padded cursors and hand cells to each
// other through an acquire/release handshake on the per-cell sequence.
// There are no locks and no allocation after construction.
//
// # Quick Start
//
//	q, err := ringq.NewMPMC[Event](1024)
//	if err != nil {
//	    // capacity was not a power of two >= 2
//	}
//
//	// Enqueue (non-blocking)
//	ev := Event{ID: 7}
//	if err := q.Enqueue(&ev); ringq.IsWouldBlock(err) {
//	    // queue full - apply backpressure
//	}
//
//	// Dequeue (non-blocking)
//	ev, err := q.Dequeue()
//	if ringq.IsWouldBlock(err) {
//	    // queue empty - try again later
//	}
//
// # Full and Empty Are Not Failures
//
// Both operations return [ErrWouldBlock] when they cannot proceed. That is
// a control flow signal, not an error: the structure never blocks, so the
// caller chooses the retry policy (spin, yield, iox.Backoff, or surfacing
// the condition upstream as backpressure):
//
//	backoff := iox.Backoff{}
//	for q.Enqueue(&ev) != nil {
//	    backoff.Wait()
//	}
//	backoff.Reset()
//
// # Variants
//
//	NewMPMC[T]      generic payloads, copied in and out of the ring
//	NewMPMCPtr      unsafe.Pointer payloads, zero-copy ownership transfer
//	NewMPMCIndirect uintptr payloads, indices or handles into external pools
//	NewBlocking[T]  mutex+condvar baseline for callers that want blocking
//
// # Ordering Guarantees
//
// Successful claims on each cursor are totally ordered: the Nth successful
// Enqueue writes logical slot N, and items leave the queue in slot-claim
// order. The release store of a cell's sequence by the producer pairs with
// the consumer's acquire load of the same cell, so the payload written for
// a slot is always fully visible to the consumer of that slot. No ordering
// is guaranteed between unrelated slots beyond cursor order, and no
// per-producer fairness is imposed beyond the ring itself.
//
// # Choosing a Capacity
//
// Capacity must be a power of two and at least 2; construction fails with
// [ErrInvalidCapacity] otherwise. The power-of-two requirement lets the
// ring replace modulo with a mask and keeps the sequence arithmetic exact
// across counter wraparound.
package ringq
