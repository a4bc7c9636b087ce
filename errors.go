// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ringq

import (
	"errors"

	"code.hybscloud.com/iox"
)

// ErrWouldBlock indicates the operation cannot proceed immediately.
//
// For Enqueue: the queue is full (backpressure)
// For Dequeue: the queue is empty (no data available)
//
// ErrWouldBlock is a control flow signal, not a failure. The caller should
// retry the operation later (with backoff or yield) rather than propagating
// the error.
//
// This is an alias for [iox.ErrWouldBlock] for ecosystem consistency.
var ErrWouldBlock = iox.ErrWouldBlock

// ErrInvalidCapacity indicates a constructor was given a capacity it cannot
// accept: for the ring queues, a value that is not a power of two or is
// below 2; for Blocking, a value below 1.
//
// Unlike ErrWouldBlock this is a hard error: the queue was not created and
// there is nothing to retry. Compare with errors.Is.
var ErrInvalidCapacity = errors.New("ringq: capacity must be a power of two and >= 2")

// IsWouldBlock reports whether err indicates the operation would block.
// Delegates to [iox.IsWouldBlock] for wrapped error support.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}

// IsSemantic reports whether err is a control flow signal (not a failure).
// ErrInvalidCapacity is not semantic; ErrWouldBlock is.
// Delegates to [iox.IsSemantic].
func IsSemantic(err error) bool {
	return iox.IsSemantic(err)
}

// checkCapacity validates the construction-time capacity contract.
// The ring never rounds: a caller asking for 1000 slots would silently get
// 1024, and the sequence arithmetic only holds for exact powers of two.
func checkCapacity(capacity int) error {
	if capacity < 2 || capacity&(capacity-1) != 0 {
		return ErrInvalidCapacity
	}
	return nil
}
