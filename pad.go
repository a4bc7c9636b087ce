// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ringq

// Cache-line padding. False sharing between the two cursors (or between a
// cell's sequence and its neighbors) is a throughput property, not a
// correctness one, but it is the difference between the ring scaling and
// the ring serializing on cache-coherency traffic.

// pad is a full cache line separating hot fields.
type pad [64]byte

// padShort fills the rest of a cache line after an 8-byte field.
type padShort [64 - 8]byte
