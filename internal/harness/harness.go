// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package harness drives queues with concurrent producers and consumers.
//
// It provides two drivers: a counted run that pushes an exact number of
// tagged payloads through the queue and accounts for every one of them
// (exactly-once verification), and a timed run that measures sustained
// throughput over a fixed window. The queue under test only has to expose
// the non-blocking Enqueue/Dequeue pair; all retry and backoff policy
// lives here, outside the structure.
package harness

import (
	"sync"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"
	"github.com/valyala/fastrand"
	"golang.org/x/crypto/blake2b"

	"code.hybscloud.com/ringq"
)

// Payload is the unit pushed through queues under test.
//
// Each payload is tagged with its producer and per-producer sequence, and
// carries a BLAKE2b digest of its body computed on the producing side. The
// consumer recomputes the digest, so a torn or stale read surfaces as a
// checksum mismatch regardless of timing.
type Payload struct {
	Producer uint32
	Seq      uint32
	Body     [16]byte
	Digest   [blake2b.Size256]byte
}

// NewPayload builds a payload with a random body and a valid digest.
func NewPayload(producer, seq int) Payload {
	p := Payload{Producer: uint32(producer), Seq: uint32(seq)}
	for i := 0; i < len(p.Body); i += 4 {
		r := fastrand.Uint32()
		p.Body[i] = byte(r)
		p.Body[i+1] = byte(r >> 8)
		p.Body[i+2] = byte(r >> 16)
		p.Body[i+3] = byte(r >> 24)
	}
	p.Digest = p.digest()
	return p
}

// Verify reports whether the payload's digest matches its contents.
func (p *Payload) Verify() bool {
	return p.Digest == p.digest()
}

func (p *Payload) digest() [blake2b.Size256]byte {
	var buf [8 + len(p.Body)]byte
	buf[0] = byte(p.Producer)
	buf[1] = byte(p.Producer >> 8)
	buf[2] = byte(p.Producer >> 16)
	buf[3] = byte(p.Producer >> 24)
	buf[4] = byte(p.Seq)
	buf[5] = byte(p.Seq >> 8)
	buf[6] = byte(p.Seq >> 16)
	buf[7] = byte(p.Seq >> 24)
	copy(buf[8:], p.Body[:])
	return blake2b.Sum256(buf[:])
}

// Config sets the shape of a counted run.
type Config struct {
	Producers        int
	Consumers        int
	ItemsPerProducer int
	Timeout          time.Duration
}

// Result is the outcome of a counted run.
//
// A correct queue yields Produced == Consumed == Producers*ItemsPerProducer
// with zero duplicates, zero missing tags, and zero checksum failures.
type Result struct {
	Produced     int64
	Consumed     int64
	Elapsed      time.Duration
	Duplicates   int64
	Missing      int64
	BadChecksums int64
	TimedOut     bool
}

// RunCounted pushes cfg.Producers*cfg.ItemsPerProducer tagged payloads
// through q and drains them, verifying that every tag is consumed exactly
// once and every payload survives bit-identical.
//
// Producers and consumers spin-or-backoff on ErrWouldBlock; the structure
// itself never blocks. The run aborts with TimedOut set if the deadline
// passes, so a livelocked queue fails the caller's assertions instead of
// hanging the process.
func RunCounted(q ringq.Queue[Payload], cfg Config) Result {
	total := cfg.Producers * cfg.ItemsPerProducer
	seen := make([]atomix.Int32, total)

	var wg sync.WaitGroup
	var produced, consumed atomix.Int64
	var badSums atomix.Int64
	var timedOut atomix.Bool
	deadline := time.Now().Add(cfg.Timeout)
	start := time.Now()

	for p := range cfg.Producers {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			backoff := iox.Backoff{}
			for i := range cfg.ItemsPerProducer {
				payload := NewPayload(id, i)
				for q.Enqueue(&payload) != nil {
					if time.Now().After(deadline) {
						timedOut.Store(true)
						return
					}
					backoff.Wait()
				}
				produced.Add(1)
				backoff.Reset()
			}
		}(p)
	}

	for range cfg.Consumers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			backoff := iox.Backoff{}
			for consumed.Load() < int64(total) {
				if time.Now().After(deadline) {
					timedOut.Store(true)
					return
				}
				payload, err := q.Dequeue()
				if err != nil {
					backoff.Wait()
					continue
				}
				backoff.Reset()
				consumed.Add(1)
				if !payload.Verify() {
					badSums.Add(1)
					continue
				}
				tag := int(payload.Producer)*cfg.ItemsPerProducer + int(payload.Seq)
				if tag >= 0 && tag < total {
					seen[tag].Add(1)
				}
			}
		}()
	}

	wg.Wait()

	res := Result{
		Produced:     produced.Load(),
		Consumed:     consumed.Load(),
		Elapsed:      time.Since(start),
		BadChecksums: badSums.Load(),
		TimedOut:     timedOut.Load(),
	}
	for i := range seen {
		switch n := seen[i].Load(); {
		case n == 0:
			res.Missing++
		case n > 1:
			res.Duplicates += int64(n - 1)
		}
	}
	return res
}

// RunTimed measures sustained throughput: producers enqueue as fast as the
// queue accepts for the given duration, then consumers drain the
// remainder. Returns totals and the measured elapsed time.
func RunTimed(q ringq.Queue[Payload], producers, consumers int, duration time.Duration) (produced, consumed int64, elapsed time.Duration) {
	var prodWg, consWg sync.WaitGroup
	var totalProduced, totalConsumed atomix.Int64
	var done atomix.Bool

	start := time.Now()

	for p := range producers {
		prodWg.Add(1)
		go func(id int) {
			defer prodWg.Done()
			backoff := iox.Backoff{}
			for i := 0; !done.Load(); i++ {
				payload := NewPayload(id, i)
				for q.Enqueue(&payload) != nil {
					if done.Load() {
						return
					}
					backoff.Wait()
				}
				totalProduced.Add(1)
				backoff.Reset()
			}
		}(p)
	}

	for range consumers {
		consWg.Add(1)
		go func() {
			defer consWg.Done()
			backoff := iox.Backoff{}
			for {
				if _, err := q.Dequeue(); err == nil {
					totalConsumed.Add(1)
					backoff.Reset()
					continue
				}
				if done.Load() && totalConsumed.Load() >= totalProduced.Load() {
					return
				}
				backoff.Wait()
			}
		}()
	}

	time.Sleep(duration)
	done.Store(true)
	prodWg.Wait()
	consWg.Wait()

	return totalProduced.Load(), totalConsumed.Load(), time.Since(start)
}
