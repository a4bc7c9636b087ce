// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package ringq_test

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/iox"

	"code.hybscloud.com/ringq"
	"code.hybscloud.com/ringq/internal/harness"
)

// =============================================================================
// No loss / no duplication under contention
// =============================================================================

// TestMPMCNoLossUnderContention runs every producer/consumer count pairing
// from {1,4,16} and verifies exactly-once delivery: each tagged payload
// appears exactly once in the consumed set, with its checksum intact.
func TestMPMCNoLossUnderContention(t *testing.T) {
	if ringq.RaceEnabled {
		t.Skip("skip: CAS-based algorithm uses cross-variable memory ordering")
	}

	items := 10000
	if testing.Short() {
		items = 1000
	}

	counts := []int{1, 4, 16}
	for _, producers := range counts {
		for _, consumers := range counts {
			t.Run(fmt.Sprintf("P%d_C%d", producers, consumers), func(t *testing.T) {
				q, err := ringq.NewMPMC[harness.Payload](64)
				if err != nil {
					t.Fatal(err)
				}

				res := harness.RunCounted(q, harness.Config{
					Producers:        producers,
					Consumers:        consumers,
					ItemsPerProducer: items,
					Timeout:          30 * time.Second,
				})

				if res.TimedOut {
					t.Fatalf("timed out: produced=%d consumed=%d", res.Produced, res.Consumed)
				}
				total := int64(producers * items)
				if res.Produced != total || res.Consumed != total {
					t.Fatalf("produced=%d consumed=%d, want %d", res.Produced, res.Consumed, total)
				}
				if res.Missing != 0 {
					t.Fatalf("%d tags missing from consumed set", res.Missing)
				}
				if res.Duplicates != 0 {
					t.Fatalf("%d duplicated tags in consumed set", res.Duplicates)
				}
				if res.BadChecksums != 0 {
					t.Fatalf("%d payloads failed checksum verification", res.BadChecksums)
				}
			})
		}
	}
}

// TestBlockingNoLossUnderContention runs the same exactly-once check
// against the mutex baseline, which shares the harness contract.
func TestBlockingNoLossUnderContention(t *testing.T) {
	items := 5000
	if testing.Short() {
		items = 500
	}

	q, err := ringq.NewBlocking[harness.Payload](64)
	if err != nil {
		t.Fatal(err)
	}

	res := harness.RunCounted(q, harness.Config{
		Producers:        4,
		Consumers:        4,
		ItemsPerProducer: items,
		Timeout:          30 * time.Second,
	})

	total := int64(4 * items)
	if res.Consumed != total || res.Missing != 0 || res.Duplicates != 0 || res.BadChecksums != 0 {
		t.Fatalf("consumed=%d missing=%d dup=%d badsum=%d, want %d/0/0/0",
			res.Consumed, res.Missing, res.Duplicates, res.BadChecksums, total)
	}
}

// =============================================================================
// Visibility
// =============================================================================

// TestMPMCVisibility checks that a value enqueued by one goroutine and
// dequeued by another arrives bit-identical. The checksum travels inside
// the payload, so the property holds independent of timing.
func TestMPMCVisibility(t *testing.T) {
	if ringq.RaceEnabled {
		t.Skip("skip: CAS-based algorithm uses cross-variable memory ordering")
	}

	const items = 20000

	q, err := ringq.NewMPMC[harness.Payload](16)
	if err != nil {
		t.Fatal(err)
	}

	var bad atomix.Int64
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		backoff := iox.Backoff{}
		for i := range items {
			payload := harness.NewPayload(0, i)
			for q.Enqueue(&payload) != nil {
				backoff.Wait()
			}
			backoff.Reset()
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		backoff := iox.Backoff{}
		for n := 0; n < items; {
			payload, err := q.Dequeue()
			if err != nil {
				backoff.Wait()
				continue
			}
			backoff.Reset()
			if !payload.Verify() {
				bad.Add(1)
			}
			n++
		}
	}()

	wg.Wait()

	if n := bad.Load(); n != 0 {
		t.Fatalf("%d of %d payloads arrived corrupted", n, items)
	}
}

// =============================================================================
// Indirect variant under contention
// =============================================================================

// TestMPMCIndirectStress cycles handles through a small ring from many
// goroutines, as a buffer pool free list would.
func TestMPMCIndirectStress(t *testing.T) {
	if ringq.RaceEnabled {
		t.Skip("skip: CAS-based algorithm uses cross-variable memory ordering")
	}

	const (
		workers  = 8
		handles  = 16
		cycles   = 10000
		deadline = 30 * time.Second
	)

	q, err := ringq.NewMPMCIndirect(handles)
	if err != nil {
		t.Fatal(err)
	}
	for i := range uintptr(handles) {
		if err := q.Enqueue(i); err != nil {
			t.Fatalf("seed Enqueue(%d): %v", i, err)
		}
	}

	var wg sync.WaitGroup
	var timedOut atomix.Bool
	limit := time.Now().Add(deadline)

	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			backoff := iox.Backoff{}
			for range cycles {
				var h uintptr
				for {
					var err error
					h, err = q.Dequeue()
					if err == nil {
						break
					}
					if time.Now().After(limit) {
						timedOut.Store(true)
						return
					}
					backoff.Wait()
				}
				backoff.Reset()
				if h >= handles {
					t.Errorf("handle out of range: %d", h)
					return
				}
				for q.Enqueue(h) != nil {
					if time.Now().After(limit) {
						timedOut.Store(true)
						return
					}
					backoff.Wait()
				}
			}
		}()
	}

	wg.Wait()
	if timedOut.Load() {
		t.Fatal("timed out cycling handles")
	}

	// Every handle must be back in the ring exactly once.
	seen := make(map[uintptr]bool, handles)
	for range handles {
		h, err := q.Dequeue()
		if err != nil {
			t.Fatalf("final drain: %v", err)
		}
		if seen[h] {
			t.Fatalf("handle %d duplicated", h)
		}
		seen[h] = true
	}
	if _, err := q.Dequeue(); err == nil {
		t.Fatal("ring held more handles than were seeded")
	}
}
