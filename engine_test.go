package mapbatch

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// stubBuffer tracks release so tests can assert acquire/release balance.
type stubBuffer struct {
	closed  atomic.Bool
	onClose func()
}

func (b *stubBuffer) Close() error {
	if b.closed.CompareAndSwap(false, true) && b.onClose != nil {
		b.onClose()
	}
	return nil
}

// stubEngine is a configurable fake alignment engine.
type stubEngine struct {
	mu      sync.Mutex
	created int // buffers ever created

	open   atomic.Int64 // buffers currently open
	aligns atomic.Int64 // Align invocations

	newErr error                          // NewBuffer failure injection
	delay  func(seq string) time.Duration // per-sequence latency
	fail   func(seq string) bool          // per-sequence failure injection
	result func(seq string) []Mapping     // optional custom output
}

func (e *stubEngine) NewBuffer() (Buffer, error) {
	if e.newErr != nil {
		return nil, e.newErr
	}
	e.mu.Lock()
	e.created++
	e.mu.Unlock()
	e.open.Add(1)
	return &stubBuffer{onClose: func() { e.open.Add(-1) }}, nil
}

func (e *stubEngine) Align(_ Buffer, seq string) ([]Mapping, error) {
	e.aligns.Add(1)
	if e.delay != nil {
		time.Sleep(e.delay(seq))
	}
	if e.fail != nil && e.fail(seq) {
		return nil, errors.New("engine: failed to map sequence")
	}
	if e.result != nil {
		return e.result(seq), nil
	}
	return []Mapping{{
		QueryEnd:   len(seq),
		Strand:     Forward,
		TargetName: "ref",
		TargetLen:  4096,
		TargetEnd:  len(seq),
		MatchLen:   len(seq),
		BlockLen:   len(seq),
		MapQ:       60,
		IsPrimary:  true,
	}}, nil
}

func (e *stubEngine) buffersCreated() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.created
}

// testRecords builds m records with distinct "read_id" metadata.
func testRecords(m int) []Record {
	recs := make([]Record, m)
	for i := range m {
		recs[i] = Record{
			"seq":     strings.Repeat("ACGT", i%8+1),
			"read_id": i,
			"channel": i % 512,
		}
	}
	return recs
}

// drainBatch consumes a batch fully, returning delivered metadata by read_id.
func drainBatch(b *Batch) map[int]Record {
	delivered := make(map[int]Record)
	for _, meta := range b.Results() {
		delivered[meta["read_id"].(int)] = meta
	}
	return delivered
}
