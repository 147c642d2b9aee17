package mapbatch

import (
	"fmt"
	"iter"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// BatchState tracks a batch through its lifecycle.
type BatchState int32

const (
	// BatchIdle: handle created, dispatch not started.
	BatchIdle BatchState = iota
	// BatchDispatching: records are being pushed onto the work queue.
	BatchDispatching
	// BatchDraining: all records and termination sentinels are queued;
	// workers and the collector are working through the backlog.
	BatchDraining
	// BatchFinished: the finished marker was delivered; terminal.
	BatchFinished
	// BatchAborted: dispatch failed before queueing every record; already
	// queued items still drain best effort. Terminal.
	BatchAborted
)

func (s BatchState) String() string {
	switch s {
	case BatchIdle:
		return "idle"
	case BatchDispatching:
		return "dispatching"
	case BatchDraining:
		return "draining"
	case BatchFinished:
		return "finished"
	case BatchAborted:
		return "aborted"
	default:
		return "unknown"
	}
}

// batchConfig holds per-submission settings.
type batchConfig struct {
	backoff bool
}

// BatchOption adjusts a single MapBatch submission.
type BatchOption func(*batchConfig)

// WithQueueBackoff makes the submission retry a saturated work queue on an
// increasing-delay schedule instead of failing fast with ErrQueueFull.
func WithQueueBackoff() BatchOption {
	return func(c *batchConfig) { c.backoff = true }
}

// Batch is the handle for one MapBatch submission. Its Results sequence is
// the only way results leave the pipeline.
type Batch struct {
	id      uuid.UUID
	pending *pendingStore
	out     chan resultItem

	stop     chan struct{}
	stopOnce sync.Once

	state atomic.Int32

	log *slog.Logger
	ins *instruments
}

// ID returns the batch's correlation id, also attached to its log records.
func (b *Batch) ID() uuid.UUID { return b.id }

// State returns the batch's current lifecycle state.
func (b *Batch) State() BatchState { return BatchState(b.state.Load()) }

func (b *Batch) setState(s BatchState) { b.state.Store(int32(s)) }

func (b *Batch) casState(from, to BatchState) bool {
	return b.state.CompareAndSwap(int32(from), int32(to))
}

// Stop abandons the batch. The pipeline keeps draining internally so workers
// are never left blocked, but no further results are delivered. Stop is
// idempotent; finishing or breaking out of the Results loop calls it
// implicitly.
func (b *Batch) Stop() {
	b.stopOnce.Do(func() { close(b.stop) })
}

// Results returns the batch's result sequence: a finite, single-pass,
// pull-based iteration of (mappings, metadata) pairs in completion order,
// which generally differs from submission order. The sequence ends when the
// batch has fully drained; an output channel closed without the final marker
// ends it the same way. Returning early from the loop abandons the batch.
func (b *Batch) Results() iter.Seq2[[]Mapping, Record] {
	return func(yield func([]Mapping, Record) bool) {
		defer b.Stop()
		for item := range b.out {
			if item.finished {
				return
			}
			meta, ok := b.pending.take(item.id)
			if !ok {
				panic(fmt.Sprintf("mapbatch: no pending metadata for delivered id %d", item.id))
			}
			b.ins.delivered.Add(1)
			b.ins.inflight.Add(-1)
			if !yield(item.mappings, meta) {
				return
			}
		}
	}
}
