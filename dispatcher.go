package mapbatch

import (
	"iter"
	"strconv"
	"time"

	"github.com/ygrebnov/errorc"
)

// Queue-full backoff schedule: one immediate attempt, then up to six retries
// sleeping 50, 100, 200, 400, 800 and 1600 ms before giving up.
const (
	backoffMaxAttempts  = 6
	backoffInitialDelay = 50 * time.Millisecond
)

// dispatcher walks a batch's records in order, assigns correlation ids,
// stores metadata, and pushes work items onto the work queue. It runs on the
// goroutine that submitted the batch, so any dispatch failure is returned
// synchronously from MapBatch.
type dispatcher struct {
	work    chan<- workItem
	pending *pendingStore
	n       int // worker count; one termination sentinel is queued per worker
	backoff bool
	ins     *instruments
}

// run dispatches records until the sequence ends or a record fails. The
// metadata insert always precedes the work-queue push for the same id.
// Termination sentinels are queued even after an abort, so items already
// dispatched keep draining and the batch still terminates.
func (d *dispatcher) run(b *Batch, records iter.Seq[any]) error {
	var dispatchErr error

	id := 0
	for v := range records {
		rec, ok := asRecord(v)
		if !ok {
			dispatchErr = errorc.With(ErrMalformedRecord, errorc.String("id", strconv.Itoa(id)))
			break
		}
		d.pending.put(id, rec)

		seq, err := seqField(rec)
		if err != nil {
			dispatchErr = err
			break
		}
		if err = d.push(workItem{id: id, seq: seq}); err != nil {
			dispatchErr = err
			break
		}
		d.ins.dispatched.Add(1)
		d.ins.inflight.Add(1)
		id++
	}

	if dispatchErr != nil {
		b.setState(BatchAborted)
	} else {
		b.setState(BatchDraining)
	}

	for range d.n {
		d.work <- workItem{done: true}
	}
	return dispatchErr
}

// push enqueues one work item under the batch's queue-full policy: fail fast
// by default, or retry on the backoff schedule when enabled.
func (d *dispatcher) push(item workItem) error {
	select {
	case d.work <- item:
		return nil
	default:
	}

	if d.backoff {
		delay := backoffInitialDelay
		for attempt := 0; attempt < backoffMaxAttempts; attempt++ {
			d.ins.queueRetries.Add(1)
			time.Sleep(delay)
			select {
			case d.work <- item:
				return nil
			default:
			}
			delay *= 2
		}
	}

	return errorc.With(ErrQueueFull, errorc.String("id", strconv.Itoa(item.id)))
}
