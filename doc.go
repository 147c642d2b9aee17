// Package mapbatch runs a black-box sequence aligner over batches of records
// using a fixed pool of workers, correlating each out-of-order result back to
// the metadata of the record that produced it.
//
// Usage
//
//	a, err := mapbatch.New(engine)
//	...
//	err = a.EnableThreading(8)
//	...
//	batch, err := a.MapBatch(records)
//	...
//	for mappings, meta := range batch.Results() {
//		// mappings belong to the record whose metadata is meta;
//		// results arrive in completion order, not submission order.
//	}
//
// Defaults
// Unless overridden via options, a newly created Aligner uses:
//   - WorkQueueSize: 50000
//   - ResultsQueueSize: 20000
//   - OutputBufferSize: 20000
//   - ephemeral workers (a fresh set of goroutines per batch)
//   - slog.Default() for logging, no-op metrics
//
// Batch lifecycle
// MapBatch dispatches the whole batch on the calling goroutine and returns a
// Batch handle once every record and one termination sentinel per worker have
// been queued. Dispatch-time errors (a malformed record, a missing "seq"
// field, or a saturated work queue) are returned from MapBatch itself; records
// queued before the failure are still processed and remain consumable through
// the returned Batch. Results are pulled through Batch.Results, a single-pass
// sequence that ends when the batch has fully drained. Breaking out of the
// loop abandons the batch: the pipeline keeps draining internally so that no
// worker is left blocked, but no further results are delivered.
//
// Workers
// The worker count is fixed by EnableThreading before the first submission.
// Each worker owns an exclusive scratch Buffer obtained from the engine; the
// buffer is never shared and is returned on every exit path. With
// WithPersistentWorkers the goroutines are started once and reused across
// batches, synchronizing on a barrier between batch rounds.
package mapbatch
