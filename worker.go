package mapbatch

import "log/slog"

// worker pulls items from the work queue and runs the engine over them. Each
// worker owns buf exclusively; the buffer is never shared with a peer.
//
// Receiving a termination sentinel makes the worker echo it to the results
// queue. An ephemeral worker (nil barrier) then returns; a persistent worker
// waits on the barrier until every peer has echoed its sentinel, preventing
// it from starting the next batch's items while a peer is still draining the
// current batch.
type worker struct {
	engine  Engine
	buf     Buffer
	work    <-chan workItem
	results chan<- resultItem
	barrier *barrier
	log     *slog.Logger
	ins     *instruments
}

func (w *worker) run() {
	for item := range w.work {
		if item.done {
			w.results <- resultItem{done: true}
			if w.barrier == nil {
				return
			}
			w.barrier.await()
			continue
		}

		mappings, err := w.engine.Align(w.buf, item.seq)
		if err != nil {
			// Accepted gap: no result ever carries this id. The caller
			// observes the batch ending short of the submitted count.
			w.ins.engineFailures.Add(1)
			w.ins.inflight.Add(-1)
			w.log.Error("failed to map sequence", "id", item.id, "error", err)
			continue
		}
		w.results <- resultItem{id: item.id, mappings: mappings}
	}
}
