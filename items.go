package mapbatch

// workItem travels from the dispatcher to a worker. A done item is a
// termination sentinel: exactly one per worker is queued at the end of
// dispatch, and a worker that receives one stops pulling work for the batch.
type workItem struct {
	id   int
	seq  string
	done bool
}

// resultItem travels from a worker to the collector and, when forwarded, to
// the result iterator. A done item echoes a worker's termination; finished is
// emitted once by the collector when all workers have reported done.
type resultItem struct {
	id       int
	mappings []Mapping
	done     bool
	finished bool
}
