package mapbatch

// collector is the single consumer of a batch's results queue. It forwards
// results to the bounded output channel, counts worker termination tokens,
// and emits one finished marker when all n workers have reported done.
//
// When the caller abandons the batch (stop closes), the collector stops
// forwarding but keeps draining the results queue until every worker has
// terminated, so a worker can never stay blocked on a full results queue
// behind an absent consumer.
type collector struct {
	n       int
	results <-chan resultItem
	out     chan<- resultItem
	stop    <-chan struct{}

	// onDrained, when set, runs after the nth done token and before the
	// finished marker is emitted, so the batch is already in its terminal
	// state when the consumer sees the marker.
	onDrained func()

	ins *instruments
}

// run loops until n done tokens have been observed, then closes the output
// channel. The results channel itself is never closed here: in persistent
// mode it outlives the batch.
func (c *collector) run() {
	defer close(c.out)

	forwarding := true
	finished := 0
	for {
		item := <-c.results

		if item.done {
			finished++
			if finished < c.n {
				continue
			}
			if c.onDrained != nil {
				c.onDrained()
			}
			if forwarding {
				select {
				case c.out <- resultItem{finished: true}:
				case <-c.stop:
				}
			}
			return
		}

		if !forwarding {
			c.ins.inflight.Add(-1)
			continue
		}
		select {
		case c.out <- item:
		case <-c.stop:
			forwarding = false
			c.ins.inflight.Add(-1)
		}
	}
}
