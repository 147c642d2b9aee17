package mapbatch

import "sync"

// barrier is a reusable synchronization point for n goroutines. Persistent
// workers await on it after handling a batch's termination sentinel, so a
// fast worker cannot start pulling the next batch's items while a slow peer
// is still finishing the current round.
type barrier struct {
	mu         sync.Mutex
	cond       *sync.Cond
	n          int
	arrived    int
	generation int
}

func newBarrier(n int) *barrier {
	b := &barrier{n: n}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// await blocks until n goroutines have called it, then releases them all and
// resets for the next round.
func (b *barrier) await() {
	b.mu.Lock()
	defer b.mu.Unlock()

	gen := b.generation
	b.arrived++
	if b.arrived == b.n {
		b.arrived = 0
		b.generation++
		b.cond.Broadcast()
		return
	}
	for gen == b.generation {
		b.cond.Wait()
	}
}
