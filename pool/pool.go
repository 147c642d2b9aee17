// Package pool provides a fixed-capacity pool of reusable resources, used by
// the aligner to bound and recycle engine scratch buffers.
package pool

import "sync"

// Pool hands out at most capacity elements, creating them lazily. An element
// obtained from Get is exclusively owned until it is Put back.
type Pool[T any] interface {
	// Get returns an element from the pool, creating one if the pool has
	// not reached capacity yet. It blocks while all elements are in use.
	Get() (T, error)

	// Put returns an element to the pool.
	Put(T)

	// Drain empties the pool and returns every element created so far.
	// The pool must be idle: no element may be held by a Get caller.
	Drain() []T
}

type fixed[T any] struct {
	mu        sync.Mutex
	created   []T
	capacity  int
	available chan T
	newFn     func() (T, error)
}

// NewFixed creates a pool of at most capacity elements constructed by newFn.
func NewFixed[T any](capacity int, newFn func() (T, error)) Pool[T] {
	return &fixed[T]{
		capacity:  capacity,
		available: make(chan T, capacity),
		newFn:     newFn,
	}
}

func (p *fixed[T]) Get() (T, error) {
	select {
	case el := <-p.available:
		return el, nil
	default:
	}

	p.mu.Lock()
	if len(p.created) < p.capacity {
		el, err := p.newFn()
		if err != nil {
			p.mu.Unlock()
			var zero T
			return zero, err
		}
		p.created = append(p.created, el)
		p.mu.Unlock()
		return el, nil
	}
	p.mu.Unlock()

	return <-p.available, nil
}

func (p *fixed[T]) Put(el T) {
	p.available <- el
}

func (p *fixed[T]) Drain() []T {
	p.mu.Lock()
	defer p.mu.Unlock()
	els := p.created
	p.created = nil
	for {
		select {
		case <-p.available:
		default:
			return els
		}
	}
}
