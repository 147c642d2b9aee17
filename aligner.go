package mapbatch

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/ygrebnov/errorc"

	"github.com/seqwork/mapbatch/metrics"
	"github.com/seqwork/mapbatch/pool"
)

// Aligner maps sequences against the reference loaded into its Engine. The
// zero worker count means batching is disabled: call EnableThreading before
// the first MapBatch. Methods are safe for concurrent use, but note that
// concurrent batches contend for the same fixed set of scratch buffers, and
// persistent-worker batches additionally serialize on the shared queues.
type Aligner struct {
	engine Engine
	config *config
	log    *slog.Logger
	ins    *instruments

	mu       sync.Mutex
	nWorkers int
	buffers  pool.Pool[Buffer]
	closed   bool

	// bufMu serializes whole-set buffer acquisition. Without it, two
	// ephemeral submissions could each hold part of the n-capacity pool and
	// block forever waiting for the remainder.
	bufMu sync.Mutex

	// persistent mode: aligner-owned queues, resident crew, round barrier,
	// and the drain signal of the most recent batch.
	work     chan workItem
	results  chan resultItem
	bar      *barrier
	crewWG   sync.WaitGroup
	prevDone chan struct{}

	closeOnce sync.Once
	closeErr  error
}

// instruments groups the metric instruments the pipeline records into.
type instruments struct {
	batches        metrics.Counter
	dispatched     metrics.Counter
	delivered      metrics.Counter
	engineFailures metrics.Counter
	queueRetries   metrics.Counter
	inflight       metrics.UpDownCounter
	batchDuration  metrics.Histogram
}

func newInstruments(p metrics.Provider) *instruments {
	return &instruments{
		batches:        p.Counter("mapbatch.batches", metrics.WithDescription("batches submitted")),
		dispatched:     p.Counter("mapbatch.records_dispatched", metrics.WithDescription("records queued for alignment")),
		delivered:      p.Counter("mapbatch.results_delivered", metrics.WithDescription("results delivered to callers")),
		engineFailures: p.Counter("mapbatch.engine_failures", metrics.WithDescription("records dropped due to engine errors")),
		queueRetries:   p.Counter("mapbatch.queue_full_retries", metrics.WithDescription("backoff retries against a full work queue")),
		inflight:       p.UpDownCounter("mapbatch.inflight", metrics.WithDescription("records dispatched but not yet delivered")),
		batchDuration:  p.Histogram("mapbatch.batch_duration_seconds", metrics.WithUnit("seconds")),
	}
}

// New creates an Aligner over the given engine.
func New(engine Engine, opts ...Option) (*Aligner, error) {
	if engine == nil {
		return nil, errorc.With(ErrInvalidConfig, errorc.String("reason", "New requires a non-nil engine"))
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	return &Aligner{
		engine: engine,
		config: &cfg,
		log:    cfg.Logger,
		ins:    newInstruments(cfg.Metrics),
	}, nil
}

// EnableThreading fixes the worker count for batch submissions and builds the
// scratch-buffer pool. With WithPersistentWorkers it also creates the shared
// queues and starts the resident crew. It can be called once; n must be > 0.
func (a *Aligner) EnableThreading(n int) error {
	if n <= 0 {
		return errorc.With(ErrInvalidConfig, errorc.String("reason", "EnableThreading requires n > 0"))
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return ErrClosed
	}
	if a.nWorkers > 0 {
		return errorc.With(ErrInvalidConfig, errorc.String("reason", "threading already enabled"))
	}

	a.buffers = pool.NewFixed(n, a.engine.NewBuffer)

	if a.config.PersistentWorkers {
		bufs, err := a.acquireBuffers(n)
		if err != nil {
			a.buffers = nil
			return err
		}
		a.work = make(chan workItem, a.config.WorkQueueSize)
		a.results = make(chan resultItem, a.config.ResultsQueueSize)
		a.bar = newBarrier(n)
		for _, buf := range bufs {
			w := &worker{
				engine:  a.engine,
				buf:     buf,
				work:    a.work,
				results: a.results,
				barrier: a.bar,
				log:     a.log,
				ins:     a.ins,
			}
			a.crewWG.Add(1)
			go func(b Buffer) {
				defer a.crewWG.Done()
				defer a.buffers.Put(b)
				w.run()
			}(buf)
		}
	}

	a.nWorkers = n
	return nil
}

// MapBatch submits a batch of records for alignment and returns the handle
// its results are pulled from. Accepted batch shapes: []Record, []any,
// iter.Seq[Record], or iter.Seq[any]; every element must be a Record carrying
// a string "seq" field.
//
// Dispatch runs on the calling goroutine. On a dispatch failure
// (ErrMalformedRecord, ErrMissingField, ErrQueueFull) the error is returned
// together with a non-nil Batch: records queued before the failure keep
// processing and remain consumable through it.
func (a *Aligner) MapBatch(batch any, opts ...BatchOption) (*Batch, error) {
	records, err := newRecordSeq(batch)
	if err != nil {
		return nil, err
	}

	var bcfg batchConfig
	for _, opt := range opts {
		if opt != nil {
			opt(&bcfg)
		}
	}

	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil, ErrClosed
	}
	n := a.nWorkers
	if n == 0 {
		a.mu.Unlock()
		return nil, ErrThreadingDisabled
	}

	persistent := a.config.PersistentWorkers
	workQ, resultsQ := a.work, a.results

	// Consecutive persistent batches share the work and results queues, so a
	// new batch may not start collecting before its predecessor has drained.
	var prev, drained chan struct{}
	if persistent {
		prev = a.prevDone
		drained = make(chan struct{})
		a.prevDone = drained
	}
	a.mu.Unlock()

	if prev != nil {
		<-prev
	}

	var bufs []Buffer
	if !persistent {
		workQ = make(chan workItem, a.config.WorkQueueSize)
		resultsQ = make(chan resultItem, a.config.ResultsQueueSize)
		bufs, err = a.acquireBuffers(n)
		if err != nil {
			return nil, err
		}
	}

	b := &Batch{
		id:      uuid.New(),
		pending: newPendingStore(),
		out:     make(chan resultItem, a.config.OutputBufferSize),
		stop:    make(chan struct{}),
		log:     a.log,
		ins:     a.ins,
	}
	b.setState(BatchDispatching)
	log := a.log.With("batch", b.id)

	a.ins.batches.Add(1)
	start := time.Now()

	coll := &collector{
		n:       n,
		results: resultsQ,
		out:     b.out,
		stop:    b.stop,
		ins:     a.ins,
		onDrained: func() {
			if b.casState(BatchDraining, BatchFinished) {
				log.Debug("batch finished", "duration", time.Since(start))
			}
		},
	}
	go func() {
		coll.run()
		a.ins.batchDuration.Record(time.Since(start).Seconds())
		if drained != nil {
			close(drained)
		}

		// Reconcile the in-flight gauge: results the iterator never pulled
		// from the output buffer stay undelivered once the batch has been
		// abandoned. The iterator's exit (or an explicit Stop) closes stop.
		<-b.stop
		for item := range b.out {
			if !item.finished {
				a.ins.inflight.Add(-1)
			}
		}
	}()

	if !persistent {
		for _, buf := range bufs {
			w := &worker{
				engine:  a.engine,
				buf:     buf,
				work:    workQ,
				results: resultsQ,
				log:     a.log,
				ins:     a.ins,
			}
			a.crewWG.Add(1)
			go func(bb Buffer) {
				defer a.crewWG.Done()
				defer a.buffers.Put(bb)
				w.run()
			}(buf)
		}
	}

	d := &dispatcher{
		work:    workQ,
		pending: b.pending,
		n:       n,
		backoff: bcfg.backoff,
		ins:     a.ins,
	}
	if err := d.run(b, records); err != nil {
		log.Warn("batch dispatch aborted", "error", err)
		return b, err
	}
	return b, nil
}

// Map aligns a single sequence, blocking. It uses a private scratch buffer
// and does not touch the batch pipeline.
func (a *Aligner) Map(seq string) ([]Mapping, error) {
	a.mu.Lock()
	closed := a.closed
	a.mu.Unlock()
	if closed {
		return nil, ErrClosed
	}

	buf, err := a.engine.NewBuffer()
	if err != nil {
		return nil, err
	}
	defer buf.Close()
	return a.engine.Align(buf, seq)
}

// Close stops the persistent crew (if any), waits for all workers to exit,
// and releases every scratch buffer the pool created. Submitted batches must
// be drained or abandoned first. Close is idempotent.
func (a *Aligner) Close() error {
	a.closeOnce.Do(func() {
		a.mu.Lock()
		a.closed = true
		work := a.work
		a.mu.Unlock()

		if work != nil {
			close(work)
		}
		a.crewWG.Wait()

		if a.buffers == nil {
			return
		}
		var errs []error
		for _, buf := range a.buffers.Drain() {
			if err := buf.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		a.closeErr = errors.Join(errs...)
	})
	return a.closeErr
}

// acquireBuffers takes n buffers from the pool, returning them all on any
// creation failure. Acquisition is atomic with respect to other callers: a
// caller gets its full set before the next one takes anything, so partial
// holders can never wait on each other. Callers must hold no buffers while
// acquiring.
func (a *Aligner) acquireBuffers(n int) ([]Buffer, error) {
	a.bufMu.Lock()
	defer a.bufMu.Unlock()

	bufs := make([]Buffer, 0, n)
	for range n {
		buf, err := a.buffers.Get()
		if err != nil {
			for _, b := range bufs {
				a.buffers.Put(b)
			}
			return nil, err
		}
		bufs = append(bufs, buf)
	}
	return bufs, nil
}
