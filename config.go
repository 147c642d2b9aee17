package mapbatch

import (
	"log/slog"

	"github.com/ygrebnov/errorc"

	"github.com/seqwork/mapbatch/metrics"
)

// config holds Aligner configuration.
type config struct {
	// WorkQueueSize bounds the queue of records waiting for a worker.
	// Default: 50000.
	WorkQueueSize int

	// ResultsQueueSize bounds the queue between workers and the collector.
	// Default: 20000.
	ResultsQueueSize int

	// OutputBufferSize bounds the per-batch output channel consumed by the
	// result iterator. Its saturation is what ultimately throttles dispatch.
	// Default: 20000.
	OutputBufferSize int

	// PersistentWorkers keeps worker goroutines resident across batches
	// instead of spawning a fresh set per batch.
	// Default: false.
	PersistentWorkers bool

	// Logger receives per-item engine failures and batch lifecycle events.
	// Default: slog.Default().
	Logger *slog.Logger

	// Metrics provides the instruments the aligner records into.
	// Default: metrics.NewNoopProvider().
	Metrics metrics.Provider
}

const (
	defaultWorkQueueSize    = 50000
	defaultResultsQueueSize = 20000
	defaultOutputBufferSize = 20000
)

// defaultConfig centralizes default values for config.
func defaultConfig() config {
	return config{
		WorkQueueSize:     defaultWorkQueueSize,
		ResultsQueueSize:  defaultResultsQueueSize,
		OutputBufferSize:  defaultOutputBufferSize,
		PersistentWorkers: false,
		Logger:            slog.Default(),
		Metrics:           metrics.NewNoopProvider(),
	}
}

// Option configures an Aligner. Use New(engine, opts...) to apply options.
type Option func(*config) error

// WithWorkQueueSize sets the capacity of the work queue (must be > 0).
func WithWorkQueueSize(n int) Option {
	return func(cfg *config) error {
		if n <= 0 {
			return errorc.With(ErrInvalidConfig, errorc.String("reason", "WithWorkQueueSize requires n > 0"))
		}
		cfg.WorkQueueSize = n
		return nil
	}
}

// WithResultsQueueSize sets the capacity of the results queue (must be > 0).
func WithResultsQueueSize(n int) Option {
	return func(cfg *config) error {
		if n <= 0 {
			return errorc.With(ErrInvalidConfig, errorc.String("reason", "WithResultsQueueSize requires n > 0"))
		}
		cfg.ResultsQueueSize = n
		return nil
	}
}

// WithOutputBuffer sets the capacity of the per-batch output channel (must be > 0).
func WithOutputBuffer(n int) Option {
	return func(cfg *config) error {
		if n <= 0 {
			return errorc.With(ErrInvalidConfig, errorc.String("reason", "WithOutputBuffer requires n > 0"))
		}
		cfg.OutputBufferSize = n
		return nil
	}
}

// WithPersistentWorkers keeps the worker goroutines resident across batches.
// Workers are started by EnableThreading and stopped by Close.
func WithPersistentWorkers() Option {
	return func(cfg *config) error { cfg.PersistentWorkers = true; return nil }
}

// WithLogger sets the logger used for engine failures and batch events.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *config) error {
		if l == nil {
			return errorc.With(ErrInvalidConfig, errorc.String("reason", "WithLogger requires a non-nil logger"))
		}
		cfg.Logger = l
		return nil
	}
}

// WithMetrics sets the metrics provider.
func WithMetrics(p metrics.Provider) Option {
	return func(cfg *config) error {
		if p == nil {
			return errorc.With(ErrInvalidConfig, errorc.String("reason", "WithMetrics requires a non-nil provider"))
		}
		cfg.Metrics = p
		return nil
	}
}
