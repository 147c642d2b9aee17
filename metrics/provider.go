// Package metrics defines the instruments the alignment pipeline records
// into, with a no-op default and a basic in-memory implementation.
package metrics

// Provider constructs instruments by name. Implementations must be safe for
// concurrent use; asking twice for the same name must return the same
// instrument.
type Provider interface {
	Counter(name string, opts ...InstrumentOption) Counter
	UpDownCounter(name string, opts ...InstrumentOption) UpDownCounter
	Histogram(name string, opts ...InstrumentOption) Histogram
}

// Counter records monotonic counts (records dispatched, engine failures).
type Counter interface {
	Add(n int64)
}

// UpDownCounter records values that move both ways (in-flight records).
type UpDownCounter interface {
	Add(n int64)
}

// Histogram records a distribution of measurements (batch durations).
type Histogram interface {
	Record(v float64)
}

// InstrumentConfig carries advisory instrument metadata.
type InstrumentConfig struct {
	Description string
	Unit        string
}

// InstrumentOption mutates InstrumentConfig.
type InstrumentOption func(*InstrumentConfig)

// WithDescription sets an advisory description for the instrument.
func WithDescription(desc string) InstrumentOption {
	return func(c *InstrumentConfig) { c.Description = desc }
}

// WithUnit sets an advisory unit for the instrument (e.g. "1", "seconds").
func WithUnit(unit string) InstrumentOption {
	return func(c *InstrumentConfig) { c.Unit = unit }
}
