package mapbatch

// Engine computes alignments of a query sequence against a loaded reference.
// Implementations must be safe for concurrent Align calls provided each
// caller supplies its own Buffer.
type Engine interface {
	// NewBuffer allocates a scratch resource used by Align. A Buffer must
	// not be shared between concurrent Align calls.
	NewBuffer() (Buffer, error)

	// Align maps seq against the reference using buf as scratch space and
	// returns the alignments in order. An error covers this sequence only.
	Align(buf Buffer, seq string) ([]Mapping, error)
}

// Buffer is an engine-owned scratch resource. Close releases it.
type Buffer interface {
	Close() error
}
