package mapbatch

import "errors"

const Namespace = "mapbatch"

var (
	ErrThreadingDisabled = errors.New(
		Namespace + ": multithreading not enabled on this aligner, call EnableThreading first",
	)
	ErrInvalidConfig = errors.New(Namespace + ": invalid configuration")
	ErrUnsupportedBatch = errors.New(
		Namespace + ": unsupported batch type, pass a record slice or sequence",
	)
	ErrMalformedRecord = errors.New(Namespace + ": batch element is not a record")
	ErrMissingField    = errors.New(Namespace + `: record is missing the "seq" field`)
	ErrQueueFull       = errors.New(Namespace + ": work queue is full")
	ErrClosed          = errors.New(Namespace + ": aligner is closed")
)
