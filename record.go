package mapbatch

import (
	"iter"

	"github.com/ygrebnov/errorc"
)

// Record is one input to a batch: a string-keyed mapping that must carry the
// sequence to align under the "seq" key. Every other key is opaque metadata
// returned verbatim alongside the record's mappings.
type Record = map[string]any

// seqField extracts the sequence payload from a record.
func seqField(rec Record) (string, error) {
	v, ok := rec["seq"]
	if !ok {
		return "", ErrMissingField
	}
	s, ok := v.(string)
	if !ok {
		return "", errorc.With(ErrMalformedRecord, errorc.String("field", `"seq" must be a string`))
	}
	return s, nil
}

// asRecord reports whether a batch element is record-like.
func asRecord(v any) (Record, bool) {
	rec, ok := v.(Record)
	return rec, ok
}

// newRecordSeq converts supported batch shapes into a lazy record sequence.
// Element validation happens during dispatch, not here.
func newRecordSeq(batch any) (iter.Seq[any], error) {
	switch typed := batch.(type) {
	case iter.Seq[any]:
		return typed, nil

	case iter.Seq[Record]:
		return func(yield func(any) bool) {
			for rec := range typed {
				if !yield(rec) {
					return
				}
			}
		}, nil

	case []Record:
		return func(yield func(any) bool) {
			for _, rec := range typed {
				if !yield(rec) {
					return
				}
			}
		}, nil

	case []any:
		return func(yield func(any) bool) {
			for _, v := range typed {
				if !yield(v) {
					return
				}
			}
		}, nil

	default:
		return nil, ErrUnsupportedBatch
	}
}
