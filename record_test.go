package mapbatch

import (
	"iter"
	"slices"
	"testing"

	"github.com/stretchr/testify/require"
)

func collectSeq(t *testing.T, batch any) []any {
	t.Helper()
	seq, err := newRecordSeq(batch)
	require.NoError(t, err)
	return slices.Collect(seq)
}

func TestNewRecordSeq_SupportedShapes(t *testing.T) {
	recs := []Record{{"seq": "AC"}, {"seq": "GT"}}

	require.Len(t, collectSeq(t, recs), 2)
	require.Len(t, collectSeq(t, []any{recs[0], recs[1]}), 2)

	asAny := iter.Seq[any](func(yield func(any) bool) {
		for _, r := range recs {
			if !yield(r) {
				return
			}
		}
	})
	require.Len(t, collectSeq(t, asAny), 2)

	asRecords := iter.Seq[Record](slices.Values(recs))
	got := collectSeq(t, asRecords)
	require.Len(t, got, 2)
	require.Equal(t, recs[0], got[0])
}

func TestNewRecordSeq_Unsupported(t *testing.T) {
	for _, batch := range []any{nil, 42, "ACGT", []string{"ACGT"}} {
		_, err := newRecordSeq(batch)
		require.ErrorIs(t, err, ErrUnsupportedBatch, "batch %T", batch)
	}
}

func TestNewRecordSeq_Lazy(t *testing.T) {
	yielded := 0
	src := iter.Seq[Record](func(yield func(Record) bool) {
		for {
			yielded++
			if !yield(Record{"seq": "AC"}) {
				return
			}
		}
	})

	seq, err := newRecordSeq(src)
	require.NoError(t, err)
	for range seq {
		if yielded == 3 {
			break
		}
	}
	require.Equal(t, 3, yielded, "an infinite source must be consumed lazily")
}

func TestSeqField(t *testing.T) {
	s, err := seqField(Record{"seq": "ACGT", "channel": 1})
	require.NoError(t, err)
	require.Equal(t, "ACGT", s)

	_, err = seqField(Record{"channel": 1})
	require.ErrorIs(t, err, ErrMissingField)

	_, err = seqField(Record{"seq": 1234})
	require.ErrorIs(t, err, ErrMalformedRecord)
}
