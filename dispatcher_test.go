package mapbatch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/seqwork/mapbatch/metrics"
)

func noopInstruments() *instruments {
	return newInstruments(metrics.NewNoopProvider())
}

func TestDispatcher_SequentialIdsAndSentinels(t *testing.T) {
	work := make(chan workItem, 64)
	pending := newPendingStore()
	d := &dispatcher{work: work, pending: pending, n: 2, ins: noopInstruments()}

	b := &Batch{}
	records, err := newRecordSeq(testRecords(5))
	require.NoError(t, err)
	require.NoError(t, d.run(b, records))
	require.Equal(t, BatchDraining, b.State())
	require.Equal(t, 5, pending.size(), "metadata inserted for every dispatched id")

	for id := range 5 {
		item := <-work
		require.False(t, item.done)
		require.Equal(t, id, item.id, "ids are assigned in input order")
		require.NotEmpty(t, item.seq)
	}
	for range 2 {
		item := <-work
		require.True(t, item.done, "one sentinel per worker after the last record")
	}
	require.Empty(t, work)
}

func TestDispatcher_SentinelsFollowAbort(t *testing.T) {
	work := make(chan workItem, 64)
	d := &dispatcher{work: work, pending: newPendingStore(), n: 3, ins: noopInstruments()}

	b := &Batch{}
	records, err := newRecordSeq([]any{
		Record{"seq": "ACGT"},
		"bogus",
		Record{"seq": "TTTT"},
	})
	require.NoError(t, err)
	require.ErrorIs(t, d.run(b, records), ErrMalformedRecord)
	require.Equal(t, BatchAborted, b.State())

	item := <-work
	require.False(t, item.done)
	require.Equal(t, 0, item.id)
	for range 3 {
		item := <-work
		require.True(t, item.done, "sentinels are queued even after an abort")
	}
	require.Empty(t, work)
}

func TestDispatcher_MetadataInsertedBeforePush(t *testing.T) {
	work := make(chan workItem, 1)
	pending := newPendingStore()
	d := &dispatcher{work: work, pending: pending, n: 0, ins: noopInstruments()}

	// A reader that checks the store the moment an item becomes visible.
	observed := make(chan int, 1)
	go func() {
		item := <-work
		observed <- pending.size()
		_ = item
	}()

	records, err := newRecordSeq(testRecords(1))
	require.NoError(t, err)
	require.NoError(t, d.run(&Batch{}, records))
	require.Equal(t, 1, <-observed, "metadata must be stored before the matching push")
}

func TestDispatcher_PushFailFast(t *testing.T) {
	work := make(chan workItem, 1)
	work <- workItem{id: 0, seq: "ACGT"} // saturate
	d := &dispatcher{work: work, n: 1, backoff: false, ins: noopInstruments()}

	start := time.Now()
	err := d.push(workItem{id: 7, seq: "ACGT"})
	require.ErrorIs(t, err, ErrQueueFull)
	require.Less(t, time.Since(start), 40*time.Millisecond, "fail-fast must not sleep")
	require.Contains(t, err.Error(), "7", "the error names the offending id")
}

func TestDispatcher_PushBackoffRecovers(t *testing.T) {
	work := make(chan workItem, 1)
	work <- workItem{id: 0, seq: "ACGT"}

	p := metrics.NewBasicProvider()
	d := &dispatcher{work: work, n: 1, backoff: true, ins: newInstruments(p)}

	// Free one slot midway through the retry window.
	go func() {
		time.Sleep(120 * time.Millisecond)
		<-work
	}()

	start := time.Now()
	require.NoError(t, d.push(workItem{id: 1, seq: "TTTT"}))
	require.GreaterOrEqual(t, time.Since(start), 100*time.Millisecond)
	require.GreaterOrEqual(t, p.CounterValue("mapbatch.queue_full_retries"), int64(2))
}

func TestDispatcher_PushBackoffExhausted(t *testing.T) {
	work := make(chan workItem, 1)
	work <- workItem{id: 0, seq: "ACGT"} // never drained
	d := &dispatcher{work: work, n: 1, backoff: true, ins: noopInstruments()}

	start := time.Now()
	err := d.push(workItem{id: 3, seq: "TTTT"})
	require.ErrorIs(t, err, ErrQueueFull)
	// 50+100+200+400+800+1600 ms of retries before giving up.
	require.GreaterOrEqual(t, time.Since(start), 3*time.Second)
}
