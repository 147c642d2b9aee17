package metrics

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBasicProvider_InstrumentsAreReusedByName(t *testing.T) {
	p := NewBasicProvider()

	c := p.Counter("x", WithDescription("first"))
	c.Add(2)
	p.Counter("x").Add(3)
	require.Equal(t, int64(5), p.CounterValue("x"), "same name, same instrument")

	u := p.UpDownCounter("y")
	u.Add(4)
	u.Add(-1)
	require.Equal(t, int64(3), p.CounterValue("y"))

	require.Equal(t, int64(0), p.CounterValue("never-created"))
}

func TestBasicHistogram_Snapshot(t *testing.T) {
	p := NewBasicProvider()
	h := p.Histogram("d", WithUnit("seconds")).(*BasicHistogram)

	require.Equal(t, HistSnapshot{}, h.Snapshot())

	h.Record(2.5)
	h.Record(0.5)
	h.Record(4.0)
	snap := h.Snapshot()
	require.Equal(t, int64(3), snap.Count)
	require.InDelta(t, 7.0, snap.Sum, 1e-9)
	require.InDelta(t, 0.5, snap.Min, 1e-9)
	require.InDelta(t, 4.0, snap.Max, 1e-9)
}

func TestBasicProvider_ConcurrentUse(t *testing.T) {
	p := NewBasicProvider()
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 1000 {
				p.Counter("hits").Add(1)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int64(8000), p.CounterValue("hits"))
}

func TestNoopProvider(t *testing.T) {
	p := NewNoopProvider()
	require.NotPanics(t, func() {
		p.Counter("a").Add(1)
		p.UpDownCounter("b").Add(-1)
		p.Histogram("c").Record(0.1)
	})
}
