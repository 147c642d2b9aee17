package mapbatch

import "sync"

// pendingStore maps correlation ids to the metadata of records whose results
// have not yet been delivered. Ids are assigned sequentially from zero, so
// the store is an arena indexed by id rather than a general map. The
// dispatcher inserts, the result iterator removes; the two never touch the
// same id concurrently, but access is serialized regardless.
type pendingStore struct {
	mu      sync.Mutex
	entries []pendingEntry
	n       int
}

type pendingEntry struct {
	meta    Record
	present bool
}

func newPendingStore() *pendingStore {
	return &pendingStore{}
}

// put records metadata for id. Ids must arrive in increasing order.
func (s *pendingStore) put(id int, meta Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for len(s.entries) <= id {
		s.entries = append(s.entries, pendingEntry{})
	}
	s.entries[id] = pendingEntry{meta: meta, present: true}
	s.n++
}

// take removes and returns the metadata for id.
func (s *pendingStore) take(id int) (Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id < 0 || id >= len(s.entries) || !s.entries[id].present {
		return nil, false
	}
	meta := s.entries[id].meta
	s.entries[id] = pendingEntry{}
	s.n--
	return meta, true
}

// size returns the number of undelivered entries.
func (s *pendingStore) size() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.n
}
