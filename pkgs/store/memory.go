package store

import "sync"

// MemoryStore is an in-process AppendStore used by tests and by guardian
// nodes running without a data directory.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string][]*Entry
}

// NewMemoryStore builds an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]*Entry)}
}

func (s *MemoryStore) Insert(kind string, data []byte) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry := &Entry{
		Seq:  uint64(len(s.entries[kind]) + 1),
		Kind: kind,
		Data: append([]byte(nil), data...),
	}
	s.entries[kind] = append(s.entries[kind], entry)
	return entry, nil
}

func (s *MemoryStore) GetLatest(kind string) (*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.entries[kind]
	if len(list) == 0 {
		return nil, ErrNotFound
	}
	return list[len(list)-1], nil
}

func (s *MemoryStore) Range(kind string, from, to uint64) ([]*Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list := s.entries[kind]
	if from == 0 {
		from = 1
	}
	if to == 0 || to > uint64(len(list)) {
		to = uint64(len(list))
	}
	if from > to {
		return nil, nil
	}
	out := make([]*Entry, 0, to-from+1)
	for _, e := range list[from-1 : to] {
		out = append(out, e)
	}
	return out, nil
}

func (s *MemoryStore) Close() error { return nil }
