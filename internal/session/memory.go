package session

import (
	"context"
	"sync"
)

// MemoryStore is the in-memory adapter for tests and development.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]Record
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

var _ Store = (*MemoryStore)(nil)

func (s *MemoryStore) Create(_ context.Context, idHash string, record Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[idHash] = record
	return nil
}

func (s *MemoryStore) Get(_ context.Context, idHash string) (Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[idHash]
	if !ok {
		return Record{}, ErrSessionNotFound
	}
	return record, nil
}

func (s *MemoryStore) Delete(_ context.Context, idHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.records, idHash)
	return nil
}

// Len reports how many records are held, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
