package events

import (
	"context"
	"sync"
)

// MemoryProcessedStore is an in-process dedup index used when no database is
// configured. Entries live for the life of the process.
type MemoryProcessedStore struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

func NewMemoryProcessedStore() *MemoryProcessedStore {
	return &MemoryProcessedStore{seen: make(map[string]struct{})}
}

func (s *MemoryProcessedStore) AlreadyProcessed(_ context.Context, channel, messageID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[channel+":"+messageID]
	return ok, nil
}

func (s *MemoryProcessedStore) MarkProcessed(_ context.Context, channel, messageID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := channel + ":" + messageID
	if _, ok := s.seen[key]; ok {
		return false, nil
	}
	s.seen[key] = struct{}{}
	return true, nil
}
