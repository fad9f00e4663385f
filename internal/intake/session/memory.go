package session

import (
	"context"
	"sync"
	"time"
)

// defaultMaxEntries bounds the in-memory store so abandoned conversations
// cannot accumulate ahead of their TTL.
const defaultMaxEntries = 10000

type memoryEntry struct {
	sess      *Session
	expiresAt time.Time
}

// MemoryStore is a process-local Store for single-instance deployments.
type MemoryStore struct {
	mu         sync.RWMutex
	entries    map[string]memoryEntry
	defaultTTL time.Duration
	maxEntries int
	now        func() time.Time
}

// MemoryOption customizes a MemoryStore.
type MemoryOption func(*MemoryStore)

// WithMemoryTTL overrides the default session TTL.
func WithMemoryTTL(ttl time.Duration) MemoryOption {
	return func(s *MemoryStore) {
		if ttl > 0 {
			s.defaultTTL = ttl
		}
	}
}

// WithMaxEntries bounds how many sessions the store keeps before it sweeps
// expired entries on write.
func WithMaxEntries(n int) MemoryOption {
	return func(s *MemoryStore) {
		if n > 0 {
			s.maxEntries = n
		}
	}
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) MemoryOption {
	return func(s *MemoryStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewMemoryStore creates an in-memory session store.
func NewMemoryStore(opts ...MemoryOption) *MemoryStore {
	s := &MemoryStore{
		entries:    make(map[string]memoryEntry),
		defaultTTL: DefaultTTL,
		maxEntries: defaultMaxEntries,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the stored session, or a fresh one when absent or expired.
func (s *MemoryStore) Get(ctx context.Context, senderID string) (*Session, error) {
	s.mu.RLock()
	entry, ok := s.entries[senderID]
	s.mu.RUnlock()

	if !ok || s.now().After(entry.expiresAt) {
		return New(senderID), nil
	}
	return cloneSession(entry.sess), nil
}

// Put overwrites the session and resets the expiry clock.
func (s *MemoryStore) Put(ctx context.Context, senderID string, sess *Session, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	stored := cloneSession(sess)
	stored.SenderID = senderID
	stored.UpdatedAt = s.now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.entries) >= s.maxEntries {
		s.sweepLocked()
	}
	s.entries[senderID] = memoryEntry{sess: stored, expiresAt: s.now().Add(ttl)}
	return nil
}

// RecordField merges one collected answer without resetting other state.
func (s *MemoryStore) RecordField(ctx context.Context, senderID, name, value string) error {
	sess, err := s.Get(ctx, senderID)
	if err != nil {
		return err
	}
	sess.SetField(name, value)
	return s.Put(ctx, senderID, sess, 0)
}

// Delete removes the session, if any.
func (s *MemoryStore) Delete(ctx context.Context, senderID string) error {
	s.mu.Lock()
	delete(s.entries, senderID)
	s.mu.Unlock()
	return nil
}

// sweepLocked drops expired entries. Caller holds the write lock.
func (s *MemoryStore) sweepLocked() {
	now := s.now()
	for key, entry := range s.entries {
		if now.After(entry.expiresAt) {
			delete(s.entries, key)
		}
	}
}

func cloneSession(sess *Session) *Session {
	if sess == nil {
		return nil
	}
	out := *sess
	out.Fields = make(map[string]string, len(sess.Fields))
	for k, v := range sess.Fields {
		out.Fields[k] = v
	}
	return &out
}
