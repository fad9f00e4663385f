// Package session stores per-sender intake dialogue state.
//
// A session tracks the sender's current stage, the language pinned for the
// conversation, and the answer fields collected so far. Backends are
// pluggable: an in-process map for single-instance deployments and Redis for
// multi-instance ones. Expiry is evaluated lazily on read; an absent or
// expired session is indistinguishable from a fresh one.
package session

import (
	"context"
	"time"
)

// DefaultTTL is how long an idle conversation survives before it is treated
// as fresh again.
const DefaultTTL = 24 * time.Hour

// Session is the mutable dialogue state for one sender address.
// A Session with an empty Stage is fresh; the dialogue engine maps it to
// its initial stage.
type Session struct {
	SenderID  string            `json:"sender_id"`
	Stage     string            `json:"stage"`
	Language  string            `json:"language,omitempty"`
	Fields    map[string]string `json:"fields,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// New returns a fresh session for a sender.
func New(senderID string) *Session {
	now := time.Now().UTC()
	return &Session{
		SenderID:  senderID,
		Fields:    make(map[string]string),
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// SetField merges one collected answer into the session.
func (s *Session) SetField(name, value string) {
	if s.Fields == nil {
		s.Fields = make(map[string]string)
	}
	s.Fields[name] = value
}

// Store persists sessions keyed by sender address.
//
// Get returns a fresh session when none exists or the stored one expired.
// Put overwrites and resets the expiry clock to now+ttl (ttl <= 0 uses the
// store default). Callers must serialize operations per sender; operations
// on different senders are independent.
type Store interface {
	Get(ctx context.Context, senderID string) (*Session, error)
	Put(ctx context.Context, senderID string, sess *Session, ttl time.Duration) error
	RecordField(ctx context.Context, senderID, name, value string) error
	Delete(ctx context.Context, senderID string) error
}
