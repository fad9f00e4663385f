package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// RedisStore is a Store backed by Redis, for multi-instance deployments.
// Expiry rides on the Redis key TTL, so reads never observe a stale session.
type RedisStore struct {
	redis      *redis.Client
	defaultTTL time.Duration
	tracer     trace.Tracer
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client *redis.Client, defaultTTL time.Duration, tracer trace.Tracer) *RedisStore {
	if client == nil {
		panic("session: redis client cannot be nil")
	}
	if defaultTTL <= 0 {
		defaultTTL = DefaultTTL
	}
	if tracer == nil {
		tracer = otel.Tracer("intake.internal.session")
	}
	return &RedisStore{
		redis:      client,
		defaultTTL: defaultTTL,
		tracer:     tracer,
	}
}

// Get returns the stored session, or a fresh one when the key is gone.
func (s *RedisStore) Get(ctx context.Context, senderID string) (*Session, error) {
	ctx, span := s.tracer.Start(ctx, "session.get")
	defer span.End()

	data, err := s.redis.Get(ctx, sessionKey(senderID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return New(senderID), nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("session: failed to load session: %w", err)
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("session: failed to decode session: %w", err)
	}
	if sess.Fields == nil {
		sess.Fields = make(map[string]string)
	}
	return &sess, nil
}

// Put overwrites the session and resets the key TTL.
func (s *RedisStore) Put(ctx context.Context, senderID string, sess *Session, ttl time.Duration) error {
	ctx, span := s.tracer.Start(ctx, "session.put")
	defer span.End()

	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	sess.SenderID = senderID
	sess.UpdatedAt = time.Now().UTC()

	data, err := json.Marshal(sess)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to marshal session: %w", err)
	}
	if err := s.redis.Set(ctx, sessionKey(senderID), data, ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to persist session: %w", err)
	}
	return nil
}

// RecordField merges one collected answer into the stored session.
func (s *RedisStore) RecordField(ctx context.Context, senderID, name, value string) error {
	sess, err := s.Get(ctx, senderID)
	if err != nil {
		return err
	}
	sess.SetField(name, value)
	return s.Put(ctx, senderID, sess, 0)
}

// Delete removes the session key.
func (s *RedisStore) Delete(ctx context.Context, senderID string) error {
	ctx, span := s.tracer.Start(ctx, "session.delete")
	defer span.End()

	if err := s.redis.Del(ctx, sessionKey(senderID)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to delete session: %w", err)
	}
	return nil
}

func sessionKey(senderID string) string {
	return fmt.Sprintf("intake:session:%s", senderID)
}
