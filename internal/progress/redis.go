package progress

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"backoffice-server/internal/observability"

	"github.com/redis/go-redis/v9"
)

const (
	redisKeyPrefix = "progress:session:"
	// liveTTL bounds sessions whose job dies before reaching a terminal
	// state, so abandoned keys cannot accumulate.
	liveTTL      = time.Hour
	pollInterval = 500 * time.Millisecond
	// updateRetries bounds the optimistic-transaction retry loop. A session
	// has a handful of writers (the job goroutine plus email callbacks), so
	// contention on a single key stays far below this.
	updateRetries = 16
)

// RedisStore keeps sessions in Redis so progress survives a process restart
// and can be read by any instance. A session is written concurrently by the
// job goroutine and by email delivery callbacks, so updates run as WATCH'd
// optimistic transactions and retry on conflict.
//
// Subscriptions are backed by an internal poll loop, which keeps the
// streaming transports working unchanged against this store.
type RedisStore struct {
	client    *redis.Client
	retention time.Duration
	logger    *observability.Logger
}

// NewRedisStore creates a Redis-backed session store.
func NewRedisStore(client *redis.Client, retention time.Duration, logger *observability.Logger) *RedisStore {
	if retention <= 0 {
		retention = 5 * time.Minute
	}
	return &RedisStore{
		client:    client,
		retention: retention,
		logger:    logger,
	}
}

func redisKey(sessionID string) string {
	return redisKeyPrefix + sessionID
}

// Create registers a new session.
func (s *RedisStore) Create(ctx context.Context, sessionID string, total int) (Snapshot, error) {
	snap := Snapshot{
		SessionID: sessionID,
		Total:     total,
		Type:      TypeProgress,
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to marshal session: %w", err)
	}

	ok, err := s.client.SetNX(ctx, redisKey(sessionID), data, liveTTL).Result()
	if err != nil {
		s.logger.Error(ctx, "failed to create session in redis", err)
		return Snapshot{}, fmt.Errorf("failed to create session: %w", err)
	}
	if !ok {
		return Snapshot{}, ErrSessionExists
	}
	return snap, nil
}

// Update applies mutate to the stored snapshot and writes it back. The
// read-modify-write runs under WATCH so a concurrent writer aborts the
// transaction instead of being overwritten; aborted attempts re-read and
// retry, which keeps every counter increment and preserves monotonicity.
// Terminal snapshots get the bounded retention TTL instead of the live TTL.
func (s *RedisStore) Update(ctx context.Context, sessionID string, mutate func(*Snapshot)) (Snapshot, error) {
	key := redisKey(sessionID)
	var next Snapshot

	txn := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return ErrSessionNotFound
			}
			return fmt.Errorf("failed to get session: %w", err)
		}

		var prev Snapshot
		if err := json.Unmarshal(data, &prev); err != nil {
			return fmt.Errorf("failed to unmarshal session: %w", err)
		}

		next = prev
		mutate(&next)
		normalize(&next, &prev)

		out, err := json.Marshal(next)
		if err != nil {
			return fmt.Errorf("failed to marshal session: %w", err)
		}

		ttl := liveTTL
		if next.Terminal() {
			ttl = s.retention
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, out, ttl)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < updateRetries; attempt++ {
		err := s.client.Watch(ctx, txn, key)
		switch {
		case err == nil:
			return next, nil
		case errors.Is(err, redis.TxFailedErr):
			continue
		case errors.Is(err, ErrSessionNotFound):
			return Snapshot{}, err
		default:
			s.logger.Error(ctx, "failed to update session in redis", err)
			return Snapshot{}, fmt.Errorf("failed to update session: %w", err)
		}
	}
	return Snapshot{}, fmt.Errorf("failed to update session %s: transaction contention exceeded %d retries", sessionID, updateRetries)
}

// Get returns the current snapshot.
func (s *RedisStore) Get(ctx context.Context, sessionID string) (Snapshot, error) {
	data, err := s.client.Get(ctx, redisKey(sessionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Snapshot{}, ErrSessionNotFound
		}
		s.logger.Error(ctx, "failed to get session from redis", err)
		return Snapshot{}, fmt.Errorf("failed to get session: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return Snapshot{}, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return snap, nil
}

// Subscribe converts polling into an observer channel: the loop delivers the
// current snapshot, then every changed snapshot until a terminal one.
func (s *RedisStore) Subscribe(ctx context.Context, sessionID string) (<-chan Snapshot, func(), error) {
	current, err := s.Get(ctx, sessionID)
	if err != nil {
		return nil, nil, err
	}

	ch := make(chan Snapshot, subscriberBuffer)
	ch <- current
	if current.Terminal() {
		close(ch)
		return ch, func() {}, nil
	}

	done := make(chan struct{})
	go func() {
		defer close(ch)
		last := current
		ticker := time.NewTicker(pollInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-done:
				return
			case <-ticker.C:
				snap, err := s.Get(ctx, sessionID)
				if err != nil {
					// Purged mid-stream; the reader treats closure as terminal.
					return
				}
				if snap != last {
					publish(ch, snap)
					last = snap
				}
				if snap.Terminal() {
					return
				}
			}
		}
	}()

	var cancelOnce sync.Once
	cancel := func() {
		cancelOnce.Do(func() { close(done) })
	}
	return ch, cancel, nil
}
