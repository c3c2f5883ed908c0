package progress

import (
	"context"
	"sync"
	"time"

	"backoffice-server/internal/observability"
)

const subscriberBuffer = 64

type memorySession struct {
	snap      Snapshot
	subs      map[int]chan Snapshot
	nextSubID int
	expiresAt time.Time // zero until the session reaches a terminal state
}

// MemoryStore keeps sessions in process memory. It is the default Store for
// single-instance deployments; completed sessions are retained for a bounded
// grace period and then purged by the janitor.
type MemoryStore struct {
	mu        sync.Mutex
	sessions  map[string]*memorySession
	retention time.Duration
	logger    *observability.Logger
	stop      chan struct{}
	stopOnce  sync.Once
}

// NewMemoryStore creates a MemoryStore and starts its janitor loop.
func NewMemoryStore(retention time.Duration, logger *observability.Logger) *MemoryStore {
	if retention <= 0 {
		retention = 5 * time.Minute
	}
	s := &MemoryStore{
		sessions:  make(map[string]*memorySession),
		retention: retention,
		logger:    logger,
		stop:      make(chan struct{}),
	}
	go s.janitor()
	return s
}

// Close stops the janitor loop.
func (s *MemoryStore) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

func (s *MemoryStore) janitor() {
	interval := s.retention / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case now := <-ticker.C:
			s.purgeExpired(now)
		}
	}
}

func (s *MemoryStore) purgeExpired(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.sessions {
		if !sess.expiresAt.IsZero() && now.After(sess.expiresAt) {
			for _, sub := range sess.subs {
				close(sub)
			}
			delete(s.sessions, id)
		}
	}
}

// Create registers a new session.
func (s *MemoryStore) Create(ctx context.Context, sessionID string, total int) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; ok {
		return Snapshot{}, ErrSessionExists
	}

	snap := Snapshot{
		SessionID: sessionID,
		Total:     total,
		Type:      TypeProgress,
	}
	s.sessions[sessionID] = &memorySession{
		snap: snap,
		subs: make(map[int]chan Snapshot),
	}
	return snap, nil
}

// Update applies mutate under the store lock, normalizes derived fields, and
// publishes the new snapshot to all subscribers.
func (s *MemoryStore) Update(ctx context.Context, sessionID string, mutate func(*Snapshot)) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return Snapshot{}, ErrSessionNotFound
	}

	prev := sess.snap
	next := prev
	mutate(&next)
	normalize(&next, &prev)
	sess.snap = next

	if next.Terminal() && sess.expiresAt.IsZero() {
		sess.expiresAt = time.Now().Add(s.retention)
	}

	for _, sub := range sess.subs {
		publish(sub, next)
	}
	if next.Terminal() {
		for id, sub := range sess.subs {
			close(sub)
			delete(sess.subs, id)
		}
	}

	return next, nil
}

// Get returns the current snapshot.
func (s *MemoryStore) Get(ctx context.Context, sessionID string) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return Snapshot{}, ErrSessionNotFound
	}
	return sess.snap, nil
}

// Subscribe registers an observer channel. The current snapshot is delivered
// immediately; if the session is already terminal the channel is closed right
// after that first delivery.
func (s *MemoryStore) Subscribe(ctx context.Context, sessionID string) (<-chan Snapshot, func(), error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, nil, ErrSessionNotFound
	}

	ch := make(chan Snapshot, subscriberBuffer)
	ch <- sess.snap

	if sess.snap.Terminal() {
		close(ch)
		return ch, func() {}, nil
	}

	subID := sess.nextSubID
	sess.nextSubID++
	sess.subs[subID] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sess, ok := s.sessions[sessionID]; ok {
			if sub, ok := sess.subs[subID]; ok {
				delete(sess.subs, subID)
				close(sub)
			}
		}
	}
	return ch, cancel, nil
}

// publish delivers a snapshot without ever blocking the writer. When the
// subscriber buffer is full the oldest pending snapshot is dropped, so a
// slow reader observes a gap but always ends on the latest state.
func publish(ch chan Snapshot, snap Snapshot) {
	for {
		select {
		case ch <- snap:
			return
		default:
			select {
			case <-ch:
			default:
			}
		}
	}
}

// normalize keeps derived fields consistent and enforces that progress never
// regresses from a poller's point of view.
func normalize(next *Snapshot, prev *Snapshot) {
	if next.Activated < prev.Activated {
		next.Activated = prev.Activated
	}
	if next.Skipped < prev.Skipped {
		next.Skipped = prev.Skipped
	}
	if next.Failed < prev.Failed {
		next.Failed = prev.Failed
	}
	if prev.Completed {
		next.Completed = true
	}

	if next.Total > 0 {
		next.Percentage = next.Processed() * 100 / next.Total
	}
	if next.Percentage > 100 {
		next.Percentage = 100
	}
	if next.Percentage < prev.Percentage {
		next.Percentage = prev.Percentage
	}

	switch {
	case next.Type == TypeError:
		// terminal failure, leave as-is
	case next.Completed:
		next.Type = TypeComplete
		next.Percentage = 100
	default:
		next.Type = TypeProgress
	}
}
