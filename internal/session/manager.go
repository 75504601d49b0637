package session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

var logger = zerolog.New(os.Stdout).With().Timestamp().Str("component", "session").Logger()

var ErrSessionNotFound = errors.New("session not found")

// Manager keeps live sessions in memory and mirrors their snapshots to a
// Store so they can be picked up again after a restart.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	store    Store
	ttl      time.Duration
	now      func() time.Time
}

// NewManager returns a manager backed by store. Sessions idle for longer than
// ttl are dropped; a zero ttl keeps them until logout.
func NewManager(store Store, ttl time.Duration) *Manager {
	if store == nil {
		store = NewMemoryStore()
	}
	return &Manager{
		sessions: make(map[string]*Session),
		store:    store,
		ttl:      ttl,
		now:      time.Now,
	}
}

// Create starts a session for username with an empty cart.
func (m *Manager) Create(ctx context.Context, username string) (*Session, error) {
	now := m.now()
	s := newSession(uuid.NewString(), username, now)

	if err := s.saveTo(ctx, m.store); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	m.mu.Lock()
	expired := m.evictExpired(now)
	m.sessions[s.ID] = s
	m.mu.Unlock()

	for _, old := range expired {
		m.discard(ctx, old)
	}

	logger.Info().Str("session", s.ID).Str("username", username).Msg("session created")
	return s, nil
}

// Get returns the live session, loading it from the store if this process
// has not seen it yet. Sessions idle for longer than the ttl are discarded.
func (m *Manager) Get(ctx context.Context, id string) (*Session, error) {
	now := m.now()

	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if ok {
		if m.expired(s, now) {
			if err := m.Delete(ctx, id); err != nil {
				logger.Error().Err(err).Str("session", id).Msg("failed to delete expired session")
			}
			return nil, ErrSessionNotFound
		}
		s.touch(now)
		return s, nil
	}

	snap, err := m.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if m.ttl > 0 && now.Sub(snap.TouchedAt) > m.ttl {
		if err := m.store.Delete(ctx, id); err != nil {
			logger.Error().Err(err).Str("session", id).Msg("failed to delete expired session")
		}
		return nil, ErrSessionNotFound
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	// Another request may have restored it meanwhile.
	if s, ok := m.sessions[id]; ok {
		s.touch(now)
		return s, nil
	}
	s = fromSnapshot(snap, now)
	m.sessions[id] = s
	logger.Info().Str("session", id).Msg("session restored from store")
	return s, nil
}

// Save writes the session's current snapshot to the store. Closed sessions
// are skipped.
func (m *Manager) Save(ctx context.Context, s *Session) error {
	return s.saveTo(ctx, m.store)
}

// Delete discards the session and its stored snapshot. Deleting an unknown
// session is not an error.
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if ok {
		s.close()
	}
	return m.store.Delete(ctx, id)
}

// Len reports the number of live sessions held in memory.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) expired(s *Session, now time.Time) bool {
	return m.ttl > 0 && s.idleSince(now) > m.ttl
}

// evictExpired must be called with m.mu held. The removed sessions are
// returned for discard once the lock is released.
func (m *Manager) evictExpired(now time.Time) []*Session {
	if m.ttl <= 0 {
		return nil
	}
	var expired []*Session
	for id, s := range m.sessions {
		if m.expired(s, now) {
			delete(m.sessions, id)
			expired = append(expired, s)
		}
	}
	return expired
}

func (m *Manager) discard(ctx context.Context, s *Session) {
	s.close()
	if err := m.store.Delete(ctx, s.ID); err != nil {
		logger.Error().Err(err).Str("session", s.ID).Msg("failed to delete expired session")
		return
	}
	logger.Info().Str("session", s.ID).Msg("session expired")
}
