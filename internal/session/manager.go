package session

import (
	"context"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/vytor/templemind/internal/difficulty"
	"github.com/vytor/templemind/internal/logger"
	"github.com/vytor/templemind/internal/models"
)

// Factory builds the game for a level. rng is owned by the new game.
type Factory func(level difficulty.Level, religion models.Religion, rng *rand.Rand) (Game, error)

// CompletionHandler receives every session outcome. It runs on the goroutine
// that completed the session, without the session lock held.
type CompletionHandler func(*Session, Outcome)

// Manager is the registry of live sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	factory    Factory
	clock      Clock
	ttl        time.Duration
	onComplete CompletionHandler
	newRand    func() *rand.Rand
	log        *logger.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithClock replaces the system clock, for tests.
func WithClock(c Clock) ManagerOption {
	return func(m *Manager) { m.clock = c }
}

// WithTTL sets how long a session may sit without input before the sweeper
// disposes it.
func WithTTL(ttl time.Duration) ManagerOption {
	return func(m *Manager) { m.ttl = ttl }
}

// WithCompletionHandler sets the handler called once per completed session.
func WithCompletionHandler(h CompletionHandler) ManagerOption {
	return func(m *Manager) { m.onComplete = h }
}

// WithRandSource sets the generator constructor used for new games.
func WithRandSource(fn func() *rand.Rand) ManagerOption {
	return func(m *Manager) { m.newRand = fn }
}

// NewManager builds a manager whose sessions play games built by factory.
func NewManager(factory Factory, opts ...ManagerOption) *Manager {
	var seq atomic.Int64
	m := &Manager{
		sessions: make(map[string]*Session),
		factory:  factory,
		clock:    SystemClock(),
		ttl:      30 * time.Minute,
		newRand: func() *rand.Rand {
			return rand.New(rand.NewSource(time.Now().UnixNano() + seq.Add(1)))
		},
		log: logger.Default().WithPrefix("session_manager"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// SetCompletionHandler replaces the handler for sessions started afterwards.
func (m *Manager) SetCompletionHandler(h CompletionHandler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onComplete = h
}

// Start creates, registers and starts a session for owner at level. Level
// numbers outside 1..30 are clamped by the resolver.
func (m *Manager) Start(owner models.Identity, level int) (*Session, error) {
	lvl := difficulty.Resolve(level)
	game, err := m.factory(lvl, owner.Religion, m.newRand())
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	handler := m.onComplete
	s := New(owner, lvl, game, m.clock, func(s *Session, o Outcome) {
		if handler != nil {
			handler(s, o)
		}
	})
	m.sessions[s.ID()] = s
	m.mu.Unlock()

	if err := s.Start(); err != nil {
		m.remove(s.ID())
		return nil, err
	}
	m.log.WithFields(map[string]any{
		"session_id": s.ID(),
		"profile_id": owner.ProfileID,
		"guest":      owner.Guest,
	}).Info("started %s at level %d", lvl.GameType, lvl.Level)
	return s, nil
}

// Get returns the session with id if owner may see it.
func (m *Manager) Get(owner models.Identity, id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if !owner.Owns(s.Owner()) {
		return nil, ErrNotOwner
	}
	return s, nil
}

// Submit forwards an input to the session.
func (m *Manager) Submit(owner models.Identity, id string, in Input) (Snapshot, error) {
	s, err := m.Get(owner, id)
	if err != nil {
		return Snapshot{}, err
	}
	return s.Submit(in)
}

// Exit disposes the session and forgets it.
func (m *Manager) Exit(owner models.Identity, id string) error {
	s, err := m.Get(owner, id)
	if err != nil {
		return err
	}
	s.Dispose()
	m.remove(id)
	return nil
}

// Restart exits the session and starts a brand-new one at the same level.
func (m *Manager) Restart(owner models.Identity, id string) (*Session, error) {
	s, err := m.Get(owner, id)
	if err != nil {
		return nil, err
	}
	level := s.Level().Level
	s.Dispose()
	m.remove(id)
	return m.Start(owner, level)
}

// Sweep disposes sessions idle for longer than the TTL and returns how many
// were removed.
func (m *Manager) Sweep() int {
	cutoff := m.clock.Now().Add(-m.ttl)

	m.mu.Lock()
	var stale []*Session
	for id, s := range m.sessions {
		if s.IdleSince().Before(cutoff) {
			stale = append(stale, s)
			delete(m.sessions, id)
		}
	}
	m.mu.Unlock()

	for _, s := range stale {
		s.Dispose()
	}
	if len(stale) > 0 {
		m.log.Info("swept %d idle sessions", len(stale))
	}
	return len(stale)
}

// Run sweeps every interval until ctx is done, then disposes every session.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	m.log.Info("session sweeper running every %s (ttl %s)", interval, m.ttl)
	for {
		select {
		case <-ctx.Done():
			m.DisposeAll()
			return
		case <-ticker.C:
			m.Sweep()
		}
	}
}

// DisposeAll closes every session.
func (m *Manager) DisposeAll() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	for _, s := range all {
		s.Dispose()
	}
	m.log.Info("disposed %d sessions", len(all))
}

// Len is the number of registered sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *Manager) remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}
