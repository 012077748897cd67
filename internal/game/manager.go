package game

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/playpool/minipool/internal/config"
	"github.com/playpool/minipool/internal/physics"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrTooManySessions = errors.New("too many active sessions")
)

// Manager owns every live session runner.
type Manager struct {
	sessions map[string]*managedSession
	config   *config.Config
	sink     Sink

	ctx    context.Context
	cancel context.CancelFunc
	mu     sync.RWMutex
}

type managedSession struct {
	runner    *Runner
	cancel    context.CancelFunc
	createdAt time.Time
}

// NewManager creates a manager whose sessions publish to sink.
func NewManager(cfg *config.Config, sink Sink) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		sessions: make(map[string]*managedSession),
		config:   cfg,
		sink:     sink,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// generateToken generates a secure random token
func generateToken(length int) string {
	bytes := make([]byte, length)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

func generateSessionID() string {
	return "table_" + generateToken(8)
}

// Create builds a fresh world and session and starts its runner.
func (m *Manager) Create() (*Runner, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.config.MaxSessions > 0 && len(m.sessions) >= m.config.MaxSessions {
		return nil, ErrTooManySessions
	}

	id := generateSessionID()
	world := physics.NewWorld()
	session, err := NewSession(id, world, m.config.Rules, m.sink)
	if err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	runner := NewRunner(session, world, m.config.TickRate, m.config.FrameBroadcastEveryTicks)
	ctx, cancel := context.WithCancel(m.ctx)
	m.sessions[id] = &managedSession{runner: runner, cancel: cancel, createdAt: time.Now()}
	go runner.Run(ctx)

	log.Printf("[MANAGER] Session %s created (%d active)", id, len(m.sessions))
	return runner, nil
}

// Get returns the runner for a session.
func (m *Manager) Get(id string) (*Runner, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ms, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return ms.runner, nil
}

// Remove stops a session's runner and forgets it.
func (m *Manager) Remove(id string) bool {
	m.mu.Lock()
	ms, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	if !ok {
		return false
	}
	ms.cancel()
	log.Printf("[MANAGER] Session %s removed", id)
	return true
}

// Count is the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Shutdown stops every runner and waits for their loops to exit.
func (m *Manager) Shutdown() {
	m.cancel()

	m.mu.Lock()
	runners := make([]*Runner, 0, len(m.sessions))
	for id, ms := range m.sessions {
		runners = append(runners, ms.runner)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, r := range runners {
		<-r.Done()
	}
	log.Printf("[MANAGER] Shutdown complete (%d sessions stopped)", len(runners))
}

// StartExpiryChecker removes idle sessions until ctx is cancelled.
func (m *Manager) StartExpiryChecker(ctx context.Context) {
	interval := time.Duration(m.config.ExpiryCheckIntervalSecs) * time.Second
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.checkExpiredSessions(time.Now())
		}
	}
}

// checkExpiredSessions removes sessions with no client command within the
// configured expiry window.
func (m *Manager) checkExpiredSessions(now time.Time) int {
	ttl := time.Duration(m.config.SessionExpiryMinutes) * time.Minute
	if ttl <= 0 {
		return 0
	}

	m.mu.RLock()
	var expired []string
	for id, ms := range m.sessions {
		if now.Sub(ms.runner.LastActive()) > ttl {
			expired = append(expired, id)
		}
	}
	m.mu.RUnlock()

	for _, id := range expired {
		log.Printf("[EXPIRY] Session %s idle for over %s; removing", id, ttl)
		m.Remove(id)
	}
	return len(expired)
}
