// Package session owns the single authoritative "who is signed in, if
// anyone" value for the whole application. It holds state and drives
// conditional routing, it triggers no side effects itself.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"creator-chat/domain"
	"creator-chat/services"
)

// State is the session lifecycle phase as seen by consumers.
type State int

const (
	// StateUnknown means Initialize has not resolved yet. Consumers must
	// not treat this as signed-out, or the login view flashes before the
	// real session is known.
	StateUnknown State = iota
	StateUnauthenticated
	StateAuthenticated
)

// Manager tracks the current session. It asks the auth collaborator for the
// existing session on Initialize, then follows the push stream of session
// changes. The value is owned here and read-only to every consumer.
type Manager struct {
	mu          sync.RWMutex
	log         *slog.Logger
	auth        services.IAuthService
	current     *domain.Session
	resolved    bool
	unsubscribe func()
	closeOnce   sync.Once
	onChange    func(*domain.Session)
}

func NewManager(auth services.IAuthService, log *slog.Logger) *Manager {
	return &Manager{auth: auth, log: log}
}

// SetOnChange registers the callback fired after every session replacement.
// Must be called before Initialize.
func (m *Manager) SetOnChange(fn func(*domain.Session)) {
	m.onChange = fn
}

// Initialize registers on the change stream, then queries whatever session
// currently exists (none on a cold start with no stored credentials).
// Registering first closes the gap where a sign-in lands between the query
// and the registration; if a push arrives before the query resolves, the
// push wins and the stale query result is dropped.
//
// A transport failure is returned to the caller but still resolves the state
// to unauthenticated, so routing can proceed while the error is shown.
func (m *Manager) Initialize(ctx context.Context) error {
	m.unsubscribe = m.auth.OnSessionChange(m.apply)

	session, err := m.auth.CurrentSession(ctx)

	m.mu.Lock()
	changed := false
	if !m.resolved {
		if err == nil {
			m.current = session
		} else {
			m.current = nil
		}
		m.resolved = true
		changed = true
	}
	current := m.current
	m.mu.Unlock()

	if changed && m.onChange != nil {
		m.onChange(current)
	}
	if err != nil {
		return fmt.Errorf("restore session: %w", err)
	}
	return nil
}

// apply replaces the current session unconditionally. No merge, no partial
// update: the last notification wins.
func (m *Manager) apply(session *domain.Session) {
	m.mu.Lock()
	m.current = session
	m.resolved = true
	m.mu.Unlock()

	if m.onChange != nil {
		m.onChange(session)
	}
}

// Current returns the session value gating routing, nil when signed out or
// not yet resolved.
func (m *Manager) Current() *domain.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.current
}

func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	switch {
	case !m.resolved:
		return StateUnknown
	case m.current == nil:
		return StateUnauthenticated
	default:
		return StateAuthenticated
	}
}

// Close releases the change-stream registration exactly once.
func (m *Manager) Close() {
	m.closeOnce.Do(func() {
		if m.unsubscribe != nil {
			m.unsubscribe()
		}
	})
}
