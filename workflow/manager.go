package workflow

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/mhaddad/feedback-assistant/auth"
)

// ErrNoSession signals a session id that does not exist or belongs to
// another user.
var ErrNoSession = errors.New("no such session")

// Manager tracks live creation sessions per user. Sessions are in-memory
// only: an abandoned one is simply dropped, and a user's sessions are
// discarded when they sign out.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	sub      *auth.Subscription
}

func NewManager(notifier *auth.Notifier) *Manager {
	m := &Manager{sessions: map[string]*Session{}}
	if notifier != nil {
		m.sub = notifier.Subscribe(func(e auth.Event) {
			if e.Kind == auth.SignedOut {
				m.DropAll(e.UserID)
			}
		})
	}
	return m
}

// Open starts a new session in the model-selection step.
func (m *Manager) Open(ownerID string) *Session {
	s := newSession(uuid.NewString(), ownerID)

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	return s
}

func (m *Manager) Get(id, ownerID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok || s.OwnerID != ownerID {
		return nil, ErrNoSession
	}
	return s, nil
}

// Drop removes a session from the registry. Any in-flight generation call
// keeps running but its result lands in a session nobody can reach.
func (m *Manager) Drop(id, ownerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if ok && s.OwnerID == ownerID {
		delete(m.sessions, id)
	}
}

func (m *Manager) DropAll(ownerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for id, s := range m.sessions {
		if s.OwnerID == ownerID {
			delete(m.sessions, id)
		}
	}
}

// Close detaches the manager from the auth notifier.
func (m *Manager) Close() {
	if m.sub != nil {
		m.sub.Unsubscribe()
	}
}
