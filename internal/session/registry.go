package session

import (
	"errors"
	"sync"
	"time"

	"github.com/bz888/scribe/internal/chat"
	"github.com/google/uuid"
)

var ErrNotFound = errors.New("session not found")

// Session owns one conversation. Actions on it are serialised by Do.
type Session struct {
	ID        string
	CreatedAt time.Time

	mu    sync.Mutex
	store *chat.Store
}

// Do runs fn with exclusive access to the session's store.
func (s *Session) Do(fn func(store *chat.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.store)
}

// Registry keeps the live sessions of the process. Nothing is persisted.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	newStore func() *chat.Store
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[string]*Session),
		newStore: chat.NewStore,
	}
}

func (r *Registry) Create() *Session {
	s := &Session{
		ID:        uuid.NewString(),
		CreatedAt: time.Now(),
		store:     r.newStore(),
	}

	r.mu.Lock()
	r.sessions[s.ID] = s
	r.mu.Unlock()
	return s
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Delete discards a session and its history.
func (r *Registry) Delete(id string) {
	r.mu.Lock()
	delete(r.sessions, id)
	r.mu.Unlock()
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.sessions)
}
