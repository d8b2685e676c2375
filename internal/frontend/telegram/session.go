package telegram

import (
	"sync"

	"github.com/vadimtrunov/MovieDeck/internal/discover"
	"github.com/vadimtrunov/MovieDeck/internal/store"
)

// session is one user's view state: their own store, controller and library.
type session struct {
	store   *store.Store
	ctrl    *discover.Controller
	library *store.Library

	mu       sync.Mutex
	lastList store.CollectionName // collection /next and /prev page through
	lastName string               // heading for that collection
}

// sessionFactory creates the state for a new user.
type sessionFactory func() *session

func (s *session) setLast(name store.CollectionName, heading string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastList = name
	s.lastName = heading
}

func (s *session) last() (store.CollectionName, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastList, s.lastName
}

// sessionManager manages per-user sessions and access control.
type sessionManager struct {
	mu       sync.Mutex
	sessions map[int64]*session
	allowed  map[int64]bool // nil or empty = allow all
}

// newSessionManager creates a session manager.
// If allowedUserIDs is empty, all users are allowed.
func newSessionManager(allowedUserIDs []int64) *sessionManager {
	allowed := make(map[int64]bool, len(allowedUserIDs))
	for _, id := range allowedUserIDs {
		allowed[id] = true
	}
	return &sessionManager{
		sessions: make(map[int64]*session),
		allowed:  allowed,
	}
}

// isAllowed checks if a user is authorized to use the bot.
func (sm *sessionManager) isAllowed(userID int64) bool {
	if len(sm.allowed) == 0 {
		return true
	}
	return sm.allowed[userID]
}

// getOrCreate returns an existing session or creates a new one using the factory.
// If the factory returns nil, the result is not cached so the next call can retry.
func (sm *sessionManager) getOrCreate(userID int64, factory sessionFactory) *session {
	sm.mu.Lock()
	if s, ok := sm.sessions[userID]; ok {
		sm.mu.Unlock()
		return s
	}
	sm.mu.Unlock()

	s := factory()
	if s == nil {
		return nil
	}

	sm.mu.Lock()
	defer sm.mu.Unlock()
	// Another goroutine may have created the session meanwhile.
	if existing, ok := sm.sessions[userID]; ok {
		return existing
	}
	sm.sessions[userID] = s
	return s
}

// reset drops a user's session; the next message starts from a fresh store and library.
func (sm *sessionManager) reset(userID int64) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	delete(sm.sessions, userID)
}
