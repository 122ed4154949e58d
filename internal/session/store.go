package session

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/strumspace/strumspace/internal/chord"
)

// ErrNotFound is returned when no session has the requested id.
var ErrNotFound = errors.New("session not found")

// Store holds live sessions in memory, keyed by id.
type Store struct {
	mu          sync.RWMutex
	sessions    map[string]*Session
	maxAttempts int
}

// NewStore creates an empty store. maxAttempts below 1 selects DefaultMaxAttempts.
func NewStore(maxAttempts int) *Store {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	return &Store{
		sessions:    make(map[string]*Session),
		maxAttempts: maxAttempts,
	}
}

// Create starts a new session on the given tier.
func (st *Store) Create(d chord.Difficulty) *Session {
	s := New(uuid.New().String(), d)
	s.SetMaxAttempts(st.maxAttempts)

	st.mu.Lock()
	st.sessions[s.id] = s
	st.mu.Unlock()
	return s
}

// Get looks up a session by id.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.RLock()
	defer st.mu.RUnlock()

	s, ok := st.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Delete removes a session.
func (st *Store) Delete(id string) error {
	st.mu.Lock()
	defer st.mu.Unlock()

	if _, ok := st.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(st.sessions, id)
	return nil
}

// Len returns the number of live sessions.
func (st *Store) Len() int {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return len(st.sessions)
}

// Expire drops sessions not updated within maxIdle and returns how many were removed.
func (st *Store) Expire(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	st.mu.Lock()
	defer st.mu.Unlock()

	removed := 0
	for id, s := range st.sessions {
		if s.Snapshot().UpdatedAt.Before(cutoff) {
			delete(st.sessions, id)
			removed++
		}
	}
	return removed
}
