package session

import (
	"context"
	"sync"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
)

// ErrNotFound is returned for unknown or expired session ids.
var ErrNotFound = errors.New("session not found")

type slot struct {
	state    *State
	lastSeen time.Time
}

// Store keeps session states in memory and forgets sessions idle longer than
// the configured timeout.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*slot
	idle     time.Duration
	now      func() time.Time
}

// NewStore creates a Store. A zero idle timeout keeps sessions forever.
func NewStore(idle time.Duration) *Store {
	return &Store{
		sessions: make(map[string]*slot),
		idle:     idle,
		now:      time.Now,
	}
}

// Create starts a new session and returns its id.
func (s *Store) Create() string {
	id := uuid.New().String()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[id] = &slot{state: NewState(), lastSeen: s.now()}
	return id
}

// Update runs fn with exclusive access to the session's state.
func (s *Store) Update(id string, fn func(st *State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.sessions[id]
	if !ok || s.expired(sl) {
		delete(s.sessions, id)
		return ErrNotFound
	}
	sl.lastSeen = s.now()
	return fn(sl.state)
}

// Alive reports whether id names a session that has not expired. It does not
// refresh the session.
func (s *Store) Alive(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	sl, ok := s.sessions[id]
	return ok && !s.expired(sl)
}

// Snapshot returns a copy of the session's state.
func (s *Store) Snapshot(id string) (*State, error) {
	var out *State
	err := s.Update(id, func(st *State) error {
		out = st.Clone()
		return nil
	})
	return out, err
}

// Len returns the number of tracked sessions.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Sweep removes expired sessions and returns how many were dropped.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for id, sl := range s.sessions {
		if s.expired(sl) {
			delete(s.sessions, id)
			n++
		}
	}
	return n
}

// Run sweeps expired sessions every interval until ctx is cancelled.
func (s *Store) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

func (s *Store) expired(sl *slot) bool {
	return s.idle > 0 && s.now().Sub(sl.lastSeen) >= s.idle
}
