package core

import (
	"sync"
	"time"
)

// Session is a server-held, short-lived record of an ongoing multi-turn
// interaction (tutoring chat, interactive quiz) keyed by an opaque id and
// scoped to an owner (the student). It is safe for concurrent access.
//
// Contract:
//   - State is an opaque payload the store never interprets or serializes
//   - LastActivityAt is monotonically non-decreasing and bumped only by
//     mutating operations (Apply), never by reads
//   - Once destroyed a session never transitions back; its id is never reused
//   - Clone performs a shallow-map copy safe for independent inspection.
type Session struct {
	ID             string         `json:"id"`
	OwnerID        string         `json:"owner_id"`
	State          map[string]any `json:"state"`
	CreatedAt      time.Time      `json:"created_at"`
	LastActivityAt time.Time      `json:"last_activity_at"`

	mu        sync.RWMutex
	destroyed bool
}

// NewSession creates a live session with the given id and owner. The initial
// state map is copied so the caller keeps no aliased reference.
func NewSession(id, ownerID string, initial map[string]any, now time.Time) *Session {
	state := make(map[string]any, len(initial))
	for k, v := range initial {
		state[k] = v
	}
	return &Session{
		ID:             id,
		OwnerID:        ownerID,
		State:          state,
		CreatedAt:      now,
		LastActivityAt: now,
	}
}

// GetState returns the value and existence flag for a state key.
func (s *Session) GetState(key string) (any, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.State[key]
	return v, ok
}

// LastActive returns the current last-activity timestamp.
func (s *Session) LastActive() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LastActivityAt
}

// Apply runs fn against the live state and bumps LastActivityAt to now, both
// under the session lock so concurrent callers on the same id serialize and
// no update is applied against a superseded state. Returns a snapshot clone
// taken under the same lock, or ok=false if the session was already
// destroyed (the caller must surface NotFound).
func (s *Session) Apply(fn func(state map[string]any), now time.Time) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return nil, false
	}
	fn(s.State)
	if now.After(s.LastActivityAt) {
		s.LastActivityAt = now
	}
	return s.cloneLocked(), true
}

// MarkDestroyed transitions the session to its terminal state. Returns
// whether the session was still live.
func (s *Session) MarkDestroyed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed {
		return false
	}
	s.destroyed = true
	return true
}

// ExpireIfIdle atomically destroys the session when its last activity lies
// before the cutoff. A touch that was applied first always wins: the
// timestamp check and the destroy happen under the same lock Apply holds.
func (s *Session) ExpireIfIdle(cutoff time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.destroyed || !s.LastActivityAt.Before(cutoff) {
		return false
	}
	s.destroyed = true
	return true
}

// Clone returns a snapshot copy of the session safe for callers to inspect
// without further synchronization. The state map is shallow-copied.
func (s *Session) Clone() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cloneLocked()
}

func (s *Session) cloneLocked() *Session {
	clone := &Session{
		ID:             s.ID,
		OwnerID:        s.OwnerID,
		State:          make(map[string]any, len(s.State)),
		CreatedAt:      s.CreatedAt,
		LastActivityAt: s.LastActivityAt,
	}
	for k, v := range s.State {
		clone.State[k] = v
	}
	return clone
}

// SessionStore manages the lifecycle of ephemeral sessions. All returned
// sessions are snapshot clones; mutations go through Mutate so the updater
// and the activity-timestamp bump form one atomic unit per session id.
type SessionStore interface {
	// Create allocates a fresh globally-unique id and stores a new live
	// session for the owner. An empty owner id is a caller bug and fails
	// with an error rather than creating an unowned session.
	Create(ownerID string, initial map[string]any) (*Session, error)

	// Get returns a snapshot of the session without updating its activity
	// timestamp. Returns ErrSessionNotFound for unknown or destroyed ids.
	Get(sessionID string) (*Session, error)

	// Mutate applies fn to the session state and bumps LastActivityAt as a
	// single atomic unit, returning the post-mutation snapshot. Returns
	// ErrSessionNotFound for unknown or destroyed ids.
	Mutate(sessionID string, fn func(state map[string]any)) (*Session, error)

	// Destroy removes the session, reporting whether it existed. Subsequent
	// Get/Mutate on the id return ErrSessionNotFound.
	Destroy(sessionID string) bool

	// ListByOwner returns snapshots of all live sessions belonging to the
	// owner, in unspecified order.
	ListByOwner(ownerID string) []*Session

	// ExpireOlderThan destroys every session idle longer than the given
	// duration and returns the number destroyed. Safe to call concurrently
	// with every other operation.
	ExpireOlderThan(idle time.Duration) int
}
