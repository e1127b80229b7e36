package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/tutormesh/core"
)

// InMemoryStore is a volatile core.SessionStore keeping sessions in a
// process-local map. It is safe for concurrent use by one goroutine per
// in-flight request.
//
// Locking model:
//   - The registry RWMutex guards only the maps. It is never held while
//     waiting on a per-session lock, so a slow Mutate updater on one id
//     never stalls Get, Create, Destroy or the TTL sweep on other ids.
//   - Each session carries its own lock (see core.Session.Apply) which
//     serializes mutation, destruction and expiry on a single id.
//   - Destruction is two-phase: the session is marked destroyed under its
//     own lock first, then unlinked from the maps under the registry lock.
//     The destroyed flag keeps the window between the phases safe.
//
// Ids are uuid v4, generated fresh on every Create and never reused: a
// destroyed id can never resolve again.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*core.Session
	byOwner  map[string]map[string]struct{}
	now      func() time.Time
}

// InMemoryStoreOptions configures an InMemoryStore.
type InMemoryStoreOptions struct {
	// Clock overrides the time source, primarily for TTL tests.
	Clock func() time.Time
}

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore(optFns ...func(o *InMemoryStoreOptions)) *InMemoryStore {
	opts := InMemoryStoreOptions{Clock: time.Now}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &InMemoryStore{
		sessions: make(map[string]*core.Session),
		byOwner:  make(map[string]map[string]struct{}),
		now:      opts.Clock,
	}
}

// Create allocates a new session for the owner and returns a snapshot of it.
func (s *InMemoryStore) Create(ownerID string, initial map[string]any) (*core.Session, error) {
	if ownerID == "" {
		return nil, fmt.Errorf("owner id must not be empty")
	}

	sess := core.NewSession(uuid.NewString(), ownerID, initial, s.now())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	if s.byOwner[ownerID] == nil {
		s.byOwner[ownerID] = make(map[string]struct{})
	}
	s.byOwner[ownerID][sess.ID] = struct{}{}

	return sess.Clone(), nil
}

// Get returns a snapshot of the session without touching its activity
// timestamp.
func (s *InMemoryStore) Get(sessionID string) (*core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[sessionID]
	if !ok {
		return nil, core.ErrSessionNotFound
	}
	return sess.Clone(), nil
}

// Mutate applies fn and the activity-timestamp bump as one atomic unit under
// the session's own lock. The registry lock is released before fn runs, so a
// slow updater on one session never stalls unrelated ids.
func (s *InMemoryStore) Mutate(sessionID string, fn func(state map[string]any)) (*core.Session, error) {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, core.ErrSessionNotFound
	}

	// The session may have raced with Destroy/ExpireOlderThan after the
	// registry lookup; Apply detects that and the caller sees NotFound
	// rather than a mutation landing on a destroyed session.
	snap, ok := sess.Apply(fn, s.now())
	if !ok {
		return nil, core.ErrSessionNotFound
	}
	return snap, nil
}

// Destroy removes the session, reporting whether it existed. Waiting out an
// in-flight updater on this id happens outside the registry lock.
func (s *InMemoryStore) Destroy(sessionID string) bool {
	s.mu.RLock()
	sess, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return false
	}

	// Lost the race to another Destroy or the sweep; whoever marked it
	// handles the unlink.
	if !sess.MarkDestroyed() {
		return false
	}

	s.mu.Lock()
	s.removeLocked(sess)
	s.mu.Unlock()
	return true
}

// ListByOwner returns snapshots of all live sessions for the owner.
func (s *InMemoryStore) ListByOwner(ownerID string) []*core.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byOwner[ownerID]
	result := make([]*core.Session, 0, len(ids))
	for id := range ids {
		if sess, ok := s.sessions[id]; ok {
			result = append(result, sess.Clone())
		}
	}
	return result
}

// ExpireOlderThan destroys every session idle longer than the given duration
// and returns the number destroyed. A session touched concurrently with the
// sweep survives whenever its timestamp update is observed; the decision is
// made under the per-session lock so there is no corruption or double-free.
// The candidate list is snapshotted first so the sweep never holds the
// registry lock while waiting on a session's updater.
func (s *InMemoryStore) ExpireOlderThan(idle time.Duration) int {
	cutoff := s.now().Add(-idle)

	s.mu.RLock()
	candidates := make([]*core.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		candidates = append(candidates, sess)
	}
	s.mu.RUnlock()

	expired := candidates[:0]
	for _, sess := range candidates {
		if sess.ExpireIfIdle(cutoff) {
			expired = append(expired, sess)
		}
	}
	if len(expired) == 0 {
		return 0
	}

	s.mu.Lock()
	for _, sess := range expired {
		s.removeLocked(sess)
	}
	s.mu.Unlock()
	return len(expired)
}

// Len reports the number of live sessions. Intended for introspection and
// tests.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// removeLocked drops a session from both indexes; caller holds the write lock.
func (s *InMemoryStore) removeLocked(sess *core.Session) {
	delete(s.sessions, sess.ID)
	if ids := s.byOwner[sess.OwnerID]; ids != nil {
		delete(ids, sess.ID)
		if len(ids) == 0 {
			delete(s.byOwner, sess.OwnerID)
		}
	}
}
