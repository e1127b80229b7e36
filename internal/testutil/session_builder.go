package testutil

import (
	"time"

	"github.com/hupe1980/tutormesh/core"
)

// SessionBuilder helps construct sessions with fluent chaining for tests.
// Example:
//
//	sess := NewSessionBuilder("sess-1").Owner("alice").State("k", "v").Build()
type SessionBuilder struct {
	id        string
	ownerID   string
	createdAt time.Time
	state     map[string]any
}

// NewSessionBuilder creates a new builder for a session with the given id.
// Use chainable methods (Owner, State, CreatedAt) then call Build.
func NewSessionBuilder(id string) *SessionBuilder {
	return &SessionBuilder{
		id:        id,
		ownerID:   "test-owner",
		createdAt: time.Now(),
		state:     map[string]any{},
	}
}

// Owner sets the owning student id (chainable).
func (b *SessionBuilder) Owner(ownerID string) *SessionBuilder {
	b.ownerID = ownerID
	return b
}

// State sets or overwrites a state key/value pair on the resulting session (chainable).
func (b *SessionBuilder) State(key string, val any) *SessionBuilder {
	b.state[key] = val
	return b
}

// CreatedAt pins the creation timestamp, useful with fake clocks (chainable).
func (b *SessionBuilder) CreatedAt(t time.Time) *SessionBuilder {
	b.createdAt = t
	return b
}

// Build returns a *core.Session with pre-populated owner and state.
func (b *SessionBuilder) Build() *core.Session {
	return core.NewSession(b.id, b.ownerID, b.state, b.createdAt)
}
