package core

import "fmt"

var (
	// ErrSessionNotFound is returned when a session id does not resolve to a
	// live session, either because it never existed or because the session
	// was destroyed or expired. Callers should treat it as "start a new
	// session" rather than as a fatal condition.
	ErrSessionNotFound = fmt.Errorf("session not found")
)
