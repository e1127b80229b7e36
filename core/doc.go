// Package core defines the domain contracts shared across TutorMesh: the
// Session type, the SessionStore interface and the sentinel errors used by
// store implementations. Concrete stores live in sub-packages (see the
// session package) so higher layers depend only on the contracts here.
package core
