package session

import (
	"time"

	"github.com/quantfold/tradekit/users"
)

// State is the manager's position in the auth lifecycle.
type State string

const (
	// StateUnauthenticated means no session exists.
	StateUnauthenticated State = "unauthenticated"
	// StateAuthenticating means a login or signup is in flight.
	StateAuthenticating State = "authenticating"
	// StateAuthenticated means a session is persisted. The profile may still
	// be stale; see Snapshot.ProfileLoaded.
	StateAuthenticated State = "authenticated"
)

// Snapshot is an immutable view of the manager's state. Consumers only ever
// read snapshots; all mutation happens inside the manager.
type Snapshot struct {
	State  State
	UserID string
	Email  string

	// Profile is the last successfully loaded profile, nil before the first
	// load. ProfileLoaded distinguishes stale-but-present from loaded.
	Profile       *users.Profile
	ProfileLoaded bool

	// ErrorMessage is the human-readable outcome of the last failed login or
	// signup, already converted for direct display.
	ErrorMessage string

	// Busy is true while a mutating operation is in flight.
	Busy bool

	AuthenticatedAt time.Time
}
