package session

// State is the manager's position in the auth lifecycle.
type State int

const (
	// StateRestoring: reading the persisted token and validating it
	// against the backend. Initial state.
	StateRestoring State = iota

	// StateUnauthenticated: no identity; sign-in required.
	StateUnauthenticated

	// StateAuthenticated: a valid token and identity are loaded.
	StateAuthenticated

	// StateFailed: an unrecoverable configuration error was reported.
	// The manager stays usable and every operation may be retried.
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateRestoring:
		return "restoring"
	case StateUnauthenticated:
		return "unauthenticated"
	case StateAuthenticated:
		return "authenticated"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}
