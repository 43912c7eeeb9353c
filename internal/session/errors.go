package session

import (
	"errors"
	"fmt"
)

// Kind classifies an auth failure so the UI can pick the right
// treatment: inline form error, retry prompt, forced sign-in redirect,
// or silence.
type Kind int

const (
	// KindInvalidCredentials: user-correctable, shown inline.
	KindInvalidCredentials Kind = iota + 1

	// KindTransient: network or backend unavailable, retryable.
	KindTransient

	// KindSessionExpired: token rejected mid-session; forces sign-out.
	KindSessionExpired

	// KindValidation: input rejected before any network call.
	KindValidation

	// KindCancelled: user abandoned an interactive federated flow.
	// Not an error state; no message is shown.
	KindCancelled
)

func (k Kind) String() string {
	switch k {
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindTransient:
		return "transient"
	case KindSessionExpired:
		return "session_expired"
	case KindValidation:
		return "validation"
	case KindCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Error is the discriminated failure every manager operation returns
// instead of letting lower-layer errors escape untyped.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("session: %s: %v", e.Message, e.Err)
	}
	return "session: " + e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the Kind of err, or 0 when err is not a session Error.
func KindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}

func newError(kind Kind, msg string, cause error) *Error {
	return &Error{Kind: kind, Message: msg, Err: cause}
}
