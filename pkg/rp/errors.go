package rp

import (
	"errors"
	"fmt"
)

// ErrStateMismatch is returned when the state parameter of a callback does
// not match the one stored for the login attempt. Checked before any call
// to the token endpoint.
var ErrStateMismatch = errors.New("state parameter does not match the login attempt")

// SessionDestroyError signals that the server-side session could not be
// destroyed during logout. The logout must fail before any redirect to the
// provider.
type SessionDestroyError struct {
	Err error
}

func (e *SessionDestroyError) Error() string {
	return fmt.Sprintf("unable to destroy session: %v", e.Err)
}

func (e *SessionDestroyError) Unwrap() error {
	return e.Err
}
