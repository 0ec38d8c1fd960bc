package oidc

import "fmt"

// ExchangeError signals a transport or provider-side failure of the
// token exchange.
type ExchangeError struct {
	Err error
}

func (e *ExchangeError) Error() string {
	return fmt.Sprintf("token exchange failed: %v", e.Err)
}

func (e *ExchangeError) Unwrap() error {
	return e.Err
}

// ValidationError signals a rejected ID token: bad signature, wrong
// issuer or audience, expired, or nonce mismatch.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("id token validation failed: %v", e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// UserinfoError signals a failed userinfo fetch. It does not invalidate
// an otherwise successful login.
type UserinfoError struct {
	Err error
}

func (e *UserinfoError) Error() string {
	return fmt.Sprintf("userinfo request failed: %v", e.Err)
}

func (e *UserinfoError) Unwrap() error {
	return e.Err
}
