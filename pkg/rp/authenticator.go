package rp

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"

	"github.com/identigo/relyingparty/pkg/oauth2"
	"github.com/identigo/relyingparty/pkg/oidc"
	"github.com/identigo/relyingparty/pkg/session"
)

// Authenticator orchestrates the three-phase login protocol and logout
// against a single configured OpenID provider.
type Authenticator struct {
	client oidc.Client
	store  session.Store
}

func NewAuthenticator(client oidc.Client, store session.Store) *Authenticator {
	return &Authenticator{
		client: client,
		store:  store,
	}
}

// Initiate generates a fresh login attempt, binds it to the browser
// session and returns the provider authorization URL. Any prior attempt
// for the session is overwritten.
func (a *Authenticator) Initiate(sess *session.Session) (string, error) {
	verifier, err := oauth2.GenerateCodeVerifier()
	if err != nil {
		return "", err
	}
	state, err := oauth2.GenerateState()
	if err != nil {
		return "", err
	}
	nonce, err := oauth2.GenerateNonce()
	if err != nil {
		return "", err
	}

	sess.LoginAttempt = &session.LoginAttempt{
		Verifier: verifier,
		State:    state,
		Nonce:    nonce,
	}

	if err := a.store.SaveSession(sess); err != nil {
		return "", fmt.Errorf("unable to save session: %w", err)
	}

	return a.client.AuthCodeURL(state, nonce, verifier)
}

// CompleteCallback consumes the pending login attempt and, on success,
// establishes the identity session. The attempt is consumed on entry so a
// replayed or reloaded callback cannot reuse it. The state parameter is
// checked before any call to the token endpoint.
func (a *Authenticator) CompleteCallback(ctx context.Context, sess *session.Session, code, state string) error {
	attempt, err := a.store.TakeLoginAttempt(sess.ID)
	if err != nil {
		return err
	}

	if subtle.ConstantTimeCompare([]byte(state), []byte(attempt.State)) != 1 {
		return ErrStateMismatch
	}

	tokenResponse, err := a.client.Exchange(ctx, code, attempt.Verifier)
	if err != nil {
		return err
	}

	idToken, err := a.client.ParseIDToken(tokenResponse.IDToken, attempt.Nonce)
	if err != nil {
		return err
	}

	claims, err := idToken.AsMap(ctx)
	if err != nil {
		return &oidc.ValidationError{Err: fmt.Errorf("unable to extract claims: %w", err)}
	}

	sess.Authenticated = true
	sess.AccessToken = tokenResponse.AccessToken
	sess.IDToken = tokenResponse.IDToken
	sess.Claims = claims

	// a failed userinfo fetch does not fail the login
	userInfo, err := a.client.Userinfo(ctx, tokenResponse.AccessToken)
	if err != nil {
		slog.Warn("Userinfo fetch failed, continuing with ID token claims", "error", err)
	} else {
		sess.UserInfo = userInfo
	}

	if err := a.store.SaveSession(sess); err != nil {
		return fmt.Errorf("unable to save session: %w", err)
	}

	return nil
}

// Logout destroys the server-side session first and only then builds the
// provider end-session URL from the previously extracted ID token. An
// empty URL means the provider publishes no end-session endpoint and the
// caller should fall back to a local redirect.
func (a *Authenticator) Logout(sess *session.Session) (string, error) {
	idToken := sess.IDToken

	if err := a.store.DeleteSession(sess.ID); err != nil {
		return "", &SessionDestroyError{Err: err}
	}

	endSessionURL, err := a.client.EndSessionURL(idToken)
	if err != nil {
		slog.Warn("Unable to build end session URL, local session is destroyed anyway", "error", err)
		return "", nil
	}

	return endSessionURL, nil
}
