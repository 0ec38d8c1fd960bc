package rp

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/identigo/relyingparty/pkg/oidc"
	"github.com/identigo/relyingparty/pkg/session"
	"github.com/labstack/echo/v4"
)

type failingDeleteStore struct {
	session.Store
}

func (f *failingDeleteStore) DeleteSession(id string) error {
	return errors.New("storage error")
}

func TestLogoutFailsWhenSessionCannotBeDestroyed(t *testing.T) {
	mp := newMockProvider(t)
	client, err := oidc.NewClient(&oidc.Config{
		Issuer:       mp.issuer,
		ClientID:     testClientID,
		ClientSecret: oidc.NewSecretString("test-client-secret"),
		RedirectURI:  "http://localhost:3000/authorization-code/callback",
		Scopes:       []string{"openid"},
	})
	if err != nil {
		t.Fatal(err)
	}

	store := &failingDeleteStore{Store: session.NewMockSessionStore()}

	sess := session.NewSession()
	sess.Authenticated = true
	sess.IDToken = "the-id-token"
	if err := store.SaveSession(sess); err != nil {
		t.Fatal(err)
	}

	auth := NewAuthenticator(client, store)

	_, err = auth.Logout(sess)
	var destroyErr *SessionDestroyError
	if !errors.As(err, &destroyErr) {
		t.Fatalf("expected SessionDestroyError, got %v", err)
	}

	// the local session is the source of truth: a failed destroy must
	// surface as an error response, never as a provider redirect
	cookies := session.NewCookieManager("rp_session", []byte("0123456789abcdef0123456789abcdef"), false)
	e := echo.New()
	NewServer(auth, store, cookies).MountRoutes(e.Group(""))

	rec := getWithSession(t, e, cookies, sess.ID)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	if rec.Header().Get("Location") != "" {
		t.Fatal("must not redirect to the provider when session destroy fails")
	}
}

func getWithSession(t *testing.T, e *echo.Echo, cookies *session.CookieManager, sessionID string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	if err := cookies.SetSessionID(rec, sessionID); err != nil {
		t.Fatal(err)
	}
	cookie := rec.Result().Cookies()[0]

	req := httptest.NewRequest(http.MethodGet, "/logout", nil)
	req.AddCookie(cookie)

	out := httptest.NewRecorder()
	e.ServeHTTP(out, req)
	return out
}
