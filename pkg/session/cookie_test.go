package session

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCookieRoundtrip(t *testing.T) {
	m := NewCookieManager("rp_session", []byte("0123456789abcdef0123456789abcdef"), false)

	rec := httptest.NewRecorder()
	if err := m.SetSessionID(rec, "session-id-1"); err != nil {
		t.Fatal(err)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	cookie := cookies[0]
	if !cookie.HttpOnly {
		t.Fatal("cookie must be httpOnly")
	}
	if cookie.SameSite != http.SameSiteLaxMode {
		t.Fatal("cookie must be SameSite=Lax so the provider redirect carries it")
	}
	if strings.Contains(cookie.Value, "session-id-1") {
		// compact JWS carries the payload base64url encoded
		t.Fatal("session id must not appear verbatim in the cookie value")
	}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)

	id, err := m.SessionID(req)
	if err != nil {
		t.Fatal(err)
	}
	if id != "session-id-1" {
		t.Fatalf("expected session-id-1, got %s", id)
	}
}

func TestTamperedCookieIsRejected(t *testing.T) {
	m := NewCookieManager("rp_session", []byte("0123456789abcdef0123456789abcdef"), false)

	rec := httptest.NewRecorder()
	if err := m.SetSessionID(rec, "session-id-1"); err != nil {
		t.Fatal(err)
	}
	cookie := rec.Result().Cookies()[0]

	// flip the last byte of the signature
	tampered := *cookie
	last := "A"
	if strings.HasSuffix(tampered.Value, "A") {
		last = "B"
	}
	tampered.Value = tampered.Value[:len(tampered.Value)-1] + last

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&tampered)

	if _, err := m.SessionID(req); err == nil {
		t.Fatal("expected verification failure for tampered cookie")
	}
}

func TestWrongKeyIsRejected(t *testing.T) {
	m := NewCookieManager("rp_session", []byte("0123456789abcdef0123456789abcdef"), false)
	other := NewCookieManager("rp_session", []byte("ffffffffffffffffffffffffffffffff"), false)

	rec := httptest.NewRecorder()
	if err := m.SetSessionID(rec, "session-id-1"); err != nil {
		t.Fatal(err)
	}
	cookie := rec.Result().Cookies()[0]

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(cookie)

	if _, err := other.SessionID(req); err == nil {
		t.Fatal("expected verification failure with a different signing key")
	}
}

func TestProductionGradeCookie(t *testing.T) {
	m := NewCookieManager("rp_session", []byte("0123456789abcdef0123456789abcdef"), true)

	if m.Name() != "__Host-rp_session" {
		t.Fatalf("expected __Host- prefix, got %s", m.Name())
	}

	rec := httptest.NewRecorder()
	if err := m.SetSessionID(rec, "session-id-1"); err != nil {
		t.Fatal(err)
	}
	cookie := rec.Result().Cookies()[0]
	if !cookie.Secure {
		t.Fatal("production grade cookie must be Secure")
	}
}

func TestClearCookie(t *testing.T) {
	m := NewCookieManager("rp_session", []byte("0123456789abcdef0123456789abcdef"), false)

	rec := httptest.NewRecorder()
	m.Clear(rec)

	cookie := rec.Result().Cookies()[0]
	if cookie.MaxAge != -1 {
		t.Fatalf("expected MaxAge -1, got %d", cookie.MaxAge)
	}
}
