package session

import (
	"fmt"
	"net/http"

	"github.com/lestrrat-go/jwx/v2/jwa"
	"github.com/lestrrat-go/jwx/v2/jws"
)

// CookieManager maps browser requests to session IDs via a signed,
// httpOnly cookie. The cookie value is the session ID wrapped in a
// compact JWS, so a tampered ID fails verification instead of hitting
// the store.
type CookieManager struct {
	template *http.Cookie
	signKey  []byte
}

func NewCookieManager(name string, signKey []byte, productionGrade bool) *CookieManager {
	m := &CookieManager{
		signKey: signKey,
	}

	if productionGrade {
		m.template = &http.Cookie{
			Name:     fmt.Sprintf("__Host-%s", name),
			Path:     "/",
			Secure:   true,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		}
	} else {
		m.template = &http.Cookie{
			Name:     name,
			Path:     "/",
			Secure:   false,
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		}
	}

	return m
}

func (m *CookieManager) Name() string {
	return m.template.Name
}

// SessionID extracts and verifies the session ID from the request cookie.
func (m *CookieManager) SessionID(r *http.Request) (string, error) {
	cookie, err := r.Cookie(m.template.Name)
	if err != nil {
		return "", fmt.Errorf("cookie not found: %w", err)
	}

	payload, err := jws.Verify([]byte(cookie.Value), jws.WithKey(jwa.HS256, m.signKey))
	if err != nil {
		return "", fmt.Errorf("cookie signature verification failed: %w", err)
	}

	return string(payload), nil
}

// SetSessionID signs the session ID and writes the session cookie.
func (m *CookieManager) SetSessionID(w http.ResponseWriter, id string) error {
	signed, err := jws.Sign([]byte(id), jws.WithKey(jwa.HS256, m.signKey))
	if err != nil {
		return fmt.Errorf("cookie signing failed: %w", err)
	}

	cookie := *m.template
	cookie.Value = string(signed)
	cookie.MaxAge = int(TTL.Seconds())
	http.SetCookie(w, &cookie)
	return nil
}

// Clear expires the session cookie on the browser.
func (m *CookieManager) Clear(w http.ResponseWriter) {
	cookie := *m.template
	cookie.Value = ""
	cookie.MaxAge = -1
	http.SetCookie(w, &cookie)
}
