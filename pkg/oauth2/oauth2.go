package oauth2

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
)

// ErrEntropySource is returned when the process random source fails.
// Fatal to the login attempt that requested the secret.
var ErrEntropySource = errors.New("entropy source unavailable")

type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	Scope        string `json:"scope"`
	RefreshToken string `json:"refresh_token"`
	IDToken      string `json:"id_token"`
}

type CodeChallengeMethod string

const (
	CodeChallengeMethodS256 CodeChallengeMethod = "S256"
)

type Error struct {
	Code        string `json:"error"`
	Description string `json:"error_description"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// unreserved characters per RFC 7636, section 4.1
const letters = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz-"

// GenerateCodeVerifier produces a 128 character PKCE code verifier.
func GenerateCodeVerifier() (string, error) {
	n := 128
	ret := make([]byte, n)
	for i := 0; i < n; i++ {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrEntropySource, err)
		}
		ret[i] = letters[num.Int64()]
	}

	return string(ret), nil
}

// GenerateState produces a random opaque token bound to one login attempt.
func GenerateState() (string, error) {
	return randomToken()
}

// GenerateNonce produces a random token to be embedded in the ID token.
func GenerateNonce() (string, error) {
	return randomToken()
}

func randomToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("%w: %w", ErrEntropySource, err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func S256ChallengeFromVerifier(verifier string) string {
	hash := sha256.Sum256([]byte(verifier))
	return base64.URLEncoding.WithPadding(base64.NoPadding).EncodeToString(hash[:])
}
