package oauth2

import (
	"strings"
	"testing"
)

func TestGenerateCodeVerifier(t *testing.T) {
	verifier, err := GenerateCodeVerifier()
	if err != nil {
		t.Fatal(err)
	}

	if len(verifier) != 128 {
		t.Fatalf("expected 128 characters, got %d", len(verifier))
	}

	for _, r := range verifier {
		if !strings.ContainsRune(letters, r) {
			t.Fatalf("verifier contains reserved character %q", r)
		}
	}

	other, err := GenerateCodeVerifier()
	if err != nil {
		t.Fatal(err)
	}
	if verifier == other {
		t.Fatal("two generated verifiers are identical")
	}
}

func TestS256ChallengeFromVerifier(t *testing.T) {
	// test vector from RFC 7636, appendix B
	verifier := "dBjftJeZ4CVP-mB92K27uhbUJU1p1r_wW1gFWFOEjXk"
	expected := "E9Melhoa2OwvFrEMTJguCHaoeK1t8URWbuGJSstw-cM"

	challenge := S256ChallengeFromVerifier(verifier)
	if challenge != expected {
		t.Fatalf("expected %s, got %s", expected, challenge)
	}

	// deterministic
	if S256ChallengeFromVerifier(verifier) != challenge {
		t.Fatal("challenge is not deterministic")
	}

	// a different verifier must not produce the same challenge
	if S256ChallengeFromVerifier(verifier+"x") == challenge {
		t.Fatal("different verifiers produced the same challenge")
	}
}

func TestGenerateStateAndNonce(t *testing.T) {
	state, err := GenerateState()
	if err != nil {
		t.Fatal(err)
	}
	nonce, err := GenerateNonce()
	if err != nil {
		t.Fatal(err)
	}

	if state == "" || nonce == "" {
		t.Fatal("empty token generated")
	}
	if state == nonce {
		t.Fatal("state and nonce are identical")
	}
	if len(state) < 43 {
		t.Fatalf("state too short for 256 bits of entropy: %d chars", len(state))
	}
}
