package oidc

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rp.yaml")
	content := `issuer: https://idp.example.com
client_id: my-client
client_secret: my-secret
redirect_uri: https://rp.example.com/authorization-code/callback
post_logout_redirect_uri: https://rp.example.com/logout/callback
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatal(err)
	}

	if cfg.ClientID != "my-client" {
		t.Fatalf("unexpected client id: %s", cfg.ClientID)
	}
	if cfg.ClientSecret.Value() != "my-secret" {
		t.Fatal("client secret not loaded")
	}
	if cfg.ClientSecret.String() != "*****" {
		t.Fatal("client secret must not print")
	}

	// scopes default when the file names none
	if len(cfg.Scopes) != 3 || cfg.Scopes[0] != "openid" {
		t.Fatalf("unexpected default scopes: %v", cfg.Scopes)
	}
}

func TestLoadConfigRejectsIncomplete(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rp.yaml")
	content := `issuer: https://idp.example.com
client_id: my-client
`
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected validation error for missing client_secret and redirect_uri")
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
