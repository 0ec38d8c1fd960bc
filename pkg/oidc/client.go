package oidc

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/identigo/relyingparty/pkg/oauth2"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/lestrrat-go/jwx/v2/jwt"
)

// httpClient bounds all provider-side network calls.
var httpClient = &http.Client{Timeout: 15 * time.Second}

type Config struct {
	Issuer                string       `yaml:"issuer" validate:"required,url"`
	ClientID              string       `yaml:"client_id" validate:"required"`
	ClientSecret          SecretString `yaml:"client_secret" validate:"required"`
	RedirectURI           string       `yaml:"redirect_uri" validate:"required,url"`
	PostLogoutRedirectURI string       `yaml:"post_logout_redirect_uri" validate:"omitempty,url"`
	Scopes                []string     `yaml:"scopes"`
}

type Client interface {
	Issuer() string
	ClientID() string
	AuthCodeURL(state, nonce, verifier string) (string, error)
	Exchange(ctx context.Context, code, verifier string) (*oauth2.TokenResponse, error)
	ParseIDToken(serialized, expectedNonce string) (jwt.Token, error)
	Userinfo(ctx context.Context, accessToken string) (map[string]any, error)
	EndSessionURL(idTokenHint string) (string, error)
}

type client struct {
	cfg               *Config
	discoveryDocument *DiscoveryDocument
	keyCache          *jwk.Cache
}

// NewClient discovers the provider metadata and prepares the signing key
// cache. It must complete before the server accepts authentication traffic.
func NewClient(cfg *Config) (Client, error) {
	c := &client{
		cfg:               cfg,
		discoveryDocument: nil,
		keyCache:          nil,
	}

	var err error
	discoveryDocumentUrl := strings.TrimRight(cfg.Issuer, "/") + "/.well-known/openid-configuration"
	c.discoveryDocument, err = FetchDiscoveryDocument(discoveryDocumentUrl)
	if err != nil {
		return nil, err
	}

	// prepare the auto-refreshing signing key cache
	c.keyCache = jwk.NewCache(context.Background())
	c.keyCache.Register(c.discoveryDocument.JwksURI, jwk.WithMinRefreshInterval(15*time.Minute))
	_, err = c.keyCache.Refresh(context.Background(), c.discoveryDocument.JwksURI)
	if err != nil {
		return nil, &DiscoveryError{URL: c.discoveryDocument.JwksURI, Err: fmt.Errorf("unable to fetch signing keys: %w", err)}
	}

	return c, nil
}

func (c *client) Issuer() string {
	return c.discoveryDocument.Issuer
}

func (c *client) ClientID() string {
	return c.cfg.ClientID
}

func (c *client) DiscoveryDocument() *DiscoveryDocument {
	return c.discoveryDocument
}

func (c *client) AuthCodeURL(state, nonce, verifier string) (string, error) {
	codeChallenge := oauth2.S256ChallengeFromVerifier(verifier)
	query := url.Values{}
	query.Add("client_id", c.cfg.ClientID)
	query.Add("redirect_uri", c.cfg.RedirectURI)
	query.Add("response_type", "code")
	query.Add("scope", strings.Join(c.cfg.Scopes, " "))
	query.Add("state", state)
	query.Add("nonce", nonce)
	query.Add("code_challenge", codeChallenge)
	query.Add("code_challenge_method", string(oauth2.CodeChallengeMethodS256))

	slog.Debug("Using OP AuthorizationEndpoint", "url", c.discoveryDocument.AuthorizationEndpoint)

	return fmt.Sprintf("%s?%s", c.discoveryDocument.AuthorizationEndpoint, query.Encode()), nil
}

// Exchange redeems the authorization code at the token endpoint. Client
// credentials go into the POST body (client_secret_post).
func (c *client) Exchange(ctx context.Context, code string, codeVerifier string) (*oauth2.TokenResponse, error) {
	params := url.Values{}
	params.Set("client_id", c.cfg.ClientID)
	params.Set("client_secret", c.cfg.ClientSecret.Value())
	params.Set("code", code)
	params.Set("redirect_uri", c.cfg.RedirectURI)
	params.Set("grant_type", "authorization_code")
	params.Set("code_verifier", codeVerifier)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.discoveryDocument.TokenEndpoint, strings.NewReader(params.Encode()))
	if err != nil {
		return nil, &ExchangeError{Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, &ExchangeError{Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ExchangeError{Err: fmt.Errorf("unable to read response body: %w", err)}
	}

	if resp.StatusCode != http.StatusOK {
		var oidcErr oauth2.Error
		err = json.Unmarshal(body, &oidcErr)
		if err != nil {
			return nil, &ExchangeError{Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
		}
		return nil, &ExchangeError{Err: &oidcErr}
	}

	var tokenResponse oauth2.TokenResponse
	err = json.Unmarshal(body, &tokenResponse)
	if err != nil {
		return nil, &ExchangeError{Err: fmt.Errorf("unable to decode token response: %w", err)}
	}

	return &tokenResponse, nil
}

// ParseIDToken parses and verifies an ID token against the keys from the
// discovery document and checks that its nonce matches the expected one.
func (c *client) ParseIDToken(serialized, expectedNonce string) (jwt.Token, error) {
	keySet, err := c.keyCache.Get(context.Background(), c.discoveryDocument.JwksURI)
	if err != nil {
		return nil, &ValidationError{Err: fmt.Errorf("unable to get key set: %w", err)}
	}

	token, err := jwt.ParseString(
		serialized,
		jwt.WithKeySet(keySet),
		jwt.WithValidate(true),
		jwt.WithIssuer(c.discoveryDocument.Issuer),
		jwt.WithAudience(c.cfg.ClientID),
		jwt.WithRequiredClaim("nonce"),
		jwt.WithRequiredClaim("exp"),
	)
	if err != nil {
		return nil, &ValidationError{Err: err}
	}

	nonceClaim, _ := token.Get("nonce")
	nonce, ok := nonceClaim.(string)
	if !ok || subtle.ConstantTimeCompare([]byte(nonce), []byte(expectedNonce)) != 1 {
		return nil, &ValidationError{Err: fmt.Errorf("nonce does not match the login attempt")}
	}

	return token, nil
}

// Userinfo fetches the supplementary profile claims with the access token
// as bearer credential.
func (c *client) Userinfo(ctx context.Context, accessToken string) (map[string]any, error) {
	if c.discoveryDocument.UserinfoEndpoint == "" {
		return nil, &UserinfoError{Err: fmt.Errorf("provider does not publish a userinfo endpoint")}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.discoveryDocument.UserinfoEndpoint, nil)
	if err != nil {
		return nil, &UserinfoError{Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, &UserinfoError{Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &UserinfoError{Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	userinfo := map[string]any{}
	if err := json.NewDecoder(resp.Body).Decode(&userinfo); err != nil {
		return nil, &UserinfoError{Err: fmt.Errorf("unable to decode userinfo: %w", err)}
	}

	return userinfo, nil
}

// EndSessionURL builds the provider logout URL. No network call is made.
func (c *client) EndSessionURL(idTokenHint string) (string, error) {
	if c.discoveryDocument.EndSessionEndpoint == "" {
		return "", fmt.Errorf("provider does not publish an end_session_endpoint")
	}

	query := url.Values{}
	if idTokenHint != "" {
		query.Add("id_token_hint", idTokenHint)
	}
	if c.cfg.PostLogoutRedirectURI != "" {
		query.Add("post_logout_redirect_uri", c.cfg.PostLogoutRedirectURI)
	}

	if len(query) == 0 {
		return c.discoveryDocument.EndSessionEndpoint, nil
	}

	return fmt.Sprintf("%s?%s", c.discoveryDocument.EndSessionEndpoint, query.Encode()), nil
}
