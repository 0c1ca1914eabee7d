// Package oauth2 acquires and caches OAuth2 access tokens and exposes them
// as bearer tokens for jsoncall.
package oauth2

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// GrantType represents the OAuth2 grant type
type GrantType string

const (
	ClientCredentials GrantType = "client_credentials"
	Password          GrantType = "password"
	RefreshToken      GrantType = "refresh_token"
)

// expirySkew makes tokens count as expired slightly early to absorb clock
// differences with the authorization server.
const expirySkew = 30 * time.Second

// maxTokenResponse bounds the token endpoint body we are willing to read.
const maxTokenResponse = 1 << 20

// Config describes one token endpoint and the credentials used against it
type Config struct {
	TokenURL     string
	ClientID     string
	ClientSecret string
	Scopes       []string
	Username     string // password grant only
	Password     string // password grant only
	GrantType    GrantType
}

// Token is the token endpoint response
type Token struct {
	AccessToken  string    `json:"access_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int       `json:"expires_in"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Scope        string    `json:"scope,omitempty"`
	ExpiresAt    time.Time `json:"-"`
}

// IsExpired reports whether the token is within expirySkew of ExpiresAt.
// Tokens without an expiry never expire.
func (t *Token) IsExpired() bool {
	if t.ExpiresAt.IsZero() {
		return false
	}
	return time.Now().Add(expirySkew).After(t.ExpiresAt)
}

// TokenError is returned when the token endpoint rejects a request
type TokenError struct {
	StatusCode  int
	Code        string // RFC 6749 error code, e.g. invalid_client
	Description string
	Body        string
}

func (e *TokenError) Error() string {
	if e.Code != "" {
		if e.Description != "" {
			return fmt.Sprintf("token endpoint: %s: %s", e.Code, e.Description)
		}
		return fmt.Sprintf("token endpoint: %s", e.Code)
	}
	return fmt.Sprintf("token endpoint returned %d: %s", e.StatusCode, e.Body)
}

// Provider obtains tokens from one endpoint and satisfies
// restcall.TokenProvider
type Provider struct {
	config     *Config
	httpClient *http.Client
	cache      *TokenCache
	logger     *zap.Logger
}

type ProviderOption func(*Provider)

// WithHTTPClient replaces the client used against the token endpoint
func WithHTTPClient(client *http.Client) ProviderOption {
	return func(p *Provider) {
		p.httpClient = client
	}
}

// WithCache shares a token cache between providers
func WithCache(cache *TokenCache) ProviderOption {
	return func(p *Provider) {
		p.cache = cache
	}
}

func WithLogger(logger *zap.Logger) ProviderOption {
	return func(p *Provider) {
		if logger != nil {
			p.logger = logger
		}
	}
}

func NewProvider(config *Config, opts ...ProviderOption) *Provider {
	p := &Provider{
		config:     config,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cache:      NewTokenCache(),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// AccessToken returns a valid access token, or an empty string when none
// could be obtained. The failure is logged, never returned.
func (p *Provider) AccessToken() string {
	token, err := p.GetToken()
	if err != nil {
		p.logger.Warn("oauth2 token unavailable",
			zap.String("token_url", p.config.TokenURL),
			zap.String("grant_type", string(p.config.GrantType)),
			zap.Error(err),
		)
		return ""
	}
	return token.AccessToken
}

// Static is a fixed bearer token. The empty Static means no token.
type Static string

func (s Static) AccessToken() string {
	return string(s)
}

// GetToken returns a valid access token. A cached token is reused until it
// expires, then refreshed when possible, then fetched again.
func (p *Provider) GetToken() (*Token, error) {
	key := p.cacheKey()
	if token, ok := p.cache.Valid(key); ok {
		return token, nil
	}

	if refresh, ok := p.cache.RefreshToken(key); ok {
		refreshed, err := p.RefreshAccessToken(refresh)
		if err == nil {
			p.cache.Store(key, refreshed)
			return refreshed, nil
		}
		p.logger.Debug("oauth2 refresh failed", zap.Error(err))
		p.cache.Forget(key)
	}

	token, err := p.exchange(p.grantForm())
	if err != nil {
		return nil, err
	}
	p.logger.Debug("oauth2 token acquired",
		zap.String("token_url", p.config.TokenURL),
		zap.Int("expires_in", token.ExpiresIn),
	)
	p.cache.Store(key, token)

	return token, nil
}

// RefreshAccessToken exchanges a refresh token for a new access token
func (p *Provider) RefreshAccessToken(refreshToken string) (*Token, error) {
	form := url.Values{}
	form.Set("grant_type", string(RefreshToken))
	form.Set("refresh_token", refreshToken)
	return p.exchange(form)
}

func (p *Provider) cacheKey() string {
	return fmt.Sprintf("%s:%s:%s", p.config.TokenURL, p.config.ClientID, strings.Join(p.config.Scopes, ","))
}

// grantForm builds the form for the configured grant. Anything other than
// the password grant is treated as client credentials.
func (p *Provider) grantForm() url.Values {
	form := url.Values{}
	if p.config.GrantType == Password {
		form.Set("grant_type", string(Password))
		form.Set("username", p.config.Username)
		form.Set("password", p.config.Password)
	} else {
		form.Set("grant_type", string(ClientCredentials))
	}
	if len(p.config.Scopes) > 0 {
		form.Set("scope", strings.Join(p.config.Scopes, " "))
	}
	return form
}

// exchange posts form to the token endpoint, authenticating the client with
// HTTP Basic when both id and secret are set.
func (p *Provider) exchange(form url.Values) (*Token, error) {
	req, err := http.NewRequest(http.MethodPost, p.config.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if p.config.ClientID != "" && p.config.ClientSecret != "" {
		req.SetBasicAuth(p.config.ClientID, p.config.ClientSecret)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxTokenResponse))
	if err != nil {
		return nil, fmt.Errorf("read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		tokenErr := &TokenError{StatusCode: resp.StatusCode, Body: string(body)}
		var payload struct {
			Error            string `json:"error"`
			ErrorDescription string `json:"error_description"`
		}
		if json.Unmarshal(body, &payload) == nil {
			tokenErr.Code = payload.Error
			tokenErr.Description = payload.ErrorDescription
		}
		return nil, tokenErr
	}

	var token Token
	if err := json.Unmarshal(body, &token); err != nil {
		return nil, fmt.Errorf("parse token response: %w", err)
	}
	if token.AccessToken == "" {
		return nil, fmt.Errorf("token response carries no access_token")
	}
	if token.ExpiresIn > 0 {
		token.ExpiresAt = time.Now().Add(time.Duration(token.ExpiresIn) * time.Second)
	} else {
		token.ExpiresAt = jwtExpiry(token.AccessToken)
	}

	return &token, nil
}

// ParseGrant parses a whitespace-split grant description:
//
//	client_credentials <tokenURL> <clientID> <clientSecret> [scope,scope]
//	password <tokenURL> <clientID> <clientSecret> <username> <password> [scope,scope]
func ParseGrant(fields []string) (*Config, error) {
	if len(fields) < 4 {
		return nil, fmt.Errorf("oauth2 grant requires at least: grant_type tokenURL clientID clientSecret")
	}

	config := &Config{
		GrantType:    GrantType(fields[0]),
		TokenURL:     fields[1],
		ClientID:     fields[2],
		ClientSecret: fields[3],
	}
	rest := fields[4:]

	switch config.GrantType {
	case ClientCredentials:
	case Password:
		if len(rest) < 2 {
			return nil, fmt.Errorf("oauth2 password grant requires: tokenURL clientID clientSecret username password [scopes]")
		}
		config.Username, config.Password = rest[0], rest[1]
		rest = rest[2:]
	default:
		return nil, fmt.Errorf("unsupported OAuth2 grant type: %s", config.GrantType)
	}

	if len(rest) > 0 {
		config.Scopes = strings.Split(rest[0], ",")
	}
	return config, nil
}
