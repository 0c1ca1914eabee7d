package oauth2

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func tokenServer(t *testing.T, status int, body string, hits *int32) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "client", user)
		assert.Equal(t, "secret", pass)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestProvider_ClientCredentials(t *testing.T) {
	var hits int32
	server := tokenServer(t, http.StatusOK, `{"access_token":"abc","token_type":"bearer","expires_in":3600}`, &hits)

	p := NewProvider(&Config{
		TokenURL:     server.URL,
		ClientID:     "client",
		ClientSecret: "secret",
		GrantType:    ClientCredentials,
		Scopes:       []string{"read", "write"},
	})

	token, err := p.GetToken()
	require.NoError(t, err)
	assert.Equal(t, "abc", token.AccessToken)
	assert.False(t, token.IsExpired())

	// Second call is served from the cache
	assert.Equal(t, "abc", p.AccessToken())
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestProvider_AccessTokenEmptyOnFailure(t *testing.T) {
	var hits int32
	server := tokenServer(t, http.StatusUnauthorized, `{"error":"invalid_client","error_description":"bad secret"}`, &hits)

	p := NewProvider(&Config{
		TokenURL:     server.URL,
		ClientID:     "client",
		ClientSecret: "secret",
		GrantType:    ClientCredentials,
	})

	_, err := p.GetToken()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_client")
	assert.Equal(t, "", p.AccessToken())
}

func TestProvider_UnreachableTokenEndpoint(t *testing.T) {
	p := NewProvider(&Config{
		TokenURL:  "http://127.0.0.1:1/token",
		GrantType: ClientCredentials,
	}, WithHTTPClient(&http.Client{Timeout: time.Second}))

	assert.Equal(t, "", p.AccessToken())
}

func TestProvider_SharedCache(t *testing.T) {
	cache := NewTokenCache()
	cfg := &Config{TokenURL: "http://unused", ClientID: "c", GrantType: ClientCredentials}
	cache.Store("http://unused:c:", &Token{AccessToken: "cached", ExpiresAt: time.Now().Add(time.Hour)})

	p := NewProvider(cfg, WithCache(cache))
	assert.Equal(t, "cached", p.AccessToken())
}

func TestTokenCache(t *testing.T) {
	cache := NewTokenCache()

	_, ok := cache.Valid("k")
	assert.False(t, ok)

	cache.Store("k", &Token{AccessToken: "old", RefreshToken: "r1", ExpiresAt: time.Now().Add(-time.Minute)})
	_, ok = cache.Valid("k")
	assert.False(t, ok, "expired token must not be served")

	refresh, ok := cache.RefreshToken("k")
	assert.True(t, ok)
	assert.Equal(t, "r1", refresh)

	cache.Store("k", &Token{AccessToken: "new"})
	token, ok := cache.Valid("k")
	assert.True(t, ok)
	assert.Equal(t, "new", token.AccessToken)
	assert.Equal(t, 1, cache.Len())

	cache.Forget("k")
	assert.Equal(t, 0, cache.Len())
}

func TestToken_IsExpired(t *testing.T) {
	assert.False(t, (&Token{}).IsExpired())
	assert.True(t, (&Token{ExpiresAt: time.Now().Add(10 * time.Second)}).IsExpired())
	assert.False(t, (&Token{ExpiresAt: time.Now().Add(time.Hour)}).IsExpired())
}

func TestStatic(t *testing.T) {
	assert.Equal(t, "t0k", Static("t0k").AccessToken())
	assert.Equal(t, "", Static("").AccessToken())
}

func TestParseGrant(t *testing.T) {
	tests := []struct {
		name    string
		params  []string
		wantErr bool
		check   func(t *testing.T, c *Config)
	}{
		{
			name:   "client credentials with scopes",
			params: []string{"client_credentials", "https://auth/token", "id", "secret", "a,b"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, ClientCredentials, c.GrantType)
				assert.Equal(t, []string{"a", "b"}, c.Scopes)
			},
		},
		{
			name:   "password grant",
			params: []string{"password", "https://auth/token", "id", "secret", "user", "pass"},
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, "user", c.Username)
				assert.Equal(t, "pass", c.Password)
			},
		},
		{name: "too few params", params: []string{"client_credentials", "url"}, wantErr: true},
		{name: "password missing user", params: []string{"password", "url", "id", "secret"}, wantErr: true},
		{name: "unknown grant", params: []string{"implicit", "url", "id", "secret"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := ParseGrant(tt.params)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, cfg)
		})
	}
}

func TestProvider_RefreshesExpiredToken(t *testing.T) {
	var grants []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		grants = append(grants, r.PostForm.Get("grant_type"))
		if r.PostForm.Get("grant_type") == "refresh_token" {
			assert.Equal(t, "r1", r.PostForm.Get("refresh_token"))
			_, _ = w.Write([]byte(`{"access_token":"refreshed","expires_in":3600}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"fresh"}`))
	}))
	defer server.Close()

	cfg := &Config{TokenURL: server.URL, ClientID: "c", GrantType: ClientCredentials}
	cache := NewTokenCache()
	cache.Store(server.URL+":c:", &Token{AccessToken: "stale", RefreshToken: "r1", ExpiresAt: time.Now().Add(-time.Minute)})

	p := NewProvider(cfg, WithCache(cache))

	assert.Equal(t, "refreshed", p.AccessToken())
	assert.Equal(t, []string{"refresh_token"}, grants)
}

func TestProvider_FallsBackWhenRefreshFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		if r.PostForm.Get("grant_type") == "refresh_token" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"fresh"}`))
	}))
	defer server.Close()

	cfg := &Config{TokenURL: server.URL, ClientID: "c", GrantType: ClientCredentials}
	cache := NewTokenCache()
	cache.Store(server.URL+":c:", &Token{AccessToken: "stale", RefreshToken: "r1", ExpiresAt: time.Now().Add(-time.Minute)})

	p := NewProvider(cfg, WithCache(cache))

	assert.Equal(t, "fresh", p.AccessToken())
}

func TestProvider_PasswordGrantForm(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "password", r.PostForm.Get("grant_type"))
		assert.Equal(t, "ada", r.PostForm.Get("username"))
		assert.Equal(t, "hunter2", r.PostForm.Get("password"))
		assert.Equal(t, "read write", r.PostForm.Get("scope"))
		_, _ = w.Write([]byte(`{"access_token":"pw"}`))
	}))
	defer server.Close()

	p := NewProvider(&Config{
		TokenURL:  server.URL,
		GrantType: Password,
		Username:  "ada",
		Password:  "hunter2",
		Scopes:    []string{"read", "write"},
	})

	assert.Equal(t, "pw", p.AccessToken())
}

func TestProvider_TokenError(t *testing.T) {
	var hits int32
	server := tokenServer(t, http.StatusInternalServerError, `upstream down`, &hits)

	p := NewProvider(&Config{
		TokenURL:     server.URL,
		ClientID:     "client",
		ClientSecret: "secret",
		GrantType:    ClientCredentials,
	})

	_, err := p.GetToken()
	require.Error(t, err)

	var tokenErr *TokenError
	require.True(t, errors.As(err, &tokenErr))
	assert.Equal(t, http.StatusInternalServerError, tokenErr.StatusCode)
	assert.Empty(t, tokenErr.Code)
	assert.Contains(t, err.Error(), "upstream down")
}

func TestProvider_MissingAccessToken(t *testing.T) {
	var hits int32
	server := tokenServer(t, http.StatusOK, `{"token_type":"bearer"}`, &hits)

	p := NewProvider(&Config{
		TokenURL:     server.URL,
		ClientID:     "client",
		ClientSecret: "secret",
	})

	_, err := p.GetToken()
	assert.Error(t, err)
}
