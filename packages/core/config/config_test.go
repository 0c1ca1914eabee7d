package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/abdul-hamid-achik/jsoncall/packages/auth/oauth2"
	"github.com/abdul-hamid-achik/jsoncall/packages/core/env"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "application/json", cfg.ContentType)
	assert.Equal(t, "*/*", cfg.Accept)
	assert.True(t, cfg.GetRequireToken())
	assert.True(t, cfg.GetDefeatCaching())
	assert.True(t, cfg.GetValidateSSL())
	assert.True(t, cfg.IsDefault())
}

func TestGetters_NilDefaults(t *testing.T) {
	cfg := &Config{}

	assert.True(t, cfg.GetRequireToken())
	assert.True(t, cfg.GetDefeatCaching())
	assert.True(t, cfg.GetFollowRedirects())
	assert.True(t, cfg.GetValidateSSL())
	assert.False(t, cfg.GetNoColor())
}

func TestLoadConfig_YAML(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, ".jsoncall.yaml", `
baseURL: https://api.example.com/v2
accept: application/json
defeatCaching: false
timeout: 5000
rateLimit: 2.5
headers:
  - name: X-Tenant
    value: acme
  - name: X-Client
    value: cli
oauth2:
  grantType: client_credentials
  tokenURL: https://auth.example.com/token
  clientID: id
  clientSecret: secret
  scopes: [read, write]
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com/v2", cfg.BaseURL)
	assert.Equal(t, "application/json", cfg.Accept)
	assert.Equal(t, "application/json", cfg.ContentType, "defaults fill unset fields")
	assert.False(t, cfg.GetDefeatCaching())
	assert.True(t, cfg.GetRequireToken())
	assert.Equal(t, 5000, cfg.Timeout)
	assert.Equal(t, 2.5, cfg.RateLimit)
	require.Len(t, cfg.Headers, 2)
	assert.Equal(t, HeaderConfig{Name: "X-Tenant", Value: "acme"}, cfg.Headers[0])
	require.NotNil(t, cfg.OAuth2)
	assert.Equal(t, []string{"read", "write"}, cfg.OAuth2.Scopes)
}

func TestLoadConfig_JSON(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "jsoncall.json", `{"baseURL":"http://localhost:8080","requireToken":false,"token":"abc"}`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cfg.BaseURL)
	assert.False(t, cfg.GetRequireToken())
	assert.Equal(t, "abc", cfg.Token)
}

func TestLoadConfig_Invalid(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name    string
		file    string
		content string
		errMsg  string
	}{
		{name: "bad yaml", file: "a.yaml", content: "baseURL: [", errMsg: "parse config"},
		{name: "bad scheme", file: "b.yaml", content: "baseURL: ftp://x", errMsg: "unsupported URL scheme"},
		{name: "negative timeout", file: "c.json", content: `{"timeout":-1}`, errMsg: "timeout"},
		{name: "unnamed header", file: "d.yaml", content: "headers:\n  - value: x\n", errMsg: "name is required"},
		{name: "oauth2 without url", file: "e.yaml", content: "oauth2:\n  clientID: x\n", errMsg: "tokenURL"},
		{name: "oauth2 bad grant", file: "f.yaml", content: "oauth2:\n  tokenURL: http://a\n  grantType: implicit\n", errMsg: "grant type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeFile(t, dir, tt.file, tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestFindAndLoadConfig(t *testing.T) {
	dir := t.TempDir()

	cfg, err := FindAndLoadConfig(dir)
	require.NoError(t, err)
	assert.True(t, cfg.IsDefault())

	writeFile(t, dir, ".jsoncall.yml", "baseURL: https://found.example.com\n")
	cfg, err = FindAndLoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "https://found.example.com", cfg.BaseURL)
}

func TestMerge(t *testing.T) {
	base := DefaultConfig()
	base.BaseURL = "https://base.example.com"
	base.Headers = []HeaderConfig{{Name: "X-A", Value: "file"}}

	merged := base.Merge(&Config{
		Accept:        "application/json",
		DefeatCaching: BoolPtr(false),
		Headers:       []HeaderConfig{{Name: "X-A", Value: "flag"}},
	})

	assert.Equal(t, "https://base.example.com", merged.BaseURL)
	assert.Equal(t, "application/json", merged.Accept)
	assert.False(t, merged.GetDefeatCaching())
	assert.True(t, merged.GetRequireToken())
	require.Len(t, merged.Headers, 2)
	assert.Equal(t, "flag", merged.Headers[0].Value)

	// base is untouched
	assert.True(t, base.GetDefeatCaching())
	assert.Same(t, base, base.Merge(nil))
}

func TestSaveConfig_RoundTripYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.yaml")
	cfg := DefaultConfig()
	cfg.BaseURL = "https://saved.example.com"
	require.NoError(t, cfg.SaveConfig(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.BaseURL, loaded.BaseURL)
}

func TestOptions(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Proxy = "http://proxy:3128"
	cfg.RateLimit = 5
	cfg.Headers = []HeaderConfig{{Name: "X", Value: "1"}}

	// user agent, redirects, ssl, timeout, max redirects, proxy, rate limit
	assert.Len(t, cfg.ClientOptions(), 7)
	// token, caching, content type, accept, one header
	assert.Len(t, cfg.CallerOptions(), 5)
}

func TestTokenProvider(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Token = "static"
	assert.Equal(t, oauth2.Static("static"), cfg.TokenProvider(zap.NewNop()))

	cfg.OAuth2 = &OAuth2Config{TokenURL: "http://auth/token", ClientID: "id"}
	assert.Equal(t, oauth2.Static("static"), cfg.TokenProvider(zap.NewNop()), "explicit token wins over oauth2")

	cfg.Token = ""
	_, ok := cfg.TokenProvider(zap.NewNop()).(*oauth2.Provider)
	assert.True(t, ok)
}

func TestConfig_Expand(t *testing.T) {
	r := env.NewResolver()
	r.SetVariables(map[string]string{
		"HOST":   "api.example.com",
		"TOKEN":  "abc",
		"TENANT": "acme",
		"SECRET": "s3cret",
	})

	cfg := &Config{
		BaseURL: "https://{{HOST}}",
		Token:   "{{TOKEN}}",
		Headers: []HeaderConfig{{Name: "X-Tenant", Value: "{{TENANT}}"}},
		OAuth2: &OAuth2Config{
			TokenURL:     "https://{{HOST}}/token",
			ClientSecret: "{{SECRET}}",
		},
	}

	expanded := cfg.Expand(r)

	assert.Equal(t, "https://api.example.com", expanded.BaseURL)
	assert.Equal(t, "abc", expanded.Token)
	assert.Equal(t, "acme", expanded.Headers[0].Value)
	assert.Equal(t, "https://api.example.com/token", expanded.OAuth2.TokenURL)
	assert.Equal(t, "s3cret", expanded.OAuth2.ClientSecret)

	// the original is untouched
	assert.Equal(t, "{{TOKEN}}", cfg.Token)
	assert.Equal(t, "{{TENANT}}", cfg.Headers[0].Value)
	assert.Equal(t, "{{SECRET}}", cfg.OAuth2.ClientSecret)
}
