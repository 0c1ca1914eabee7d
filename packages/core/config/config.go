package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/abdul-hamid-achik/jsoncall/packages/auth/oauth2"
	"github.com/abdul-hamid-achik/jsoncall/packages/core/env"
	"github.com/abdul-hamid-achik/jsoncall/packages/http"
	"github.com/abdul-hamid-achik/jsoncall/packages/restcall"
)

// Config represents the jsoncall configuration
type Config struct {
	BaseURL         string         `json:"baseURL,omitempty" yaml:"baseURL,omitempty"`
	ContentType     string         `json:"contentType,omitempty" yaml:"contentType,omitempty"`
	Accept          string         `json:"accept,omitempty" yaml:"accept,omitempty"`
	RequireToken    *bool          `json:"requireToken,omitempty" yaml:"requireToken,omitempty"`
	DefeatCaching   *bool          `json:"defeatCaching,omitempty" yaml:"defeatCaching,omitempty"`
	Token           string         `json:"token,omitempty" yaml:"token,omitempty"`     // Static bearer token
	Timeout         int            `json:"timeout,omitempty" yaml:"timeout,omitempty"` // milliseconds
	FollowRedirects *bool          `json:"followRedirects,omitempty" yaml:"followRedirects,omitempty"`
	MaxRedirects    int            `json:"maxRedirects,omitempty" yaml:"maxRedirects,omitempty"`
	ValidateSSL     *bool          `json:"validateSSL,omitempty" yaml:"validateSSL,omitempty"`
	Proxy           string         `json:"proxy,omitempty" yaml:"proxy,omitempty"`
	RateLimit       float64        `json:"rateLimit,omitempty" yaml:"rateLimit,omitempty"` // requests per second
	Headers         []HeaderConfig `json:"headers,omitempty" yaml:"headers,omitempty"`     // Extra headers, first wins
	OAuth2          *OAuth2Config  `json:"oauth2,omitempty" yaml:"oauth2,omitempty"`
	LogLevel        string         `json:"logLevel,omitempty" yaml:"logLevel,omitempty"`
	LogFormat       string         `json:"logFormat,omitempty" yaml:"logFormat,omitempty"`
	NoColor         *bool          `json:"noColor,omitempty" yaml:"noColor,omitempty"`
}

// HeaderConfig is one extra header
type HeaderConfig struct {
	Name  string `json:"name" yaml:"name"`
	Value string `json:"value" yaml:"value"`
}

// OAuth2Config describes how to obtain the bearer token
type OAuth2Config struct {
	GrantType    string   `json:"grantType,omitempty" yaml:"grantType,omitempty"`
	TokenURL     string   `json:"tokenURL" yaml:"tokenURL"`
	ClientID     string   `json:"clientID,omitempty" yaml:"clientID,omitempty"`
	ClientSecret string   `json:"clientSecret,omitempty" yaml:"clientSecret,omitempty"`
	Username     string   `json:"username,omitempty" yaml:"username,omitempty"`
	Password     string   `json:"password,omitempty" yaml:"password,omitempty"`
	Scopes       []string `json:"scopes,omitempty" yaml:"scopes,omitempty"`
}

// BoolPtr returns a pointer to b
func BoolPtr(b bool) *bool {
	return &b
}

// getBool returns the value of a bool pointer, or the default if nil
func getBool(b *bool, defaultVal bool) bool {
	if b == nil {
		return defaultVal
	}
	return *b
}

// GetRequireToken returns the require token setting, defaulting to true
func (c *Config) GetRequireToken() bool {
	return getBool(c.RequireToken, true)
}

// GetDefeatCaching returns the cache defeat setting, defaulting to true
func (c *Config) GetDefeatCaching() bool {
	return getBool(c.DefeatCaching, true)
}

// GetFollowRedirects returns the follow redirects setting, defaulting to true
func (c *Config) GetFollowRedirects() bool {
	return getBool(c.FollowRedirects, true)
}

// GetValidateSSL returns the validate SSL setting, defaulting to true
func (c *Config) GetValidateSSL() bool {
	return getBool(c.ValidateSSL, true)
}

// GetNoColor returns the no color setting, defaulting to false
func (c *Config) GetNoColor() bool {
	return getBool(c.NoColor, false)
}

// UserAgent is sent with every call unless a header overrides it
const UserAgent = "jsoncall"

// ConfigFilenames contains the possible config file names
var ConfigFilenames = []string{
	".jsoncall.yaml",
	".jsoncall.yml",
	"jsoncall.yaml",
	".jsoncall.json",
	"jsoncall.json",
}

// LoadConfig loads configuration from the specified path or searches for config files
func LoadConfig(path string) (*Config, error) {
	if path != "" {
		return loadConfigFromFile(path)
	}

	// Search for config file in current directory
	return FindAndLoadConfig(".")
}

// FindAndLoadConfig searches for a config file in the given directory
func FindAndLoadConfig(dir string) (*Config, error) {
	for _, filename := range ConfigFilenames {
		configPath := filepath.Join(dir, filename)
		if _, err := os.Stat(configPath); err == nil {
			return loadConfigFromFile(configPath)
		}
	}

	// Return defaults if no config file found
	return DefaultConfig(), nil
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// loadConfigFromFile loads configuration from a specific file
func loadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	config := DefaultConfig()
	if isYAML(path) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}

	return config, nil
}

// Validate reports settings that can never produce a working caller
func (c *Config) Validate() error {
	if c.BaseURL != "" {
		if err := http.ValidateURL(c.BaseURL); err != nil {
			return fmt.Errorf("baseURL: %w", err)
		}
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative")
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rateLimit must not be negative")
	}
	for i, h := range c.Headers {
		if h.Name == "" {
			return fmt.Errorf("headers[%d]: name is required", i)
		}
	}
	if c.OAuth2 != nil {
		if c.OAuth2.TokenURL == "" {
			return fmt.Errorf("oauth2: tokenURL is required")
		}
		switch oauth2.GrantType(c.OAuth2.GrantType) {
		case "", oauth2.ClientCredentials, oauth2.Password:
		default:
			return fmt.Errorf("oauth2: unsupported grant type %q", c.OAuth2.GrantType)
		}
	}
	return nil
}

// Merge merges another config into this one, with other taking precedence
func (c *Config) Merge(other *Config) *Config {
	if other == nil {
		return c
	}

	result := *c // Copy

	if other.BaseURL != "" {
		result.BaseURL = other.BaseURL
	}
	if other.ContentType != "" {
		result.ContentType = other.ContentType
	}
	if other.Accept != "" {
		result.Accept = other.Accept
	}
	if other.Token != "" {
		result.Token = other.Token
	}
	if other.Timeout > 0 {
		result.Timeout = other.Timeout
	}
	if other.MaxRedirects > 0 {
		result.MaxRedirects = other.MaxRedirects
	}
	if other.Proxy != "" {
		result.Proxy = other.Proxy
	}
	if other.RateLimit > 0 {
		result.RateLimit = other.RateLimit
	}
	if other.OAuth2 != nil {
		result.OAuth2 = other.OAuth2
	}
	if other.LogLevel != "" {
		result.LogLevel = other.LogLevel
	}
	if other.LogFormat != "" {
		result.LogFormat = other.LogFormat
	}

	// Boolean flags - only override if explicitly set in other config
	if other.RequireToken != nil {
		result.RequireToken = other.RequireToken
	}
	if other.DefeatCaching != nil {
		result.DefeatCaching = other.DefeatCaching
	}
	if other.FollowRedirects != nil {
		result.FollowRedirects = other.FollowRedirects
	}
	if other.ValidateSSL != nil {
		result.ValidateSSL = other.ValidateSSL
	}
	if other.NoColor != nil {
		result.NoColor = other.NoColor
	}

	// Headers from other come first so they win the first-registration rule
	if len(other.Headers) > 0 {
		merged := make([]HeaderConfig, 0, len(other.Headers)+len(c.Headers))
		merged = append(merged, other.Headers...)
		merged = append(merged, c.Headers...)
		result.Headers = merged
	}

	return &result
}

// SaveConfig saves the configuration to a file, as YAML or JSON by extension
func (c *Config) SaveConfig(path string) error {
	var (
		data []byte
		err  error
	)
	if isYAML(path) {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Expand resolves {{variable}} references in every string setting that may
// carry a secret or an address
func (c *Config) Expand(r *env.Resolver) *Config {
	result := *c

	result.BaseURL = r.Resolve(c.BaseURL)
	result.Token = r.Resolve(c.Token)
	result.Proxy = r.Resolve(c.Proxy)

	if len(c.Headers) > 0 {
		result.Headers = make([]HeaderConfig, len(c.Headers))
		for i, h := range c.Headers {
			result.Headers[i] = HeaderConfig{Name: h.Name, Value: r.Resolve(h.Value)}
		}
	}

	if c.OAuth2 != nil {
		o := *c.OAuth2
		o.TokenURL = r.Resolve(o.TokenURL)
		o.ClientID = r.Resolve(o.ClientID)
		o.ClientSecret = r.Resolve(o.ClientSecret)
		o.Username = r.Resolve(o.Username)
		o.Password = r.Resolve(o.Password)
		result.OAuth2 = &o
	}

	return &result
}

// ClientOptions translates transport settings into http client options
func (c *Config) ClientOptions() []http.ClientOption {
	opts := []http.ClientOption{
		http.WithDefaultHeader("User-Agent", UserAgent),
		http.WithFollowRedirects(c.GetFollowRedirects()),
		http.WithValidateSSL(c.GetValidateSSL()),
	}
	if c.Timeout > 0 {
		opts = append(opts, http.WithTimeout(time.Duration(c.Timeout)*time.Millisecond))
	}
	if c.MaxRedirects > 0 {
		opts = append(opts, http.WithMaxRedirects(c.MaxRedirects))
	}
	if c.Proxy != "" {
		opts = append(opts, http.WithProxy(c.Proxy))
	}
	if c.RateLimit > 0 {
		opts = append(opts, http.WithRateLimit(c.RateLimit))
	}
	return opts
}

// CallerOptions translates request-building settings into caller options
func (c *Config) CallerOptions() []restcall.Option {
	opts := []restcall.Option{
		restcall.WithRequireToken(c.GetRequireToken()),
		restcall.WithDefeatCaching(c.GetDefeatCaching()),
	}
	if c.ContentType != "" {
		opts = append(opts, restcall.WithContentType(c.ContentType))
	}
	if c.Accept != "" {
		opts = append(opts, restcall.WithAccept(c.Accept))
	}
	for _, h := range c.Headers {
		opts = append(opts, restcall.WithExtraHeader(h.Name, h.Value))
	}
	return opts
}

// TokenProvider returns the static token when one is set, otherwise the
// OAuth2 provider when configured. With neither, the empty static token.
func (c *Config) TokenProvider(logger *zap.Logger) restcall.TokenProvider {
	if c.Token == "" && c.OAuth2 != nil {
		grant := oauth2.GrantType(c.OAuth2.GrantType)
		if grant == "" {
			grant = oauth2.ClientCredentials
		}
		return oauth2.NewProvider(&oauth2.Config{
			TokenURL:     c.OAuth2.TokenURL,
			ClientID:     c.OAuth2.ClientID,
			ClientSecret: c.OAuth2.ClientSecret,
			Username:     c.OAuth2.Username,
			Password:     c.OAuth2.Password,
			Scopes:       c.OAuth2.Scopes,
			GrantType:    grant,
		}, oauth2.WithLogger(logger))
	}
	return oauth2.Static(c.Token)
}
