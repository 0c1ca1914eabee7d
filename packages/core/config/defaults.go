package config

import (
	"github.com/abdul-hamid-achik/jsoncall/packages/restcall"
)

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	return &Config{
		ContentType:     restcall.DefaultContentType,
		Accept:          restcall.DefaultAccept,
		RequireToken:    BoolPtr(true),
		DefeatCaching:   BoolPtr(true),
		Timeout:         30000, // 30 seconds
		FollowRedirects: BoolPtr(true),
		MaxRedirects:    10,
		ValidateSSL:     BoolPtr(true),
		LogLevel:        "warn",
		LogFormat:       "console",
		NoColor:         BoolPtr(false),
	}
}

// IsDefault returns true if the config matches defaults
func (c *Config) IsDefault() bool {
	defaults := DefaultConfig()
	return c.BaseURL == defaults.BaseURL &&
		c.ContentType == defaults.ContentType &&
		c.Accept == defaults.Accept &&
		c.GetRequireToken() == defaults.GetRequireToken() &&
		c.GetDefeatCaching() == defaults.GetDefeatCaching() &&
		c.Token == "" &&
		c.Timeout == defaults.Timeout &&
		c.GetFollowRedirects() == defaults.GetFollowRedirects() &&
		c.MaxRedirects == defaults.MaxRedirects &&
		c.GetValidateSSL() == defaults.GetValidateSSL() &&
		c.Proxy == defaults.Proxy &&
		c.RateLimit == defaults.RateLimit &&
		len(c.Headers) == 0 &&
		c.OAuth2 == nil &&
		c.LogLevel == defaults.LogLevel &&
		c.LogFormat == defaults.LogFormat &&
		c.GetNoColor() == defaults.GetNoColor()
}
