package oauth2

import (
	"sync"
)

// TokenCache keeps the last token issued for each provider key. Providers
// sharing a cache reuse each other's tokens. Safe for concurrent use.
type TokenCache struct {
	mu     sync.Mutex
	tokens map[string]*Token
}

func NewTokenCache() *TokenCache {
	return &TokenCache{
		tokens: make(map[string]*Token),
	}
}

// Valid returns the token stored under key when it has not expired.
func (c *TokenCache) Valid(key string) (*Token, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tokens[key]
	if !ok || t.IsExpired() {
		return nil, false
	}
	return t, true
}

// RefreshToken returns the refresh token of an expired entry.
func (c *TokenCache) RefreshToken(key string) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.tokens[key]
	if !ok || t.RefreshToken == "" {
		return "", false
	}
	return t.RefreshToken, true
}

func (c *TokenCache) Store(key string, token *Token) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.tokens[key] = token
}

func (c *TokenCache) Forget(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.tokens, key)
}

func (c *TokenCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.tokens)
}
