package restcall

import (
	"go.uber.org/zap"
)

const (
	// DefaultContentType is sent as Content-Type unless overridden
	DefaultContentType = "application/json"
	// DefaultAccept is sent as Accept unless overridden
	DefaultAccept = "*/*"
)

type Option func(*Caller)

func WithContentType(contentType string) Option {
	return func(c *Caller) {
		c.contentTypeHeader = contentType
	}
}

func WithAccept(accept string) Option {
	return func(c *Caller) {
		c.acceptHeader = accept
	}
}

// WithRequireToken controls whether a call fails with CodeNoAccessToken when
// the token provider has nothing. Defaults to true.
func WithRequireToken(require bool) Option {
	return func(c *Caller) {
		c.requireToken = require
	}
}

// WithDefeatCaching controls the nonce query parameter. Defaults to true.
func WithDefeatCaching(defeat bool) Option {
	return func(c *Caller) {
		c.defeatCaching = defeat
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(c *Caller) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func WithObserver(observer Observer) Option {
	return func(c *Caller) {
		c.observer = observer
	}
}

// WithExtraHeader registers an extra header at construction time, with the
// same first-wins rule as AddExtraHeader.
func WithExtraHeader(name, value string) Option {
	return func(c *Caller) {
		c.AddExtraHeader(name, value)
	}
}
