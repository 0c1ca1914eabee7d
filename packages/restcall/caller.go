package restcall

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/abdul-hamid-achik/jsoncall/packages/http"
)

// TokenProvider supplies the bearer token for each call. An empty string
// means no token is available.
type TokenProvider interface {
	AccessToken() string
}

// TokenFunc adapts a plain function to TokenProvider.
type TokenFunc func() string

func (f TokenFunc) AccessToken() string {
	if f == nil {
		return ""
	}
	return f()
}

// Transport performs the network exchange. A non-nil error means no
// response was received.
type Transport interface {
	Do(ctx context.Context, req *http.Request) (*http.Response, error)
}

// Observer is notified once at the end of every call.
type Observer interface {
	ObserveCall(verb string, outcome Outcome, statusCode int, duration time.Duration)
}

// Caller builds, sends and reduces JSON calls against a single base URL.
type Caller struct {
	baseURL   string
	host      string
	transport Transport
	tokens    TokenProvider
	logger    *zap.Logger
	observer  Observer

	contentTypeHeader string
	acceptHeader      string
	requireToken      bool
	defeatCaching     bool

	extraHeaders []http.Header

	// state of the last call
	errCode             ErrorCode
	errMessage          string
	response            []byte
	responseContentType string
	requestPath         string
}

// New creates a Caller for baseURL. tokens may be nil, in which case calls
// only succeed with WithRequireToken(false).
func New(baseURL string, transport Transport, tokens TokenProvider, opts ...Option) (*Caller, error) {
	if transport == nil {
		return nil, errors.New("restcall: transport is required")
	}
	if err := http.ValidateURL(baseURL); err != nil {
		return nil, fmt.Errorf("restcall: base URL: %w", err)
	}
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("restcall: base URL: %w", err)
	}
	if tokens == nil {
		tokens = TokenFunc(nil)
	}

	c := &Caller{
		baseURL:           strings.TrimRight(baseURL, "/"),
		host:              u.Host,
		transport:         transport,
		tokens:            tokens,
		logger:            zap.NewNop(),
		contentTypeHeader: DefaultContentType,
		acceptHeader:      DefaultAccept,
		requireToken:      true,
		defeatCaching:     true,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// AddExtraHeader registers a header sent after the fixed headers on every
// call. The first registration of a name wins; later ones are ignored.
func (c *Caller) AddExtraHeader(name, value string) {
	for _, h := range c.extraHeaders {
		if h.Name == name {
			return
		}
	}
	c.extraHeaders = append(c.extraHeaders, http.Header{Name: name, Value: value})
}

func (c *Caller) ClearExtraHeaders() {
	c.extraHeaders = nil
}

// ExtraHeaders returns a copy of the registered extra headers in
// registration order.
func (c *Caller) ExtraHeaders() []http.Header {
	out := make([]http.Header, len(c.extraHeaders))
	copy(out, c.extraHeaders)
	return out
}

// MakeJSONCall sends verb to path with the raw query string params and
// reduces the response. body is serialized only for POST, PUT and PATCH; for
// other verbs it is dropped. If body implements io.Closer it is closed once
// the request has been built, whatever the outcome.
//
// The returned error is a *CallError for every outcome other than
// OutcomeSuccess and OutcomeNoContent.
func (c *Caller) MakeJSONCall(ctx context.Context, verb, path, params string, body any) (Result, error) {
	c.reset()
	start := time.Now()
	verb = strings.ToUpper(strings.TrimSpace(verb))
	path = normalizePath(path)

	req, cerr := c.buildRequest(verb, path, params, body)
	if cerr != nil {
		return c.finish(verb, path, Result{Outcome: OutcomeNotSent}, cerr, start)
	}

	c.logger.Debug("dispatching call",
		zap.String("verb", verb),
		zap.String("host", c.host),
		zap.String("path", c.requestPath),
		zap.Int("headers", len(req.Headers)),
		zap.Int("body_bytes", len(req.Body)),
	)

	resp, err := c.transport.Do(ctx, req)
	result, cerr := c.reduce(path, resp, err)
	return c.finish(verb, path, result, cerr, start)
}

func (c *Caller) finish(verb, path string, result Result, cerr *CallError, start time.Time) (Result, error) {
	duration := time.Since(start)
	if c.observer != nil {
		c.observer.ObserveCall(verb, result.Outcome, result.StatusCode, duration)
	}

	if cerr != nil {
		c.errCode = cerr.Code
		c.errMessage = cerr.Message
		c.logger.Warn("call failed",
			zap.String("verb", verb),
			zap.String("host", c.host),
			zap.String("path", path),
			zap.Stringer("code", cerr.Code),
			zap.Int("status", cerr.StatusCode),
			zap.Duration("duration", duration),
		)
		return result, cerr
	}

	if result.Outcome == OutcomeNoContent {
		c.errCode = CodeNoContent
	}
	c.logger.Debug("call completed",
		zap.String("verb", verb),
		zap.String("host", c.host),
		zap.String("path", path),
		zap.Stringer("outcome", result.Outcome),
		zap.Int("status", result.StatusCode),
		zap.Duration("duration", duration),
	)
	return result, nil
}

// reset clears the state left by the previous call.
func (c *Caller) reset() {
	c.errCode = CodeOK
	c.errMessage = ""
	c.response = nil
	c.responseContentType = ""
	c.requestPath = ""
}

// ErrorCode returns the classification of the last call.
func (c *Caller) ErrorCode() ErrorCode {
	return c.errCode
}

// ErrorMessage returns the diagnostic message of the last failed call, or
// an empty string.
func (c *Caller) ErrorMessage() string {
	return c.errMessage
}

// ResponseText returns the raw body received by the last call.
func (c *Caller) ResponseText() string {
	return string(c.response)
}

func (c *Caller) ResponseContentType() string {
	return c.responseContentType
}

// RequestPath returns the path and query string of the last built request.
func (c *Caller) RequestPath() string {
	return c.requestPath
}

func (c *Caller) Host() string {
	return c.host
}

func normalizePath(path string) string {
	if path != "" && !strings.HasPrefix(path, "/") {
		return "/" + path
	}
	return path
}
