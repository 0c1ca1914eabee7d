package restcall

import (
	"bytes"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/abdul-hamid-achik/jsoncall/packages/http"
)

// nonceParam is the query parameter carrying the cache-defeating value.
const nonceParam = "nonce"

func (c *Caller) buildRequest(verb, path, params string, body any) (*http.Request, *CallError) {
	defer c.releaseBody(body)

	token := c.tokens.AccessToken()
	if token == "" && c.requireToken {
		return nil, noAccessTokenError(c.host, path)
	}

	finalPath, err := buildPath(path, params, c.defeatCaching)
	if err != nil {
		return nil, callFailedError(c.host, path, err)
	}
	c.requestPath = finalPath

	req := http.NewRequest(verb, c.baseURL+finalPath)
	req.AddHeader("Content-Type", c.contentTypeHeader)
	req.AddHeader("Accept", c.acceptHeader)
	if token != "" {
		req.AddHeader("Authorization", "Bearer "+token)
	}
	for _, h := range c.extraHeaders {
		req.AddHeader(h.Name, h.Value)
	}

	if body != nil && sendsBody(verb) {
		data, err := encodeBody(body)
		if err != nil {
			return nil, callFailedError(c.host, path, fmt.Errorf("encode body: %w", err))
		}
		req.SetBody(data)
	}

	return req, nil
}

// buildPath appends params and, when defeat is set, a fresh nonce.
func buildPath(path, params string, defeat bool) (string, error) {
	query := params
	if defeat {
		nonce, err := newNonce()
		if err != nil {
			return "", err
		}
		if query == "" {
			query = nonceParam + "=" + nonce
		} else {
			query += "&" + nonceParam + "=" + nonce
		}
	}
	if query == "" {
		return path, nil
	}
	return path + "?" + query, nil
}

// newNonce returns 128 random bits as 32 lowercase hex characters.
func newNonce() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate nonce: %w", err)
	}
	return hex.EncodeToString(id[:]), nil
}

func sendsBody(verb string) bool {
	switch verb {
	case "POST", "PUT", "PATCH":
		return true
	}
	return false
}

// encodeBody renders body as JSON. Readers are taken as already encoded.
func encodeBody(body any) ([]byte, error) {
	if r, ok := body.(io.Reader); ok {
		return io.ReadAll(r)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(body); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func (c *Caller) releaseBody(body any) {
	closer, ok := body.(io.Closer)
	if !ok {
		return
	}
	if err := closer.Close(); err != nil {
		c.logger.Debug("closing request body", zap.Error(err))
	}
}
