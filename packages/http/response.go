package http

import (
	"mime"
	"net/http"
	"strings"
	"time"
)

// Response is a fully read HTTP response.
type Response struct {
	StatusCode int
	Status     string
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

func (r *Response) BodyString() string {
	return string(r.Body)
}

// Header returns the first value of key, matched case-insensitively.
func (r *Response) Header(key string) string {
	return r.Headers.Get(key)
}

func (r *Response) ContentType() string {
	return r.Header("Content-Type")
}

// StatusText returns the reason phrase, e.g. "Not Found" for 404. Falls back
// to the standard text when the server sent none.
func (r *Response) StatusText() string {
	if _, text, ok := strings.Cut(r.Status, " "); ok && strings.TrimSpace(text) != "" {
		return strings.TrimSpace(text)
	}
	return http.StatusText(r.StatusCode)
}

// IsJSON reports whether the media type is application/json or a +json
// suffix type such as application/problem+json.
func (r *Response) IsJSON() bool {
	mediaType, _, err := mime.ParseMediaType(r.ContentType())
	if err != nil {
		return false
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}

// IsSuccess reports a 2xx status.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
