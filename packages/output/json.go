package output

import (
	"encoding/json"
	"io"
	"os"

	"github.com/tidwall/gjson"
)

// JSONOutput is the machine-readable form of one call
type JSONOutput struct {
	Verb       string          `json:"verb"`
	URL        string          `json:"url"`
	Outcome    string          `json:"outcome"`
	Code       string          `json:"code"`
	StatusCode int             `json:"statusCode,omitempty"`
	Status     string          `json:"status,omitempty"`
	Message    string          `json:"message,omitempty"`
	Duration   float64         `json:"duration"` // milliseconds
	Body       json.RawMessage `json:"body,omitempty"`
	RawBody    string          `json:"rawBody,omitempty"`
}

// JSONError is written by FormatError
type JSONError struct {
	Error string `json:"error"`
}

// JSONFormatter formats call results as JSON
type JSONFormatter struct {
	writer io.Writer
}

type JSONOption func(*JSONFormatter)

func WithJSONWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *JSONFormatter) FormatCall(r *CallReport) {
	out := JSONOutput{
		Verb:       r.Verb,
		URL:        r.Host + r.Path,
		Outcome:    r.Outcome.String(),
		Code:       r.Code.String(),
		StatusCode: r.StatusCode,
		Status:     r.Status,
		Message:    r.Message,
		Duration:   float64(r.Duration.Microseconds()) / 1000,
	}
	if len(r.Body) > 0 {
		if gjson.ValidBytes(r.Body) {
			out.Body = json.RawMessage(r.Body)
		} else {
			out.RawBody = string(r.Body)
		}
	}
	f.encode(out)
}

func (f *JSONFormatter) FormatError(err error) {
	f.encode(JSONError{Error: err.Error()})
}

func (f *JSONFormatter) encode(v any) {
	enc := json.NewEncoder(f.writer)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	_ = enc.Encode(v)
}
