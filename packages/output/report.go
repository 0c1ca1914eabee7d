package output

import (
	"time"

	"github.com/abdul-hamid-achik/jsoncall/packages/restcall"
)

// CallReport is everything a formatter needs to render one call
type CallReport struct {
	Verb       string
	Host       string
	Path       string
	Outcome    restcall.Outcome
	Code       restcall.ErrorCode
	StatusCode int
	Status     string
	Message    string
	Body       []byte // JSON document or raw response text
	Duration   time.Duration
}

// Formatter renders call reports
type Formatter interface {
	FormatCall(report *CallReport)
	FormatError(err error)
}
