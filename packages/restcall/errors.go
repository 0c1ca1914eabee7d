package restcall

import (
	"errors"
	"fmt"
)

// ErrorCode is the machine-readable classification of the last call.
type ErrorCode int

const (
	CodeOK ErrorCode = iota
	CodeNoContent
	CodeCallFailed
	CodeBadStatus
	CodeJSONParseFail
	CodeNoAccessToken
)

func (c ErrorCode) String() string {
	switch c {
	case CodeOK:
		return "OK"
	case CodeNoContent:
		return "NoContent"
	case CodeCallFailed:
		return "CallFailed"
	case CodeBadStatus:
		return "BadStatus"
	case CodeJSONParseFail:
		return "JsonParseFail"
	case CodeNoAccessToken:
		return "NoAccessToken"
	default:
		return fmt.Sprintf("ErrorCode(%d)", int(c))
	}
}

// Sentinels for errors.Is matching against a *CallError.
var (
	ErrCallFailed    = errors.New("restcall: call failed")
	ErrBadStatus     = errors.New("restcall: bad status")
	ErrJSONParseFail = errors.New("restcall: json parse failed")
	ErrNoAccessToken = errors.New("restcall: no access token")
)

// CallError describes a failed call. Message carries the host, path and the
// diagnostic detail of the failure.
type CallError struct {
	Code       ErrorCode
	Message    string
	Host       string
	Path       string
	StatusCode int
	Status     string
	Body       string
	Err        error
}

func (e *CallError) Error() string {
	return e.Message
}

func (e *CallError) Unwrap() error {
	return e.Err
}

func (e *CallError) Is(target error) bool {
	switch target {
	case ErrCallFailed:
		return e.Code == CodeCallFailed
	case ErrBadStatus:
		return e.Code == CodeBadStatus
	case ErrJSONParseFail:
		return e.Code == CodeJSONParseFail
	case ErrNoAccessToken:
		return e.Code == CodeNoAccessToken
	}
	return false
}

// CodeOf extracts the ErrorCode from err. nil maps to CodeOK and errors that
// are not a *CallError map to CodeCallFailed.
func CodeOf(err error) ErrorCode {
	if err == nil {
		return CodeOK
	}
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return CodeCallFailed
}

func noAccessTokenError(host, path string) *CallError {
	return &CallError{
		Code:    CodeNoAccessToken,
		Message: fmt.Sprintf("no access token available for %s%s", host, path),
		Host:    host,
		Path:    path,
	}
}

func callFailedError(host, path string, err error) *CallError {
	return &CallError{
		Code:    CodeCallFailed,
		Message: fmt.Sprintf("call to %s%s failed: %v", host, path, err),
		Host:    host,
		Path:    path,
		Err:     err,
	}
}

func badStatusError(host, path string, code int, status, body string) *CallError {
	return &CallError{
		Code:       CodeBadStatus,
		Message:    fmt.Sprintf("%s%s returned %d %s: %s", host, path, code, status, body),
		Host:       host,
		Path:       path,
		StatusCode: code,
		Status:     status,
		Body:       body,
	}
}

func parseFailedError(host, path string, code int, detail string) *CallError {
	return &CallError{
		Code:       CodeJSONParseFail,
		Message:    fmt.Sprintf("%s%s returned invalid JSON: %s", host, path, detail),
		Host:       host,
		Path:       path,
		StatusCode: code,
	}
}
