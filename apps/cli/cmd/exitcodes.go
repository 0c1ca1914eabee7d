package cmd

import (
	"errors"
	"fmt"

	"github.com/abdul-hamid-achik/jsoncall/packages/restcall"
)

// Exit codes for jsoncall CLI
const (
	// ExitSuccess indicates the call succeeded or returned no content
	ExitSuccess = 0

	// ExitBadStatus indicates a non-2xx response
	ExitBadStatus = 1

	// ExitParseError indicates a 2xx response whose body is not JSON
	ExitParseError = 2

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitNetworkError indicates a network/connection error
	ExitNetworkError = 4

	// ExitAuthError indicates no access token could be obtained
	ExitAuthError = 5

	// ExitSchemaError indicates the response did not match --schema
	ExitSchemaError = 6

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

// exitError carries a process exit code out of a command
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

func withExitCode(code int, err error) error {
	return &exitError{code: code, err: err}
}

// exitCodeFor maps a call classification to a process exit code
func exitCodeFor(code restcall.ErrorCode) int {
	switch code {
	case restcall.CodeOK, restcall.CodeNoContent:
		return ExitSuccess
	case restcall.CodeBadStatus:
		return ExitBadStatus
	case restcall.CodeJSONParseFail:
		return ExitParseError
	case restcall.CodeNoAccessToken:
		return ExitAuthError
	default:
		return ExitNetworkError
	}
}

// ExitCode extracts the exit code carried by err
func ExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return ExitUsageError
}
