package cmd

import (
	"errors"
	"net"
	"net/url"

	"github.com/abdul-hamid-achik/hitfetch/packages/http"
)

// Exit codes for hitfetch CLI
const (
	// ExitSuccess indicates the request completed
	ExitSuccess = 0

	// ExitFailure indicates any other failure
	ExitFailure = 1

	// ExitConfigError indicates a configuration error
	ExitConfigError = 3

	// ExitNetworkError indicates a network/connection error
	ExitNetworkError = 4

	// ExitRedirectError indicates a redirect that could not be followed
	ExitRedirectError = 5

	// ExitServerError indicates a 5xx response
	ExitServerError = 6

	// ExitUsageError indicates invalid CLI usage
	ExitUsageError = 64
)

type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func withExitCode(code int, err error) error {
	if err == nil {
		return nil
	}
	return &exitError{code: code, err: err}
}

// exitCodeFor maps an error returned by a command to a process exit code
func exitCodeFor(err error) int {
	if err == nil {
		return ExitSuccess
	}

	var exitErr *exitError
	if errors.As(err, &exitErr) {
		return exitErr.code
	}

	var redirectErr *http.UnsupportedRedirectStatusError
	if errors.As(err, &redirectErr) ||
		errors.Is(err, http.ErrTooManyRedirects) ||
		errors.Is(err, http.ErrRedirectNotAllowed) {
		return ExitRedirectError
	}

	var serverErr *http.ServerError
	if errors.As(err, &serverErr) {
		return ExitServerError
	}

	var urlErr *url.Error
	var netErr net.Error
	if errors.As(err, &urlErr) || errors.As(err, &netErr) {
		return ExitNetworkError
	}

	return ExitFailure
}
