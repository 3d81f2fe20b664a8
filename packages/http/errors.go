package http

import (
	"errors"
	"fmt"
)

var (
	// ErrTooManyRedirects is returned when a redirect chain exceeds the configured maximum
	ErrTooManyRedirects = errors.New("too many redirects")
	// ErrRedirectNotAllowed is returned for redirect responses in RedirectError mode
	ErrRedirectNotAllowed = errors.New("redirect not allowed")
)

// UnsupportedRedirectStatusError is returned when a redirect status other than
// 301 or 302 is received while following redirects with cookies.
type UnsupportedRedirectStatusError struct {
	StatusCode int
	URL        string
}

func (e *UnsupportedRedirectStatusError) Error() string {
	return fmt.Sprintf("unknown HTTP redirect status: %d (%s)", e.StatusCode, e.URL)
}

// ServerError is returned for any response with a 5xx status
type ServerError struct {
	StatusCode int
	Status     string
	URL        string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error: %s (%s)", e.Status, e.URL)
}
