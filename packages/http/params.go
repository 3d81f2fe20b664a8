package http

import (
	"io"
	"net/http"
	"net/url"
)

// RedirectMode controls how redirect responses are handled
type RedirectMode string

const (
	// RedirectFollowWithCookies follows 301/302 redirects hop by hop so that
	// cookies set by intermediate responses are persisted.
	RedirectFollowWithCookies RedirectMode = "follow-with-cookies"
	// RedirectFollow lets net/http follow redirects on its own
	RedirectFollow RedirectMode = "follow"
	// RedirectManual returns redirect responses as they are
	RedirectManual RedirectMode = "manual"
	// RedirectError fails on any redirect response
	RedirectError RedirectMode = "error"
)

// ParseRedirectMode converts a mode name to a RedirectMode
func ParseRedirectMode(s string) (RedirectMode, bool) {
	switch m := RedirectMode(s); m {
	case RedirectFollowWithCookies, RedirectFollow, RedirectManual, RedirectError:
		return m, true
	case "followWithCookies":
		return RedirectFollowWithCookies, true
	}
	return "", false
}

// ReturnType selects how the response body is decoded into Response.Content
type ReturnType string

const (
	// ReturnDefault decodes JSON responses and returns text otherwise
	ReturnDefault ReturnType = ""
	ReturnString  ReturnType = "string"
	ReturnJSON    ReturnType = "json"
	ReturnBuffer  ReturnType = "buffer"
)

// ParseReturnType converts a return type name to a ReturnType
func ParseReturnType(s string) (ReturnType, bool) {
	switch rt := ReturnType(s); rt {
	case ReturnDefault, ReturnString, ReturnJSON, ReturnBuffer:
		return rt, true
	}
	return "", false
}

// FormField is one part of a multipart/form-data body.
// A field with a Path or Content is sent as a file, otherwise Value is sent.
type FormField struct {
	Name        string
	Value       string
	Filename    string
	ContentType string
	Content     io.Reader
	Path        string
}

// Params describes a single request. Only one body source is used, in the
// order Form, FormData, JSON, Body.
type Params struct {
	Method     string
	Headers    map[string]string
	Query      map[string]string
	Form       map[string][]string
	FormData   []FormField
	JSON       any
	Body       string
	BaseDir    string // Base directory for resolving relative file paths
	Encoding   string
	ReturnType ReturnType
	Redirect   RedirectMode
}

func (p Params) method() string {
	if p.Method == "" {
		return http.MethodGet
	}
	return p.Method
}

// redirectHop returns the params used for every request after a redirect:
// a bodiless GET that never lets the transport follow on its own.
func redirectHop() Params {
	return Params{Method: http.MethodGet, Redirect: RedirectManual}
}

// buildURL merges query parameters into rawURL
func buildURL(rawURL string, query map[string]string) string {
	if len(query) == 0 {
		return rawURL
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	q := u.Query()
	for k, v := range query {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
