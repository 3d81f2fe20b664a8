package http

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/tidwall/gjson"
)

type Response struct {
	// URLs lists every URL visited for this response, the requested one first
	// and the one the final response was fetched from last.
	URLs       []string
	URL        string
	StatusCode int
	Status     string
	Header     http.Header
	Body       []byte
	Content    any
	Duration   time.Duration
}

func (r *Response) BodyString() string {
	if s, ok := r.Content.(string); ok {
		return s
	}
	return string(r.Body)
}

func (r *Response) BodyJSON() (any, error) {
	var result any
	if err := json.Unmarshal(r.Body, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// JSON looks up a gjson path in the response body
func (r *Response) JSON(path string) gjson.Result {
	if s, ok := r.Content.(string); ok {
		return gjson.Get(s, path)
	}
	return gjson.GetBytes(r.Body, path)
}

func (r *Response) GetHeader(key string) string {
	return r.Header.Get(key)
}

// Locations returns every Location header value, uninterpreted
func (r *Response) Locations() []string {
	return r.Header.Values("Location")
}

func (r *Response) ContentType() string {
	return r.GetHeader("Content-Type")
}

func (r *Response) IsJSON() bool {
	ct := strings.ToLower(r.ContentType())
	return strings.Contains(ct, "application/json")
}

func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

func (r *Response) IsRedirect() bool {
	return r.StatusCode >= 300 && r.StatusCode < 400
}

func (r *Response) IsClientError() bool {
	return r.StatusCode >= 400 && r.StatusCode < 500
}

func (r *Response) IsServerError() bool {
	return r.StatusCode >= 500
}

func (r *Response) DurationMs() int64 {
	return r.Duration.Milliseconds()
}

// FinalURL returns the URL the response was fetched from
func (r *Response) FinalURL() string {
	if r.URL != "" {
		return r.URL
	}
	if len(r.URLs) > 0 {
		return r.URLs[len(r.URLs)-1]
	}
	return ""
}
