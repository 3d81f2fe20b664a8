package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html/charset"
)

// DecodeCharset converts body from the named charset to UTF-8
func DecodeCharset(body []byte, label string) (string, error) {
	label = strings.TrimSpace(strings.ToLower(label))
	if label == "" {
		return string(body), nil
	}

	reader, err := charset.NewReaderLabel(label, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("charset %q: %w", label, err)
	}

	decoded, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("decoding %s body: %w", label, err)
	}
	return string(decoded), nil
}

// decodeContent turns a response body into the value returned to callers:
// raw bytes for ReturnBuffer, parsed JSON for ReturnJSON or JSON responses,
// and text otherwise. An empty body yields nil content for JSON.
func decodeContent(body []byte, contentType, encoding string, rt ReturnType) (any, error) {
	if rt == ReturnBuffer {
		return body, nil
	}

	text, err := DecodeCharset(body, encoding)
	if err != nil {
		return nil, err
	}

	wantJSON := rt == ReturnJSON || (rt == ReturnDefault && strings.HasPrefix(strings.ToLower(contentType), contentTypeJSON))
	if !wantJSON {
		return text, nil
	}

	if strings.TrimSpace(text) == "" {
		return nil, nil
	}

	var content any
	if err := json.Unmarshal([]byte(text), &content); err != nil {
		return nil, fmt.Errorf("parsing JSON response: %w", err)
	}
	return content, nil
}
