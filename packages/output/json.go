package output

import (
	"encoding/json"
	"io"
	"os"

	"github.com/abdul-hamid-achik/hitfetch/packages/http"
)

// JSONResponse is the machine-readable form of a response
type JSONResponse struct {
	URLs       []string            `json:"urls"`
	StatusCode int                 `json:"status"`
	Status     string              `json:"statusText"`
	Headers    map[string][]string `json:"headers"`
	Content    any                 `json:"content"`
	Duration   float64             `json:"duration"` // milliseconds
}

// JSONError is written instead of a response when the request failed
type JSONError struct {
	Error string `json:"error"`
}

type JSONFormatter struct {
	writer io.Writer
}

func NewJSONFormatter(w io.Writer) *JSONFormatter {
	if w == nil {
		w = os.Stdout
	}
	return &JSONFormatter{writer: w}
}

func (f *JSONFormatter) FormatResponse(resp *http.Response) error {
	return f.encode(JSONResponse{
		URLs:       resp.URLs,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Headers:    resp.Header,
		Content:    resp.Content, // []byte content is written as base64
		Duration:   float64(resp.Duration.Microseconds()) / 1000,
	})
}

func (f *JSONFormatter) FormatValue(v any) error {
	return f.encode(v)
}

func (f *JSONFormatter) FormatError(err error) {
	_ = f.encode(JSONError{Error: err.Error()})
}

func (f *JSONFormatter) encode(v any) error {
	enc := json.NewEncoder(f.writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
