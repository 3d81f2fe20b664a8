package output

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/abdul-hamid-achik/hitfetch/packages/http"
	"github.com/fatih/color"
)

type ConsoleFormatter struct {
	writer  io.Writer
	verbose bool
	noColor bool
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

// WithVerbose prints the redirect chain, status line and headers before the content
func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

func statusColor(code int) *color.Color {
	switch {
	case code >= 500:
		return color.New(color.FgRed, color.Bold)
	case code >= 400:
		return color.New(color.FgRed)
	case code >= 300:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgGreen)
	}
}

func (f *ConsoleFormatter) FormatResponse(resp *http.Response) error {
	if f.verbose {
		cyan := color.New(color.FgCyan).SprintFunc()
		bold := color.New(color.Bold).SprintFunc()

		for i, u := range resp.URLs {
			marker := "→"
			if i == 0 {
				marker = "•"
			}
			fmt.Fprintf(f.writer, "%s %s\n", cyan(marker), u)
		}
		fmt.Fprintf(f.writer, "%s %s\n", statusColor(resp.StatusCode).Sprint(resp.Status), cyan(fmt.Sprintf("(%dms)", resp.DurationMs())))

		keys := make([]string, 0, len(resp.Header))
		for k := range resp.Header {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			for _, v := range resp.Header[k] {
				fmt.Fprintf(f.writer, "%s: %s\n", bold(k), v)
			}
		}
		fmt.Fprintln(f.writer)
	}

	return writeContent(f.writer, resp.Content)
}

func (f *ConsoleFormatter) FormatValue(v any) error {
	return writeContent(f.writer, v)
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.writer, "%s %v\n", red("Error:"), err)
}

// writeContent prints text and bytes as they are and everything else as indented JSON
func writeContent(w io.Writer, content any) error {
	switch v := content.(type) {
	case nil:
		return nil
	case string:
		_, err := io.WriteString(w, v)
		return err
	case []byte:
		_, err := w.Write(v)
		return err
	}

	data, err := json.MarshalIndent(content, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
