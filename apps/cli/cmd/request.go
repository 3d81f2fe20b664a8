package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/abdul-hamid-achik/hitfetch/packages/core/config"
	"github.com/abdul-hamid-achik/hitfetch/packages/http"
	"github.com/abdul-hamid-achik/hitfetch/packages/output"
	"github.com/spf13/cobra"
)

var requestCmd = &cobra.Command{
	Use:     "request <url>",
	Aliases: []string{"req", "fetch"},
	Short:   "Send a request and print the response content",
	Long: `Send an HTTP request and print the response content.

Redirects are followed by the transport by default. With
--redirect follow-with-cookies they are followed one hop at a time so that
cookies set by every hop are stored in the cookies file.

Examples:
  hitfetch request https://example.com
  hitfetch request https://example.com/login -X POST --form user=bob --form pass=secret --cookies jar.json --redirect follow-with-cookies
  hitfetch request https://api.example.com/items -q page=2 --select "items.#.id"
  hitfetch request https://example.com/upload -X POST -F title=cat -F image=@cat.png
  hitfetch request https://example.jp --encoding shift_jis -i`,
	Args: cobra.ExactArgs(1),
	RunE: requestCommand,
}

var (
	methodFlag       string
	headerFlags      []string
	queryFlags       []string
	formFlags        []string
	multipartFlags   []string
	jsonFlag         string
	dataFlag         string
	encodingFlag     string
	returnFlag       string
	redirectFlag     string
	maxRedirectsFlag int
	cookiesFlag      string
	insecureFlag     bool
	proxyFlag        string
	timeoutFlag      string
	rateFlag         float64
	selectFlag       string
	includeFlag      bool
	outputFlag       string
	verboseFlag      bool
	noColorFlag      bool
	configFlag       string
)

func init() {
	// Request flags
	requestCmd.Flags().StringVarP(&methodFlag, "method", "X", "GET", "HTTP method")
	requestCmd.Flags().StringArrayVarP(&headerFlags, "header", "H", nil, `Request header "Name: value" (repeatable)`)
	requestCmd.Flags().StringArrayVarP(&queryFlags, "query", "q", nil, "Query parameter key=value (repeatable)")
	requestCmd.Flags().StringArrayVar(&formFlags, "form", nil, "URL-encoded form field key=value (repeatable)")
	requestCmd.Flags().StringArrayVarP(&multipartFlags, "form-data", "F", nil, "Multipart field key=value or key=@file (repeatable)")
	requestCmd.Flags().StringVar(&jsonFlag, "json", "", "JSON request body")
	requestCmd.Flags().StringVarP(&dataFlag, "data", "d", "", "Raw request body")

	// Response flags
	requestCmd.Flags().StringVar(&encodingFlag, "encoding", getEnvString("HITFETCH_ENCODING", ""), "Charset to convert the response from (env: HITFETCH_ENCODING)")
	requestCmd.Flags().StringVar(&returnFlag, "return", "", "Content type to return: string, json, buffer")
	requestCmd.Flags().StringVar(&selectFlag, "select", "", "Print only the value at this JSON path")

	// Redirect and cookie flags
	requestCmd.Flags().StringVar(&redirectFlag, "redirect", getEnvString("HITFETCH_REDIRECT", ""), "Redirect mode: follow (default), follow-with-cookies, manual, error (env: HITFETCH_REDIRECT)")
	requestCmd.Flags().IntVar(&maxRedirectsFlag, "max-redirects", 0, "Maximum redirects to follow with cookies (0 = unlimited)")
	requestCmd.Flags().StringVarP(&cookiesFlag, "cookies", "c", getEnvString("HITFETCH_COOKIES", ""), "Cookies file to load and store (env: HITFETCH_COOKIES)")

	// Network flags
	requestCmd.Flags().BoolVarP(&insecureFlag, "insecure", "k", getEnvBool("HITFETCH_INSECURE", false), "Disable SSL certificate validation (env: HITFETCH_INSECURE)")
	requestCmd.Flags().StringVar(&proxyFlag, "proxy", getEnvString("HITFETCH_PROXY", ""), "Proxy URL for HTTP requests (env: HITFETCH_PROXY)")
	requestCmd.Flags().StringVar(&timeoutFlag, "timeout", getEnvString("HITFETCH_TIMEOUT", ""), "Request timeout (e.g., 30s, 1m) (env: HITFETCH_TIMEOUT)")
	requestCmd.Flags().Float64Var(&rateFlag, "rate", getEnvFloat("HITFETCH_RATE", 0), "Maximum requests per second, including redirect hops (env: HITFETCH_RATE)")

	// Output flags
	requestCmd.Flags().BoolVarP(&includeFlag, "include", "i", false, "Print the redirect chain, status and headers")
	requestCmd.Flags().StringVarP(&outputFlag, "output", "o", getEnvString("HITFETCH_OUTPUT", "console"), "Output format: console, json (env: HITFETCH_OUTPUT)")
	requestCmd.Flags().BoolVarP(&verboseFlag, "verbose", "v", getEnvBool("HITFETCH_VERBOSE", false), "Log every request to stderr (env: HITFETCH_VERBOSE)")
	requestCmd.Flags().BoolVar(&noColorFlag, "no-color", getEnvBool("HITFETCH_NO_COLOR", false), "Disable colored output (env: HITFETCH_NO_COLOR)")
	requestCmd.Flags().StringVar(&configFlag, "config", getEnvString("HITFETCH_CONFIG", ""), "Path to config file (env: HITFETCH_CONFIG)")
}

// Formatter is implemented by all output formatters
type Formatter interface {
	FormatResponse(resp *http.Response) error
	FormatValue(v any) error
	FormatError(err error)
}

func requestCommand(cmd *cobra.Command, args []string) error {
	cfg, err := loadRequestConfig()
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}

	params, err := buildParams()
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}

	formatter, err := newFormatter(cmd.OutOrStdout(), cfg)
	if err != nil {
		return withExitCode(ExitUsageError, err)
	}

	client, err := newClient(cfg, newLogger(cmd.ErrOrStderr(), cfg.GetVerbose()))
	if err != nil {
		return withExitCode(ExitConfigError, err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resp, err := client.RequestWithFullResponse(ctx, args[0], params)
	if err != nil {
		return err
	}

	if selectFlag != "" {
		result := resp.JSON(selectFlag)
		if !result.Exists() {
			return fmt.Errorf("no value at %q", selectFlag)
		}
		return formatter.FormatValue(result.Value())
	}

	return formatter.FormatResponse(resp)
}

// loadRequestConfig layers command line flags over the config file
func loadRequestConfig() (*config.Config, error) {
	cfg, err := config.LoadConfig(configFlag)
	if err != nil {
		return nil, err
	}

	overrides := &config.Config{
		CookiesFile:  cookiesFlag,
		Encoding:     encodingFlag,
		Redirect:     redirectFlag,
		MaxRedirects: maxRedirectsFlag,
		Proxy:        proxyFlag,
		RateLimit:    rateFlag,
		ReturnType:   returnFlag,
	}
	if timeoutFlag != "" {
		d, err := time.ParseDuration(timeoutFlag)
		if err != nil {
			return nil, fmt.Errorf("invalid timeout %q: %w", timeoutFlag, err)
		}
		overrides.Timeout = int(d.Milliseconds())
	}
	if insecureFlag {
		overrides.ValidateSSL = config.BoolPtr(false)
	}
	if verboseFlag {
		overrides.Verbose = config.BoolPtr(true)
	}
	if noColorFlag {
		overrides.NoColor = config.BoolPtr(true)
	}

	return cfg.Merge(overrides), nil
}

// newClient builds a client from the merged configuration
func newClient(cfg *config.Config, logger *slog.Logger) (*http.Client, error) {
	opts := []http.ClientOption{
		http.WithValidateSSL(cfg.GetValidateSSL()),
		http.WithDefaultHeaders(cfg.Headers),
		http.WithLogger(logger),
	}

	if cfg.Timeout > 0 {
		opts = append(opts, http.WithTimeout(time.Duration(cfg.Timeout)*time.Millisecond))
	}
	if cfg.CookiesFile != "" {
		opts = append(opts, http.WithCookiesFile(cfg.CookiesFile))
	}
	if cfg.Encoding != "" {
		opts = append(opts, http.WithEncoding(cfg.Encoding))
	}
	if cfg.Redirect != "" {
		mode, ok := http.ParseRedirectMode(cfg.Redirect)
		if !ok {
			return nil, fmt.Errorf("unknown redirect mode %q", cfg.Redirect)
		}
		opts = append(opts, http.WithRedirectMode(mode))
	}
	if cfg.MaxRedirects > 0 {
		opts = append(opts, http.WithMaxRedirects(cfg.MaxRedirects))
	}
	if cfg.Proxy != "" {
		opts = append(opts, http.WithProxy(cfg.Proxy))
	}
	if cfg.RateLimit > 0 {
		opts = append(opts, http.WithRateLimit(cfg.RateLimit))
	}

	return http.NewClient(opts...), nil
}

func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func newFormatter(w io.Writer, cfg *config.Config) (Formatter, error) {
	switch outputFlag {
	case "", "console":
		return output.NewConsoleFormatter(
			output.WithWriter(w),
			output.WithVerbose(includeFlag),
			output.WithNoColor(cfg.GetNoColor()),
		), nil
	case "json":
		return output.NewJSONFormatter(w), nil
	}
	return nil, fmt.Errorf("unknown output format %q", outputFlag)
}

// buildParams converts request flags into request params
func buildParams() (http.Params, error) {
	params := http.Params{Method: strings.ToUpper(methodFlag)}

	if returnFlag != "" {
		rt, ok := http.ParseReturnType(returnFlag)
		if !ok {
			return params, fmt.Errorf("unknown return type %q", returnFlag)
		}
		params.ReturnType = rt
	}

	if len(headerFlags) > 0 {
		params.Headers = make(map[string]string, len(headerFlags))
		for _, h := range headerFlags {
			key, value, found := strings.Cut(h, ":")
			if !found || strings.TrimSpace(key) == "" {
				return params, fmt.Errorf("invalid header %q, expected \"Name: value\"", h)
			}
			params.Headers[strings.TrimSpace(key)] = strings.TrimSpace(value)
		}
	}

	if len(queryFlags) > 0 {
		params.Query = make(map[string]string, len(queryFlags))
		for _, q := range queryFlags {
			key, value, err := splitKeyValue(q)
			if err != nil {
				return params, err
			}
			params.Query[key] = value
		}
	}

	if len(formFlags) > 0 {
		params.Form = make(map[string][]string)
		for _, f := range formFlags {
			key, value, err := splitKeyValue(f)
			if err != nil {
				return params, err
			}
			params.Form[key] = append(params.Form[key], value)
		}
	}

	for _, f := range multipartFlags {
		key, value, err := splitKeyValue(f)
		if err != nil {
			return params, err
		}
		field := http.FormField{Name: key, Value: value}
		if path, ok := strings.CutPrefix(value, "@"); ok {
			field = http.FormField{Name: key, Path: path}
		}
		params.FormData = append(params.FormData, field)
	}

	if jsonFlag != "" {
		var body any
		if err := json.Unmarshal([]byte(jsonFlag), &body); err != nil {
			return params, fmt.Errorf("invalid JSON body: %w", err)
		}
		if body == nil {
			return params, fmt.Errorf("JSON body must not be null")
		}
		params.JSON = body
	}

	params.Body = dataFlag
	return params, nil
}

func splitKeyValue(s string) (string, string, error) {
	key, value, found := strings.Cut(s, "=")
	if !found || key == "" {
		return "", "", fmt.Errorf("invalid value %q, expected key=value", s)
	}
	return key, value, nil
}
