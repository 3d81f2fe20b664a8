package http

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	neturl "net/url"
	"sync"
	"time"

	"github.com/abdul-hamid-achik/hitfetch/packages/cookies"
	"golang.org/x/time/rate"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 30 * time.Second
	// DefaultFollowLimit is how many redirects net/http follows in RedirectFollow mode
	DefaultFollowLimit = 10
	// DefaultMaxIdleConns is the maximum number of idle connections in the pool
	DefaultMaxIdleConns = 100
	// DefaultMaxIdleConnsPerHost is the maximum number of idle connections per host
	DefaultMaxIdleConnsPerHost = 10
	// DefaultIdleConnTimeout is how long idle connections stay in the pool
	DefaultIdleConnTimeout = 90 * time.Second
)

type redirectModeKey struct{}

// Client sends requests with a shared cookie jar that is written to the
// cookies file after every request. A Client is safe for concurrent use.
type Client struct {
	httpClient     *http.Client
	transport      http.RoundTripper
	timeout        time.Duration
	validateSSL    bool
	proxyURL       string
	defaultHeaders map[string]string
	cookiesFile    string
	encoding       string
	redirectMode   RedirectMode
	maxRedirects   int
	limiter        *rate.Limiter
	logger         *slog.Logger

	jar      *cookies.Jar
	initOnce sync.Once
	initErr  error
	storeMu  sync.Mutex
}

type ClientOption func(*Client)

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		timeout:        DefaultTimeout,
		validateSSL:    true,
		redirectMode:   RedirectFollow,
		defaultHeaders: make(map[string]string),
		logger:         slog.New(slog.DiscardHandler),
	}

	for _, opt := range opts {
		opt(c)
	}

	transport := c.transport
	if transport == nil {
		t := &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        DefaultMaxIdleConns,
			MaxIdleConnsPerHost: DefaultMaxIdleConnsPerHost,
			IdleConnTimeout:     DefaultIdleConnTimeout,
		}

		if !c.validateSSL {
			t.TLSClientConfig = &tls.Config{
				InsecureSkipVerify: true,
			}
		}

		if c.proxyURL != "" {
			proxyURL, err := neturl.Parse(c.proxyURL)
			if err == nil {
				t.Proxy = http.ProxyURL(proxyURL)
			}
		}
		transport = t
	}

	// cookiejar.New only fails for a broken public suffix list
	jar, _ := cookies.New()
	c.jar = jar

	c.httpClient = &http.Client{
		Transport:     transport,
		Timeout:       c.timeout,
		Jar:           jar,
		CheckRedirect: checkRedirect,
	}

	return c
}

// checkRedirect applies the redirect mode stored in the request context
func checkRedirect(req *http.Request, via []*http.Request) error {
	mode, _ := req.Context().Value(redirectModeKey{}).(RedirectMode)
	switch mode {
	case RedirectFollow:
		if len(via) >= DefaultFollowLimit {
			return fmt.Errorf("%w: stopped after %d redirects", ErrTooManyRedirects, DefaultFollowLimit)
		}
		return nil
	case RedirectError:
		return ErrRedirectNotAllowed
	default:
		return http.ErrUseLastResponse
	}
}

func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.timeout = d
	}
}

// WithCookiesFile loads cookies from path on first use and writes the jar
// back to it after every request
func WithCookiesFile(path string) ClientOption {
	return func(c *Client) {
		c.cookiesFile = path
	}
}

// WithEncoding sets the charset responses are converted from unless a
// request sets its own
func WithEncoding(label string) ClientOption {
	return func(c *Client) {
		c.encoding = label
	}
}

func WithRedirectMode(mode RedirectMode) ClientOption {
	return func(c *Client) {
		c.redirectMode = mode
	}
}

// WithMaxRedirects limits the hops followed in RedirectFollowWithCookies mode.
// Zero means no limit.
func WithMaxRedirects(max int) ClientOption {
	return func(c *Client) {
		c.maxRedirects = max
	}
}

func WithDefaultHeader(key, value string) ClientOption {
	return func(c *Client) {
		c.defaultHeaders[key] = value
	}
}

// WithDefaultHeaders sets multiple default headers for all requests
func WithDefaultHeaders(headers map[string]string) ClientOption {
	return func(c *Client) {
		for k, v := range headers {
			c.defaultHeaders[k] = v
		}
	}
}

// WithValidateSSL enables or disables SSL certificate validation
func WithValidateSSL(validate bool) ClientOption {
	return func(c *Client) {
		c.validateSSL = validate
	}
}

// WithProxy sets the proxy URL for all requests
func WithProxy(proxyURL string) ClientOption {
	return func(c *Client) {
		c.proxyURL = proxyURL
	}
}

// WithRateLimit caps outgoing requests per second, counting every redirect hop
func WithRateLimit(perSecond float64) ClientOption {
	return func(c *Client) {
		if perSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(perSecond), 1)
		}
	}
}

func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTransport replaces the default transport. TLS and proxy options are
// ignored when a transport is given.
func WithTransport(rt http.RoundTripper) ClientOption {
	return func(c *Client) {
		c.transport = rt
	}
}

func (c *Client) init() error {
	c.initOnce.Do(func() {
		if c.jar == nil {
			c.initErr = fmt.Errorf("cookie jar unavailable")
			return
		}
		if c.cookiesFile != "" {
			c.initErr = c.jar.Load(c.cookiesFile)
		}
	})
	return c.initErr
}

// Jar returns the client's cookie jar
func (c *Client) Jar() *cookies.Jar {
	return c.jar
}

func (c *Client) redirectModeFor(p Params) RedirectMode {
	if p.Redirect != "" {
		return p.Redirect
	}
	return c.redirectMode
}

// RequestWithFullResponse sends a request and, in RedirectFollowWithCookies
// mode, follows redirects itself. Response.URLs is always set.
func (c *Client) RequestWithFullResponse(ctx context.Context, url string, p Params) (*Response, error) {
	if c.redirectModeFor(p) == RedirectFollowWithCookies {
		f := &redirectFollower{
			send:         c.RequestWithHeaders,
			maxRedirects: c.maxRedirects,
			logger:       c.logger,
		}
		return f.follow(ctx, url, p)
	}
	return c.RequestWithHeaders(ctx, url, p)
}

// RequestWithHeaders performs exactly one call through the transport and
// persists cookies afterwards. Responses with a 5xx status return *ServerError.
func (c *Client) RequestWithHeaders(ctx context.Context, url string, p Params) (*Response, error) {
	if err := c.init(); err != nil {
		return nil, err
	}

	targetURL := buildURL(url, p.Query)
	if err := ValidateURL(targetURL); err != nil {
		return nil, err
	}

	body, err := encodeBody(p)
	if err != nil {
		return nil, err
	}

	mode := c.redirectModeFor(p)
	if mode == RedirectFollowWithCookies {
		mode = RedirectManual
	}
	ctx = context.WithValue(ctx, redirectModeKey{}, mode)

	httpReq, err := http.NewRequestWithContext(ctx, p.method(), targetURL, body.reader)
	if err != nil {
		return nil, err
	}

	for k, v := range c.defaultHeaders {
		httpReq.Header.Set(k, v)
	}

	for k, v := range p.Headers {
		httpReq.Header.Set(k, v)
	}

	if body.contentType != "" && (body.force || httpReq.Header.Get("Content-Type") == "") {
		httpReq.Header.Set("Content-Type", body.contentType)
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	duration := time.Since(start)

	if err != nil {
		// the jar already holds cookies from the redirect response CheckRedirect refused
		if errors.Is(err, ErrRedirectNotAllowed) || errors.Is(err, ErrTooManyRedirects) {
			if storeErr := c.StoreCookies(); storeErr != nil {
				return nil, errors.Join(err, storeErr)
			}
		}
		return nil, err
	}
	defer httpResp.Body.Close()

	finalURL := httpResp.Request.URL.String()
	c.logger.Debug("request", "method", httpReq.Method, "url", finalURL, "status", httpResp.StatusCode, "duration", duration)

	if httpResp.StatusCode >= 500 {
		return nil, &ServerError{StatusCode: httpResp.StatusCode, Status: httpResp.Status, URL: finalURL}
	}

	if err := c.StoreCookies(); err != nil {
		return nil, err
	}

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, err
	}

	encoding := p.Encoding
	if encoding == "" {
		encoding = c.encoding
	}
	content, err := decodeContent(respBody, httpResp.Header.Get("Content-Type"), encoding, p.ReturnType)
	if err != nil {
		return nil, err
	}

	urls := []string{url}
	if finalURL != url {
		urls = append(urls, finalURL)
	}

	return &Response{
		URLs:       urls,
		URL:        finalURL,
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		Header:     httpResp.Header,
		Body:       respBody,
		Content:    content,
		Duration:   duration,
	}, nil
}

// Request returns only the decoded content of the final response
func (c *Client) Request(ctx context.Context, url string, p Params) (any, error) {
	resp, err := c.RequestWithFullResponse(ctx, url, p)
	if err != nil {
		return nil, err
	}
	return resp.Content, nil
}

func (c *Client) Get(ctx context.Context, url string, p Params) (any, error) {
	p.Method = http.MethodGet
	return c.Request(ctx, url, p)
}

func (c *Client) Post(ctx context.Context, url string, p Params) (any, error) {
	p.Method = http.MethodPost
	return c.Request(ctx, url, p)
}

func (c *Client) Put(ctx context.Context, url string, p Params) (any, error) {
	p.Method = http.MethodPut
	return c.Request(ctx, url, p)
}

func (c *Client) Delete(ctx context.Context, url string, p Params) (any, error) {
	p.Method = http.MethodDelete
	return c.Request(ctx, url, p)
}

// StoreCookies writes the cookie jar to the cookies file, if one is configured
func (c *Client) StoreCookies() error {
	if err := c.init(); err != nil {
		return err
	}
	if c.cookiesFile == "" {
		return nil
	}

	c.storeMu.Lock()
	defer c.storeMu.Unlock()

	if err := c.jar.Save(c.cookiesFile); err != nil {
		return fmt.Errorf("storing cookies: %w", err)
	}
	return nil
}

// GetCookie returns the value of the first stored cookie with the given name
func (c *Client) GetCookie(name string) (string, bool, error) {
	if err := c.init(); err != nil {
		return "", false, err
	}
	value, ok := c.jar.Get(name)
	return value, ok, nil
}

// Cookies returns every stored cookie
func (c *Client) Cookies() ([]cookies.Entry, error) {
	if err := c.init(); err != nil {
		return nil, err
	}
	return c.jar.All(), nil
}

// ValidateURL checks that a URL is well-formed and uses an allowed scheme
func ValidateURL(rawURL string) error {
	u, err := neturl.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %v", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported URL scheme: %s (only http and https are allowed)", u.Scheme)
	}

	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}

	return nil
}
