package cmd

import (
	"bytes"
	"errors"
	"fmt"
	nethttp "net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"testing"

	"github.com/abdul-hamid-achik/hitfetch/packages/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resetFlags() {
	methodFlag = "GET"
	headerFlags, queryFlags, formFlags, multipartFlags = nil, nil, nil, nil
	jsonFlag, dataFlag, encodingFlag, returnFlag, redirectFlag = "", "", "", "", ""
	maxRedirectsFlag = 0
	cookiesFlag, cookieFileFlag, proxyFlag, timeoutFlag, selectFlag, configFlag = "", "", "", "", "", ""
	insecureFlag, includeFlag, verboseFlag, noColorFlag = false, false, false, false
	rateFlag = 0
	outputFlag = "console"
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	t.Cleanup(resetFlags)

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRequestAndCookieCommands(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		switch r.URL.Path {
		case "/start":
			nethttp.SetCookie(w, &nethttp.Cookie{Name: "session", Value: "abc", Path: "/"})
			nethttp.Redirect(w, r, "/final", nethttp.StatusFound)
		case "/final":
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"user": {"name": "bob"}, "agent": "` + r.Header.Get("User-Agent") + `"}`))
		}
	}))
	defer server.Close()

	cookieFile := filepath.Join(t.TempDir(), "jar.json")

	out, err := execute(t, "request", server.URL+"/start", "--cookies", cookieFile, "--redirect", "follow-with-cookies", "--select", "user.name", "--no-color")
	require.NoError(t, err)
	assert.Equal(t, "bob", out)

	out, err = execute(t, "request", server.URL+"/final", "-H", "User-Agent: tester", "--select", "agent")
	require.NoError(t, err)
	assert.Equal(t, "tester", out)

	out, err = execute(t, "cookie", "get", "session", "--cookies", cookieFile)
	require.NoError(t, err)
	assert.Equal(t, "abc\n", out)

	_, err = execute(t, "cookie", "get", "missing", "--cookies", cookieFile)
	assert.Error(t, err)
}

func TestRequestCommand_JSONOutput(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		_, _ = w.Write([]byte("plain"))
	}))
	defer server.Close()

	out, err := execute(t, "request", server.URL, "-o", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"content": "plain"`)
	assert.Contains(t, out, `"status": 200`)
}

func TestRequestCommand_UnsupportedRedirect(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		nethttp.Redirect(w, r, "/other", nethttp.StatusSeeOther)
	}))
	defer server.Close()

	_, err := execute(t, "request", server.URL, "--redirect", "follow-with-cookies")
	assert.Equal(t, ExitRedirectError, exitCodeFor(err))
}

func TestRequestCommand_InvalidFlags(t *testing.T) {
	_, err := execute(t, "request", "http://example.com", "--form", "novalue")
	assert.Equal(t, ExitUsageError, exitCodeFor(err))

	_, err = execute(t, "request", "http://example.com", "--redirect", "sideways")
	assert.Equal(t, ExitConfigError, exitCodeFor(err))

	_, err = execute(t, "request", "http://example.com", "--timeout", "soon")
	assert.Equal(t, ExitConfigError, exitCodeFor(err))
}

func TestBuildParams(t *testing.T) {
	resetFlags()
	t.Cleanup(resetFlags)

	methodFlag = "post"
	headerFlags = []string{"Accept: text/html", "X-Empty:"}
	queryFlags = []string{"page=2", "q=a=b"}
	formFlags = []string{"tag=a", "tag=b"}
	multipartFlags = []string{"title=cat", "image=@cat.png"}
	jsonFlag = `{"a": 1}`
	returnFlag = "buffer"

	params, err := buildParams()
	require.NoError(t, err)

	assert.Equal(t, "POST", params.Method)
	assert.Equal(t, map[string]string{"Accept": "text/html", "X-Empty": ""}, params.Headers)
	assert.Equal(t, map[string]string{"page": "2", "q": "a=b"}, params.Query)
	assert.Equal(t, map[string][]string{"tag": {"a", "b"}}, params.Form)
	assert.Equal(t, []http.FormField{{Name: "title", Value: "cat"}, {Name: "image", Path: "cat.png"}}, params.FormData)
	assert.Equal(t, map[string]any{"a": float64(1)}, params.JSON)
	assert.Equal(t, http.ReturnBuffer, params.ReturnType)
}

func TestBuildParams_Errors(t *testing.T) {
	tests := []struct {
		name  string
		setup func()
	}{
		{"bad header", func() { headerFlags = []string{"no-colon"} }},
		{"bad query", func() { queryFlags = []string{"=x"} }},
		{"bad json", func() { jsonFlag = "{" }},
		{"null json", func() { jsonFlag = " null " }},
		{"bad return type", func() { returnFlag = "xml" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resetFlags()
			t.Cleanup(resetFlags)
			tt.setup()

			_, err := buildParams()
			assert.Error(t, err)
		})
	}
}

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"nil", nil, ExitSuccess},
		{"plain", errors.New("x"), ExitFailure},
		{"explicit", withExitCode(ExitConfigError, errors.New("x")), ExitConfigError},
		{"unsupported redirect", &http.UnsupportedRedirectStatusError{StatusCode: 307}, ExitRedirectError},
		{"too many redirects", fmt.Errorf("wrapped: %w", http.ErrTooManyRedirects), ExitRedirectError},
		{"server error", &http.ServerError{StatusCode: 503}, ExitServerError},
		{"network", &url.Error{Op: "Get", URL: "http://x", Err: errors.New("refused")}, ExitNetworkError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, exitCodeFor(tt.err))
		})
	}
}
