package cookies

import (
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestJar_SetAndGet(t *testing.T) {
	jar, err := New()
	require.NoError(t, err)

	u := mustURL(t, "http://example.com/login")
	jar.SetCookies(u, []*http.Cookie{
		{Name: "session", Value: "abc"},
		{Name: "theme", Value: "dark", Path: "/"},
	})

	value, ok := jar.Get("session")
	assert.True(t, ok)
	assert.Equal(t, "abc", value)

	_, ok = jar.Get("missing")
	assert.False(t, ok)

	sent := jar.Cookies(mustURL(t, "http://example.com/"))
	require.Len(t, sent, 2)
	assert.Equal(t, 2, jar.Len())
}

func TestJar_DeleteWithNegativeMaxAge(t *testing.T) {
	jar, err := New()
	require.NoError(t, err)

	u := mustURL(t, "http://example.com/")
	jar.SetCookies(u, []*http.Cookie{{Name: "session", Value: "abc"}})
	require.Equal(t, 1, jar.Len())

	jar.SetCookies(u, []*http.Cookie{{Name: "session", MaxAge: -1}})
	assert.Equal(t, 0, jar.Len())
	assert.Empty(t, jar.Cookies(u))
}

func TestJar_ExpiredCookieIsDropped(t *testing.T) {
	jar, err := New()
	require.NoError(t, err)

	u := mustURL(t, "http://example.com/")
	jar.SetCookies(u, []*http.Cookie{{Name: "old", Value: "x", Expires: time.Now().Add(-time.Hour)}})
	assert.Equal(t, 0, jar.Len())
}

func TestJar_DomainCookie(t *testing.T) {
	jar, err := New()
	require.NoError(t, err)

	jar.SetCookies(mustURL(t, "http://www.example.com/"), []*http.Cookie{
		{Name: "shared", Value: "1", Domain: ".example.com"},
		{Name: "foreign", Value: "2", Domain: "other.com"},
	})

	entries := jar.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "example.com", entries[0].Domain)
	assert.False(t, entries[0].HostOnly)
	assert.Len(t, jar.Cookies(mustURL(t, "http://api.example.com/")), 1)
}

func TestJar_RecordsOnlyCookiesTheJarSends(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		cookie   *http.Cookie
		accepted bool
		hostOnly bool
	}{
		{"public suffix domain", "http://foo.co.uk/", &http.Cookie{Name: "c", Value: "1", Domain: "co.uk"}, false, false},
		{"registrable domain", "http://www.foo.co.uk/", &http.Cookie{Name: "c", Value: "1", Domain: ".foo.co.uk"}, true, false},
		{"ip with other domain", "http://127.0.0.1/", &http.Cookie{Name: "c", Value: "1", Domain: "10.0.0.1"}, false, false},
		{"ip with own domain", "http://127.0.0.1/", &http.Cookie{Name: "c", Value: "1", Domain: "127.0.0.1"}, true, true},
		{"malformed domain", "http://example.com/", &http.Cookie{Name: "c", Value: "1", Domain: "example.com."}, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			jar, err := New()
			require.NoError(t, err)

			u := mustURL(t, tt.url)
			jar.SetCookies(u, []*http.Cookie{tt.cookie})

			sent := jar.Cookies(u)
			entries := jar.All()
			assert.Len(t, entries, len(sent))

			_, ok := jar.Get("c")
			assert.Equal(t, tt.accepted, ok)
			if tt.accepted {
				require.Len(t, entries, 1)
				assert.Equal(t, tt.hostOnly, entries[0].HostOnly)
			}
		})
	}
}

func TestJar_DefaultPath(t *testing.T) {
	tests := []struct {
		cookiePath  string
		requestPath string
		expected    string
	}{
		{"/explicit", "/a/b", "/explicit"},
		{"", "/a/b", "/a"},
		{"", "/a", "/"},
		{"", "", "/"},
		{"relative", "/a/b/c", "/a/b"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, cookiePath(tt.cookiePath, tt.requestPath), "cookie %q request %q", tt.cookiePath, tt.requestPath)
	}
}

func TestJar_SaveAndLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "cookies.json")

	jar, err := New()
	require.NoError(t, err)
	jar.SetCookies(mustURL(t, "http://127.0.0.1:8080/"), []*http.Cookie{
		{Name: "session", Value: "abc", HttpOnly: true},
		{Name: "remember", Value: "yes", MaxAge: 3600},
	})
	require.NoError(t, jar.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "\n    \"version\": 1")
	assert.Contains(t, string(data), `"session"`)

	restored, err := New()
	require.NoError(t, err)
	require.NoError(t, restored.Load(path))

	value, ok := restored.Get("remember")
	assert.True(t, ok)
	assert.Equal(t, "yes", value)

	sent := restored.Cookies(mustURL(t, "http://127.0.0.1:8080/page"))
	assert.Len(t, sent, 2)
}

func TestJar_LoadMissingFile(t *testing.T) {
	jar, err := New()
	require.NoError(t, err)

	err = jar.Load(filepath.Join(t.TempDir(), "does-not-exist.json"))
	assert.NoError(t, err)
	assert.Equal(t, 0, jar.Len())
}

func TestJar_LoadSkipsExpired(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.json")
	content := `{
    "version": 1,
    "cookies": [
        {"name": "stale", "value": "1", "domain": "example.com", "path": "/", "hostOnly": true, "expires": "2001-01-01T00:00:00Z", "created": "2000-01-01T00:00:00Z"},
        {"name": "fresh", "value": "2", "domain": "example.com", "path": "/", "hostOnly": true, "created": "2000-01-01T00:00:00Z"}
    ]
}`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	jar, err := New()
	require.NoError(t, err)
	require.NoError(t, jar.Load(path))

	entries := jar.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "fresh", entries[0].Name)
	assert.Equal(t, 2000, entries[0].Created.Year())
}

func TestJar_LoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cookies.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	jar, err := New()
	require.NoError(t, err)

	err = jar.Load(path)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "parsing cookie file")
}
