package cookies

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/net/publicsuffix"
)

// FileVersion is the version written into cookie files
const FileVersion = 1

// Entry is a single stored cookie as it appears in a cookie file
type Entry struct {
	Name     string     `json:"name"`
	Value    string     `json:"value"`
	Domain   string     `json:"domain"`
	Path     string     `json:"path"`
	HostOnly bool       `json:"hostOnly"`
	Secure   bool       `json:"secure,omitempty"`
	HttpOnly bool       `json:"httpOnly,omitempty"`
	Expires  *time.Time `json:"expires,omitempty"`
	Created  time.Time  `json:"created"`
}

func (e *Entry) key() string {
	return e.Domain + ";" + e.Path + ";" + e.Name
}

func (e *Entry) expired(now time.Time) bool {
	return e.Expires != nil && !e.Expires.After(now)
}

type file struct {
	Version int      `json:"version"`
	Cookies []*Entry `json:"cookies"`
}

// Jar is an http.CookieJar that remembers every cookie it accepts so the
// whole jar can be written to and restored from a JSON file.
type Jar struct {
	inner *cookiejar.Jar

	mu      sync.Mutex
	entries map[string]*Entry
	now     func() time.Time
}

// New creates an empty jar backed by the public suffix list
func New() (*Jar, error) {
	inner, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, err
	}
	return &Jar{
		inner:   inner,
		entries: make(map[string]*Entry),
		now:     time.Now,
	}, nil
}

// Cookies implements http.CookieJar
func (j *Jar) Cookies(u *url.URL) []*http.Cookie {
	return j.inner.Cookies(u)
}

// SetCookies implements http.CookieJar
func (j *Jar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.inner.SetCookies(u, cookies)

	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	now := j.now()

	j.mu.Lock()
	defer j.mu.Unlock()

	for _, c := range cookies {
		if c.Name == "" {
			continue
		}

		e := &Entry{
			Name:     c.Name,
			Value:    c.Value,
			Path:     cookiePath(c.Path, u.Path),
			Secure:   c.Secure,
			HttpOnly: c.HttpOnly,
			Created:  now,
		}

		domain, hostOnly, ok := cookieDomain(host, c.Domain)
		if !ok {
			continue
		}
		e.Domain = domain
		e.HostOnly = hostOnly

		switch {
		case c.MaxAge < 0:
			delete(j.entries, e.key())
			continue
		case c.MaxAge > 0:
			exp := now.Add(time.Duration(c.MaxAge) * time.Second)
			e.Expires = &exp
		case !c.Expires.IsZero():
			if !c.Expires.After(now) {
				delete(j.entries, e.key())
				continue
			}
			exp := c.Expires.UTC()
			e.Expires = &exp
		}

		if prev, ok := j.entries[e.key()]; ok {
			e.Created = prev.Created
		}
		j.entries[e.key()] = e
	}
}

// cookieDomain applies the same domain rules as cookiejar so that only
// cookies the jar will actually send are recorded. A cookie without a domain
// attribute, or one set on an IP or a public suffix, is host-only.
func cookieDomain(host, attr string) (string, bool, bool) {
	if attr == "" {
		return host, true, true
	}
	if net.ParseIP(host) != nil {
		return host, true, host == attr
	}

	domain := strings.ToLower(strings.TrimPrefix(attr, "."))
	if domain == "" || domain[0] == '.' || domain[len(domain)-1] == '.' {
		return "", false, false
	}

	if ps, _ := publicsuffix.PublicSuffix(domain); ps != "" && !strings.HasSuffix(domain, "."+ps) {
		return host, true, host == domain
	}

	if host != domain && !strings.HasSuffix(host, "."+domain) {
		return "", false, false
	}
	return domain, false, true
}

// cookiePath returns the cookie's path or the default path of the request URL
func cookiePath(cookiePath, requestPath string) string {
	if strings.HasPrefix(cookiePath, "/") {
		return cookiePath
	}
	if requestPath == "" || requestPath[0] != '/' {
		return "/"
	}
	i := strings.LastIndex(requestPath, "/")
	if i == 0 {
		return "/"
	}
	return requestPath[:i]
}

// Get returns the value of the first live cookie with the given name
func (j *Jar) Get(name string) (string, bool) {
	for _, e := range j.All() {
		if e.Name == name {
			return e.Value, true
		}
	}
	return "", false
}

// All returns copies of all live cookies ordered by domain, path and name
func (j *Jar) All() []Entry {
	now := j.now()

	j.mu.Lock()
	defer j.mu.Unlock()

	result := make([]Entry, 0, len(j.entries))
	for k, e := range j.entries {
		if e.expired(now) {
			delete(j.entries, k)
			continue
		}
		result = append(result, *e)
	}
	sort.Slice(result, func(a, b int) bool {
		return result[a].key() < result[b].key()
	})
	return result
}

// Len returns the number of live cookies
func (j *Jar) Len() int {
	return len(j.All())
}

// Load reads a cookie file and adds its live cookies to the jar.
// A missing file leaves the jar unchanged.
func (j *Jar) Load(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("reading cookie file: %w", err)
	}

	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return fmt.Errorf("parsing cookie file %s: %w", path, err)
	}
	if f.Version > FileVersion {
		return fmt.Errorf("cookie file %s has unsupported version %d", path, f.Version)
	}

	now := j.now()
	for _, e := range f.Cookies {
		if e == nil || e.Name == "" || e.Domain == "" || e.expired(now) {
			continue
		}
		j.restore(e)
	}
	return nil
}

func (j *Jar) restore(e *Entry) {
	scheme := "http"
	if e.Secure {
		scheme = "https"
	}
	path := e.Path
	if path == "" {
		path = "/"
	}
	u := &url.URL{Scheme: scheme, Host: e.Domain, Path: path}

	c := &http.Cookie{
		Name:     e.Name,
		Value:    e.Value,
		Path:     path,
		Secure:   e.Secure,
		HttpOnly: e.HttpOnly,
	}
	if !e.HostOnly {
		c.Domain = e.Domain
	}
	if e.Expires != nil {
		c.Expires = *e.Expires
	}
	j.SetCookies(u, []*http.Cookie{c})

	j.mu.Lock()
	if stored, ok := j.entries[e.key()]; ok && !e.Created.IsZero() {
		stored.Created = e.Created
	}
	j.mu.Unlock()
}

// Save writes all live cookies to path, replacing the file atomically
func (j *Jar) Save(path string) error {
	entries := j.All()
	f := file{Version: FileVersion, Cookies: make([]*Entry, len(entries))}
	for i := range entries {
		f.Cookies[i] = &entries[i]
	}

	data, err := json.MarshalIndent(f, "", "    ")
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating cookie directory: %w", err)
		}
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("writing cookie file: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("writing cookie file: %w", err)
	}
	return nil
}
