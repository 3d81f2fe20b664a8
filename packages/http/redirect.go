package http

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// sendFunc performs one request without following redirects
type sendFunc func(ctx context.Context, url string, p Params) (*Response, error)

// redirectFollower follows 301/302 redirects one hop at a time so that the
// cookies of every intermediate response go through the cookie store.
type redirectFollower struct {
	send         sendFunc
	maxRedirects int // 0 means unlimited
	logger       *slog.Logger
}

func (f *redirectFollower) follow(ctx context.Context, rawURL string, p Params) (*Response, error) {
	origin, err := originOf(rawURL)
	if err != nil {
		return nil, err
	}

	next := rawURL
	chain := []string{rawURL}
	p.Redirect = RedirectManual

	var resp *Response
	for {
		resp, err = f.send(ctx, next, p)
		if err != nil {
			return nil, err
		}
		if !resp.IsRedirect() {
			break
		}
		if resp.StatusCode != http.StatusMovedPermanently && resp.StatusCode != http.StatusFound {
			return nil, &UnsupportedRedirectStatusError{StatusCode: resp.StatusCode, URL: next}
		}

		locations := resp.Locations()
		if len(locations) != 1 {
			break
		}
		location := locations[0]

		if strings.HasPrefix(location, "/") {
			next = origin + location
		} else {
			origin, err = originOf(location)
			if err != nil {
				return nil, fmt.Errorf("invalid redirect location: %w", err)
			}
			next = location
		}

		if f.maxRedirects > 0 && len(chain) > f.maxRedirects {
			return nil, fmt.Errorf("%w: stopped after %d redirects", ErrTooManyRedirects, f.maxRedirects)
		}

		f.logger.Debug("following redirect", "status", resp.StatusCode, "from", chain[len(chain)-1], "to", next)
		chain = append(chain, next)
		p = redirectHop()
	}

	if final := resp.FinalURL(); final != "" && final != chain[len(chain)-1] {
		chain = append(chain, final)
	}
	resp.URLs = chain
	return resp, nil
}

// originOf returns scheme://host[:port] of an absolute URL
func originOf(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("%q is not an absolute URL", rawURL)
	}
	return u.Scheme + "://" + u.Host, nil
}
