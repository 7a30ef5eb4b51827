package offline

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Fetcher performs network requests on behalf of the manager. Relative
// request URLs are resolved against the asset origin.
type Fetcher interface {
	Fetch(ctx context.Context, req *http.Request) (*http.Response, error)
}

// HTTPFetcher forwards requests to an asset origin.
type HTTPFetcher struct {
	origin *url.URL
	client *http.Client
}

// NewHTTPFetcher returns a fetcher for origin. A nil client gets a 15s timeout.
func NewHTTPFetcher(origin string, client *http.Client) (*HTTPFetcher, error) {
	u, err := url.Parse(strings.TrimSpace(origin))
	if err != nil {
		return nil, fmt.Errorf("parse asset origin: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("asset origin %q: unsupported scheme", origin)
	}
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	return &HTTPFetcher{origin: u, client: client}, nil
}

func (f *HTTPFetcher) Fetch(ctx context.Context, req *http.Request) (*http.Response, error) {
	out := req.Clone(ctx)
	out.RequestURI = ""

	target := *f.origin
	if req.URL.IsAbs() {
		target = *req.URL
	} else {
		target.Path = strings.TrimSuffix(f.origin.Path, "/") + req.URL.Path
		target.RawPath = ""
		target.RawQuery = req.URL.RawQuery
	}
	out.URL = &target
	out.Host = target.Host

	stripHopHeaders(out.Header)
	if isNavigation(req) {
		// Navigations go out without the page's origin so cross-origin
		// redirects are tolerated.
		out.Header.Del("Origin")
		for name := range out.Header {
			if strings.HasPrefix(name, "Sec-Fetch-") {
				out.Header.Del(name)
			}
		}
	}
	return f.client.Do(out)
}

func isNavigation(r *http.Request) bool {
	if mode := r.Header.Get("Sec-Fetch-Mode"); mode != "" {
		return mode == "navigate"
	}
	return r.Method == http.MethodGet && strings.Contains(r.Header.Get("Accept"), "text/html")
}

var hopHeaders = []string{
	"Connection",
	"Keep-Alive",
	"Proxy-Authenticate",
	"Proxy-Authorization",
	"Te",
	"Trailer",
	"Transfer-Encoding",
	"Upgrade",
}

func stripHopHeaders(h http.Header) {
	for _, name := range hopHeaders {
		h.Del(name)
	}
}
