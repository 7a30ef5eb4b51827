package offline

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"
)

// ServeHTTP answers from the active store when it can and forwards to the
// network otherwise. Same-origin requests are matched without their query.
func (m *Manager) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet || r.Method == http.MethodHead {
		if entry, ok := m.lookup(r.Context(), r); ok {
			writeEntry(w, r, entry)
			return
		}
	}
	m.forward(w, r)
}

func (m *Manager) lookup(ctx context.Context, r *http.Request) (Entry, bool) {
	version := m.ActiveVersion()
	if version == "" {
		return Entry{}, false
	}
	name := m.StoreName(version)
	for _, key := range cacheKeys(r) {
		entry, ok, err := m.storage.Match(ctx, name, key)
		if err != nil {
			m.log.WithError(err).WithField("url", key).Warn("cache lookup failed")
			return Entry{}, false
		}
		if ok {
			return entry, true
		}
	}
	return Entry{}, false
}

// cacheKeys lists the keys a request may be stored under. A cross-origin
// request keeps its full URL; a same-origin one is reduced to its path, and a
// directory path also tries its index.html.
func cacheKeys(r *http.Request) []string {
	if r.URL.IsAbs() && !strings.EqualFold(r.URL.Host, r.Host) {
		return []string{r.URL.String()}
	}
	p := r.URL.Path
	if p == "" {
		p = "/"
	}
	if strings.HasSuffix(p, "/") {
		return []string{p, p + "index.html"}
	}
	return []string{p}
}

func writeEntry(w http.ResponseWriter, r *http.Request, e Entry) {
	h := w.Header()
	for k, v := range e.Header {
		h[k] = append([]string(nil), v...)
	}
	h.Set("Content-Length", strconv.Itoa(len(e.Body)))
	status := e.Status
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)
	if r.Method != http.MethodHead {
		_, _ = w.Write(e.Body)
	}
}

func (m *Manager) forward(w http.ResponseWriter, r *http.Request) {
	resp, err := m.fetcher.Fetch(r.Context(), r)
	if err != nil {
		m.log.WithError(err).WithField("url", r.URL.String()).Debug("network fetch failed")
		http.Error(w, "offline and not cached", http.StatusBadGateway)
		return
	}
	defer resp.Body.Close()
	stripHopHeaders(resp.Header)
	for k, v := range resp.Header {
		w.Header()[k] = v
	}
	w.WriteHeader(resp.StatusCode)
	_, _ = io.Copy(w, resp.Body)
}
