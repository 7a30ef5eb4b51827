package offline

import (
	"fmt"
	"net/url"
	"strings"
)

const (
	DefaultPrefix  = "sats-rate-caches-"
	DefaultVersion = "v1.36.2"
)

// DefaultAssets is the converter's offline asset list, relative to the scope.
var DefaultAssets = []string{
	"./index.html",
	"./styles.css",
	"./main.js",
	"./manifest.json",
	"./favicons/favicon.ico",
	"./images/icon_x192.png",
	"./images/icon_x512.png",
	"./images/maskable_icon_x192.png",
	"./images/maskable_icon_x512.png",
	"./images/title.svg",
	"./images/copy-regular.svg",
	"./images/paste-regular.svg",
	"./images/白抜きのビットコインアイコン.svg",
	"./images/白抜きの円アイコン.svg",
	"./images/白抜きのドルアイコン.svg",
	"./images/白抜きのユーロアイコン.svg",
	"./images/square-x-twitter.svg",
	"./images/nostr-icon-purple-on-white.svg",
	"./images/cloud-solid.svg",
	"./images/share-nodes-solid.svg",
	"./images/clipboard-solid.svg",
	"./images/fulgur-favicon.ico",
	"./images/alby_icon_head_yellow_48x48.svg",
	"./images/btcmap-logo.svg",
	"./images/robosats-favicon.ico",
	"./images/mempool-favicon.ico",
	"./images/bolt-solid.svg",
	"./images/list-ol-solid.svg",
	"./images/magnifying-glass-solid.svg",
	"./images/sun-regular.svg",
	"./images/moon-regular.svg",
	"./images/angle-down-solid.svg",
}

// resolveAssets turns manifest entries into absolute paths under scope.
// Entries must be same-origin.
func resolveAssets(scope string, assets []string) ([]string, error) {
	if scope == "" {
		scope = "/"
	}
	if !strings.HasSuffix(scope, "/") {
		scope += "/"
	}
	base := &url.URL{Path: scope}
	out := make([]string, 0, len(assets))
	seen := make(map[string]bool, len(assets))
	for _, raw := range assets {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		ref, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("asset %q: %w", raw, err)
		}
		if ref.Scheme != "" || ref.Host != "" {
			return nil, fmt.Errorf("asset %q: must be same-origin", raw)
		}
		p := base.ResolveReference(ref).Path
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	return out, nil
}
