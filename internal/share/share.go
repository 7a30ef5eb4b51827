// Package share composes the copy/share text and the single-parameter links
// that reproduce the current conversion.
package share

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/five82/satsrate/internal/convert"
)

// DefaultBaseURL is the public page the share links point at.
const DefaultBaseURL = "https://lokuyow.github.io/sats-rate/"

const attribution = "Powered by CoinGecko,"

// QueryString returns "<field>=<bare value>" for the active field, or "" when
// no field is active. It never emits more than one parameter.
func QueryString(amounts convert.AmountSet, active convert.Field) string {
	if !active.Valid() {
		return ""
	}
	values := url.Values{}
	values.Set(active.String(), convert.Strip(amounts.Get(active)))
	return values.Encode()
}

// Link appends the query string for the active field to baseURL.
func Link(baseURL string, amounts convert.AmountSet, active convert.Field) string {
	base := strings.TrimSpace(baseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	query := QueryString(amounts, active)
	if query == "" {
		return base
	}
	return base + "?" + query
}

// Body renders the five amount lines with their unit labels.
func Body(amounts convert.AmountSet) string {
	lines := make([]string, 0, len(convert.Fields))
	for _, f := range convert.Fields {
		lines = append(lines, fmt.Sprintf("%s：%s %s", f.Symbol(), convert.Group(amounts.Get(f)), f.Label()))
	}
	return strings.Join(lines, "\n")
}

// Text is the clipboard payload: the five lines, the attribution and a link.
func Text(amounts convert.AmountSet, active convert.Field, baseURL string) string {
	return Body(amounts) + "\n" + attribution + " " + Link(baseURL, amounts, active)
}

// Targets holds ready-to-open intent URLs for the supported share services.
type Targets struct {
	Twitter    string
	Nostter    string
	MassDriver string
}

// Links builds intent URLs carrying the share body and link.
func Links(baseURL string, amounts convert.AmountSet, active convert.Field) Targets {
	link := encodeComponent(Link(baseURL, amounts, active))
	text := encodeComponent(Body(amounts) + "\n" + attribution)
	return Targets{
		Twitter:    "https://twitter.com/share?url=" + link + "&text=" + text,
		Nostter:    "https://nostter.vercel.app/post?content=" + text + "%20" + link,
		MassDriver: "https://mdrv.shino3.net/?intent=" + text + "%20" + link,
	}
}

// ParseQuery reads the seed value from a page query string. The first
// recognised field in display order wins; separators in the value are kept
// for the caller to regroup.
func ParseQuery(rawQuery string) (convert.Field, string, bool) {
	rawQuery = strings.TrimPrefix(strings.TrimSpace(rawQuery), "?")
	if i := strings.Index(rawQuery, "?"); i >= 0 {
		rawQuery = rawQuery[i+1:]
	}
	values, err := url.ParseQuery(rawQuery)
	if err != nil {
		return convert.FieldNone, "", false
	}
	for _, f := range convert.Fields {
		if values.Has(f.String()) {
			return f, values.Get(f.String()), true
		}
	}
	return convert.FieldNone, "", false
}

// encodeComponent escapes like encodeURIComponent: spaces become %20.
func encodeComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
