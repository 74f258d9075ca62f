package graph

import (
	"net/url"
	"strings"

	"github.com/nao1215/sitegraph/internal/model"
)

// Normalize canonicalizes a URL string for equality comparison.
//
// For an absolute URL it returns scheme://host + path with a single trailing
// slash stripped; query string and fragment are dropped, since the crawler
// treats them as the same document. For anything that does not parse as an
// absolute URL (relative or malformed input) it falls back to the raw string
// with a trailing slash stripped, so identical raw strings still compare
// equal.
//
// Normalize never fails and is idempotent: applying it twice yields the same
// result as applying it once.
func Normalize(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || !u.IsAbs() || u.Host == "" {
		return strings.TrimSuffix(raw, "/")
	}
	// Scheme and host are case-insensitive per RFC 3986; the path is not.
	origin := strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host)
	return strings.TrimSuffix(origin+u.Path, "/")
}

// KnownURLs maps the normalized form of every crawled page URL to the page's
// canonical URL (Page.URL exactly as crawled). The map is the lookup table
// Resolve works against.
//
// When two pages normalize to the same key the first page in crawl order
// wins; the crawler's visited set keeps this from happening in practice, but
// ties must resolve deterministically when it does.
func KnownURLs(pages []*model.Page) map[string]string {
	known := make(map[string]string, len(pages))
	for _, p := range pages {
		key := Normalize(p.URL)
		if _, ok := known[key]; !ok {
			known[key] = p.URL
		}
	}
	return known
}

// Resolve maps a raw link reference found on a page to the canonical URL of
// a crawled page, or reports that it is unresolvable.
//
// Resolution is a two-step fallback:
//  1. Normalize href and look it up directly.
//  2. If that misses and href has no scheme of its own, resolve it against
//     the origin page, normalize the result, and retry.
//
// A miss after both steps means the link is external, points outside the
// crawl, or targets a page that was never fetched. Those cases are
// indistinguishable from here and all mean "no edge".
func Resolve(href, originPage string, known map[string]string) (string, bool) {
	if canonical, ok := known[Normalize(href)]; ok {
		return canonical, true
	}

	ref, err := url.Parse(href)
	if err != nil || ref.IsAbs() {
		// Malformed, or already absolute and simply not crawled.
		return "", false
	}

	base, err := url.Parse(originPage)
	if err != nil || !base.IsAbs() {
		return "", false
	}

	if canonical, ok := known[Normalize(base.ResolveReference(ref).String())]; ok {
		return canonical, true
	}
	return "", false
}
