package model

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Page represents a crawled web page with the metadata needed for SEO
// auditing and link-graph construction.
//
// Design decision: We store the (size-limited) HTML alongside the parsed
// fields because:
// 1. Audit checks re-query the DOM with selectors the parser does not anticipate
// 2. The hash allows deduplication and change detection between scans
// 3. Parsed fields keep the common paths (graph build, reports) allocation-light
type Page struct {
	// URL is the full URL of the page as it was fetched.
	// This is the canonical identity of the page; the graph package
	// normalizes it only for equality comparison, never for storage.
	URL string `json:"url"`

	// StatusCode is the HTTP response status code.
	// Zero means the page was never fetched successfully (no response).
	StatusCode int `json:"status_code"`

	// ContentType is the MIME type of the response.
	ContentType string `json:"content_type,omitempty"`

	// Title is the page title extracted from the <title> tag.
	// Empty for non-HTML content or pages without a title.
	Title string `json:"title,omitempty"`

	// MetaDescription is the content of <meta name="description">.
	MetaDescription string `json:"meta_description,omitempty"`

	// RobotsMeta is the content of <meta name="robots"> (e.g. "noindex,nofollow").
	RobotsMeta string `json:"robots_meta,omitempty"`

	// CanonicalURL is the href of <link rel="canonical"> if present.
	CanonicalURL string `json:"canonical_url,omitempty"`

	// H1Count is the number of <h1> elements on the page.
	H1Count int `json:"h1_count"`

	// OutboundLinks contains every anchor discovered on the page, in
	// document order. Both internal and external links are recorded;
	// the Internal flag distinguishes them.
	OutboundLinks []LinkRef `json:"outbound_links,omitempty"`

	// ImagesMissingAlt is the number of <img> elements without alt text.
	ImagesMissingAlt int `json:"images_missing_alt"`

	// WordCount is the approximate number of words of visible text.
	// Used by the thin-content audit check.
	WordCount int `json:"word_count"`

	// ResponseTime is how long the HTTP fetch took.
	ResponseTime time.Duration `json:"response_time"`

	// Size is the response body size in bytes (before truncation).
	Size int64 `json:"size"`

	// HTML is the page markup, truncated to MaxHTMLSize bytes.
	// Excluded from JSON to keep reports small; audit checks that need
	// DOM access read it before the report is serialized.
	HTML string `json:"-"`

	// Hash is the SHA-256 hash of the raw content.
	// Used for deduplication and change detection between scans.
	Hash string `json:"hash,omitempty"`

	// CrawledAt is when the page was fetched.
	CrawledAt time.Time `json:"crawled_at"`
}

// MaxHTMLSize is the maximum amount of page markup retained in memory.
// Larger pages are truncated to this size; audit checks operate on the
// truncated markup, which is an accepted approximation for pathological pages.
const MaxHTMLSize = 2 * 1024 * 1024 // 2 MB

// LinkRef is a single link reference found on a page.
// Href is recorded exactly as it appeared in the document, which means it
// may be absolute or page-relative; the graph package resolves it.
type LinkRef struct {
	// Href is the raw href attribute value.
	Href string `json:"href"`

	// Internal is true when the crawler classified the link as pointing
	// within the same site as the source page.
	Internal bool `json:"internal"`
}

// ComputeHash calculates and sets the SHA-256 hash of the page markup.
func (p *Page) ComputeHash() {
	sum := sha256.Sum256([]byte(p.HTML))
	p.Hash = hex.EncodeToString(sum[:])
}

// TruncateHTML enforces the MaxHTMLSize limit on the stored markup.
func (p *Page) TruncateHTML() {
	if len(p.HTML) > MaxHTMLSize {
		p.HTML = p.HTML[:MaxHTMLSize]
	}
}

// InternalLinks returns only the outbound links flagged as internal.
func (p *Page) InternalLinks() []LinkRef {
	links := make([]LinkRef, 0, len(p.OutboundLinks))
	for _, l := range p.OutboundLinks {
		if l.Internal {
			links = append(links, l)
		}
	}
	return links
}

// IsError reports whether the page's HTTP fetch failed.
// Any 4xx or 5xx status counts, as does a missing response (status zero
// is excluded: an uncrawled page is unknown, not broken).
func (p *Page) IsError() bool {
	return p.StatusCode >= 400
}
