package crawler

import (
	"io"
	"net/url"
	"strings"

	"golang.org/x/net/html"

	"github.com/nao1215/sitegraph/internal/model"
)

// Parser extracts SEO-relevant information from HTML content.
// It identifies the title, meta tags, headings, links, and images.
//
// Design decision: We use golang.org/x/net/html for parsing rather than
// regex because:
//  1. It correctly handles malformed HTML common on the web
//  2. Provides a proper DOM-like structure
//  3. More maintainable than complex regex patterns
//  4. Standard library extension, well-maintained
type Parser struct {
	// baseURL is the URL of the page being parsed, used for resolving
	// relative URLs and classifying links as internal or external.
	baseURL *url.URL
}

// ParseResult contains all information extracted from an HTML page.
//
// Design decision: We return a comprehensive result struct rather than
// multiple methods because a single parsing pass is more efficient and the
// caller can choose what to use.
type ParseResult struct {
	// Title is the page title from the <title> tag.
	Title string

	// MetaDescription is the content of <meta name="description">.
	MetaDescription string

	// RobotsMeta is the content of <meta name="robots">.
	RobotsMeta string

	// CanonicalURL is the href of <link rel="canonical">.
	CanonicalURL string

	// H1Count is the number of <h1> elements.
	H1Count int

	// ImagesMissingAlt is the number of <img> elements with no alt text.
	ImagesMissingAlt int

	// WordCount is the approximate number of words of visible text.
	WordCount int

	// Links contains every anchor href exactly as written in the document,
	// classified internal/external against the page host.
	Links []model.LinkRef

	// CrawlTargets contains the absolute URLs of internal links, for the
	// spider's queue. Fragments are stripped; mailto/tel/javascript
	// references are excluded.
	CrawlTargets []string
}

// NewParser creates a parser for a page at the given URL.
// The URL must be absolute; it anchors relative-link resolution.
func NewParser(pageURL string) (*Parser, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return nil, err
	}
	return &Parser{baseURL: base}, nil
}

// Parse reads HTML from r and extracts page data.
// Malformed markup does not fail the parse; x/net/html recovers the way
// browsers do, and we extract whatever is there.
func (p *Parser) Parse(r io.Reader) (*ParseResult, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, err
	}

	result := &ParseResult{
		Links:        make([]model.LinkRef, 0),
		CrawlTargets: make([]string, 0),
	}
	p.walk(doc, result)
	return result, nil
}

// walk traverses the parsed tree, collecting data node by node.
func (p *Parser) walk(n *html.Node, result *ParseResult) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "title":
			if result.Title == "" {
				result.Title = strings.TrimSpace(textContent(n))
			}
		case "meta":
			p.handleMeta(n, result)
		case "link":
			p.handleLink(n, result)
		case "h1":
			result.H1Count++
		case "img":
			if strings.TrimSpace(attr(n, "alt")) == "" {
				result.ImagesMissingAlt++
			}
		case "a":
			p.handleAnchor(n, result)
		case "script", "style", "noscript":
			// Invisible to readers and to word counting.
			return
		}
	}

	if n.Type == html.TextNode {
		result.WordCount += len(strings.Fields(n.Data))
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.walk(c, result)
	}
}

// handleMeta extracts description and robots meta tags.
func (p *Parser) handleMeta(n *html.Node, result *ParseResult) {
	name := strings.ToLower(attr(n, "name"))
	content := attr(n, "content")
	switch name {
	case "description":
		if result.MetaDescription == "" {
			result.MetaDescription = strings.TrimSpace(content)
		}
	case "robots":
		if result.RobotsMeta == "" {
			result.RobotsMeta = strings.TrimSpace(content)
		}
	}
}

// handleLink extracts the canonical link element.
func (p *Parser) handleLink(n *html.Node, result *ParseResult) {
	if strings.EqualFold(attr(n, "rel"), "canonical") && result.CanonicalURL == "" {
		result.CanonicalURL = strings.TrimSpace(attr(n, "href"))
	}
}

// handleAnchor records an anchor's href and, for internal links, queues the
// absolute form for crawling.
func (p *Parser) handleAnchor(n *html.Node, result *ParseResult) {
	href := strings.TrimSpace(attr(n, "href"))
	if href == "" || strings.HasPrefix(href, "#") {
		return
	}

	resolved, ok := p.resolveHref(href)
	internal := ok && p.isInternal(resolved)

	result.Links = append(result.Links, model.LinkRef{
		Href:     href,
		Internal: internal,
	})

	if internal && isCrawlableScheme(resolved.Scheme) {
		clean := *resolved
		clean.Fragment = ""
		result.CrawlTargets = append(result.CrawlTargets, clean.String())
	}
}

// resolveHref resolves an href against the page URL.
func (p *Parser) resolveHref(href string) (*url.URL, bool) {
	ref, err := url.Parse(href)
	if err != nil {
		return nil, false
	}
	return p.baseURL.ResolveReference(ref), true
}

// isInternal reports whether a resolved URL targets the same site as the
// page being parsed. Host comparison is case-insensitive.
func (p *Parser) isInternal(u *url.URL) bool {
	if u.Host == "" {
		return false
	}
	return strings.EqualFold(u.Host, p.baseURL.Host)
}

// isCrawlableScheme filters out mailto:, tel:, javascript: and friends.
func isCrawlableScheme(scheme string) bool {
	return scheme == "http" || scheme == "https"
}

// attr returns the value of the named attribute, or empty string.
func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val
		}
	}
	return ""
}

// textContent concatenates all text nodes under n.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var visit func(*html.Node)
	visit = func(node *html.Node) {
		if node.Type == html.TextNode {
			sb.WriteString(node.Data)
		}
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return sb.String()
}
