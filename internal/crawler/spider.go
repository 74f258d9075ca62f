package crawler

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/nao1215/sitegraph/internal/graph"
	"github.com/nao1215/sitegraph/internal/model"
)

// Spider crawls the pages of a single website.
// It manages a queue of URLs to visit and respects depth and rate limits.
//
// Design decision: We call it "Spider" rather than "Crawler" because:
//  1. "Spider" is the traditional term for web crawlers
//  2. Distinguishes the component from the package name
//  3. Clearer in code: crawler.NewSpider() vs crawler.NewCrawler()
type Spider struct {
	// client is the HTTP client used for all requests.
	client *http.Client

	// maxDepth limits how deep to crawl from the starting URL.
	// 0 means only the starting page, 1 means one level of links, etc.
	maxDepth int

	// maxPages limits the total number of pages to crawl.
	// This prevents runaway crawling on large sites.
	maxPages int

	// limiter paces requests. Nil means no pacing.
	limiter *rate.Limiter

	// userAgent is the User-Agent header to use.
	userAgent string

	// maxBodySize limits the size of response bodies to read.
	maxBodySize int64

	// headers are extra request headers (site-specific auth, etc.).
	headers map[string]string

	// cookie is an optional Cookie header value.
	cookie string

	// ignorePatterns are URL path patterns to skip during crawling.
	// Patterns use glob syntax (e.g., "/admin/*", "*.pdf").
	ignorePatterns []string

	// followPatterns are URL path patterns to follow during crawling.
	// If set, only URLs matching these patterns are crawled.
	// Empty means all URLs are allowed (subject to ignorePatterns).
	followPatterns []string

	// visited tracks URLs already visited to avoid duplicates.
	// Keys are normalized with graph.Normalize, so slash variants and
	// fragment-stripped forms of the same page count as one visit.
	visited map[string]bool

	// mutex protects concurrent access to visited.
	mutex sync.Mutex

	// pageCount tracks pages crawled.
	pageCount int
}

// SpiderOption configures a Spider.
type SpiderOption func(*Spider)

// WithMaxDepth sets the maximum crawl depth.
// 0 = only the starting page, 1 = starting page plus linked pages, etc.
func WithMaxDepth(depth int) SpiderOption {
	return func(s *Spider) {
		s.maxDepth = depth
	}
}

// WithMaxPages sets the maximum number of pages to crawl.
func WithMaxPages(maxPages int) SpiderOption {
	return func(s *Spider) {
		s.maxPages = maxPages
	}
}

// WithDelay sets the minimum delay between requests.
// Zero disables pacing.
func WithDelay(d time.Duration) SpiderOption {
	return func(s *Spider) {
		if d > 0 {
			s.limiter = rate.NewLimiter(rate.Every(d), 1)
		} else {
			s.limiter = nil
		}
	}
}

// WithUserAgent sets a custom User-Agent header.
func WithUserAgent(ua string) SpiderOption {
	return func(s *Spider) {
		s.userAgent = ua
	}
}

// WithMaxBodySize sets the maximum response body size.
func WithMaxBodySize(size int64) SpiderOption {
	return func(s *Spider) {
		s.maxBodySize = size
	}
}

// WithHeaders sets extra request headers sent with every fetch.
func WithHeaders(headers map[string]string) SpiderOption {
	return func(s *Spider) {
		s.headers = headers
	}
}

// WithCookie sets the Cookie header sent with every fetch.
func WithCookie(cookie string) SpiderOption {
	return func(s *Spider) {
		s.cookie = cookie
	}
}

// WithIgnorePatterns sets URL path patterns to skip during crawling.
// Patterns use glob syntax (e.g., "/admin/*", "*.pdf", "/logout*").
// URLs matching any of these patterns will not be crawled.
func WithIgnorePatterns(patterns []string) SpiderOption {
	return func(s *Spider) {
		s.ignorePatterns = patterns
	}
}

// WithFollowPatterns sets URL path patterns to follow during crawling.
// If set, only URLs matching at least one pattern are crawled.
// Empty slice means all URLs are allowed (default behavior).
func WithFollowPatterns(patterns []string) SpiderOption {
	return func(s *Spider) {
		s.followPatterns = patterns
	}
}

// NewSpider creates a new Spider with the given HTTP client.
//
// Design decision: We require an external client because it keeps transport
// configuration (timeouts, redirect policy, proxies) out of the crawler and
// allows different configurations in tests.
func NewSpider(client *http.Client, opts ...SpiderOption) *Spider {
	s := &Spider{
		client:      client,
		maxDepth:    5,
		maxPages:    100,
		limiter:     rate.NewLimiter(rate.Every(time.Second), 1),
		userAgent:   "sitegraph/1.0 (+https://github.com/nao1215/sitegraph)",
		maxBodySize: 10 * 1024 * 1024, // 10MB
		visited:     make(map[string]bool),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Crawl starts crawling from the given URL and returns all discovered pages
// in crawl order.
//
// Design decision: We return a slice of pages rather than using a callback
// because pages are small relative to total memory and the caller can
// process all at once or iterate as needed.
func (s *Spider) Crawl(ctx context.Context, startURL string) ([]*model.Page, error) {
	start, err := url.Parse(startURL)
	if err != nil {
		return nil, fmt.Errorf("invalid start URL: %w", err)
	}
	if start.Scheme != "http" && start.Scheme != "https" {
		start.Scheme = "https"
	}

	pages := make([]*model.Page, 0)
	queue := []queueItem{{url: start.String(), depth: 0}}

	var firstErr error

	for len(queue) > 0 && s.pageCount < s.maxPages {
		select {
		case <-ctx.Done():
			return pages, ctx.Err()
		default:
		}

		item := queue[0]
		queue = queue[1:]

		if s.isVisited(item.url) {
			continue
		}
		s.markVisited(item.url)

		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return pages, err
			}
		}

		page, targets, err := s.fetchPage(ctx, item.url)
		if err != nil {
			// Some pages will fail; record nothing and move on.
			if firstErr == nil {
				firstErr = err
			}
			continue
		}

		pages = append(pages, page)
		s.pageCount++

		if item.depth < s.maxDepth {
			for _, target := range targets {
				if !s.isVisited(target) && s.shouldCrawl(target) {
					queue = append(queue, queueItem{url: target, depth: item.depth + 1})
				}
			}
		}
	}

	// A failed fetch here or there is normal; fetching nothing at all
	// means the site is unreachable and the caller should know.
	if len(pages) == 0 && firstErr != nil {
		return pages, fmt.Errorf("crawl produced no pages: %w", firstErr)
	}

	return pages, nil
}

// queueItem represents an item in the crawl queue.
type queueItem struct {
	url   string
	depth int
}

// fetchPage fetches a single page and extracts its content and crawl targets.
func (s *Spider) fetchPage(ctx context.Context, pageURL string) (*model.Page, []string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, nil, err
	}

	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	for k, v := range s.headers {
		req.Header.Set(k, v)
	}
	if s.cookie != "" {
		req.Header.Set("Cookie", s.cookie)
	}

	startedAt := time.Now()
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, s.maxBodySize))
	if err != nil {
		return nil, nil, err
	}
	elapsed := time.Since(startedAt)

	page := &model.Page{
		URL:          pageURL,
		StatusCode:   resp.StatusCode,
		ContentType:  resp.Header.Get("Content-Type"),
		HTML:         string(body),
		Size:         int64(len(body)),
		ResponseTime: elapsed,
		CrawledAt:    startedAt,
	}
	page.ComputeHash()
	page.TruncateHTML()

	var targets []string
	if strings.Contains(page.ContentType, "text/html") {
		parser, err := NewParser(pageURL)
		if err == nil {
			result, err := parser.Parse(strings.NewReader(page.HTML))
			if err == nil {
				page.Title = result.Title
				page.MetaDescription = result.MetaDescription
				page.RobotsMeta = result.RobotsMeta
				page.CanonicalURL = result.CanonicalURL
				page.H1Count = result.H1Count
				page.ImagesMissingAlt = result.ImagesMissingAlt
				page.WordCount = result.WordCount
				page.OutboundLinks = result.Links
				targets = result.CrawlTargets
			}
		}
	}

	return page, targets, nil
}

// isVisited checks if a URL has been visited.
func (s *Spider) isVisited(pageURL string) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.visited[graph.Normalize(pageURL)]
}

// markVisited marks a URL as visited.
func (s *Spider) markVisited(pageURL string) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.visited[graph.Normalize(pageURL)] = true
}

// shouldCrawl applies the ignore and follow pattern filters to a URL path.
func (s *Spider) shouldCrawl(pageURL string) bool {
	u, err := url.Parse(pageURL)
	if err != nil {
		return false
	}
	path := u.Path
	if path == "" {
		path = "/"
	}

	for _, pattern := range s.ignorePatterns {
		if matchGlob(pattern, path) {
			return false
		}
	}

	if len(s.followPatterns) == 0 {
		return true
	}
	for _, pattern := range s.followPatterns {
		if matchGlob(pattern, path) {
			return true
		}
	}
	return false
}

// matchGlob matches a path against a glob pattern. A trailing "*" is also
// matched as a prefix so "/admin/*" covers "/admin/users/edit".
func matchGlob(pattern, path string) bool {
	if ok, err := filepath.Match(pattern, path); err == nil && ok {
		return true
	}
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(path, strings.TrimSuffix(pattern, "*"))
	}
	return false
}
