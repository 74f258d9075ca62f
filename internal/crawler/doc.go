// Package crawler provides web crawling for site audits.
//
// # Architecture
//
// The crawler package is designed around the Spider type, which coordinates
// the crawling process. It uses a work queue to manage URLs to visit and
// respects depth limits and politeness settings.
//
// Design decision: We implement our own crawler rather than using a
// third-party framework because:
//  1. The audit needs raw per-page data (status, markup, every anchor) that
//     crawl frameworks tend to abstract away
//  2. We need tight control over request pacing to stay polite on small sites
//  3. The visited set must share the graph package's URL normalization, or
//     the same page gets crawled twice under slash variants
//
// # Components
//
//   - Spider: The main crawler that coordinates the crawling process
//   - Parser: HTML parser that extracts titles, metadata, and links
//
// # Usage
//
//	spider := crawler.NewSpider(httpClient,
//		crawler.WithMaxDepth(3),
//		crawler.WithMaxPages(200),
//	)
//	pages, err := spider.Crawl(ctx, "https://example.com")
//
// Request pacing uses a token-bucket rate limiter, so the politeness delay
// is respected even when pages respond instantly. Memory limits cap how much
// of each response body is retained.
package crawler
