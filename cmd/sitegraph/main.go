// Package main provides the entry point for the sitegraph CLI.
//
// Sitegraph crawls a website, audits every page for common SEO problems,
// and builds an interactive link graph of the site's internal structure.
//
// Usage:
//
//	sitegraph scan https://example.com
//	sitegraph scan --graph graph.json https://example.com
//
// See --help for all available options.
package main

// main is the entry point for sitegraph.
func main() {
	Execute()
}
