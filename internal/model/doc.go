// Package model defines the core data structures used throughout sitegraph.
//
// This package contains the following main types:
//   - Page: Represents a crawled web page with extracted SEO metadata
//   - Issue: A single SEO finding attached to a page
//   - Graph, Node, Edge: The derived site link graph
//   - ScanReport: The main scan result structure
//   - SimpleReport: A summarized, human-readable report
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (crawler, audit, graph, report) need to use
// these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
