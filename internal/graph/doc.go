// Package graph builds the site link graph from crawled pages and audit
// issues, and derives the focused neighborhood view used while a node is
// selected in the viewer.
//
// The package is pure computation: no I/O, no goroutines, no state shared
// between calls. Build is a deterministic function of its inputs — identical
// page and issue lists always produce identical node and edge slices, in the
// same order. The graph is always rebuilt from scratch; nothing here mutates
// a previously built graph.
//
// URL identity is the subtle part. Crawlers record some links absolute and
// some page-relative, and the same page is reachable with and without a
// trailing slash. Normalize and Resolve exist so that every call site agrees
// on one canonicalization instead of growing slightly different ad-hoc
// versions of it.
//
// Design decision: node and edge types live in the model package with the
// rest of the data structures; this package owns only the algorithms. That
// keeps the report and database packages free of a dependency on the builder.
package graph
