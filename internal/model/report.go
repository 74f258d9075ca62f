package model

import "time"

// ScanReport is the main scan result structure.
// It contains everything collected and derived during one scan of a site:
// the crawled pages, the audit issues, and the link graph built from them.
//
// Design decision: We use a single struct rather than many small ones to
// simplify serialization and database storage. The Graph sub-struct groups
// the derived topology for the renderer and reports.
type ScanReport struct {
	// Site is the scanned site, as given on the command line
	// (e.g. "https://example.com").
	Site string `json:"site"`

	// DateScanned is the timestamp when the scan was performed.
	DateScanned time.Time `json:"date_scanned"`

	// Pages contains all pages discovered during crawling, in crawl order.
	Pages []*Page `json:"pages,omitempty"`

	// Issues contains all audit findings across all pages.
	Issues []Issue `json:"issues,omitempty"`

	// Graph is the derived site link graph.
	// Nil until the graph build step has run.
	Graph *Graph `json:"graph,omitempty"`

	// CrawlDuration is the wall-clock time the crawl took.
	CrawlDuration time.Duration `json:"crawl_duration"`

	// PerformedSteps lists the pipeline steps that ran, in order.
	PerformedSteps []string `json:"performed_steps,omitempty"`

	// TimedOut indicates the scan was terminated before completion.
	// Partial results are still valid and reported.
	TimedOut bool `json:"timed_out,omitempty"`

	// Error holds a fatal scan error, if any.
	// Excluded from JSON; ErrorMessage carries the text instead.
	Error error `json:"-"`

	// ErrorMessage is the string form of Error for serialization.
	ErrorMessage string `json:"error,omitempty"`
}

// NewScanReport creates an empty report for the given site with the scan
// date set to now.
func NewScanReport(site string) *ScanReport {
	return &ScanReport{
		Site:        site,
		DateScanned: time.Now(),
		Pages:       make([]*Page, 0),
		Issues:      make([]Issue, 0),
	}
}

// SetError records a fatal error on the report, keeping ErrorMessage in sync.
func (r *ScanReport) SetError(err error) {
	r.Error = err
	if err != nil {
		r.ErrorMessage = err.Error()
	}
}

// AddIssues appends audit findings to the report.
func (r *ScanReport) AddIssues(issues ...Issue) {
	r.Issues = append(r.Issues, issues...)
}

// IssuesForPage returns the issues recorded against the given page URL.
// Matching is by exact URL; callers that need normalization-tolerant
// matching should go through the graph package.
func (r *ScanReport) IssuesForPage(pageURL string) []Issue {
	issues := make([]Issue, 0)
	for _, is := range r.Issues {
		if is.PageURL == pageURL {
			issues = append(issues, is)
		}
	}
	return issues
}

// CountBySeverity returns how many issues exist at each severity level.
func (r *ScanReport) CountBySeverity() map[Severity]int {
	counts := make(map[Severity]int)
	for _, is := range r.Issues {
		counts[is.Severity]++
	}
	return counts
}
