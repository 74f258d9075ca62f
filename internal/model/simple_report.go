package model

import (
	"sort"
	"time"
)

// SimpleReport is a summarized, human-readable report.
// It extracts key findings and graph statistics from the full scan report
// for quick review.
//
// Design decision: We create a separate simplified report rather than just
// printing parts of ScanReport because:
// 1. It provides a consistent, curated view of the most important findings
// 2. It can be serialized to JSON for tools that want structured but simple output
// 3. It separates presentation concerns from data collection
type SimpleReport struct {
	// Site is the scanned site.
	Site string `json:"site"`

	// DateScanned is when the scan was performed.
	DateScanned time.Time `json:"date_scanned"`

	// === Severity Summary ===

	// CriticalCount is the number of critical findings.
	CriticalCount int `json:"critical_count"`

	// WarningCount is the number of warning findings.
	WarningCount int `json:"warning_count"`

	// InfoCount is the number of informational findings.
	InfoCount int `json:"info_count"`

	// === Findings ===

	// Findings contains all issues enriched with impact and remediation
	// metadata, ordered by severity (critical first).
	Findings []Finding `json:"findings,omitempty"`

	// === Graph Statistics ===

	// PagesCrawled is the number of pages successfully crawled.
	PagesCrawled int `json:"pages_crawled"`

	// NodeCount and EdgeCount describe the derived link graph.
	NodeCount int `json:"node_count"`
	EdgeCount int `json:"edge_count"`

	// BrokenLinkCount is the number of internal links whose target is broken.
	BrokenLinkCount int `json:"broken_link_count"`

	// TopHubs lists the most linked-to pages, highest in-degree first.
	TopHubs []HubPage `json:"top_hubs,omitempty"`

	// OrphanPages lists pages no internal link points at.
	OrphanPages []string `json:"orphan_pages,omitempty"`

	// === Scan State ===

	// TimedOut indicates the scan was terminated due to timeout.
	TimedOut bool `json:"timed_out,omitempty"`

	// Error contains any error message if the scan failed.
	Error string `json:"error,omitempty"`
}

// Finding represents a single finding in the simple report.
type Finding struct {
	// Type is the issue type identifier.
	Type string `json:"type"`

	// Severity is the impact level.
	Severity Severity `json:"severity"`

	// SeverityText is the human-readable severity.
	SeverityText string `json:"severity_text"`

	// Message is a short description of the finding.
	Message string `json:"message"`

	// PageURL is where the finding was discovered.
	PageURL string `json:"page_url"`

	// Value is the specific offending value, if any.
	Value string `json:"value,omitempty"`

	// Impact explains the SEO implications of this finding.
	Impact string `json:"impact,omitempty"`

	// Recommendation provides guidance on how to address this finding.
	Recommendation string `json:"recommendation,omitempty"`
}

// MaxTopHubs is the number of hub pages listed in the simple report.
const MaxTopHubs = 10

// HubPage is one entry of the top-hubs table.
type HubPage struct {
	URL      string `json:"url"`
	InDegree int    `json:"in_degree"`
}

// NewSimpleReport creates a SimpleReport from a ScanReport.
// This extracts and summarizes key findings and graph statistics.
func NewSimpleReport(report *ScanReport) *SimpleReport {
	simple := &SimpleReport{
		Site:         report.Site,
		DateScanned:  report.DateScanned,
		PagesCrawled: len(report.Pages),
		TimedOut:     report.TimedOut,
		Error:        report.ErrorMessage,
	}

	simple.collectFindings(report.Issues)
	simple.collectGraphStats(report.Graph)
	simple.countBySeverity()

	return simple
}

// collectFindings converts issues to findings with impact metadata,
// ordered most severe first. Ordering within a severity level follows
// the input order, which is crawl order.
func (s *SimpleReport) collectFindings(issues []Issue) {
	s.Findings = make([]Finding, 0, len(issues))
	for _, is := range issues {
		info := GetIssueInfo(is.Type)
		s.Findings = append(s.Findings, Finding{
			Type:           is.Type,
			Severity:       is.Severity,
			SeverityText:   is.Severity.String(),
			Message:        is.Message,
			PageURL:        is.PageURL,
			Value:          is.Value,
			Impact:         info.Impact,
			Recommendation: info.Recommendation,
		})
	}
	sort.SliceStable(s.Findings, func(i, j int) bool {
		return s.Findings[i].Severity > s.Findings[j].Severity
	})
}

// collectGraphStats extracts topology statistics from the link graph.
func (s *SimpleReport) collectGraphStats(g *Graph) {
	if g == nil {
		return
	}

	s.NodeCount = len(g.Nodes)
	s.EdgeCount = len(g.Edges)
	s.BrokenLinkCount = g.BrokenEdgeCount()
	s.OrphanPages = g.OrphanPages()

	hubs := make([]HubPage, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		if n.InDegree > 0 {
			hubs = append(hubs, HubPage{URL: n.ID, InDegree: n.InDegree})
		}
	}
	sort.SliceStable(hubs, func(i, j int) bool {
		return hubs[i].InDegree > hubs[j].InDegree
	})
	if len(hubs) > MaxTopHubs {
		hubs = hubs[:MaxTopHubs]
	}
	s.TopHubs = hubs
}

// TotalFindings returns the total number of findings across all severities.
func (s *SimpleReport) TotalFindings() int {
	return s.CriticalCount + s.WarningCount + s.InfoCount
}

// HasFindings reports whether the scan produced any findings.
func (s *SimpleReport) HasFindings() bool {
	return len(s.Findings) > 0
}

// GetFindingsBySeverity returns all findings of the given severity,
// preserving their order in the report.
func (s *SimpleReport) GetFindingsBySeverity(severity Severity) []Finding {
	var result []Finding
	for _, f := range s.Findings {
		if f.Severity == severity {
			result = append(result, f)
		}
	}
	return result
}

// countBySeverity tallies findings into the severity counters.
func (s *SimpleReport) countBySeverity() {
	for _, f := range s.Findings {
		switch f.Severity {
		case SeverityCritical:
			s.CriticalCount++
		case SeverityWarning:
			s.WarningCount++
		case SeverityInfo:
			s.InfoCount++
		}
	}
}
