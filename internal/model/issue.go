package model

// Severity represents the impact level of an SEO finding.
//
// Design decision: We use iota-based constants rather than string constants
// for efficiency in comparisons and sorting. The String() method provides
// human-readable output when needed.
type Severity int

const (
	// SeverityInfo indicates informational findings with no direct ranking impact.
	// Examples: slightly long titles, multiple h1 elements.
	SeverityInfo Severity = iota

	// SeverityWarning indicates issues that degrade search visibility and
	// should be fixed. Examples: missing meta description, noindex on a
	// linked page, images without alt text on content pages.
	SeverityWarning

	// SeverityCritical indicates issues that make a page effectively
	// unreachable or unindexable. Examples: 4xx/5xx responses, pages whose
	// internal links all point at broken targets.
	SeverityCritical
)

// String returns a human-readable representation of the severity level.
func (s Severity) String() string {
	switch s {
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// Worst returns the more severe of s and other.
func (s Severity) Worst(other Severity) Severity {
	if other > s {
		return other
	}
	return s
}

// Issue is a single SEO finding attached to a crawled page.
type Issue struct {
	// PageURL is the URL of the page the issue was found on.
	// It matches Page.URL of exactly one crawled page (after normalization).
	PageURL string `json:"page_url"`

	// Type is the issue type identifier (e.g. "missing_title").
	// This maps to issueInfoMapping for severity and remediation data.
	Type string `json:"type"`

	// Severity is the impact level of the issue.
	Severity Severity `json:"severity"`

	// Message is a short human-readable description.
	Message string `json:"message"`

	// Value is the offending value, if any (e.g. the overlong title text).
	Value string `json:"value,omitempty"`
}

// IssueInfo contains metadata about an issue type including severity,
// impact description, and remediation recommendation.
type IssueInfo struct {
	Severity       Severity
	Impact         string
	Recommendation string
}

// issueInfoMapping maps issue types to their metadata.
// This centralized mapping ensures consistent severity assessment across
// the application.
//
// Design decision: We use a map rather than embedding severity in each check
// because:
// 1. It allows updating severity assessments without modifying the checks
// 2. It provides a single source of truth for impact levels
// 3. It makes it easy to generate issue documentation
var issueInfoMapping = map[string]IssueInfo{
	// CRITICAL - page effectively broken
	"http_error": {
		Severity:       SeverityCritical,
		Impact:         "The page returns an error status, so search engines cannot index it and every link pointing at it is broken navigation.",
		Recommendation: "Fix the page or remove/redirect links pointing to it.",
	},
	"server_error": {
		Severity:       SeverityCritical,
		Impact:         "The server failed while rendering the page, which wastes crawl budget and loses ranking signals.",
		Recommendation: "Investigate server logs for the failing URL and restore a successful response.",
	},

	// WARNING - degrades search visibility
	"missing_title": {
		Severity:       SeverityWarning,
		Impact:         "Pages without a <title> lose their most important on-page ranking signal and display poorly in results.",
		Recommendation: "Add a unique, descriptive title of roughly 30-60 characters.",
	},
	"missing_meta_description": {
		Severity:       SeverityWarning,
		Impact:         "Without a meta description, search engines generate their own snippet, which is usually less compelling.",
		Recommendation: "Add a meta description of roughly 70-155 characters summarizing the page.",
	},
	"missing_h1": {
		Severity:       SeverityWarning,
		Impact:         "A missing <h1> removes the primary topical heading signal from the page.",
		Recommendation: "Add exactly one <h1> describing the page content.",
	},
	"noindex": {
		Severity:       SeverityWarning,
		Impact:         "The page carries a noindex directive and will be excluded from search results.",
		Recommendation: "Remove the noindex robots meta if the page should be indexed.",
	},
	"missing_viewport": {
		Severity:       SeverityWarning,
		Impact:         "Without a viewport meta tag the page renders poorly on mobile, which is a ranking factor.",
		Recommendation: `Add <meta name="viewport" content="width=device-width, initial-scale=1"> to the page head.`,
	},
	"slow_response": {
		Severity:       SeverityWarning,
		Impact:         "Slow responses hurt both crawl budget and user experience ranking factors.",
		Recommendation: "Profile the page and bring the response time under two seconds.",
	},

	// INFO - worth knowing, minor impact
	"long_title": {
		Severity:       SeverityInfo,
		Impact:         "Titles longer than ~60 characters are truncated in search results.",
		Recommendation: "Shorten the title while keeping the primary keyword near the front.",
	},
	"long_meta_description": {
		Severity:       SeverityInfo,
		Impact:         "Descriptions longer than ~155 characters are truncated in search results.",
		Recommendation: "Shorten the meta description to fit the snippet.",
	},
	"multiple_h1": {
		Severity:       SeverityInfo,
		Impact:         "Multiple <h1> elements dilute the primary heading signal.",
		Recommendation: "Keep a single <h1> and demote the others to <h2>.",
	},
	"image_missing_alt": {
		Severity:       SeverityInfo,
		Impact:         "Images without alt text are invisible to image search and screen readers.",
		Recommendation: "Add descriptive alt attributes to content images.",
	},
	"generic_anchor_text": {
		Severity:       SeverityInfo,
		Impact:         "Anchor text like \"click here\" carries no relevance signal for the linked page.",
		Recommendation: "Rewrite the anchor text to describe the link target.",
	},
	"thin_content": {
		Severity:       SeverityInfo,
		Impact:         "Pages with very little text rarely rank and may be treated as low quality.",
		Recommendation: "Expand the page content or consolidate it into a related page.",
	},
}

// GetIssueInfo returns the metadata for an issue type.
// Unknown types default to SeverityInfo with empty impact text.
func GetIssueInfo(issueType string) IssueInfo {
	if info, ok := issueInfoMapping[issueType]; ok {
		return info
	}
	return IssueInfo{Severity: SeverityInfo}
}

// GetSeverity returns the severity for an issue type.
// Unknown types default to SeverityInfo.
func GetSeverity(issueType string) Severity {
	return GetIssueInfo(issueType).Severity
}

// IssueTypes returns all known issue type identifiers.
// The order is unspecified; callers that need stable output should sort.
func IssueTypes() []string {
	types := make([]string, 0, len(issueInfoMapping))
	for t := range issueInfoMapping {
		types = append(types, t)
	}
	return types
}
