package audit

import (
	"context"
	"log/slog"
	"strings"

	"github.com/nao1215/sitegraph/internal/model"
)

// Check defines the interface for individual audit checks.
// Each check focuses on a single SEO concern.
//
// Design decision: We use an interface rather than function types because:
//  1. It allows checks to carry configuration state (thresholds, limits)
//  2. It provides a Name() method for logging and debugging
//  3. It enables testing with mock checks
type Check interface {
	// Name returns the check's name for logging purposes.
	Name() string

	// Check inspects a single page and returns the issues found.
	// Returning an empty slice means the page passed.
	Check(page *model.Page) []model.Issue
}

// Auditor coordinates SEO checks across all crawled pages.
// It aggregates issues from the registered checks into a single list.
type Auditor struct {
	// checks is the list of registered checks to run.
	checks []Check

	// logger is used for structured logging during the audit.
	logger *slog.Logger
}

// Option configures an Auditor.
type Option func(*Auditor)

// WithLogger sets a custom logger for the auditor.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Auditor) {
		a.logger = logger
	}
}

// WithChecks replaces the default check set.
func WithChecks(checks ...Check) Option {
	return func(a *Auditor) {
		a.checks = checks
	}
}

// NewAuditor creates an Auditor with the default check set.
func NewAuditor(opts ...Option) *Auditor {
	a := &Auditor{
		checks: DefaultChecks(),
	}

	for _, opt := range opts {
		opt(a)
	}

	if a.logger == nil {
		a.logger = slog.Default()
	}

	return a
}

// DefaultChecks returns the standard audit check set.
func DefaultChecks() []Check {
	return []Check{
		NewStatusCheck(),
		NewTitleCheck(),
		NewMetaCheck(),
		NewHeadingCheck(),
		NewImageAltCheck(),
		NewContentCheck(),
		NewResponseTimeCheck(),
		NewDOMCheck(),
	}
}

// Audit runs every check against every page and returns all issues found,
// in page order, check order within a page.
//
// Non-HTML pages are only run through the status check: a 404 image is
// still broken navigation, but a missing title on a PDF is noise.
func (a *Auditor) Audit(ctx context.Context, pages []*model.Page) ([]model.Issue, error) {
	issues := make([]model.Issue, 0)

	for _, page := range pages {
		select {
		case <-ctx.Done():
			return issues, ctx.Err()
		default:
		}

		for _, check := range a.checks {
			if !isHTML(page) && check.Name() != "status" {
				continue
			}
			found := check.Check(page)
			if len(found) > 0 {
				a.logger.Debug("audit check found issues",
					"check", check.Name(),
					"page", page.URL,
					"count", len(found),
				)
			}
			issues = append(issues, found...)
		}
	}

	return issues, nil
}

// isHTML reports whether a page is HTML content.
// An empty content type is treated as HTML; misconfigured servers omit it.
func isHTML(p *model.Page) bool {
	return p.ContentType == "" || strings.Contains(p.ContentType, "text/html")
}

// newIssue builds an Issue with severity taken from the central mapping.
func newIssue(page *model.Page, issueType, message, value string) model.Issue {
	return model.Issue{
		PageURL:  page.URL,
		Type:     issueType,
		Severity: model.GetSeverity(issueType),
		Message:  message,
		Value:    value,
	}
}
