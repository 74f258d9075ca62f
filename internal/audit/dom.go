package audit

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nao1215/sitegraph/internal/model"
)

// DOMCheck covers audit concerns that need CSS-selector access to the page
// markup rather than the crawler's pre-parsed fields: the viewport meta tag
// and anchor text quality.
//
// Design decision: We re-parse with goquery here instead of widening the
// crawler's parser because these selections are audit-specific; the crawler
// stays focused on what every consumer needs (links, title, meta basics).
type DOMCheck struct{}

// NewDOMCheck creates a DOMCheck.
func NewDOMCheck() *DOMCheck { return &DOMCheck{} }

// Name returns the check name.
func (c *DOMCheck) Name() string { return "dom" }

// genericAnchorTexts are link texts that carry no relevance signal.
var genericAnchorTexts = map[string]bool{
	"click here": true,
	"here":       true,
	"read more":  true,
	"more":       true,
	"link":       true,
	"this":       true,
}

// Check parses the stored markup and inspects viewport and anchor text.
// Pages whose markup fails to parse are skipped silently; goquery recovers
// from most malformed HTML, so a failure here means there is nothing usable.
func (c *DOMCheck) Check(page *model.Page) []model.Issue {
	if page.IsError() || page.HTML == "" {
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(page.HTML))
	if err != nil {
		return nil
	}

	issues := make([]model.Issue, 0, 2)

	if doc.Find(`meta[name="viewport"]`).Length() == 0 {
		issues = append(issues, newIssue(page, "missing_viewport",
			"page has no viewport meta tag", ""))
	}

	var generic int
	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		text := strings.ToLower(strings.TrimSpace(sel.Text()))
		if genericAnchorTexts[text] {
			generic++
		}
	})
	if generic > 0 {
		issues = append(issues, newIssue(page, "generic_anchor_text",
			fmt.Sprintf("%d links use generic anchor text", generic), ""))
	}

	return issues
}
