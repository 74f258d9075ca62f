package audit

import (
	"context"
	"testing"
	"time"

	"github.com/nao1215/sitegraph/internal/model"
)

// healthyPage returns a page that passes every default check.
func healthyPage() *model.Page {
	return &model.Page{
		URL:             "https://a.com/good",
		StatusCode:      200,
		ContentType:     "text/html; charset=utf-8",
		Title:           "A perfectly reasonable page title",
		MetaDescription: "A description that summarizes the page well within limits.",
		H1Count:         1,
		WordCount:       500,
		ResponseTime:    200 * time.Millisecond,
		HTML: `<html><head><meta name="viewport" content="width=device-width"></head>
			<body><h1>Hi</h1><a href="/next">detailed next page</a></body></html>`,
	}
}

// TestAuditorHealthyPage tests that a clean page yields no issues.
func TestAuditorHealthyPage(t *testing.T) {
	t.Parallel()

	auditor := NewAuditor()
	issues, err := auditor.Audit(context.Background(), []*model.Page{healthyPage()})
	if err != nil {
		t.Fatalf("audit failed: %v", err)
	}
	if len(issues) != 0 {
		t.Errorf("healthy page produced issues: %+v", issues)
	}
}

// TestStatusCheck tests HTTP error classification.
func TestStatusCheck(t *testing.T) {
	t.Parallel()

	check := NewStatusCheck()

	testCases := []struct {
		name         string
		status       int
		expectedType string
	}{
		{"ok", 200, ""},
		{"redirect", 302, ""},
		{"client error", 404, "http_error"},
		{"server error", 503, "server_error"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			issues := check.Check(&model.Page{URL: "https://a.com/x", StatusCode: tc.status})
			if tc.expectedType == "" {
				if len(issues) != 0 {
					t.Errorf("status %d produced issues: %+v", tc.status, issues)
				}
				return
			}
			if len(issues) != 1 {
				t.Fatalf("got %d issues, expected 1", len(issues))
			}
			if issues[0].Type != tc.expectedType {
				t.Errorf("type = %q, expected %q", issues[0].Type, tc.expectedType)
			}
			if issues[0].Severity != model.SeverityCritical {
				t.Errorf("severity = %v, expected critical", issues[0].Severity)
			}
		})
	}
}

// TestTitleCheck tests missing and overlong titles.
func TestTitleCheck(t *testing.T) {
	t.Parallel()

	check := NewTitleCheck()

	t.Run("missing", func(t *testing.T) {
		t.Parallel()
		issues := check.Check(&model.Page{URL: "https://a.com/x", StatusCode: 200})
		if len(issues) != 1 || issues[0].Type != "missing_title" {
			t.Errorf("issues = %+v", issues)
		}
	})

	t.Run("too long", func(t *testing.T) {
		t.Parallel()
		long := make([]byte, maxTitleLength+1)
		for i := range long {
			long[i] = 'a'
		}
		issues := check.Check(&model.Page{URL: "https://a.com/x", StatusCode: 200, Title: string(long)})
		if len(issues) != 1 || issues[0].Type != "long_title" {
			t.Errorf("issues = %+v", issues)
		}
		if issues[0].Value == "" {
			t.Error("long_title should carry the offending title as value")
		}
	})

	t.Run("skipped on error pages", func(t *testing.T) {
		t.Parallel()
		issues := check.Check(&model.Page{URL: "https://a.com/x", StatusCode: 404})
		if len(issues) != 0 {
			t.Errorf("error pages should not get title issues: %+v", issues)
		}
	})
}

// TestMetaCheck tests meta description and robots handling.
func TestMetaCheck(t *testing.T) {
	t.Parallel()

	check := NewMetaCheck()

	t.Run("missing description", func(t *testing.T) {
		t.Parallel()
		issues := check.Check(&model.Page{URL: "https://a.com/x", StatusCode: 200})
		if len(issues) != 1 || issues[0].Type != "missing_meta_description" {
			t.Errorf("issues = %+v", issues)
		}
	})

	t.Run("noindex detected", func(t *testing.T) {
		t.Parallel()
		issues := check.Check(&model.Page{
			URL:             "https://a.com/x",
			StatusCode:      200,
			MetaDescription: "fine",
			RobotsMeta:      "NOINDEX, follow",
		})
		if len(issues) != 1 || issues[0].Type != "noindex" {
			t.Errorf("issues = %+v", issues)
		}
	})

	t.Run("index directives pass", func(t *testing.T) {
		t.Parallel()
		issues := check.Check(&model.Page{
			URL:             "https://a.com/x",
			StatusCode:      200,
			MetaDescription: "fine",
			RobotsMeta:      "index, follow",
		})
		if len(issues) != 0 {
			t.Errorf("issues = %+v", issues)
		}
	})
}

// TestHeadingCheck tests h1 count classification.
func TestHeadingCheck(t *testing.T) {
	t.Parallel()

	check := NewHeadingCheck()

	testCases := []struct {
		name         string
		h1Count      int
		expectedType string
	}{
		{"none", 0, "missing_h1"},
		{"one", 1, ""},
		{"many", 3, "multiple_h1"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			issues := check.Check(&model.Page{URL: "https://a.com/x", StatusCode: 200, H1Count: tc.h1Count})
			if tc.expectedType == "" {
				if len(issues) != 0 {
					t.Errorf("issues = %+v", issues)
				}
				return
			}
			if len(issues) != 1 || issues[0].Type != tc.expectedType {
				t.Errorf("issues = %+v, expected one %s", issues, tc.expectedType)
			}
		})
	}
}

// TestDOMCheck tests the goquery-based selections.
func TestDOMCheck(t *testing.T) {
	t.Parallel()

	check := NewDOMCheck()

	t.Run("missing viewport and generic anchors", func(t *testing.T) {
		t.Parallel()
		page := &model.Page{
			URL:        "https://a.com/x",
			StatusCode: 200,
			HTML: `<html><head></head><body>
				<a href="/a">click here</a>
				<a href="/b">Read More</a>
				<a href="/c">the quarterly financial report</a>
			</body></html>`,
		}

		issues := check.Check(page)
		if len(issues) != 2 {
			t.Fatalf("got %d issues, expected 2: %+v", len(issues), issues)
		}

		types := map[string]bool{}
		for _, is := range issues {
			types[is.Type] = true
		}
		if !types["missing_viewport"] || !types["generic_anchor_text"] {
			t.Errorf("issue types = %v", types)
		}
	})

	t.Run("clean page", func(t *testing.T) {
		t.Parallel()
		issues := check.Check(healthyPage())
		if len(issues) != 0 {
			t.Errorf("issues = %+v", issues)
		}
	})

	t.Run("empty markup skipped", func(t *testing.T) {
		t.Parallel()
		issues := check.Check(&model.Page{URL: "https://a.com/x", StatusCode: 200})
		if len(issues) != 0 {
			t.Errorf("issues = %+v", issues)
		}
	})
}

// TestAuditorNonHTMLPages tests that only the status check runs on non-HTML
// content.
func TestAuditorNonHTMLPages(t *testing.T) {
	t.Parallel()

	auditor := NewAuditor()
	pages := []*model.Page{
		{URL: "https://a.com/logo.png", StatusCode: 200, ContentType: "image/png"},
		{URL: "https://a.com/gone.pdf", StatusCode: 404, ContentType: "application/pdf"},
	}

	issues, err := auditor.Audit(context.Background(), pages)
	if err != nil {
		t.Fatalf("audit failed: %v", err)
	}
	if len(issues) != 1 {
		t.Fatalf("got %d issues, expected only the 404: %+v", len(issues), issues)
	}
	if issues[0].Type != "http_error" || issues[0].PageURL != "https://a.com/gone.pdf" {
		t.Errorf("issue = %+v", issues[0])
	}
}

// TestAuditorCancellation tests context cancellation between pages.
func TestAuditorCancellation(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	auditor := NewAuditor()
	_, err := auditor.Audit(ctx, []*model.Page{healthyPage()})
	if err == nil {
		t.Error("expected context error")
	}
}

// TestAuditorIssueOrderDeterministic tests that audit output order is stable
// for identical input, since the graph build hashes it.
func TestAuditorIssueOrderDeterministic(t *testing.T) {
	t.Parallel()

	pages := []*model.Page{
		{URL: "https://a.com/one", StatusCode: 200, ContentType: "text/html"},
		{URL: "https://a.com/two", StatusCode: 404, ContentType: "text/html"},
	}

	auditor := NewAuditor()
	first, err := auditor.Audit(context.Background(), pages)
	if err != nil {
		t.Fatalf("audit failed: %v", err)
	}
	second, err := auditor.Audit(context.Background(), pages)
	if err != nil {
		t.Fatalf("audit failed: %v", err)
	}

	if len(first) != len(second) {
		t.Fatalf("issue counts differ: %d != %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("issue %d differs: %+v != %+v", i, first[i], second[i])
		}
	}
}
