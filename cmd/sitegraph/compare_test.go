package main

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/sitegraph/internal/database"
	"github.com/nao1215/sitegraph/internal/model"
)

// TestNewCompareCmd tests the compare command creation.
func TestNewCompareCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCompareCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "compare [site-url]" {
			t.Errorf("expected use 'compare [site-url]', got %q", cmd.Use)
		}
	})

	t.Run("has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
	})

	t.Run("has expected flags", func(t *testing.T) {
		t.Parallel()
		flags := map[string]string{
			"list":         "l",
			"list-sites":   "L",
			"with-scan-id": "i",
			"since":        "s",
			"json":         "j",
			"markdown":     "m",
		}
		for name, shorthand := range flags {
			flag := cmd.Flags().Lookup(name)
			if flag == nil {
				t.Errorf("expected %s flag", name)
				continue
			}
			if flag.Shorthand != shorthand {
				t.Errorf("expected shorthand %q for %s, got %q", shorthand, name, flag.Shorthand)
			}
		}
	})
}

// compareTestReport builds a scan report with the given findings for
// comparison tests.
func compareTestReport(site string, scanned time.Time, issues ...model.Issue) *model.ScanReport {
	scanReport := model.NewScanReport(site)
	scanReport.DateScanned = scanned
	scanReport.Pages = []*model.Page{
		{URL: site, StatusCode: 200, Title: "Home"},
	}
	scanReport.AddIssues(issues...)
	return scanReport
}

// TestFindingKey tests finding identity for diffing.
func TestFindingKey(t *testing.T) {
	t.Parallel()

	a := model.Finding{Type: "missing_title", PageURL: "https://example.com/a"}
	b := model.Finding{Type: "missing_title", PageURL: "https://example.com/b"}
	c := model.Finding{Type: "missing_title", PageURL: "https://example.com/a", Value: "x"}

	if findingKey(a) == findingKey(b) {
		t.Error("findings on different pages must have different keys")
	}
	if findingKey(a) == findingKey(c) {
		t.Error("findings with different values must have different keys")
	}
	if findingKey(a) != findingKey(a) {
		t.Error("identical findings must have identical keys")
	}
}

// TestCalculateHealthChange tests the health direction heuristic.
func TestCalculateHealthChange(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		previous      ScanSummary
		current       ScanSummary
		wantDirection string
	}{
		{
			name:          "worsened when critical findings appear",
			previous:      ScanSummary{InfoCount: 5},
			current:       ScanSummary{CriticalCount: 1},
			wantDirection: healthDirectionWorsened,
		},
		{
			name:          "improved when critical becomes info",
			previous:      ScanSummary{CriticalCount: 1},
			current:       ScanSummary{InfoCount: 3},
			wantDirection: healthDirectionImproved,
		},
		{
			name:          "unchanged for identical counts",
			previous:      ScanSummary{CriticalCount: 1, WarningCount: 2, InfoCount: 3},
			current:       ScanSummary{CriticalCount: 1, WarningCount: 2, InfoCount: 3},
			wantDirection: healthDirectionUnchanged,
		},
		{
			name:          "critical outweighs many warnings",
			previous:      ScanSummary{WarningCount: 9},
			current:       ScanSummary{CriticalCount: 1},
			wantDirection: healthDirectionWorsened,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			change := calculateHealthChange(tt.previous, tt.current)
			if change.Direction != tt.wantDirection {
				t.Errorf("expected direction %q, got %q", tt.wantDirection, change.Direction)
			}
		})
	}

	t.Run("deltas are current minus previous", func(t *testing.T) {
		t.Parallel()
		previous := ScanSummary{CriticalCount: 2, WarningCount: 5, InfoCount: 1, PagesCrawled: 10, BrokenLinkCount: 3}
		current := ScanSummary{CriticalCount: 1, WarningCount: 7, InfoCount: 1, PagesCrawled: 12, BrokenLinkCount: 0}

		change := calculateHealthChange(previous, current)
		if change.CriticalDelta != -1 {
			t.Errorf("expected critical delta -1, got %d", change.CriticalDelta)
		}
		if change.WarningDelta != 2 {
			t.Errorf("expected warning delta 2, got %d", change.WarningDelta)
		}
		if change.InfoDelta != 0 {
			t.Errorf("expected info delta 0, got %d", change.InfoDelta)
		}
		if change.PageDelta != 2 {
			t.Errorf("expected page delta 2, got %d", change.PageDelta)
		}
		if change.BrokenLinkDelta != -3 {
			t.Errorf("expected broken link delta -3, got %d", change.BrokenLinkDelta)
		}
	})
}

// TestFormatIssueSummary tests issue summary formatting.
func TestFormatIssueSummary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		summary map[string]int
		want    string
	}{
		{
			name:    "nil summary",
			summary: nil,
			want:    "N/A",
		},
		{
			name:    "empty summary",
			summary: map[string]int{},
			want:    noFindingsMessage,
		},
		{
			name:    "all zero counts",
			summary: map[string]int{"critical": 0, "warning": 0, "info": 0},
			want:    noFindingsMessage,
		},
		{
			name:    "all severities",
			summary: map[string]int{"critical": 1, "warning": 2, "info": 3},
			want:    "C:1 W:2 I:3",
		},
		{
			name:    "warnings only",
			summary: map[string]int{"warning": 4},
			want:    "W:4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := formatIssueSummary(tt.summary); got != tt.want {
				t.Errorf("formatIssueSummary() = %q, want %q", got, tt.want)
			}
		})
	}
}

// TestFormatDelta tests signed delta formatting.
func TestFormatDelta(t *testing.T) {
	t.Parallel()

	tests := []struct {
		delta int
		want  string
	}{
		{delta: 3, want: "+3"},
		{delta: -2, want: "-2"},
		{delta: 0, want: "0"},
	}

	for _, tt := range tests {
		if got := formatDelta(tt.delta); got != tt.want {
			t.Errorf("formatDelta(%d) = %q, want %q", tt.delta, got, tt.want)
		}
	}
}

// TestFormatHealthDirection tests direction labels.
func TestFormatHealthDirection(t *testing.T) {
	t.Parallel()

	if !strings.Contains(formatHealthDirection(healthDirectionImproved), "IMPROVED") {
		t.Error("expected IMPROVED label")
	}
	if !strings.Contains(formatHealthDirection(healthDirectionWorsened), "WORSENED") {
		t.Error("expected WORSENED label")
	}
	if formatHealthDirection(healthDirectionUnchanged) != "UNCHANGED" {
		t.Error("expected UNCHANGED label")
	}
	if formatHealthDirection("nonsense") != "UNCHANGED" {
		t.Error("expected unknown direction to read as UNCHANGED")
	}
}

// TestCompareReports tests finding diffs between two reports.
func TestCompareReports(t *testing.T) {
	t.Parallel()

	previous := compareTestReport("https://example.com", time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
		model.Issue{Type: "missing_title", Severity: model.SeverityWarning, Message: "page has no title", PageURL: "https://example.com/a"},
		model.Issue{Type: "http_error", Severity: model.SeverityCritical, Message: "page returned HTTP 404", PageURL: "https://example.com/old"},
	)
	current := compareTestReport("https://example.com", time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC),
		model.Issue{Type: "missing_title", Severity: model.SeverityWarning, Message: "page has no title", PageURL: "https://example.com/a"},
		model.Issue{Type: "thin_content", Severity: model.SeverityInfo, Message: "page has very little text", PageURL: "https://example.com/b"},
	)

	result := compareReports(previous, current)

	t.Run("identifies new findings", func(t *testing.T) {
		t.Parallel()
		if len(result.NewFindings) != 1 {
			t.Fatalf("expected 1 new finding, got %d", len(result.NewFindings))
		}
		if result.NewFindings[0].Type != "thin_content" {
			t.Errorf("expected thin_content, got %q", result.NewFindings[0].Type)
		}
	})

	t.Run("identifies resolved findings", func(t *testing.T) {
		t.Parallel()
		if len(result.ResolvedFindings) != 1 {
			t.Fatalf("expected 1 resolved finding, got %d", len(result.ResolvedFindings))
		}
		if result.ResolvedFindings[0].Type != "http_error" {
			t.Errorf("expected http_error, got %q", result.ResolvedFindings[0].Type)
		}
	})

	t.Run("counts unchanged findings", func(t *testing.T) {
		t.Parallel()
		if result.UnchangedCount != 1 {
			t.Errorf("expected 1 unchanged finding, got %d", result.UnchangedCount)
		}
	})

	t.Run("summarizes both scans", func(t *testing.T) {
		t.Parallel()
		if result.PreviousScan.CriticalCount != 1 || result.PreviousScan.WarningCount != 1 {
			t.Errorf("unexpected previous summary: %+v", result.PreviousScan)
		}
		if result.CurrentScan.WarningCount != 1 || result.CurrentScan.InfoCount != 1 {
			t.Errorf("unexpected current summary: %+v", result.CurrentScan)
		}
		if result.PreviousScan.PagesCrawled != 1 {
			t.Errorf("expected 1 crawled page, got %d", result.PreviousScan.PagesCrawled)
		}
	})

	t.Run("resolving a critical improves health", func(t *testing.T) {
		t.Parallel()
		if result.HealthChange.Direction != healthDirectionImproved {
			t.Errorf("expected improved, got %q", result.HealthChange.Direction)
		}
	})
}

// TestOutputComparisonText tests the human-readable comparison output.
func TestOutputComparisonText(t *testing.T) {
	t.Parallel()

	result := &ComparisonResult{
		Site:         "https://example.com",
		PreviousScan: ScanSummary{DateScanned: time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC), CriticalCount: 1, TotalFindings: 1},
		CurrentScan:  ScanSummary{DateScanned: time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC), WarningCount: 1, TotalFindings: 1},
		NewFindings: []model.Finding{
			{Type: "missing_title", SeverityText: "WARNING", Message: "page has no title", PageURL: "https://example.com/a", Value: "about"},
		},
		ResolvedFindings: []model.Finding{
			{Type: "http_error", SeverityText: "CRITICAL", Message: "page returned HTTP 404", PageURL: "https://example.com/old"},
		},
		UnchangedCount: 2,
		HealthChange:   HealthChange{Direction: healthDirectionImproved, CriticalDelta: -1, WarningDelta: 1},
	}

	var buf bytes.Buffer
	if err := outputComparisonText(&buf, result); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	for _, want := range []string{
		"Scan Comparison: https://example.com",
		"Health Status: IMPROVED",
		"New Findings (1):",
		"Resolved Findings (1):",
		"Unchanged: 2 findings",
		"page has no title",
		"Value: about",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q:\n%s", want, output)
		}
	}
}

// TestOutputComparisonJSON tests JSON comparison output.
func TestOutputComparisonJSON(t *testing.T) {
	t.Parallel()

	result := &ComparisonResult{
		Site:         "https://example.com",
		HealthChange: HealthChange{Direction: healthDirectionUnchanged},
	}

	var buf bytes.Buffer
	if err := outputComparisonJSON(&buf, result); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var decoded ComparisonResult
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON output: %v", err)
	}
	if decoded.Site != "https://example.com" {
		t.Errorf("expected site in JSON, got %q", decoded.Site)
	}
	if decoded.HealthChange.Direction != healthDirectionUnchanged {
		t.Errorf("expected direction in JSON, got %q", decoded.HealthChange.Direction)
	}
}

// TestOutputComparisonMarkdown tests Markdown comparison output.
func TestOutputComparisonMarkdown(t *testing.T) {
	t.Parallel()

	result := &ComparisonResult{
		Site:         "https://example.com",
		PreviousScan: ScanSummary{BrokenLinkCount: 2, TotalFindings: 2},
		CurrentScan:  ScanSummary{TotalFindings: 0},
		ResolvedFindings: []model.Finding{
			{Type: "http_error", SeverityText: "CRITICAL", Message: "page returned HTTP 404", PageURL: "https://example.com/old"},
		},
		HealthChange: HealthChange{Direction: healthDirectionImproved, BrokenLinkDelta: -2},
	}

	var buf bytes.Buffer
	if err := outputComparisonMarkdown(&buf, result); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	for _, want := range []string{
		"# Scan Comparison: https://example.com",
		"## Summary",
		"| Metric | Previous | Current | Change |",
		"| Broken Links | 2 | 0 | -2 |",
		"## Resolved Findings (1)",
		"~~**[CRITICAL]**",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected output to contain %q:\n%s", want, output)
		}
	}
}

// openCompareTestDB opens a scan database in a temp directory and stores
// the given reports in order.
func openCompareTestDB(t *testing.T, reports ...*model.ScanReport) *database.ScanDB {
	t.Helper()

	db, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("failed to close database: %v", err)
		}
	})

	ctx := context.Background()
	for _, r := range reports {
		if _, err := db.SaveScan(ctx, r); err != nil {
			t.Fatalf("failed to save scan: %v", err)
		}
	}
	return db
}

// TestRunComparison tests the end-to-end comparison against a real database.
func TestRunComparison(t *testing.T) {
	t.Parallel()

	site := "https://example.com"
	previous := compareTestReport(site, time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC),
		model.Issue{Type: "http_error", Severity: model.SeverityCritical, Message: "page returned HTTP 404", PageURL: site + "/old"},
	)
	current := compareTestReport(site, time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC),
		model.Issue{Type: "missing_title", Severity: model.SeverityWarning, Message: "page has no title", PageURL: site + "/a"},
	)

	t.Run("compares latest two scans", func(t *testing.T) {
		t.Parallel()
		db := openCompareTestDB(t, previous, current)

		var buf bytes.Buffer
		err := runComparison(context.Background(), db, &buf, site, 0, "", false, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Health Status: IMPROVED") {
			t.Errorf("expected improvement, got:\n%s", output)
		}
		if !strings.Contains(output, "New Findings (1):") {
			t.Errorf("expected new finding section, got:\n%s", output)
		}
		if !strings.Contains(output, "Resolved Findings (1):") {
			t.Errorf("expected resolved finding section, got:\n%s", output)
		}
	})

	t.Run("compares with specific scan ID", func(t *testing.T) {
		t.Parallel()
		db := openCompareTestDB(t, previous, current)

		var buf bytes.Buffer
		// The first stored scan has ID 1
		err := runComparison(context.Background(), db, &buf, site, 1, "", false, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "Scan Comparison: "+site) {
			t.Errorf("expected comparison output, got:\n%s", buf.String())
		}
	})

	t.Run("outputs JSON format", func(t *testing.T) {
		t.Parallel()
		db := openCompareTestDB(t, previous, current)

		var buf bytes.Buffer
		err := runComparison(context.Background(), db, &buf, site, 0, "", true, false)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var decoded ComparisonResult
		if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
			t.Fatalf("invalid JSON output: %v", err)
		}
		if decoded.Site != site {
			t.Errorf("expected site %q, got %q", site, decoded.Site)
		}
	})

	t.Run("outputs Markdown format", func(t *testing.T) {
		t.Parallel()
		db := openCompareTestDB(t, previous, current)

		var buf bytes.Buffer
		err := runComparison(context.Background(), db, &buf, site, 0, "", false, true)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "# Scan Comparison: "+site) {
			t.Errorf("expected Markdown heading, got:\n%s", buf.String())
		}
	})

	t.Run("errors when no scan history", func(t *testing.T) {
		t.Parallel()
		db := openCompareTestDB(t)

		var buf bytes.Buffer
		err := runComparison(context.Background(), db, &buf, site, 0, "", false, false)
		if err == nil {
			t.Fatal("expected error for empty history")
		}
		if !strings.Contains(err.Error(), "no scan history") {
			t.Errorf("expected 'no scan history' error, got %v", err)
		}
	})

	t.Run("errors when only one scan exists", func(t *testing.T) {
		t.Parallel()
		db := openCompareTestDB(t, current)

		var buf bytes.Buffer
		err := runComparison(context.Background(), db, &buf, site, 0, "", false, false)
		if err == nil {
			t.Fatal("expected error for single scan")
		}
		if !strings.Contains(err.Error(), "at least 2 scans") {
			t.Errorf("expected 'at least 2 scans' error, got %v", err)
		}
	})

	t.Run("errors when scan ID belongs to another site", func(t *testing.T) {
		t.Parallel()
		other := compareTestReport("https://other.example", time.Date(2026, 8, 1, 10, 0, 0, 0, time.UTC))
		db := openCompareTestDB(t, other, previous, current)

		var buf bytes.Buffer
		// Scan ID 1 is https://other.example
		err := runComparison(context.Background(), db, &buf, site, 1, "", false, false)
		if err == nil {
			t.Fatal("expected error for foreign scan ID")
		}
		if !strings.Contains(err.Error(), "belongs to") {
			t.Errorf("expected 'belongs to' error, got %v", err)
		}
	})

	t.Run("errors for unknown scan ID", func(t *testing.T) {
		t.Parallel()
		db := openCompareTestDB(t, previous, current)

		var buf bytes.Buffer
		err := runComparison(context.Background(), db, &buf, site, 999, "", false, false)
		if err == nil {
			t.Fatal("expected error for unknown scan ID")
		}
		if !strings.Contains(err.Error(), "not found") {
			t.Errorf("expected 'not found' error, got %v", err)
		}
	})

	t.Run("errors for malformed since date", func(t *testing.T) {
		t.Parallel()
		db := openCompareTestDB(t, previous, current)

		var buf bytes.Buffer
		err := runComparison(context.Background(), db, &buf, site, 0, "01-02-2026", false, false)
		if err == nil {
			t.Fatal("expected error for malformed date")
		}
		if !strings.Contains(err.Error(), "invalid date format") {
			t.Errorf("expected date format error, got %v", err)
		}
	})
}

// TestListScanHistory tests the history listing output.
func TestListScanHistory(t *testing.T) {
	t.Parallel()

	site := "https://example.com"

	t.Run("lists stored scans with issue summaries", func(t *testing.T) {
		t.Parallel()
		scanReport := compareTestReport(site, time.Now(),
			model.Issue{Type: "http_error", Severity: model.SeverityCritical, Message: "page returned HTTP 404", PageURL: site + "/old"},
			model.Issue{Type: "missing_title", Severity: model.SeverityWarning, Message: "page has no title", PageURL: site + "/a"},
		)
		db := openCompareTestDB(t, scanReport)

		var buf bytes.Buffer
		if err := listScanHistory(context.Background(), db, site, &buf); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Scan history for "+site) {
			t.Errorf("expected history header, got:\n%s", output)
		}
		if !strings.Contains(output, "C:1 W:1") {
			t.Errorf("expected issue summary 'C:1 W:1', got:\n%s", output)
		}
	})

	t.Run("reports empty history", func(t *testing.T) {
		t.Parallel()
		db := openCompareTestDB(t)

		var buf bytes.Buffer
		if err := listScanHistory(context.Background(), db, site, &buf); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "No scan history found") {
			t.Errorf("expected empty-history message, got:\n%s", buf.String())
		}
	})
}

// TestListScannedSites tests the site listing output.
func TestListScannedSites(t *testing.T) {
	t.Parallel()

	t.Run("lists sites with stored scans", func(t *testing.T) {
		t.Parallel()
		db := openCompareTestDB(t,
			compareTestReport("https://example.com", time.Now()),
			compareTestReport("https://example.org", time.Now()),
		)

		var buf bytes.Buffer
		if err := listScannedSites(context.Background(), db, &buf); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		output := buf.String()
		if !strings.Contains(output, "Scanned sites (2):") {
			t.Errorf("expected site count header, got:\n%s", output)
		}
		if !strings.Contains(output, "https://example.com") || !strings.Contains(output, "https://example.org") {
			t.Errorf("expected both sites listed, got:\n%s", output)
		}
	})

	t.Run("reports empty database", func(t *testing.T) {
		t.Parallel()
		db := openCompareTestDB(t)

		var buf bytes.Buffer
		if err := listScannedSites(context.Background(), db, &buf); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "No scanned sites found") {
			t.Errorf("expected empty message, got:\n%s", buf.String())
		}
	})
}
