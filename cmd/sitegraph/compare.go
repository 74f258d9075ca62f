package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/sitegraph/internal/config"
	"github.com/nao1215/sitegraph/internal/database"
	"github.com/nao1215/sitegraph/internal/model"
	"github.com/spf13/cobra"
)

// Constants for health direction and summary messages.
const (
	healthDirectionWorsened  = "worsened"
	healthDirectionImproved  = "improved"
	healthDirectionUnchanged = "unchanged"
	noFindingsMessage        = "No findings"
)

// NewCompareCmd creates the compare command.
// This command compares scan results with historical data stored in the database.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare [site-url]",
		Short: "Compare scan results with historical data",
		Long: `Compare displays differences between the current and previous scan results.

This command retrieves historical scan data from the database and shows:
- New findings that appeared since the last scan
- Resolved findings that are no longer present
- Changes in page count and broken internal links

The comparison requires at least two scans in the database for the specified
site. Use 'sitegraph scan' to perform scans and save results.

Examples:
  # Compare latest two scans for a site
  sitegraph compare https://example.com

  # List all scan history for a site
  sitegraph compare --list https://example.com

  # Compare with a specific historical scan by ID
  sitegraph compare --with-scan-id 5 https://example.com

  # Compare scans since a specific date
  sitegraph compare --since "2026-01-01" https://example.com

  # Output comparison in JSON format
  sitegraph compare --json https://example.com

  # List all scanned sites in the database
  sitegraph compare --list-sites`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCompareCmd,
	}

	// History listing flags
	cmd.Flags().BoolP("list", "l", false,
		"List scan history for the specified site")
	cmd.Flags().BoolP("list-sites", "L", false,
		"List all scanned sites in the database")

	// Comparison target flags
	cmd.Flags().Int64P("with-scan-id", "i", 0,
		"Compare with a specific scan by ID (use --list to see available IDs)")
	cmd.Flags().StringP("since", "s", "",
		"Compare with the first scan after this date (format: YYYY-MM-DD)")

	// Output format flags
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison result in Markdown format")

	return cmd
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	// Handle --list-sites flag first (requires database but no site URL)
	listSites, err := cmd.Flags().GetBool("list-sites")
	if err != nil {
		return err
	}

	// Validate arguments before opening database (unless --list-sites)
	// This prevents database lock issues when validation fails
	var site string
	if !listSites {
		// Require a site URL for other operations
		if len(args) == 0 {
			return errors.New("site URL is required (use --list-sites to see available sites)")
		}

		// Normalize the site URL the same way scan does, so stored and
		// queried site keys always match
		site, err = normalizeTarget(args[0])
		if err != nil {
			return fmt.Errorf("invalid site URL: %w", err)
		}
	}

	// Use XDG data directory for database
	dbDir := config.XDGDataDir()

	// Open database
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	// Handle --list-sites flag
	if listSites {
		return listScannedSites(ctx, db, os.Stdout)
	}

	// Handle --list flag
	listHistory, err := cmd.Flags().GetBool("list")
	if err != nil {
		return err
	}
	if listHistory {
		return listScanHistory(ctx, db, site, os.Stdout)
	}

	// Get output format flags
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}

	// Get comparison target flags
	withScanID, err := cmd.Flags().GetInt64("with-scan-id")
	if err != nil {
		return err
	}
	sinceDate, err := cmd.Flags().GetString("since")
	if err != nil {
		return err
	}

	// Perform comparison
	return runComparison(ctx, db, os.Stdout, site, withScanID, sinceDate, jsonOutput, markdownOutput)
}

// listScannedSites lists all sites that have scan records in the database.
func listScannedSites(ctx context.Context, db *database.ScanDB, w io.Writer) error {
	sites, err := db.ListSites(ctx)
	if err != nil {
		return fmt.Errorf("failed to list sites: %w", err)
	}

	if len(sites) == 0 {
		fmt.Fprintln(w, "No scanned sites found in the database.")
		fmt.Fprintln(w, "\nUse 'sitegraph scan <site-url>' to scan a site.")
		return nil
	}

	fmt.Fprintf(w, "Scanned sites (%d):\n\n", len(sites))
	for _, site := range sites {
		fmt.Fprintf(w, "  • %s\n", site)
	}
	fmt.Fprintln(w, "\nUse 'sitegraph compare --list <site-url>' to see scan history for a site.")

	return nil
}

// listScanHistory lists all scan records for a specific site.
func listScanHistory(ctx context.Context, db *database.ScanDB, site string, w io.Writer) error {
	history, err := db.GetScanHistory(ctx, site)
	if err != nil {
		return fmt.Errorf("failed to get scan history: %w", err)
	}

	if len(history) == 0 {
		fmt.Fprintf(w, "No scan history found for %s\n", site)
		fmt.Fprintln(w, "\nUse 'sitegraph scan' to scan this site.")
		return nil
	}

	fmt.Fprintf(w, "Scan history for %s (%d scans):\n\n", site, len(history))
	fmt.Fprintf(w, "  %-6s  %-20s  %s\n", "ID", "Date", "Issue Summary")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 60))

	for _, meta := range history {
		fmt.Fprintf(w, "  %-6d  %-20s  %s\n",
			meta.ID,
			meta.Timestamp.Format("2006-01-02 15:04:05"),
			formatIssueSummary(meta.IssueSummary),
		)
	}

	fmt.Fprintln(w, "\nUse 'sitegraph compare <site-url>' to compare the latest two scans.")
	fmt.Fprintln(w, "Use 'sitegraph compare --with-scan-id <id> <site-url>' to compare with a specific scan.")

	return nil
}

// formatIssueSummary formats the issue summary map into a human-readable string.
func formatIssueSummary(summary map[string]int) string {
	if summary == nil {
		return "N/A"
	}

	var parts []string
	if v := summary["critical"]; v > 0 {
		parts = append(parts, fmt.Sprintf("C:%d", v))
	}
	if v := summary["warning"]; v > 0 {
		parts = append(parts, fmt.Sprintf("W:%d", v))
	}
	if v := summary["info"]; v > 0 {
		parts = append(parts, fmt.Sprintf("I:%d", v))
	}

	if len(parts) == 0 {
		return noFindingsMessage
	}
	return strings.Join(parts, " ")
}

// runComparison performs the actual comparison between scan reports.
func runComparison(ctx context.Context, db *database.ScanDB, w io.Writer, site string, withScanID int64, sinceDate string, jsonOutput, markdownOutput bool) error {
	// The latest report is always the current side of the comparison
	currentReport, err := db.GetLatestScan(ctx, site)
	if err != nil {
		return fmt.Errorf("failed to get latest scan: %w", err)
	}
	if currentReport == nil {
		return fmt.Errorf("no scan history found for %s", site)
	}

	// Determine which report to compare against
	var previousReport *model.ScanReport

	switch {
	case withScanID > 0:
		previousReport, err = db.GetScanByID(ctx, withScanID)
		if err != nil {
			return fmt.Errorf("failed to get scan with ID %d: %w", withScanID, err)
		}
		if previousReport == nil {
			return fmt.Errorf("scan with ID %d not found", withScanID)
		}
		// Validate that the scan ID belongs to the same site
		if previousReport.Site != site {
			return fmt.Errorf("scan ID %d belongs to %s, not %s", withScanID, previousReport.Site, site)
		}
	case sinceDate != "":
		previousReport, err = findScanSince(ctx, db, site, sinceDate)
		if err != nil {
			return err
		}
		if previousReport.DateScanned.Equal(currentReport.DateScanned) {
			return fmt.Errorf("only one scan found since %s; at least 2 scans are required for comparison", sinceDate)
		}
	default:
		reports, err := db.GetRecentScans(ctx, site, 2)
		if err != nil {
			return fmt.Errorf("failed to get recent scans: %w", err)
		}
		if len(reports) < 2 {
			return fmt.Errorf("at least 2 scans are required for comparison (found %d)", len(reports))
		}
		previousReport = reports[1]
	}

	// Generate comparison result
	comparison := compareReports(previousReport, currentReport)

	// Output the result
	if jsonOutput {
		return outputComparisonJSON(w, comparison)
	}
	if markdownOutput {
		return outputComparisonMarkdown(w, comparison)
	}
	return outputComparisonText(w, comparison)
}

// findScanSince finds the oldest stored scan at or after the given date.
// The scan history is metadata-only, so the matching report is loaded by
// ID afterwards.
func findScanSince(ctx context.Context, db *database.ScanDB, site, sinceDate string) (*model.ScanReport, error) {
	parsedDate, err := time.Parse("2006-01-02", sinceDate)
	if err != nil {
		return nil, fmt.Errorf("invalid date format (use YYYY-MM-DD): %w", err)
	}

	history, err := db.GetScanHistory(ctx, site)
	if err != nil {
		return nil, fmt.Errorf("failed to get scan history: %w", err)
	}

	// History is newest first, so iterate in reverse to find the oldest
	// scan at or after the date
	for i := len(history) - 1; i >= 0; i-- {
		meta := history[i]
		if meta.Timestamp.Before(parsedDate) {
			continue
		}
		scanReport, err := db.GetScanByID(ctx, meta.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to get scan with ID %d: %w", meta.ID, err)
		}
		if scanReport != nil {
			return scanReport, nil
		}
	}

	return nil, fmt.Errorf("no scans found since %s", sinceDate)
}

// ComparisonResult holds the result of comparing two scan reports.
type ComparisonResult struct {
	// Site is the compared site URL.
	Site string `json:"site"`

	// PreviousScan contains summary data about the previous scan.
	PreviousScan ScanSummary `json:"previous_scan"`

	// CurrentScan contains summary data about the current scan.
	CurrentScan ScanSummary `json:"current_scan"`

	// NewFindings contains findings that are new in the current scan.
	NewFindings []model.Finding `json:"new_findings,omitempty"`

	// ResolvedFindings contains findings that were in the previous scan but not in current.
	ResolvedFindings []model.Finding `json:"resolved_findings,omitempty"`

	// UnchangedCount is the number of findings that remain unchanged.
	UnchangedCount int `json:"unchanged_count"`

	// HealthChange describes the overall change in site health.
	HealthChange HealthChange `json:"health_change"`
}

// ScanSummary contains summary data about a scan for comparison display.
type ScanSummary struct {
	// DateScanned is when the scan was performed.
	DateScanned time.Time `json:"date_scanned"`

	// TotalFindings is the total number of findings in this scan.
	TotalFindings int `json:"total_findings"`

	// CriticalCount is the number of critical findings.
	CriticalCount int `json:"critical_count"`

	// WarningCount is the number of warning findings.
	WarningCount int `json:"warning_count"`

	// InfoCount is the number of informational findings.
	InfoCount int `json:"info_count"`

	// PagesCrawled is the number of pages crawled in this scan.
	PagesCrawled int `json:"pages_crawled"`

	// BrokenLinkCount is the number of broken internal links in this scan.
	BrokenLinkCount int `json:"broken_link_count"`
}

// HealthChange describes the change in site health between scans.
type HealthChange struct {
	// Direction is "improved", "worsened", or "unchanged".
	Direction string `json:"direction"`

	// CriticalDelta is the change in critical findings count.
	CriticalDelta int `json:"critical_delta"`

	// WarningDelta is the change in warning findings count.
	WarningDelta int `json:"warning_delta"`

	// InfoDelta is the change in informational findings count.
	InfoDelta int `json:"info_delta"`

	// PageDelta is the change in crawled page count.
	PageDelta int `json:"page_delta"`

	// BrokenLinkDelta is the change in broken internal link count.
	BrokenLinkDelta int `json:"broken_link_delta"`
}

// compareReports compares two scan reports and generates a comparison result.
func compareReports(previous, current *model.ScanReport) *ComparisonResult {
	previousSimple := model.NewSimpleReport(previous)
	currentSimple := model.NewSimpleReport(current)

	result := &ComparisonResult{
		Site:         current.Site,
		PreviousScan: summarizeScan(previous, previousSimple),
		CurrentScan:  summarizeScan(current, currentSimple),
	}

	// Build finding maps for comparison
	previousFindings := make(map[string]model.Finding)
	for _, f := range previousSimple.Findings {
		previousFindings[findingKey(f)] = f
	}
	currentFindings := make(map[string]model.Finding)
	for _, f := range currentSimple.Findings {
		currentFindings[findingKey(f)] = f
	}

	// Find new findings (in current but not in previous)
	for key, finding := range currentFindings {
		if _, exists := previousFindings[key]; !exists {
			result.NewFindings = append(result.NewFindings, finding)
		}
	}

	// Find resolved findings (in previous but not in current)
	for key, finding := range previousFindings {
		if _, exists := currentFindings[key]; !exists {
			result.ResolvedFindings = append(result.ResolvedFindings, finding)
		} else {
			result.UnchangedCount++
		}
	}

	// Calculate health change
	result.HealthChange = calculateHealthChange(result.PreviousScan, result.CurrentScan)

	return result
}

// summarizeScan extracts comparison summary data from a scan report.
func summarizeScan(scanReport *model.ScanReport, simple *model.SimpleReport) ScanSummary {
	return ScanSummary{
		DateScanned:     scanReport.DateScanned,
		TotalFindings:   simple.TotalFindings(),
		CriticalCount:   simple.CriticalCount,
		WarningCount:    simple.WarningCount,
		InfoCount:       simple.InfoCount,
		PagesCrawled:    simple.PagesCrawled,
		BrokenLinkCount: simple.BrokenLinkCount,
	}
}

// findingKey generates a unique key for a finding for comparison purposes.
func findingKey(f model.Finding) string {
	return f.Type + "|" + f.PageURL + "|" + f.Value
}

// calculateHealthChange calculates the change in site health between two scans.
func calculateHealthChange(previous, current ScanSummary) HealthChange {
	change := HealthChange{
		CriticalDelta:   current.CriticalCount - previous.CriticalCount,
		WarningDelta:    current.WarningCount - previous.WarningCount,
		InfoDelta:       current.InfoCount - previous.InfoCount,
		PageDelta:       current.PagesCrawled - previous.PagesCrawled,
		BrokenLinkDelta: current.BrokenLinkCount - previous.BrokenLinkCount,
	}

	// Determine overall direction based on weighted score.
	// Critical findings carry the most weight.
	previousScore := previous.CriticalCount*100 + previous.WarningCount*10 + previous.InfoCount
	currentScore := current.CriticalCount*100 + current.WarningCount*10 + current.InfoCount

	if currentScore < previousScore {
		change.Direction = healthDirectionImproved
	} else if currentScore > previousScore {
		change.Direction = healthDirectionWorsened
	} else {
		change.Direction = healthDirectionUnchanged
	}

	return change
}

// outputComparisonJSON outputs the comparison result in JSON format.
func outputComparisonJSON(w io.Writer, result *ComparisonResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// outputComparisonMarkdown outputs the comparison result in Markdown format.
func outputComparisonMarkdown(w io.Writer, result *ComparisonResult) error {
	fmt.Fprintf(w, "# Scan Comparison: %s\n\n", result.Site)

	// Health change summary
	fmt.Fprintln(w, "## Summary")
	fmt.Fprintf(w, "\n**Health Status:** %s\n\n", formatHealthDirection(result.HealthChange.Direction))

	// Scan summary table
	fmt.Fprintln(w, "| Metric | Previous | Current | Change |")
	fmt.Fprintln(w, "|--------|----------|---------|--------|")
	fmt.Fprintf(w, "| Date | %s | %s | - |\n",
		result.PreviousScan.DateScanned.Format("2006-01-02 15:04"),
		result.CurrentScan.DateScanned.Format("2006-01-02 15:04"))
	fmt.Fprintf(w, "| Critical | %d | %d | %s |\n",
		result.PreviousScan.CriticalCount,
		result.CurrentScan.CriticalCount,
		formatDelta(result.HealthChange.CriticalDelta))
	fmt.Fprintf(w, "| Warning | %d | %d | %s |\n",
		result.PreviousScan.WarningCount,
		result.CurrentScan.WarningCount,
		formatDelta(result.HealthChange.WarningDelta))
	fmt.Fprintf(w, "| Info | %d | %d | %s |\n",
		result.PreviousScan.InfoCount,
		result.CurrentScan.InfoCount,
		formatDelta(result.HealthChange.InfoDelta))
	fmt.Fprintf(w, "| Pages Crawled | %d | %d | %s |\n",
		result.PreviousScan.PagesCrawled,
		result.CurrentScan.PagesCrawled,
		formatDelta(result.HealthChange.PageDelta))
	fmt.Fprintf(w, "| Broken Links | %d | %d | %s |\n",
		result.PreviousScan.BrokenLinkCount,
		result.CurrentScan.BrokenLinkCount,
		formatDelta(result.HealthChange.BrokenLinkDelta))
	fmt.Fprintf(w, "| **Total Findings** | **%d** | **%d** | **%s** |\n",
		result.PreviousScan.TotalFindings,
		result.CurrentScan.TotalFindings,
		formatDelta(result.CurrentScan.TotalFindings-result.PreviousScan.TotalFindings))

	// New findings
	if len(result.NewFindings) > 0 {
		fmt.Fprintf(w, "\n## New Findings (%d)\n\n", len(result.NewFindings))
		for _, f := range result.NewFindings {
			fmt.Fprintf(w, "- **[%s]** %s: %s\n", f.SeverityText, f.Message, f.PageURL)
			if f.Value != "" {
				fmt.Fprintf(w, "  - Value: `%s`\n", f.Value)
			}
		}
	}

	// Resolved findings
	if len(result.ResolvedFindings) > 0 {
		fmt.Fprintf(w, "\n## Resolved Findings (%d)\n\n", len(result.ResolvedFindings))
		for _, f := range result.ResolvedFindings {
			fmt.Fprintf(w, "- ~~**[%s]** %s: %s~~\n", f.SeverityText, f.Message, f.PageURL)
		}
	}

	// Unchanged count
	if result.UnchangedCount > 0 {
		fmt.Fprintf(w, "\n---\n\n*%d findings unchanged*\n", result.UnchangedCount)
	}

	return nil
}

// outputComparisonText outputs the comparison result in human-readable text format.
func outputComparisonText(w io.Writer, result *ComparisonResult) error {
	fmt.Fprintf(w, "Scan Comparison: %s\n", result.Site)
	fmt.Fprintln(w, strings.Repeat("=", 60))

	// Health change summary
	fmt.Fprintf(w, "\nHealth Status: %s\n", formatHealthDirection(result.HealthChange.Direction))

	// Scan dates
	fmt.Fprintf(w, "\nPrevious scan: %s\n", result.PreviousScan.DateScanned.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Current scan:  %s\n", result.CurrentScan.DateScanned.Format("2006-01-02 15:04:05"))

	// Summary table
	fmt.Fprintln(w, "\nFindings Summary:")
	fmt.Fprintf(w, "  %-14s  %-10s  %-10s  %-10s\n", "Metric", "Previous", "Current", "Change")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 50))
	fmt.Fprintf(w, "  %-14s  %-10d  %-10d  %-10s\n", "Critical",
		result.PreviousScan.CriticalCount, result.CurrentScan.CriticalCount,
		formatDelta(result.HealthChange.CriticalDelta))
	fmt.Fprintf(w, "  %-14s  %-10d  %-10d  %-10s\n", "Warning",
		result.PreviousScan.WarningCount, result.CurrentScan.WarningCount,
		formatDelta(result.HealthChange.WarningDelta))
	fmt.Fprintf(w, "  %-14s  %-10d  %-10d  %-10s\n", "Info",
		result.PreviousScan.InfoCount, result.CurrentScan.InfoCount,
		formatDelta(result.HealthChange.InfoDelta))
	fmt.Fprintf(w, "  %-14s  %-10d  %-10d  %-10s\n", "Pages",
		result.PreviousScan.PagesCrawled, result.CurrentScan.PagesCrawled,
		formatDelta(result.HealthChange.PageDelta))
	fmt.Fprintf(w, "  %-14s  %-10d  %-10d  %-10s\n", "Broken Links",
		result.PreviousScan.BrokenLinkCount, result.CurrentScan.BrokenLinkCount,
		formatDelta(result.HealthChange.BrokenLinkDelta))
	fmt.Fprintln(w, "  "+strings.Repeat("-", 50))
	fmt.Fprintf(w, "  %-14s  %-10d  %-10d  %-10s\n", "Total",
		result.PreviousScan.TotalFindings, result.CurrentScan.TotalFindings,
		formatDelta(result.CurrentScan.TotalFindings-result.PreviousScan.TotalFindings))

	// New findings
	if len(result.NewFindings) > 0 {
		fmt.Fprintf(w, "\nNew Findings (%d):\n", len(result.NewFindings))
		for _, f := range result.NewFindings {
			fmt.Fprintf(w, "  [+] [%s] %s: %s\n", f.SeverityText, f.Message, f.PageURL)
			if f.Value != "" {
				fmt.Fprintf(w, "      Value: %s\n", f.Value)
			}
		}
	}

	// Resolved findings
	if len(result.ResolvedFindings) > 0 {
		fmt.Fprintf(w, "\nResolved Findings (%d):\n", len(result.ResolvedFindings))
		for _, f := range result.ResolvedFindings {
			fmt.Fprintf(w, "  [-] [%s] %s: %s\n", f.SeverityText, f.Message, f.PageURL)
		}
	}

	// Unchanged count
	if result.UnchangedCount > 0 {
		fmt.Fprintf(w, "\nUnchanged: %d findings\n", result.UnchangedCount)
	}

	return nil
}

// formatHealthDirection formats the health change direction for display.
func formatHealthDirection(direction string) string {
	switch direction {
	case healthDirectionImproved:
		return "IMPROVED (fewer or less severe findings)"
	case healthDirectionWorsened:
		return "WORSENED (more or more severe findings)"
	default:
		return "UNCHANGED"
	}
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	} else if delta < 0 {
		return strconv.Itoa(delta)
	}
	return "0"
}
