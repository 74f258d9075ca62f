package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/nao1215/sitegraph/internal/model"
)

// SimpleWriter outputs human-readable text reports.
// This format is designed for terminal display with color-coded severity
// levels and clear section formatting.
//
// Design decision: Colors come from fatih/color, which honors NO_COLOR and
// disables itself when stdout is not a terminal, so piping the report to a
// file still produces clean text.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether sections with no findings are shown.
	showEmpty bool

	// verbose enables additional detail in the output.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to show empty sections.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// severityColors maps severity levels to their terminal colors.
var severityColors = map[model.Severity]*color.Color{
	model.SeverityCritical: color.New(color.FgRed, color.Bold),
	model.SeverityWarning:  color.New(color.FgYellow),
	model.SeverityInfo:     color.New(color.FgCyan),
}

// colorize renders the label in the severity's color.
func colorize(severity model.Severity, label string) string {
	if c, ok := severityColors[severity]; ok {
		return c.Sprint(label)
	}
	return label
}

// Write outputs the full report in human-readable format.
// It generates a SimpleReport from the ScanReport.
func (w *SimpleWriter) Write(report *model.ScanReport) (int, error) {
	return w.WriteSimple(model.NewSimpleReport(report))
}

// WriteSimple outputs the simple report in human-readable format.
func (w *SimpleWriter) WriteSimple(report *model.SimpleReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report)
	w.writeGraphStats(&sb, report)
	w.writeFindings(&sb, report)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with scan information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.SimpleReport) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                         SITEGRAPH REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Site:          %s\n", report.Site))
	sb.WriteString(fmt.Sprintf("Scan Date:     %s\n", report.DateScanned.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Pages Crawled: %d\n", report.PagesCrawled))

	switch {
	case report.TimedOut:
		sb.WriteString("Status:        TIMED OUT (partial results)\n")
	case report.Error != "":
		sb.WriteString(fmt.Sprintf("Status:        ERROR - %s\n", report.Error))
	default:
		sb.WriteString("Status:        Complete\n")
	}

	sb.WriteString("\n")
}

// writeSummary writes the severity summary section.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.SimpleReport) {
	w.writeSectionHeader(sb, "SEVERITY SUMMARY")

	sb.WriteString(fmt.Sprintf("  %s %d\n", colorize(model.SeverityCritical, "CRITICAL:"), report.CriticalCount))
	sb.WriteString(fmt.Sprintf("  %s  %d\n", colorize(model.SeverityWarning, "WARNING:"), report.WarningCount))
	sb.WriteString(fmt.Sprintf("  %s     %d\n", colorize(model.SeverityInfo, "INFO:"), report.InfoCount))
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  TOTAL:    %d findings\n", report.TotalFindings()))
	sb.WriteString("\n")
}

// writeGraphStats writes the link graph statistics section.
func (w *SimpleWriter) writeGraphStats(sb *strings.Builder, report *model.SimpleReport) {
	if report.NodeCount == 0 && !w.showEmpty {
		return
	}

	w.writeSectionHeader(sb, "LINK GRAPH")

	sb.WriteString(fmt.Sprintf("  Pages (nodes):  %d\n", report.NodeCount))
	sb.WriteString(fmt.Sprintf("  Links (edges):  %d\n", report.EdgeCount))
	sb.WriteString(fmt.Sprintf("  Broken links:   %d\n", report.BrokenLinkCount))
	sb.WriteString("\n")

	if len(report.TopHubs) > 0 {
		sb.WriteString("  Most linked pages:\n")
		for _, hub := range report.TopHubs {
			sb.WriteString(fmt.Sprintf("    %4d <- %s\n", hub.InDegree, hub.URL))
		}
		sb.WriteString("\n")
	}

	if len(report.OrphanPages) > 0 {
		sb.WriteString("  Orphan pages (no internal links point here):\n")
		for _, url := range report.OrphanPages {
			sb.WriteString(fmt.Sprintf("    * %s\n", url))
		}
		sb.WriteString("\n")
	}
}

// writeFindings writes all findings grouped by severity.
func (w *SimpleWriter) writeFindings(sb *strings.Builder, report *model.SimpleReport) {
	if !report.HasFindings() && !w.showEmpty {
		return
	}

	w.writeSectionHeader(sb, "FINDINGS")

	severities := []model.Severity{
		model.SeverityCritical,
		model.SeverityWarning,
		model.SeverityInfo,
	}

	for _, severity := range severities {
		findings := report.GetFindingsBySeverity(severity)
		if len(findings) == 0 && !w.showEmpty {
			continue
		}

		w.writeFindingsForSeverity(sb, severity, findings)
	}
}

// writeFindingsForSeverity writes findings of a specific severity level.
func (w *SimpleWriter) writeFindingsForSeverity(sb *strings.Builder, severity model.Severity, findings []model.Finding) {
	indicator := severityIndicator(severity)
	sb.WriteString(fmt.Sprintf("[%s] %s\n", indicator, colorize(severity, severity.String())))

	if len(findings) == 0 {
		sb.WriteString("  No findings\n\n")
		return
	}

	for _, finding := range findings {
		sb.WriteString(fmt.Sprintf("  * %s: %s\n", typeLabel(finding.Type), finding.Message))
		sb.WriteString(fmt.Sprintf("    Page: %s\n", finding.PageURL))
		if finding.Value != "" {
			sb.WriteString(fmt.Sprintf("    Value: %s\n", finding.Value))
		}
		if w.verbose {
			if finding.Impact != "" {
				sb.WriteString(fmt.Sprintf("    Impact: %s\n", finding.Impact))
			}
			if finding.Recommendation != "" {
				sb.WriteString(fmt.Sprintf("    Fix: %s\n", finding.Recommendation))
			}
		}
	}
	sb.WriteString("\n")
}

// severityIndicator returns a visual indicator for the severity level.
func severityIndicator(severity model.Severity) string {
	switch severity {
	case model.SeverityCritical:
		return "!!!"
	case model.SeverityWarning:
		return "!"
	case model.SeverityInfo:
		return "i"
	default:
		return "?"
	}
}

// writeSectionHeader writes a horizontal-rule delimited section title.
func (w *SimpleWriter) writeSectionHeader(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by sitegraph\n")
	sb.WriteString("https://github.com/nao1215/sitegraph\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
