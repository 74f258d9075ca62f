package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/nao1215/sitegraph/internal/database"
	"github.com/nao1215/sitegraph/internal/model"
)

// newTestSite starts an httptest server with a small site: a home page
// linking to an about page and a broken link.
func newTestSite(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>Home</title>
			<meta name="description" content="A test site for sitegraph">
			<meta name="viewport" content="width=device-width">
			</head><body><h1>Welcome</h1>
			<a href="/about">About us</a>
			<a href="/missing">Broken page</a>
			</body></html>`))
	})
	mux.HandleFunc("/about", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(`<html><head><title>About</title></head>
			<body><h1>About</h1><a href="/">Home page</a></body></html>`))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

// TestDefaultPipelineEndToEnd runs crawl, audit, and graph steps against
// a local test site and verifies the assembled report.
func TestDefaultPipelineEndToEnd(t *testing.T) {
	t.Parallel()

	server := newTestSite(t)

	p := DefaultPipeline(server.Client(), nil,
		WithPipelineCrawlDelay(0),
		WithPipelineCrawlMaxPages(10),
	)

	report := model.NewScanReport(server.URL)
	if err := p.Execute(context.Background(), report); err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}

	// Home, about, and the 404 page were all fetched.
	if len(report.Pages) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(report.Pages))
	}
	if report.CrawlDuration <= 0 {
		t.Error("expected crawl duration to be recorded")
	}

	// The 404 page produces a critical http_error issue.
	var sawHTTPError bool
	for _, issue := range report.Issues {
		if issue.Type == "http_error" {
			sawHTTPError = true
			if issue.Severity != model.SeverityCritical {
				t.Errorf("expected http_error to be critical, got %v", issue.Severity)
			}
		}
	}
	if !sawHTTPError {
		t.Error("expected an http_error issue for the broken page")
	}

	// Graph was built: 3 nodes, and the edge to the 404 page is broken.
	if report.Graph == nil {
		t.Fatal("expected graph to be built")
	}
	if len(report.Graph.Nodes) != 3 {
		t.Errorf("expected 3 nodes, got %d", len(report.Graph.Nodes))
	}
	if report.Graph.BrokenEdgeCount() != 1 {
		t.Errorf("expected 1 broken edge, got %d", report.Graph.BrokenEdgeCount())
	}

	wantSteps := []string{"crawl", "audit", "graph"}
	if len(report.PerformedSteps) != len(wantSteps) {
		t.Fatalf("expected steps %v, got %v", wantSteps, report.PerformedSteps)
	}
	for i, name := range wantSteps {
		if report.PerformedSteps[i] != name {
			t.Errorf("expected step %d to be %q, got %q", i, name, report.PerformedSteps[i])
		}
	}
}

// TestCrawlStepUnreachableSite verifies that a total crawl failure is fatal.
func TestCrawlStepUnreachableSite(t *testing.T) {
	t.Parallel()

	step := NewCrawlStep(http.DefaultClient, WithCrawlDelay(0))
	report := model.NewScanReport("http://127.0.0.1:1/") // nothing listens here

	if err := step.Do(context.Background(), report); err == nil {
		t.Fatal("expected error for unreachable site")
	}
}

// TestAuditStepSkipsEmptyReport verifies the audit step tolerates a
// report with no pages.
func TestAuditStepSkipsEmptyReport(t *testing.T) {
	t.Parallel()

	step := NewAuditStep()
	report := model.NewScanReport("https://example.com")

	if err := step.Do(context.Background(), report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(report.Issues) != 0 {
		t.Errorf("expected no issues, got %d", len(report.Issues))
	}
}

// TestGraphStepEmptyReport verifies graph construction with no pages
// yields an empty but non-nil graph.
func TestGraphStepEmptyReport(t *testing.T) {
	t.Parallel()

	step := NewGraphStep()
	report := model.NewScanReport("https://example.com")

	if err := step.Do(context.Background(), report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.Graph == nil {
		t.Fatal("expected non-nil graph")
	}
	if len(report.Graph.Nodes) != 0 || len(report.Graph.Edges) != 0 {
		t.Errorf("expected empty graph, got %d nodes %d edges",
			len(report.Graph.Nodes), len(report.Graph.Edges))
	}
}

// TestPersistStep verifies the persist step stores the report.
func TestPersistStep(t *testing.T) {
	t.Parallel()

	db, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	report := model.NewScanReport("https://example.com")
	report.Pages = []*model.Page{{URL: "https://example.com/", StatusCode: 200}}

	step := NewPersistStep(db)
	if err := step.Do(context.Background(), report); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	stored, err := db.GetLatestScan(context.Background(), "https://example.com")
	if err != nil {
		t.Fatalf("failed to read back scan: %v", err)
	}
	if stored == nil || len(stored.Pages) != 1 {
		t.Errorf("unexpected stored report: %+v", stored)
	}
}
