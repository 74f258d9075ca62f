package graph

import (
	"math"
	"reflect"
	"testing"

	"github.com/nao1215/sitegraph/internal/model"
)

// TestBuildBrokenLink tests a two-page site where the home page links to a
// missing page: two nodes, one broken edge, and matching degrees.
func TestBuildBrokenLink(t *testing.T) {
	t.Parallel()

	pages := []*model.Page{
		{
			URL:        "https://a.com/",
			StatusCode: 200,
			OutboundLinks: []model.LinkRef{
				{Href: "https://a.com/b", Internal: true},
			},
		},
		{URL: "https://a.com/b", StatusCode: 404},
	}

	g := Build(pages, nil)

	if len(g.Nodes) != 2 {
		t.Fatalf("got %d nodes, expected 2", len(g.Nodes))
	}
	if len(g.Edges) != 1 {
		t.Fatalf("got %d edges, expected 1", len(g.Edges))
	}

	edge := g.Edges[0]
	if edge.Source != "https://a.com/" || edge.Target != "https://a.com/b" {
		t.Errorf("edge = %+v", edge)
	}
	if !edge.Broken {
		t.Error("edge to a 404 page should be broken")
	}

	home := g.NodeByID("https://a.com/")
	target := g.NodeByID("https://a.com/b")
	if home.OutDegree != 1 || home.InDegree != 0 {
		t.Errorf("home degrees = in %d / out %d", home.InDegree, home.OutDegree)
	}
	if target.InDegree != 1 || target.OutDegree != 0 {
		t.Errorf("target degrees = in %d / out %d", target.InDegree, target.OutDegree)
	}
}

// TestBuildSelfLoop tests that a page linking to itself yields a self-loop
// edge whose brokenness reflects the page's own status.
func TestBuildSelfLoop(t *testing.T) {
	t.Parallel()

	pages := []*model.Page{
		{
			URL:        "https://a.com/loop",
			StatusCode: 500,
			OutboundLinks: []model.LinkRef{
				{Href: "https://a.com/loop", Internal: true},
			},
		},
	}

	g := Build(pages, nil)

	if len(g.Edges) != 1 {
		t.Fatalf("got %d edges, expected 1 self-loop", len(g.Edges))
	}
	e := g.Edges[0]
	if e.Source != e.Target {
		t.Errorf("expected self-loop, got %+v", e)
	}
	if !e.Broken {
		t.Error("self-loop on a 500 page should be broken")
	}

	n := g.NodeByID("https://a.com/loop")
	if n.InDegree != 1 || n.OutDegree != 1 {
		t.Errorf("self-loop degrees = in %d / out %d, expected 1/1", n.InDegree, n.OutDegree)
	}
}

// TestBuildRelativeLink tests that a relative href resolves against its
// origin page to a crawled page.
func TestBuildRelativeLink(t *testing.T) {
	t.Parallel()

	pages := []*model.Page{
		{
			URL:        "https://a.com/x",
			StatusCode: 200,
			OutboundLinks: []model.LinkRef{
				{Href: "/about", Internal: true},
			},
		},
		{URL: "https://a.com/about", StatusCode: 200},
	}

	g := Build(pages, nil)

	if len(g.Edges) != 1 {
		t.Fatalf("got %d edges, expected 1", len(g.Edges))
	}
	if g.Edges[0].Target != "https://a.com/about" {
		t.Errorf("relative link resolved to %q", g.Edges[0].Target)
	}
	if g.Edges[0].Broken {
		t.Error("edge to 200 page should not be broken")
	}
}

// TestBuildDropsUnresolvableLinks tests that external and uncrawled targets
// never become dangling edges.
func TestBuildDropsUnresolvableLinks(t *testing.T) {
	t.Parallel()

	pages := []*model.Page{
		{
			URL:        "https://a.com/",
			StatusCode: 200,
			OutboundLinks: []model.LinkRef{
				{Href: "https://other.example/", Internal: false},
				{Href: "https://a.com/never-crawled", Internal: true},
				{Href: "mailto:someone@example.com", Internal: false},
			},
		},
	}

	g := Build(pages, nil)

	if len(g.Edges) != 0 {
		t.Errorf("got %d edges, expected 0: %+v", len(g.Edges), g.Edges)
	}
	if len(g.Nodes) != 1 {
		t.Errorf("isolated page must still get a node")
	}
}

// TestBuildParallelEdges tests that repeated links between the same pair are
// preserved, one edge per anchor.
func TestBuildParallelEdges(t *testing.T) {
	t.Parallel()

	pages := []*model.Page{
		{
			URL:        "https://a.com/",
			StatusCode: 200,
			OutboundLinks: []model.LinkRef{
				{Href: "/b", Internal: true},
				{Href: "/b", Internal: true},
				{Href: "https://a.com/b", Internal: true},
			},
		},
		{URL: "https://a.com/b", StatusCode: 200},
	}

	g := Build(pages, nil)

	if len(g.Edges) != 3 {
		t.Fatalf("got %d edges, expected 3 parallel edges", len(g.Edges))
	}
	n := g.NodeByID("https://a.com/b")
	if n.InDegree != 3 {
		t.Errorf("in-degree = %d, expected 3", n.InDegree)
	}
}

// TestBuildNodeColor tests health classification from issue severities.
func TestBuildNodeColor(t *testing.T) {
	t.Parallel()

	pages := []*model.Page{
		{URL: "https://a.com/crit", StatusCode: 200},
		{URL: "https://a.com/warn", StatusCode: 200},
		{URL: "https://a.com/info", StatusCode: 200},
		{URL: "https://a.com/clean", StatusCode: 200},
	}
	issues := []model.Issue{
		{PageURL: "https://a.com/crit", Type: "http_error", Severity: model.SeverityCritical},
		{PageURL: "https://a.com/crit", Type: "missing_title", Severity: model.SeverityWarning},
		{PageURL: "https://a.com/warn", Type: "missing_title", Severity: model.SeverityWarning},
		{PageURL: "https://a.com/info", Type: "multiple_h1", Severity: model.SeverityInfo},
	}

	g := Build(pages, issues)

	testCases := []struct {
		id       string
		expected model.NodeColor
		count    int
	}{
		{"https://a.com/crit", model.ColorCritical, 2},
		{"https://a.com/warn", model.ColorWarning, 1},
		{"https://a.com/info", model.ColorHealthy, 1},
		{"https://a.com/clean", model.ColorHealthy, 0},
	}
	for _, tc := range testCases {
		n := g.NodeByID(tc.id)
		if n == nil {
			t.Fatalf("missing node %q", tc.id)
		}
		if n.Color != tc.expected {
			t.Errorf("%s color = %q, expected %q", tc.id, n.Color, tc.expected)
		}
		if n.IssueCount != tc.count {
			t.Errorf("%s issue count = %d, expected %d", tc.id, n.IssueCount, tc.count)
		}
	}
}

// TestBuildIssueMatchingTolerantOfSlash tests that issues recorded with a
// trailing slash still color the node crawled without one.
func TestBuildIssueMatchingTolerantOfSlash(t *testing.T) {
	t.Parallel()

	pages := []*model.Page{{URL: "https://a.com/x", StatusCode: 200}}
	issues := []model.Issue{
		{PageURL: "https://a.com/x/", Type: "missing_title", Severity: model.SeverityWarning},
	}

	g := Build(pages, issues)
	if g.Nodes[0].Color != model.ColorWarning {
		t.Errorf("color = %q, expected warning via normalized matching", g.Nodes[0].Color)
	}
}

// TestBuildNodeSize tests logarithmic sizing from in-degree.
func TestBuildNodeSize(t *testing.T) {
	t.Parallel()

	pages := []*model.Page{
		{
			URL:        "https://a.com/",
			StatusCode: 200,
			OutboundLinks: []model.LinkRef{
				{Href: "/hub", Internal: true},
			},
		},
		{URL: "https://a.com/hub", StatusCode: 200},
	}

	g := Build(pages, nil)

	isolated := g.NodeByID("https://a.com/")
	if isolated.Size != BaseNodeSize {
		t.Errorf("zero in-degree size = %v, expected base %v", isolated.Size, BaseNodeSize)
	}

	hub := g.NodeByID("https://a.com/hub")
	expected := BaseNodeSize + math.Log(2)*NodeSizeScale
	if math.Abs(hub.Size-expected) > 1e-9 {
		t.Errorf("hub size = %v, expected %v", hub.Size, expected)
	}
}

// TestBuildDeterministic tests that identical inputs yield identical output.
func TestBuildDeterministic(t *testing.T) {
	t.Parallel()

	pages := []*model.Page{
		{
			URL:        "https://a.com/",
			Title:      "Home",
			StatusCode: 200,
			OutboundLinks: []model.LinkRef{
				{Href: "/b", Internal: true},
				{Href: "/c", Internal: true},
			},
		},
		{URL: "https://a.com/b", StatusCode: 200},
		{URL: "https://a.com/c", StatusCode: 404},
	}
	issues := []model.Issue{
		{PageURL: "https://a.com/c", Type: "http_error", Severity: model.SeverityCritical},
	}

	first := Build(pages, issues)
	second := Build(pages, issues)

	if !reflect.DeepEqual(first, second) {
		t.Error("Build is not deterministic for identical inputs")
	}
}

// TestBuildDegreeEdgeConsistency tests the structural invariant that every
// node's degrees equal its edge counts.
func TestBuildDegreeEdgeConsistency(t *testing.T) {
	t.Parallel()

	pages := []*model.Page{
		{
			URL:        "https://a.com/",
			StatusCode: 200,
			OutboundLinks: []model.LinkRef{
				{Href: "/b", Internal: true},
				{Href: "/b", Internal: true},
				{Href: "/c", Internal: true},
				{Href: "https://gone.example/", Internal: false},
			},
		},
		{
			URL:        "https://a.com/b",
			StatusCode: 200,
			OutboundLinks: []model.LinkRef{
				{Href: "https://a.com/", Internal: true},
				{Href: "https://a.com/b", Internal: true},
			},
		},
		{URL: "https://a.com/c", StatusCode: 301},
	}

	g := Build(pages, nil)

	for _, n := range g.Nodes {
		var in, out int
		for _, e := range g.Edges {
			if e.Target == n.ID {
				in++
			}
			if e.Source == n.ID {
				out++
			}
		}
		if n.InDegree != in {
			t.Errorf("%s in-degree = %d, edges say %d", n.ID, n.InDegree, in)
		}
		if n.OutDegree != out {
			t.Errorf("%s out-degree = %d, edges say %d", n.ID, n.OutDegree, out)
		}
	}
}

// TestBuildEmptyInput tests that empty input produces an empty graph.
func TestBuildEmptyInput(t *testing.T) {
	t.Parallel()

	g := Build(nil, nil)
	if len(g.Nodes) != 0 || len(g.Edges) != 0 {
		t.Errorf("empty input produced %d nodes / %d edges", len(g.Nodes), len(g.Edges))
	}
}

// TestComputeDegreesIsolatedPages tests that pages without links still carry
// zero entries rather than missing keys.
func TestComputeDegreesIsolatedPages(t *testing.T) {
	t.Parallel()

	pages := []*model.Page{
		{URL: "https://a.com/island"},
		{URL: "https://a.com/atoll"},
	}

	d := ComputeDegrees(pages, KnownURLs(pages))

	for _, p := range pages {
		in, ok := d.In[p.URL]
		if !ok {
			t.Errorf("missing in-degree entry for %s", p.URL)
		}
		out, ok := d.Out[p.URL]
		if !ok {
			t.Errorf("missing out-degree entry for %s", p.URL)
		}
		if in != 0 || out != 0 {
			t.Errorf("%s degrees = in %d / out %d, expected 0/0", p.URL, in, out)
		}
	}
}
