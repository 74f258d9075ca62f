package model

// NodeColor is the visual classification of a graph node, derived from the
// worst issue severity associated with the node's page.
type NodeColor string

const (
	// ColorHealthy marks a node whose page has no warning or critical issues.
	ColorHealthy NodeColor = "healthy"

	// ColorWarning marks a node whose page has at least one warning issue
	// and no critical issue.
	ColorWarning NodeColor = "warning"

	// ColorCritical marks a node whose page has at least one critical issue.
	ColorCritical NodeColor = "critical"

	// ColorDimmed marks a node outside the current selection neighborhood.
	// It appears only on Focus output, never on a freshly built graph.
	ColorDimmed NodeColor = "dimmed"
)

// Node is one vertex of the site link graph. There is exactly one Node per
// crawled page, keyed by the page URL.
//
// Design decision: Every display attribute the renderer needs (degree, color,
// size, dimmed state) is an explicit field rather than an untyped property
// bag. The external force-directed viewer consumes these fields verbatim.
type Node struct {
	// ID is the canonical page URL. Unique across the graph.
	ID string `json:"id"`

	// Title is the page title, for node labels.
	Title string `json:"title,omitempty"`

	// StatusCode is the page's HTTP status. Zero when never fetched.
	StatusCode int `json:"status_code"`

	// IssueCount is the number of audit issues attached to the page.
	IssueCount int `json:"issue_count"`

	// InDegree is the number of resolved internal links pointing at this page.
	InDegree int `json:"in_degree"`

	// OutDegree is the number of resolved internal links leaving this page.
	OutDegree int `json:"out_degree"`

	// Size is the suggested visual radius. Logarithmic in InDegree so hub
	// pages do not dominate the layout.
	Size float64 `json:"size"`

	// Color is the health classification of the node.
	Color NodeColor `json:"color"`

	// Dimmed is set only while a selection is active, on nodes outside the
	// selected neighborhood. It is a transient render hint, not graph state.
	Dimmed bool `json:"dimmed,omitempty"`
}

// Edge is one resolved internal link between two crawled pages.
// Parallel edges between the same pair are preserved: each represents a
// distinct anchor on the source page. Self-loops are preserved too.
type Edge struct {
	// Source is the Node.ID of the linking page.
	Source string `json:"source"`

	// Target is the Node.ID of the linked page.
	Target string `json:"target"`

	// Broken is true when the target page's HTTP fetch failed (status >= 400).
	Broken bool `json:"broken"`
}

// Graph is the derived site link graph: the complete {nodes, edges} document
// consumed by the external force-directed renderer.
//
// A Graph is always rebuilt from scratch from the page and issue lists; it is
// never mutated incrementally.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// BrokenEdgeCount returns the number of edges whose target is broken.
func (g *Graph) BrokenEdgeCount() int {
	var n int
	for _, e := range g.Edges {
		if e.Broken {
			n++
		}
	}
	return n
}

// NodeByID returns the node with the given ID, or nil if absent.
func (g *Graph) NodeByID(id string) *Node {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i]
		}
	}
	return nil
}

// OrphanPages returns the IDs of nodes no internal link points at.
func (g *Graph) OrphanPages() []string {
	orphans := make([]string, 0)
	for _, n := range g.Nodes {
		if n.InDegree == 0 {
			orphans = append(orphans, n.ID)
		}
	}
	return orphans
}
