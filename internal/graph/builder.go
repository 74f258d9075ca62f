package graph

import (
	"math"

	"github.com/nao1215/sitegraph/internal/model"
)

// Node sizing constants.
// Size grows with the logarithm of in-degree: in-degree in a real site graph
// is heavy-tailed, and linear sizing would let a handful of hub pages
// dominate the layout.
const (
	// BaseNodeSize is the radius of a node nothing links to.
	BaseNodeSize = 8.0

	// NodeSizeScale multiplies the log(inDegree+1) term.
	NodeSizeScale = 6.0
)

// Build constructs the site link graph from crawled pages and audit issues.
//
// The node list has exactly one entry per input page, in input order: pages
// are never dropped, not even isolated ones, and never merged beyond URL
// identity. The edge list has one entry per resolved internal link, in
// document order within each page; parallel links between the same pair are
// preserved because each represents a distinct anchor. Links that cannot be
// resolved to a crawled page produce no edge, never a dangling one.
//
// Build is deterministic and side-effect free: identical inputs yield
// identical output, independent of prior calls.
func Build(pages []*model.Page, issues []model.Issue) *model.Graph {
	known := KnownURLs(pages)
	degrees := ComputeDegrees(pages, known)

	// Issues are matched to pages through the same normalization as links,
	// so an issue recorded against "https://a.com/x/" still colors the node
	// crawled as "https://a.com/x".
	issuesByPage := make(map[string][]model.Issue, len(issues))
	for _, is := range issues {
		key := Normalize(is.PageURL)
		issuesByPage[key] = append(issuesByPage[key], is)
	}

	statusByURL := make(map[string]int, len(pages))
	for _, p := range pages {
		statusByURL[p.URL] = p.StatusCode
	}

	nodes := make([]model.Node, 0, len(pages))
	for _, p := range pages {
		pageIssues := issuesByPage[Normalize(p.URL)]
		in := degrees.In[p.URL]

		nodes = append(nodes, model.Node{
			ID:         p.URL,
			Title:      p.Title,
			StatusCode: p.StatusCode,
			IssueCount: len(pageIssues),
			InDegree:   in,
			OutDegree:  degrees.Out[p.URL],
			Size:       BaseNodeSize + math.Log(float64(in+1))*NodeSizeScale,
			Color:      nodeColor(pageIssues),
		})
	}

	edges := make([]model.Edge, 0)
	for _, p := range pages {
		for _, link := range p.OutboundLinks {
			if !link.Internal {
				continue
			}
			target, ok := Resolve(link.Href, p.URL, known)
			if !ok {
				continue
			}
			edges = append(edges, model.Edge{
				Source: p.URL,
				Target: target,
				Broken: statusByURL[target] >= 400,
			})
		}
	}

	return &model.Graph{Nodes: nodes, Edges: edges}
}

// nodeColor derives a node's health color from its page's issues.
// Any critical issue wins, then any warning; info-only pages stay healthy.
func nodeColor(issues []model.Issue) model.NodeColor {
	color := model.ColorHealthy
	for _, is := range issues {
		switch is.Severity {
		case model.SeverityCritical:
			return model.ColorCritical
		case model.SeverityWarning:
			color = model.ColorWarning
		}
	}
	return color
}
