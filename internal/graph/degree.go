package graph

import "github.com/nao1215/sitegraph/internal/model"

// Degrees holds the in-degree and out-degree of every crawled page,
// keyed by canonical page URL.
type Degrees struct {
	// In counts resolved internal links pointing at each page.
	In map[string]int

	// Out counts resolved internal links leaving each page.
	Out map[string]int
}

// ComputeDegrees tallies in/out-degree for every page from its internal
// links. Both maps carry a zero entry for every known page, so isolated
// pages are present rather than missing.
//
// This is a single pass over the links, not a traversal: each page's
// outbound links are visited exactly once, and links that do not resolve to
// a crawled page contribute to neither count.
func ComputeDegrees(pages []*model.Page, known map[string]string) Degrees {
	d := Degrees{
		In:  make(map[string]int, len(pages)),
		Out: make(map[string]int, len(pages)),
	}

	for _, p := range pages {
		d.In[p.URL] = 0
		d.Out[p.URL] = 0
	}

	for _, p := range pages {
		for _, link := range p.OutboundLinks {
			if !link.Internal {
				continue
			}
			target, ok := Resolve(link.Href, p.URL, known)
			if !ok {
				continue
			}
			d.Out[p.URL]++
			d.In[target]++
		}
	}

	return d
}
