package graph

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/nao1215/sitegraph/internal/model"
)

// Builder memoizes graph construction across repeated calls with the same
// inputs. The consuming layer tends to re-request the graph on every state
// change — new crawl data, or just a node click — and Build is deterministic
// and side-effect free, so caching the last result keyed by a content hash
// of (pages, issues, selection) is safe.
//
// The base graph and the focused view are cached separately: a selection
// change re-filters the cached base graph without rebuilding it, which is
// what lets the renderer keep its layout when only the focus moved.
//
// Design decision: the cache keeps the last result only. Selections move one
// click at a time and crawl data changes rarely, so one slot captures the
// useful hits without an eviction policy.
type Builder struct {
	mu sync.Mutex

	baseKey string
	base    *model.Graph

	focusedID string
	focused   *model.Graph
}

// NewBuilder returns an empty memoizing Builder.
func NewBuilder() *Builder {
	return &Builder{}
}

// View returns the graph for the given pages, issues, and selection,
// rebuilding only what the inputs changed. With an empty selectedID it
// returns the full base graph.
//
// Callers must treat the returned graph as read-only; it may be handed out
// again on the next call.
func (b *Builder) View(pages []*model.Page, issues []model.Issue, selectedID string) *model.Graph {
	b.mu.Lock()
	defer b.mu.Unlock()

	key := contentKey(pages, issues)
	if b.base == nil || key != b.baseKey {
		b.base = Build(pages, issues)
		b.baseKey = key
		b.focused = nil
		b.focusedID = ""
	}

	if selectedID == "" {
		return b.base
	}
	if b.focused == nil || selectedID != b.focusedID {
		b.focused = Focus(b.base, selectedID)
		b.focusedID = selectedID
	}
	return b.focused
}

// Base returns the unfocused graph for the given inputs, rebuilding it only
// when the inputs changed since the last call.
func (b *Builder) Base(pages []*model.Page, issues []model.Issue) *model.Graph {
	return b.View(pages, issues, "")
}

// contentKey hashes every input field that influences Build output.
// Two input sets with equal keys produce byte-identical graphs.
func contentKey(pages []*model.Page, issues []model.Issue) string {
	h := sha256.New()
	for _, p := range pages {
		fmt.Fprintf(h, "p|%s|%d|%s\n", p.URL, p.StatusCode, p.Title)
		for _, l := range p.OutboundLinks {
			fmt.Fprintf(h, "l|%s|%t\n", l.Href, l.Internal)
		}
	}
	for _, is := range issues {
		fmt.Fprintf(h, "i|%s|%s|%d\n", is.PageURL, is.Type, is.Severity)
	}
	return hex.EncodeToString(h.Sum(nil))
}
