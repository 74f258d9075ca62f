package report

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/nao1215/sitegraph/internal/model"
)

// GraphWriter outputs the link graph as a {nodes, edges} JSON document.
// The document is the seed data for the bundled force-directed graph
// viewer: node size and color are precomputed server-side so the viewer
// only handles layout and interaction.
//
// GraphWriter is not a report Writer: it emits graph data, not findings,
// and is driven by the --graph flag rather than the report format flags.
type GraphWriter struct {
	output io.Writer
}

// NewGraphWriter creates a GraphWriter that outputs to the given writer.
func NewGraphWriter(output io.Writer) *GraphWriter {
	return &GraphWriter{output: output}
}

// Write outputs the graph as pretty-printed JSON.
// A nil graph is written as an empty document so the viewer always
// receives valid input.
func (w *GraphWriter) Write(g *model.Graph) (int, error) {
	if g == nil {
		g = &model.Graph{}
	}

	// Marshal empty slices as [] rather than null for the viewer.
	doc := struct {
		Nodes []model.Node `json:"nodes"`
		Edges []model.Edge `json:"edges"`
	}{
		Nodes: g.Nodes,
		Edges: g.Edges,
	}
	if doc.Nodes == nil {
		doc.Nodes = []model.Node{}
	}
	if doc.Edges == nil {
		doc.Edges = []model.Edge{}
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return 0, fmt.Errorf("failed to serialize graph: %w", err)
	}
	data = append(data, '\n')

	return w.output.Write(data)
}
