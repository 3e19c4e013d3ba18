package graph

import (
	"testing"

	"github.com/poiesic/normgraph/core"
	"github.com/stretchr/testify/require"
)

func chunk(doc, id, parent, text string, reqs ...core.RequirementRecord) *core.Chunk {
	c := &core.Chunk{
		DocumentID:   doc,
		ChunkID:      id,
		Title:        "Clause " + id,
		ParentID:     parent,
		Requirements: reqs,
	}
	if text != "" {
		c.Content = []core.Fragment{{Text: text}}
	}
	return c
}

// buildGraph registers Standards for docs, then clauses and requirements for
// chunks in the given order.
func buildGraph(t *testing.T, docs []string, chunks ...*core.Chunk) *Graph {
	t.Helper()
	g := New()
	for _, doc := range docs {
		_, err := g.AddStandard(doc)
		require.NoError(t, err)
	}
	for i, c := range chunks {
		_, err := g.AddClause(c, i+1)
		require.NoError(t, err)
	}
	for _, c := range chunks {
		_, err := g.AddRequirements(c)
		require.NoError(t, err)
	}
	return g
}

func edgesOf(g *Graph, rel core.Relationship) []core.Edge {
	var out []core.Edge
	for _, e := range g.Edges() {
		if e.Relationship == rel {
			out = append(out, e)
		}
	}
	return out
}
