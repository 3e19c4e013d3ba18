package graph

import (
	"testing"

	"github.com/poiesic/normgraph/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGraph_AddNodeRejectsDuplicates(t *testing.T) {
	g := New()
	_, err := g.AddStandard("EN_50173")
	require.NoError(t, err)

	_, err = g.AddStandard("EN_50173")
	assert.ErrorIs(t, err, ErrDuplicateNode)
	assert.Equal(t, 1, g.NodeCount())
	assert.Equal(t, []string{"EN_50173"}, g.Documents())
}

func TestGraph_AddClauseRejectsDuplicateChunk(t *testing.T) {
	g := New()
	_, err := g.AddStandard("DOC")
	require.NoError(t, err)

	first, err := g.AddClause(chunk("DOC", "4.1", "", "first"), 1)
	require.NoError(t, err)

	_, err = g.AddClause(chunk("DOC", "4.1", "", "second"), 2)
	assert.ErrorIs(t, err, ErrDuplicateNode)

	id, ok := g.ResolveClause("DOC", "4.1")
	require.True(t, ok)
	assert.Equal(t, first.ID, id)
	assert.Len(t, g.Clauses(), 1)
	assert.Equal(t, "first", g.Clauses()[0].FullText)
}

func TestGraph_ClauseIndexIsPerDocument(t *testing.T) {
	g := buildGraph(t, []string{"A", "B"},
		chunk("A", "1", "", "alpha"),
		chunk("B", "1", "", "beta"),
	)

	a, ok := g.ResolveClause("A", "1")
	require.True(t, ok)
	b, ok := g.ResolveClause("B", "1")
	require.True(t, ok)
	assert.NotEqual(t, a, b)

	_, ok = g.ResolveClause("A", "2")
	assert.False(t, ok)
	_, ok = g.ResolveClause("C", "1")
	assert.False(t, ok)
}

func TestGraph_AddEdgeRequiresEndpoints(t *testing.T) {
	g := buildGraph(t, []string{"A"}, chunk("A", "1", "", "alpha"))
	std, _ := g.StandardFor("A")
	clause, _ := g.ResolveClause("A", "1")

	assert.ErrorIs(t, g.AddEdge(std, "missing", core.RelHasClause), ErrDanglingEdge)
	assert.ErrorIs(t, g.AddEdge("missing", clause, core.RelHasClause), ErrDanglingEdge)
	assert.Zero(t, g.EdgeCount())

	require.NoError(t, g.AddEdge(std, clause, core.RelHasClause))
	require.NoError(t, g.AddEdge(std, clause, core.RelHasClause))
	assert.Equal(t, 2, g.EdgeCount(), "edges are a sequence, not a set")
}

func TestGraph_Freeze(t *testing.T) {
	g := buildGraph(t, []string{"A"}, chunk("A", "1", "", "alpha"))
	g.Freeze()
	assert.True(t, g.Frozen())

	_, err := g.AddStandard("B")
	assert.ErrorIs(t, err, ErrFrozen)

	std, _ := g.StandardFor("A")
	clause, _ := g.ResolveClause("A", "1")
	assert.ErrorIs(t, g.AddEdge(std, clause, core.RelHasClause), ErrFrozen)
}

func TestGraph_AccessorsReturnCopies(t *testing.T) {
	g := buildGraph(t, []string{"A"}, chunk("A", "1", "", "alpha"))

	docs := g.Documents()
	docs[0] = "changed"
	assert.Equal(t, []string{"A"}, g.Documents())

	nodes := g.Nodes()
	nodes[0] = nil
	assert.NotNil(t, g.Nodes()[0])
}

func TestGraph_NodesOfType(t *testing.T) {
	g := buildGraph(t, []string{"A"},
		chunk("A", "1", "", "alpha", core.RequirementRecord{Text: "It shall work", Keyword: "shall"}),
		chunk("A", "2", "1", "beta"),
	)

	assert.Len(t, g.NodesOfType(core.NodeTypeStandard), 1)
	assert.Len(t, g.NodesOfType(core.NodeTypeClause), 2)
	reqs := g.NodesOfType(core.NodeTypeRequirement)
	require.Len(t, reqs, 1)
	assert.Equal(t, core.ObligationMandatory, reqs[0].ObligationLevel)
}

func TestGraph_IDsUnique(t *testing.T) {
	g := buildGraph(t, []string{"EN_50173", "EN_50174-2"},
		chunk("EN_50173", "1", "", "a", core.RequirementRecord{Text: "x", Keyword: "shall"}, core.RequirementRecord{Text: "y", Keyword: "may"}),
		chunk("EN_50173", "1.1", "1", "b"),
		chunk("EN_50174-2", "1", "", "c", core.RequirementRecord{Text: "x", Keyword: "shall"}),
	)

	seen := make(map[string]bool)
	for _, n := range g.Nodes() {
		assert.False(t, seen[n.ID], "duplicate id %s", n.ID)
		seen[n.ID] = true
	}
	assert.Equal(t, 8, g.NodeCount())
}
