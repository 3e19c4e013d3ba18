package graph

import (
	"fmt"
	"slices"

	"github.com/poiesic/normgraph/core"
)

// Graph is the node registry and edge sequence of one build.
// It is not safe for concurrent mutation; phases run one after another.
type Graph struct {
	nodes     map[string]*core.Node
	order     []*core.Node
	clauses   []*core.Node
	documents []string
	standards map[string]string
	// clauseIndex maps document id -> chunk id -> clause node id.
	clauseIndex map[string]map[string]string
	edges       []core.Edge
	frozen      bool
}

// New creates an empty build session.
func New() *Graph {
	return &Graph{
		nodes:       make(map[string]*core.Node),
		standards:   make(map[string]string),
		clauseIndex: make(map[string]map[string]string),
	}
}

// AddNode registers a node. Ids are unique across the whole graph.
func (g *Graph) AddNode(node *core.Node) error {
	if g.frozen {
		return ErrFrozen
	}
	if _, exists := g.nodes[node.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, node.ID)
	}
	g.nodes[node.ID] = node
	g.order = append(g.order, node)
	return nil
}

// AddStandard registers the root node of a document.
func (g *Graph) AddStandard(documentID string) (*core.Node, error) {
	node := core.NewStandardNode(documentID)
	if err := g.AddNode(node); err != nil {
		return nil, err
	}
	g.standards[documentID] = node.ID
	g.documents = append(g.documents, documentID)
	g.clauseIndex[documentID] = make(map[string]string)
	return node, nil
}

// AddClause registers the clause node of a chunk and indexes it by
// (document, chunk id) for parent resolution. index is the chunk's 1-based
// position in load order.
func (g *Graph) AddClause(chunk *core.Chunk, index int) (*core.Node, error) {
	if byChunk, ok := g.clauseIndex[chunk.DocumentID]; ok {
		if existing, dup := byChunk[chunk.ChunkID]; dup {
			return nil, fmt.Errorf("%w: chunk %s of %s already registered as %s",
				ErrDuplicateNode, chunk.ChunkID, chunk.DocumentID, existing)
		}
	}

	node := core.NewClauseNode(chunk, index)
	if err := g.AddNode(node); err != nil {
		return nil, err
	}

	byChunk, ok := g.clauseIndex[chunk.DocumentID]
	if !ok {
		byChunk = make(map[string]string)
		g.clauseIndex[chunk.DocumentID] = byChunk
	}
	byChunk[chunk.ChunkID] = node.ID
	g.clauses = append(g.clauses, node)
	return node, nil
}

// AddRequirements registers the requirement nodes of a chunk.
// Registration stops at the first duplicate id; nodes added before it stay.
func (g *Graph) AddRequirements(chunk *core.Chunk) ([]*core.Node, error) {
	nodes := core.NewRequirementNodes(chunk)
	for i, node := range nodes {
		if err := g.AddNode(node); err != nil {
			return nodes[:i], err
		}
	}
	return nodes, nil
}

// AddEdge appends a directed edge. Both endpoints must already be registered.
func (g *Graph) AddEdge(source, target string, rel core.Relationship) error {
	if g.frozen {
		return ErrFrozen
	}
	if _, ok := g.nodes[source]; !ok {
		return fmt.Errorf("%w: source %s", ErrDanglingEdge, source)
	}
	if _, ok := g.nodes[target]; !ok {
		return fmt.Errorf("%w: target %s", ErrDanglingEdge, target)
	}
	g.edges = append(g.edges, core.Edge{Source: source, Target: target, Relationship: rel})
	return nil
}

// ResolveClause returns the node id of the clause with the given chunk id
// inside the given document.
func (g *Graph) ResolveClause(documentID, clauseID string) (string, bool) {
	id, ok := g.clauseIndex[documentID][clauseID]
	return id, ok
}

// StandardFor returns the node id of a document's Standard node.
func (g *Graph) StandardFor(documentID string) (string, bool) {
	id, ok := g.standards[documentID]
	return id, ok
}

// Node returns the node registered under id.
func (g *Graph) Node(id string) (*core.Node, bool) {
	node, ok := g.nodes[id]
	return node, ok
}

// Nodes returns all nodes in registration order.
func (g *Graph) Nodes() []*core.Node {
	return slices.Clone(g.order)
}

// Clauses returns the clause nodes in load order.
func (g *Graph) Clauses() []*core.Node {
	return slices.Clone(g.clauses)
}

// NodesOfType returns the nodes of one type in registration order.
func (g *Graph) NodesOfType(t core.NodeType) []*core.Node {
	var out []*core.Node
	for _, node := range g.order {
		if node.Type == t {
			out = append(out, node)
		}
	}
	return out
}

// Documents returns the document ids in the order their Standards were added.
func (g *Graph) Documents() []string {
	return slices.Clone(g.documents)
}

// Edges returns the edges in discovery order.
func (g *Graph) Edges() []core.Edge {
	return slices.Clone(g.edges)
}

// NodeCount returns the number of registered nodes.
func (g *Graph) NodeCount() int {
	return len(g.order)
}

// EdgeCount returns the number of edges.
func (g *Graph) EdgeCount() int {
	return len(g.edges)
}

// Freeze makes the graph read-only.
func (g *Graph) Freeze() {
	g.frozen = true
}

// Frozen reports whether the graph is read-only.
func (g *Graph) Frozen() bool {
	return g.frozen
}
