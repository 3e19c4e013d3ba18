package graph

import (
	"log/slog"
	"maps"
	"slices"

	"github.com/poiesic/normgraph/core"
)

// Summary holds the counts reported at the end of a build.
type Summary struct {
	Documents         int
	Chunks            int
	Nodes             int
	Edges             int
	ChunksPerDocument map[string]int
	NodesByType       map[core.NodeType]int
	EdgesByRelation   map[core.Relationship]int
}

// Summarize counts the graph's nodes and edges. chunksPerDocument is the
// number of chunks loaded per document; it may be nil.
func Summarize(g *Graph, chunksPerDocument map[string]int) Summary {
	s := Summary{
		Documents:         len(g.documents),
		Nodes:             g.NodeCount(),
		Edges:             g.EdgeCount(),
		ChunksPerDocument: make(map[string]int, len(chunksPerDocument)),
		NodesByType:       make(map[core.NodeType]int),
		EdgesByRelation:   make(map[core.Relationship]int),
	}
	for doc, n := range chunksPerDocument {
		s.ChunksPerDocument[doc] = n
		s.Chunks += n
	}
	for _, node := range g.order {
		s.NodesByType[node.Type]++
	}
	for _, edge := range g.edges {
		s.EdgesByRelation[edge.Relationship]++
	}
	return s
}

// Log writes the summary to logger with map keys in sorted order.
func (s Summary) Log(logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	logger.Info("build summary",
		"documents", s.Documents, "chunks", s.Chunks, "nodes", s.Nodes, "edges", s.Edges)

	for _, doc := range slices.Sorted(maps.Keys(s.ChunksPerDocument)) {
		logger.Info("document", "id", doc, "chunks", s.ChunksPerDocument[doc])
	}
	for _, t := range slices.Sorted(maps.Keys(s.NodesByType)) {
		logger.Info("nodes", "type", string(t), "count", s.NodesByType[t])
	}
	for _, rel := range slices.Sorted(maps.Keys(s.EdgesByRelation)) {
		logger.Info("edges", "relationship", string(rel), "count", s.EdgesByRelation[rel])
	}
}
