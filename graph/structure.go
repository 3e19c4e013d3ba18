package graph

import (
	"log/slog"

	"github.com/poiesic/normgraph/core"
)

// LinkStats counts the outcome of structural linking.
type LinkStats struct {
	HasClause           int
	HasSubclause        int
	ContainsRequirement int
	// UnresolvedParents counts clauses whose declared parent is not in their document.
	UnresolvedParents int
	// UnresolvedClauses counts requirements whose owning clause is not in their document.
	UnresolvedClauses int
}

// Total returns the number of structural edges emitted.
func (s LinkStats) Total() int {
	return s.HasClause + s.HasSubclause + s.ContainsRequirement
}

// LinkStructure emits HAS_CLAUSE, HAS_SUBCLAUSE and CONTAINS_REQUIREMENT edges.
//
// A clause with a parent id is linked from that parent when the parent exists
// in the same document; otherwise the miss is logged and no edge is emitted.
// A clause without a parent id is linked from its document's Standard node.
// Requirements are linked from their owning clause the same way.
func LinkStructure(g *Graph, logger *slog.Logger) (LinkStats, error) {
	if logger == nil {
		logger = slog.Default()
	}
	var stats LinkStats

	for _, clause := range g.clauses {
		if clause.ParentID == "" {
			standardID, ok := g.StandardFor(clause.DocumentID)
			if !ok {
				stats.UnresolvedParents++
				logger.Warn("no standard node for clause, skipping",
					"document", clause.DocumentID, "clause", clause.ClauseID)
				continue
			}
			if err := g.AddEdge(standardID, clause.ID, core.RelHasClause); err != nil {
				return stats, err
			}
			stats.HasClause++
			continue
		}

		parentID, ok := g.ResolveClause(clause.DocumentID, clause.ParentID)
		if !ok {
			stats.UnresolvedParents++
			logger.Warn("parent clause not found, skipping",
				"document", clause.DocumentID, "clause", clause.ClauseID, "parent", clause.ParentID)
			continue
		}
		if err := g.AddEdge(parentID, clause.ID, core.RelHasSubclause); err != nil {
			return stats, err
		}
		stats.HasSubclause++
	}

	for _, req := range g.order {
		if req.Type != core.NodeTypeRequirement {
			continue
		}
		clauseID, ok := g.ResolveClause(req.DocumentID, req.ParentClause)
		if !ok {
			stats.UnresolvedClauses++
			logger.Warn("owning clause not found for requirement, skipping",
				"document", req.DocumentID, "requirement", req.ID, "clause", req.ParentClause)
			continue
		}
		if err := g.AddEdge(clauseID, req.ID, core.RelContainsRequirement); err != nil {
			return stats, err
		}
		stats.ContainsRequirement++
	}

	logger.Info("created structural edges",
		"has_clause", stats.HasClause,
		"has_subclause", stats.HasSubclause,
		"contains_requirement", stats.ContainsRequirement,
		"unresolved", stats.UnresolvedParents+stats.UnresolvedClauses)
	return stats, nil
}
