// Package export writes the artifacts of a build: the graph interchange JSON
// document and the plain text build log.
//
// The graph document has four top-level keys:
//
//	{
//	  "metadata":  {"created_at": "...", "node_count": 0, "edge_count": 0, "document_count": 0, "chunk_count": 0},
//	  "documents": ["EN_50173", ...],
//	  "nodes":     [{"id": "...", "type": "Clause", ...}, ...],
//	  "edges":     [{"source": "...", "target": "...", "relationship": "HAS_CLAUSE"}, ...]
//	}
//
// File variants write to a temporary file in the target directory and rename
// it into place, so a failed export never leaves a partial artifact behind.
package export
