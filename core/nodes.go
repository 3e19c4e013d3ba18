package core

const (
	defaultTitle           = "Untitled"
	defaultLevel           = 1
	defaultRequirementType = "unknown"
)

// NewStandardNode creates the root node of a document.
func NewStandardNode(documentID string) *Node {
	return &Node{
		ID:         StandardID(documentID),
		Type:       NodeTypeStandard,
		DocumentID: documentID,
		Label:      StandardLabel(documentID),
	}
}

// NewClauseNode creates the clause node for a chunk.
// index is the chunk's 1-based position in corpus load order.
func NewClauseNode(chunk *Chunk, index int) *Node {
	fullText := chunk.FullText()

	title := chunk.Title
	if title == "" {
		title = defaultTitle
	}
	level := chunk.Level
	if level == 0 {
		level = defaultLevel
	}

	return &Node{
		ID:         ClauseID(chunk.DocumentID, chunk.ChunkID),
		Type:       NodeTypeClause,
		DocumentID: chunk.DocumentID,
		ClauseID:   chunk.ChunkID,
		Title:      title,
		Level:      level,
		ParentID:   chunk.ParentID,
		Text:       Preview(fullText),
		FullText:   fullText,
		TextHash:   Fingerprint(fullText),
		SourceFile: chunk.SourceFile,
		ChunkIndex: index,
	}
}

// NewRequirementNodes creates one node per requirement record of a chunk,
// numbering them from 1 in record order.
func NewRequirementNodes(chunk *Chunk) []*Node {
	if len(chunk.Requirements) == 0 {
		return nil
	}

	nodes := make([]*Node, 0, len(chunk.Requirements))
	for i, req := range chunk.Requirements {
		reqType := req.Type
		if reqType == "" {
			reqType = defaultRequirementType
		}
		nodes = append(nodes, &Node{
			ID:              RequirementID(chunk.DocumentID, chunk.ChunkID, i+1),
			Type:            NodeTypeRequirement,
			DocumentID:      chunk.DocumentID,
			RequirementType: reqType,
			Keyword:         req.Keyword,
			Text:            req.Text,
			TextHash:        Fingerprint(req.Text),
			ParentClause:    chunk.ChunkID,
			ObligationLevel: ObligationFor(req.Keyword),
		})
	}
	return nodes
}
