package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/poiesic/normgraph/core"
)

// Source is the read side of a finished graph. *graph.Graph satisfies it.
type Source interface {
	Documents() []string
	Nodes() []*core.Node
	Edges() []core.Edge
}

type document struct {
	Metadata  core.Metadata `json:"metadata"`
	Documents []string      `json:"documents"`
	Nodes     []*core.Node  `json:"nodes"`
	Edges     []core.Edge   `json:"edges"`
}

func newDocument(src Source, meta core.Metadata) document {
	doc := document{
		Metadata:  meta,
		Documents: src.Documents(),
		Nodes:     src.Nodes(),
		Edges:     src.Edges(),
	}
	// Empty collections are written as [] rather than null.
	if doc.Documents == nil {
		doc.Documents = []string{}
	}
	if doc.Nodes == nil {
		doc.Nodes = []*core.Node{}
	}
	if doc.Edges == nil {
		doc.Edges = []core.Edge{}
	}
	return doc
}

// WriteGraph encodes src and meta as the graph interchange document.
func WriteGraph(w io.Writer, src Source, meta core.Metadata) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(newDocument(src, meta)); err != nil {
		return fmt.Errorf("%w: encoding graph: %v", ErrExportFailed, err)
	}
	return nil
}

// WriteGraphFile writes the graph interchange document to path.
func WriteGraphFile(path string, src Source, meta core.Metadata) error {
	return writeFile(path, func(w io.Writer) error {
		return WriteGraph(w, src, meta)
	})
}

// ReadGraph decodes a graph interchange document.
func ReadGraph(r io.Reader) (*Document, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decoding graph: %w", err)
	}
	return &Document{
		Metadata:  doc.Metadata,
		documents: doc.Documents,
		nodes:     doc.Nodes,
		edges:     doc.Edges,
	}, nil
}

// Document is a decoded graph interchange document. It satisfies Source.
type Document struct {
	Metadata  core.Metadata
	documents []string
	nodes     []*core.Node
	edges     []core.Edge
}

var _ Source = (*Document)(nil)

func (d *Document) Documents() []string { return d.documents }
func (d *Document) Nodes() []*core.Node { return d.nodes }
func (d *Document) Edges() []core.Edge  { return d.edges }
