package storage

import (
	"context"

	"github.com/poiesic/normgraph/core"
)

// ChunkRepository supplies the input corpus, one document at a time.
// Implementations must return documents and chunks in a stable order so that
// repeated builds over unchanged input are identical.
type ChunkRepository interface {
	// Documents returns the ids of all documents in lexical order.
	Documents(ctx context.Context) ([]string, error)

	// LoadDocument returns the chunks of one document in file order.
	// Records that fail to load are reported as LoadErrors alongside the chunks
	// that did load; the error return is reserved for failures that prevent
	// reading the document at all.
	LoadDocument(ctx context.Context, documentID string) ([]*core.Chunk, []*LoadError, error)
}

// Snapshot is a finished graph in the shape it is exported.
type Snapshot struct {
	Metadata  core.Metadata
	Documents []string
	Nodes     []*core.Node
	Edges     []core.Edge
}

// SnapshotRepository receives a finished graph and reads it back.
// A snapshot is written once per build; writing replaces any earlier snapshot.
type SnapshotRepository interface {
	// WriteSnapshot stores the snapshot, replacing any existing one.
	WriteSnapshot(ctx context.Context, snap *Snapshot) error

	// Metadata returns the stored build metadata.
	// Returns ErrNotFound if no snapshot has been written.
	Metadata(ctx context.Context) (*core.Metadata, error)

	// Documents returns the stored document ids in build order.
	Documents(ctx context.Context) ([]string, error)

	// Node retrieves a single node by id.
	// Returns ErrNotFound if the node doesn't exist.
	Node(ctx context.Context, id string) (*core.Node, error)

	// Nodes returns all nodes in registration order.
	Nodes(ctx context.Context) ([]*core.Node, error)

	// Edges returns all edges in discovery order.
	Edges(ctx context.Context) ([]core.Edge, error)

	// Close releases resources held by the repository.
	Close() error
}
