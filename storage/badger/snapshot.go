package badger

import (
	"context"
	"errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/normgraph/core"
	"github.com/poiesic/normgraph/storage"
)

// SnapshotRepository implements storage.SnapshotRepository for BadgerDB.
type SnapshotRepository struct {
	backend *Backend
}

var _ storage.SnapshotRepository = (*SnapshotRepository)(nil)

// NewSnapshotRepository creates a SnapshotRepository over an open backend.
func NewSnapshotRepository(backend *Backend) (storage.SnapshotRepository, error) {
	return newSnapshotRepository(backend)
}

func newSnapshotRepository(backend *Backend) (*SnapshotRepository, error) {
	if backend == nil {
		return nil, storage.ErrStorageClosed
	}
	return &SnapshotRepository{backend: backend}, nil
}

// Close releases resources. The backend is owned by the caller.
func (r *SnapshotRepository) Close() error {
	return nil
}

// WriteSnapshot replaces the stored snapshot with snap. The previous
// snapshot survives if ctx is cancelled before the write starts.
func (r *SnapshotRepository) WriteSnapshot(ctx context.Context, snap *storage.Snapshot) error {
	return r.backend.Replace(func(batch *Batch) error {
		batch.Set([]byte(metadataKey), storage.MarshalMetadata(&snap.Metadata))

		for i, doc := range snap.Documents {
			batch.Set(makeDocumentKey(i), storage.MarshalString(doc))
		}

		for i, node := range snap.Nodes {
			if i%1000 == 0 {
				if err := ctx.Err(); err != nil {
					return err
				}
			}
			batch.Set(makeNodeKey(node.ID), storage.MarshalNode(node))
			batch.Set(makeNodeOrdinalKey(i), storage.MarshalString(node.ID))
		}

		for i, edge := range snap.Edges {
			batch.Set(makeEdgeKey(i), storage.MarshalEdge(edge))
		}
		return ctx.Err()
	})
}

// Metadata returns the stored build metadata.
func (r *SnapshotRepository) Metadata(ctx context.Context) (*core.Metadata, error) {
	var meta *core.Metadata
	err := r.backend.View(func(tx *badger.Txn) error {
		item, err := tx.Get([]byte(metadataKey))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}
		return item.Value(func(val []byte) error {
			meta, err = storage.UnmarshalMetadata(val)
			return err
		})
	})
	return meta, err
}

// Documents returns the stored document ids in build order.
func (r *SnapshotRepository) Documents(ctx context.Context) ([]string, error) {
	var docs []string
	err := r.scan(documentPrefix, func(val []byte) error {
		doc, err := storage.UnmarshalString(val)
		if err != nil {
			return err
		}
		docs = append(docs, doc)
		return nil
	})
	return docs, err
}

// Node retrieves a single node by id.
func (r *SnapshotRepository) Node(ctx context.Context, id string) (*core.Node, error) {
	var node *core.Node
	err := r.backend.View(func(tx *badger.Txn) error {
		var err error
		node, err = readNode(tx, id)
		return err
	})
	return node, err
}

// Nodes returns all nodes in registration order.
func (r *SnapshotRepository) Nodes(ctx context.Context) ([]*core.Node, error) {
	var nodes []*core.Node
	err := r.backend.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(nodeOrdinalPrefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var id string
			err := iter.Item().Value(func(val []byte) error {
				var err error
				id, err = storage.UnmarshalString(val)
				return err
			})
			if err != nil {
				return err
			}
			node, err := readNode(tx, id)
			if err != nil {
				return err
			}
			nodes = append(nodes, node)
		}
		return nil
	})
	return nodes, err
}

// Edges returns all edges in discovery order.
func (r *SnapshotRepository) Edges(ctx context.Context) ([]core.Edge, error) {
	var edges []core.Edge
	err := r.scan(edgePrefix, func(val []byte) error {
		edge, err := storage.UnmarshalEdge(val)
		if err != nil {
			return err
		}
		edges = append(edges, edge)
		return nil
	})
	return edges, err
}

// scan calls fn with the value of every key under prefix, in key order.
func (r *SnapshotRepository) scan(prefix string, fn func(val []byte) error) error {
	return r.backend.View(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefix)
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := iter.Item().Value(fn); err != nil {
				return err
			}
		}
		return nil
	})
}

// readNode reads a node by id within a transaction.
func readNode(tx *badger.Txn, id string) (*core.Node, error) {
	item, err := tx.Get(makeNodeKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}

	var node *core.Node
	err = item.Value(func(val []byte) error {
		var err error
		node, err = storage.UnmarshalNode(val)
		return err
	})
	return node, err
}
