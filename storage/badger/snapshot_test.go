package badger

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/normgraph/core"
	"github.com/poiesic/normgraph/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSnapshot() *storage.Snapshot {
	clause := core.NewClauseNode(&core.Chunk{
		DocumentID: "EN_50173",
		ChunkID:    "1",
		Title:      "Scope",
		Content:    []core.Fragment{{Text: "see EN 50174-2 for cabling"}},
	}, 1)
	std1 := core.NewStandardNode("EN_50173")
	std2 := core.NewStandardNode("EN_50174-2")

	return &storage.Snapshot{
		Metadata: core.Metadata{
			CreatedAt:     time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
			NodeCount:     3,
			EdgeCount:     2,
			DocumentCount: 2,
			ChunkCount:    1,
		},
		Documents: []string{"EN_50173", "EN_50174-2"},
		Nodes:     []*core.Node{std1, std2, clause},
		Edges: []core.Edge{
			{Source: std1.ID, Target: clause.ID, Relationship: core.RelHasClause},
			{Source: clause.ID, Target: std2.ID, Relationship: core.RelReferences},
		},
	}
}

func setupSnapshotRepository(t *testing.T) storage.SnapshotRepository {
	repo, backend, err := NewMemorySnapshotRepository()
	require.NoError(t, err)
	t.Cleanup(func() {
		repo.Close()
		backend.Close()
	})
	return repo
}

func TestSnapshot_RoundTrip(t *testing.T) {
	repo := setupSnapshotRepository(t)
	ctx := context.Background()
	snap := testSnapshot()

	require.NoError(t, repo.WriteSnapshot(ctx, snap))

	meta, err := repo.Metadata(ctx)
	require.NoError(t, err)
	assert.True(t, snap.Metadata.CreatedAt.Equal(meta.CreatedAt))
	assert.Equal(t, 3, meta.NodeCount)

	docs, err := repo.Documents(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap.Documents, docs)

	nodes, err := repo.Nodes(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap.Nodes, nodes, "nodes come back in registration order")

	edges, err := repo.Edges(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap.Edges, edges, "edges come back in discovery order")

	node, err := repo.Node(ctx, "EN_50173/CLAUSE/1")
	require.NoError(t, err)
	assert.Equal(t, "see EN 50174-2 for cabling", node.FullText)
}

func TestSnapshot_ReplacesPrevious(t *testing.T) {
	repo := setupSnapshotRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.WriteSnapshot(ctx, testSnapshot()))

	smaller := &storage.Snapshot{
		Metadata:  core.Metadata{CreatedAt: time.Now().UTC(), NodeCount: 1, DocumentCount: 1},
		Documents: []string{"ISO_11801"},
		Nodes:     []*core.Node{core.NewStandardNode("ISO_11801")},
	}
	require.NoError(t, repo.WriteSnapshot(ctx, smaller))

	docs, err := repo.Documents(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"ISO_11801"}, docs)

	edges, err := repo.Edges(ctx)
	require.NoError(t, err)
	assert.Empty(t, edges)

	_, err = repo.Node(ctx, "STANDARD_EN_50173")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestSnapshot_CancelledWriteKeepsPrevious(t *testing.T) {
	repo := setupSnapshotRepository(t)
	snap := testSnapshot()
	require.NoError(t, repo.WriteSnapshot(context.Background(), snap))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	smaller := &storage.Snapshot{
		Documents: []string{"ISO_11801"},
		Nodes:     []*core.Node{core.NewStandardNode("ISO_11801")},
	}
	err := repo.WriteSnapshot(ctx, smaller)
	assert.ErrorIs(t, err, context.Canceled)

	docs, err := repo.Documents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, snap.Documents, docs)

	edges, err := repo.Edges(context.Background())
	require.NoError(t, err)
	assert.Len(t, edges, 2)
}

func TestSnapshot_Empty(t *testing.T) {
	repo := setupSnapshotRepository(t)
	ctx := context.Background()

	_, err := repo.Metadata(ctx)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	_, err = repo.Node(ctx, "STANDARD_EN_50173")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	nodes, err := repo.Nodes(ctx)
	require.NoError(t, err)
	assert.Empty(t, nodes)
}

func TestSnapshot_Persistent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "graph.badger")
	ctx := context.Background()

	backend, err := OpenBackend(dir, false)
	require.NoError(t, err)
	repo, err := NewSnapshotRepository(backend)
	require.NoError(t, err)
	require.NoError(t, repo.WriteSnapshot(ctx, testSnapshot()))
	require.NoError(t, backend.Close())

	backend, err = OpenBackend(dir, false)
	require.NoError(t, err)
	defer backend.Close()
	repo, err = NewSnapshotRepository(backend)
	require.NoError(t, err)

	edges, err := repo.Edges(ctx)
	require.NoError(t, err)
	assert.Len(t, edges, 2)
}

func TestNewSnapshotRepository_NilBackend(t *testing.T) {
	_, err := NewSnapshotRepository(nil)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}
