package fs

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/poiesic/normgraph/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCorpus() fstest.MapFS {
	return fstest.MapFS{
		"EN_50173/001.json": {Data: []byte(`{
			"document_id": "EN_50173",
			"chunk_id": "1",
			"title": "Scope",
			"level": 1,
			"parent_id": null,
			"content": [{"text": "This standard specifies"}, {"text": "generic cabling."}]
		}`)},
		"EN_50173/002.yaml": {Data: []byte(`
document_id: EN_50173
chunk_id: 1.1
title: Applicability
level: 2
parent_id: "1"
content:
  - text: see EN 50174-2 for cabling
requirements:
  - text: Cabling shall be tested.
    keyword: shall
    type: testing
`)},
		"EN_50173/003.json":   {Data: []byte(`{"chunk_id": `)},
		"EN_50173/notes.txt":  {Data: []byte("ignored")},
		"EN_50174-2/001.json": {Data: []byte(`{"chunk_id": "4", "title": "Installation", "content": [{"text": "Install pathways."}]}`)},
		"README.md":           {Data: []byte("# corpus")},
		".cache/x.json":       {Data: []byte(`{}`)},
	}
}

func newTestRepository(t *testing.T, opts ...Option) storage.ChunkRepository {
	repo, err := NewFSChunkRepository(testCorpus(), "chunks", opts...)
	require.NoError(t, err)
	return repo
}

func TestDocuments(t *testing.T) {
	repo := newTestRepository(t)

	docs, err := repo.Documents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"EN_50173", "EN_50174-2"}, docs)
}

func TestLoadDocument(t *testing.T) {
	repo := newTestRepository(t)

	chunks, failures, err := repo.LoadDocument(context.Background(), "EN_50173")
	require.NoError(t, err)

	require.Len(t, chunks, 2)
	assert.Equal(t, "1", chunks[0].ChunkID)
	assert.Equal(t, "", chunks[0].ParentID)
	assert.Equal(t, "This standard specifies generic cabling.", chunks[0].FullText())
	assert.Equal(t, filepath.Join("chunks", "EN_50173", "001.json"), chunks[0].SourceFile)

	assert.Equal(t, "1.1", chunks[1].ChunkID, "unquoted YAML scalars decode as strings")
	assert.Equal(t, "1", chunks[1].ParentID)
	require.Len(t, chunks[1].Requirements, 1)
	assert.Equal(t, "shall", chunks[1].Requirements[0].Keyword)

	require.Len(t, failures, 1)
	assert.ErrorIs(t, failures[0], storage.ErrLoadFailed)
	assert.Equal(t, filepath.Join("chunks", "EN_50173", "003.json"), failures[0].Path)
}

func TestLoadDocument_FillsDocumentID(t *testing.T) {
	repo := newTestRepository(t)

	chunks, failures, err := repo.LoadDocument(context.Background(), "EN_50174-2")
	require.NoError(t, err)
	assert.Empty(t, failures)
	require.Len(t, chunks, 1)
	assert.Equal(t, "EN_50174-2", chunks[0].DocumentID)
}

func TestLoadDocument_DirectoryWins(t *testing.T) {
	fsys := fstest.MapFS{
		"EN_50173/001.json": {Data: []byte(`{"document_id": "EN 50173", "chunk_id": "1"}`)},
	}
	repo, err := NewFSChunkRepository(fsys, "chunks")
	require.NoError(t, err)

	chunks, _, err := repo.LoadDocument(context.Background(), "EN_50173")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "EN_50173", chunks[0].DocumentID)
}

func TestLoadDocument_Pattern(t *testing.T) {
	repo := newTestRepository(t, WithPattern("*.json"))

	chunks, failures, err := repo.LoadDocument(context.Background(), "EN_50173")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "1", chunks[0].ChunkID)
	assert.Len(t, failures, 1)
}

func TestLoadDocument_Missing(t *testing.T) {
	repo := newTestRepository(t)

	_, _, err := repo.LoadDocument(context.Background(), "IEC_60364")
	assert.ErrorIs(t, err, storage.ErrDocumentNotFound)

	_, _, err = repo.LoadDocument(context.Background(), "../EN_50173")
	assert.ErrorIs(t, err, storage.ErrDocumentNotFound)

	_, _, err = repo.LoadDocument(context.Background(), "README.md")
	assert.ErrorIs(t, err, storage.ErrDocumentNotFound)
}

func TestLoadDocument_Cancelled(t *testing.T) {
	repo := newTestRepository(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := repo.LoadDocument(ctx, "EN_50173")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWithPattern_Invalid(t *testing.T) {
	_, err := NewFSChunkRepository(testCorpus(), "chunks", WithPattern("[json"))
	assert.ErrorIs(t, err, ErrInvalidPattern)
}

func TestNewChunkRepository_Directory(t *testing.T) {
	root := t.TempDir()
	docDir := filepath.Join(root, "ISO_11801")
	require.NoError(t, os.MkdirAll(docDir, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(docDir, "a.json"),
		[]byte(`{"chunk_id": "1", "content": [{"text": "Generic cabling."}]}`), 0644))

	repo, err := NewChunkRepository(root)
	require.NoError(t, err)

	docs, err := repo.Documents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"ISO_11801"}, docs)

	chunks, _, err := repo.LoadDocument(context.Background(), "ISO_11801")
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, filepath.Join(root, "ISO_11801", "a.json"), chunks[0].SourceFile)
}

func TestNewChunkRepository_NotADirectory(t *testing.T) {
	file := filepath.Join(t.TempDir(), "chunks.json")
	require.NoError(t, os.WriteFile(file, []byte("{}"), 0644))

	_, err := NewChunkRepository(file)
	assert.Error(t, err)

	_, err = NewChunkRepository(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
