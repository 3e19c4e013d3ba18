package export

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/poiesic/normgraph/core"
	"github.com/poiesic/normgraph/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testGraph(t *testing.T) (*graph.Graph, core.Metadata) {
	t.Helper()
	g := graph.New()
	_, err := g.AddStandard("EN_50173")
	require.NoError(t, err)
	_, err = g.AddClause(&core.Chunk{
		DocumentID: "EN_50173",
		ChunkID:    "1",
		Title:      "Scope <general>",
		Content:    []core.Fragment{{Text: "Kabelführung & Trassen"}},
	}, 1)
	require.NoError(t, err)
	_, err = graph.LinkStructure(g, nil)
	require.NoError(t, err)
	g.Freeze()

	meta := core.Metadata{
		CreatedAt:     time.Date(2025, 3, 4, 5, 6, 7, 890, time.UTC),
		NodeCount:     g.NodeCount(),
		EdgeCount:     g.EdgeCount(),
		DocumentCount: 1,
		ChunkCount:    1,
	}
	return g, meta
}

func TestWriteGraph_Layout(t *testing.T) {
	g, meta := testGraph(t)

	var buf bytes.Buffer
	require.NoError(t, WriteGraph(&buf, g, meta))

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	assert.ElementsMatch(t, []string{"metadata", "documents", "nodes", "edges"}, keys(raw))

	out := buf.String()
	assert.Contains(t, out, `"created_at": "2025-03-04T05:06:07.00000089Z"`)
	assert.Contains(t, out, "Kabelführung & Trassen", "non-ASCII and HTML characters are kept verbatim")
	assert.Contains(t, out, "Scope <general>")
	assert.Contains(t, out, "\n  \"metadata\": {")
}

func TestWriteGraph_RoundTrip(t *testing.T) {
	g, meta := testGraph(t)

	var buf bytes.Buffer
	require.NoError(t, WriteGraph(&buf, g, meta))

	doc, err := ReadGraph(&buf)
	require.NoError(t, err)
	assert.True(t, meta.CreatedAt.Equal(doc.Metadata.CreatedAt))
	assert.Equal(t, meta.NodeCount, doc.Metadata.NodeCount)
	assert.Equal(t, g.Documents(), doc.Documents())
	assert.Equal(t, g.Nodes(), doc.Nodes())
	assert.Equal(t, g.Edges(), doc.Edges())
}

func TestWriteGraph_EmptyCollections(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteGraph(&buf, graph.New(), core.Metadata{}))
	assert.Contains(t, buf.String(), `"documents": []`)
	assert.Contains(t, buf.String(), `"nodes": []`)
	assert.Contains(t, buf.String(), `"edges": []`)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) {
	return 0, errors.New("disk full")
}

func TestWriteGraph_WriterError(t *testing.T) {
	g, meta := testGraph(t)
	err := WriteGraph(failingWriter{}, g, meta)
	assert.ErrorIs(t, err, ErrExportFailed)
}

func TestWriteGraphFile(t *testing.T) {
	g, meta := testGraph(t)
	path := filepath.Join(t.TempDir(), "output", "advanced_graph.json")

	require.NoError(t, WriteGraphFile(path, g, meta))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	doc, err := ReadGraph(f)
	require.NoError(t, err)
	assert.Len(t, doc.Nodes(), 2)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}

func TestWriteGraphFile_UnwritableDirectory(t *testing.T) {
	g, meta := testGraph(t)
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	err := WriteGraphFile(filepath.Join(blocker, "graph.json"), g, meta)
	assert.ErrorIs(t, err, ErrExportFailed)
}

func TestWriteLog(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteLog(&buf, []string{"[10:00:00.000] [INFO] one", "[10:00:00.001] [INFO] two"}))
	assert.Equal(t, "[10:00:00.000] [INFO] one\n[10:00:00.001] [INFO] two\n", buf.String())

	buf.Reset()
	require.NoError(t, WriteLog(&buf, nil))
	assert.Empty(t, buf.String())
}

func TestWriteLogFile_Replaces(t *testing.T) {
	path := filepath.Join(t.TempDir(), "advanced_build_log.txt")
	require.NoError(t, os.WriteFile(path, []byte("stale\n"), 0o644))

	require.NoError(t, WriteLogFile(path, []string{"fresh"}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "fresh\n", string(data))
}

func keys(m map[string]json.RawMessage) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
