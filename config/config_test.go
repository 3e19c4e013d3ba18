package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.NotNil(t, cfg)
	assert.Equal(t, "chunks", cfg.Input.ChunksDir)
	assert.Equal(t, "*.{json,yaml,yml}", cfg.Input.Pattern)
	assert.Equal(t, filepath.Join("output", "advanced_graph.json"), cfg.GraphPath())
	assert.Equal(t, filepath.Join("output", "advanced_build_log.txt"), cfg.LogPath())
	assert.Equal(t, "containment", cfg.References.Matcher)
	assert.Equal(t, 0.3, cfg.Similarity.Threshold)
	assert.Equal(t, 200, cfg.Similarity.MaxLinks)
	assert.Equal(t, "prefix", cfg.Similarity.Policy)
	assert.Empty(t, cfg.Output.SnapshotDir)
	assert.NoError(t, cfg.Validate())
}

func TestNewConfig(t *testing.T) {
	t.Run("with no options", func(t *testing.T) {
		assert.Equal(t, DefaultConfig(), NewConfig())
	})

	t.Run("with overrides", func(t *testing.T) {
		cfg := NewConfig(
			WithChunksDir("corpus"),
			WithPattern("**/*.json"),
			WithOutputDir("out"),
			WithSnapshotDir("out/snapshot"),
			WithMatcher("edit"),
			WithMaxDistance(2),
			WithThreshold(0.5),
			WithMaxLinks(10),
			WithPolicy("ranked"),
			WithWorkers(4),
		)

		assert.Equal(t, "corpus", cfg.Input.ChunksDir)
		assert.Equal(t, "**/*.json", cfg.Input.Pattern)
		assert.Equal(t, "out", cfg.Output.Dir)
		assert.Equal(t, "out/snapshot", cfg.Output.SnapshotDir)
		assert.Equal(t, "edit", cfg.References.Matcher)
		assert.Equal(t, 2, cfg.References.MaxDistance)
		assert.Equal(t, 0.5, cfg.Similarity.Threshold)
		assert.Equal(t, 10, cfg.Similarity.MaxLinks)
		assert.Equal(t, "ranked", cfg.Similarity.Policy)
		assert.Equal(t, 4, cfg.Workers)
		assert.NoError(t, cfg.Validate())
	})
}

func TestNormalize(t *testing.T) {
	cfg := NewConfig(WithChunksDir("  chunks  "), WithMatcher(" EXACT "), WithPolicy("Ranked"))
	cfg.Normalize()

	assert.Equal(t, "chunks", cfg.Input.ChunksDir)
	assert.Equal(t, "exact", cfg.References.Matcher)
	assert.Equal(t, "ranked", cfg.Similarity.Policy)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{"missing chunks dir", []Option{WithChunksDir("")}},
		{"missing output dir", []Option{WithOutputDir(" ")}},
		{"bad pattern", []Option{WithPattern("[")}},
		{"zero threshold", []Option{WithThreshold(0)}},
		{"threshold above one", []Option{WithThreshold(1.2)}},
		{"negative max links", []Option{WithMaxLinks(-1)}},
		{"unknown matcher", []Option{WithMatcher("fuzzy")}},
		{"negative edit distance", []Option{WithMatcher("edit"), WithMaxDistance(-1)}},
		{"unknown policy", []Option{WithPolicy("best")}},
		{"negative workers", []Option{WithWorkers(-2)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewConfig(tt.opts...).Validate()
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}

	t.Run("same artifact names", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.Output.LogFile = cfg.Output.GraphFile
		assert.ErrorIs(t, cfg.Validate(), ErrInvalidConfig)
	})

	t.Run("zero max links is allowed", func(t *testing.T) {
		assert.NoError(t, NewConfig(WithMaxLinks(0)).Validate())
	})
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "normgraph.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
input:
  chunks_dir: /data/chunks
similarity:
  threshold: 0.4
  policy: ranked
workers: 3
`), 0644))

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "/data/chunks", cfg.Input.ChunksDir)
	assert.Equal(t, 0.4, cfg.Similarity.Threshold)
	assert.Equal(t, "ranked", cfg.Similarity.Policy)
	assert.Equal(t, 3, cfg.Workers)

	// Keys absent from the file keep their defaults.
	assert.Equal(t, 200, cfg.Similarity.MaxLinks)
	assert.Equal(t, "*.{json,yaml,yml}", cfg.Input.Pattern)
	assert.Equal(t, "output", cfg.Output.Dir)
}

func TestLoadFromFile_Errors(t *testing.T) {
	_, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("similarity: [unclosed"), 0644))
	_, err = LoadFromFile(path)
	assert.Error(t, err)
}

func TestSaveToFile_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "normgraph.yaml")
	cfg := NewConfig(WithChunksDir("corpus"), WithPolicy("ranked"), WithSnapshotDir("snap"))

	require.NoError(t, cfg.SaveToFile(path))
	loaded, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}
