// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package normgraph builds a knowledge graph of technical standards from a
// directory of pre-chunked documents.
//
// A Builder wires the chunk repository, the build pipeline and the exporters
// for one configuration:
//
//	b, err := normgraph.NewBuilder(config.NewConfig(config.WithChunksDir("chunks")))
//	if err != nil { ... }
//	defer b.Close()
//	result, err := b.Build(ctx)
package normgraph

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/poiesic/normgraph/buildlog"
	"github.com/poiesic/normgraph/config"
	"github.com/poiesic/normgraph/export"
	"github.com/poiesic/normgraph/graph"
	"github.com/poiesic/normgraph/pipeline"
	"github.com/poiesic/normgraph/storage"
	"github.com/poiesic/normgraph/storage/badger"
	"github.com/poiesic/normgraph/storage/fs"
)

// Builder runs builds for one configuration and writes their artifacts.
// Builds on one Builder run one at a time; each gets its own build log.
type Builder struct {
	mu       sync.Mutex
	cfg      *config.Config
	pipeline *pipeline.Pipeline
	recorder *buildlog.Handler
	logger   *slog.Logger
}

// BuilderOption configures a Builder.
type BuilderOption func(*builderOptions)

type builderOptions struct {
	console  slog.Handler
	progress io.Writer
	clock    func() time.Time
}

// WithConsole sets the handler that receives every build log record in
// addition to the build log. Default is slog.Default().Handler().
func WithConsole(handler slog.Handler) BuilderOption {
	return func(o *builderOptions) {
		o.console = handler
	}
}

// WithProgressOutput writes similarity progress to w.
func WithProgressOutput(w io.Writer) BuilderOption {
	return func(o *builderOptions) {
		o.progress = w
	}
}

// WithClock sets the source of the build timestamp.
func WithClock(now func() time.Time) BuilderOption {
	return func(o *builderOptions) {
		o.clock = now
	}
}

// NewBuilder validates cfg and prepares a Builder.
func NewBuilder(cfg *config.Config, opts ...BuilderOption) (*Builder, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	options := &builderOptions{
		console: slog.Default().Handler(),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(options)
	}

	recorder := buildlog.New(options.console, buildlog.WithLevel(slog.LevelDebug))
	logger := slog.New(recorder)

	repoOpts := []fs.Option{fs.WithLogger(logger)}
	if cfg.Input.Pattern != "" {
		repoOpts = append(repoOpts, fs.WithPattern(cfg.Input.Pattern))
	}
	repo, err := fs.NewChunkRepository(cfg.Input.ChunksDir, repoOpts...)
	if err != nil {
		return nil, err
	}

	matcher, err := graph.MatcherByName(cfg.References.Matcher, cfg.References.MaxDistance)
	if err != nil {
		return nil, err
	}

	pipeOpts := []pipeline.Option{
		pipeline.WithLogger(logger),
		pipeline.WithMatcher(matcher),
		pipeline.WithThreshold(cfg.Similarity.Threshold),
		pipeline.WithMaxLinks(cfg.Similarity.MaxLinks),
		pipeline.WithPolicy(graph.SimilarityPolicy(cfg.Similarity.Policy)),
		pipeline.WithClock(options.clock),
	}
	if cfg.Workers > 0 {
		pipeOpts = append(pipeOpts, pipeline.WithPoolSize(cfg.Workers))
	}
	if options.progress != nil {
		pipeOpts = append(pipeOpts, pipeline.WithProgress(options.progress))
	}
	p, err := pipeline.NewPipeline(repo, pipeOpts...)
	if err != nil {
		return nil, err
	}

	return &Builder{
		cfg:      cfg,
		pipeline: p,
		recorder: recorder,
		logger:   logger,
	}, nil
}

// Build runs the pipeline and writes the optional snapshot, the graph and
// the build log. A failed build writes nothing.
func (b *Builder) Build(ctx context.Context) (*pipeline.Result, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.recorder.Reset()

	result, err := b.pipeline.Run(ctx)
	if err != nil {
		return nil, err
	}

	if dir := b.cfg.Output.SnapshotDir; dir != "" {
		b.logger.Info("writing snapshot", "path", dir)
		if err := writeSnapshot(ctx, dir, result); err != nil {
			return nil, fmt.Errorf("%w: snapshot %s: %v", export.ErrExportFailed, dir, err)
		}
	}

	graphPath := b.cfg.GraphPath()
	b.logger.Info("exporting graph", "path", graphPath)
	if err := export.WriteGraphFile(graphPath, result.Graph, result.Metadata); err != nil {
		return nil, err
	}

	logPath := b.cfg.LogPath()
	b.logger.Info("exporting build log", "path", logPath)
	if err := export.WriteLogFile(logPath, b.recorder.Lines()); err != nil {
		return nil, err
	}
	return result, nil
}

// BuildLog returns the lines recorded by the most recent build.
func (b *Builder) BuildLog() []string {
	return b.recorder.Lines()
}

// Close releases the pipeline's worker pool.
func (b *Builder) Close() error {
	b.pipeline.Release()
	return nil
}

func writeSnapshot(ctx context.Context, dir string, result *pipeline.Result) error {
	backend, err := badger.OpenBackend(dir, false)
	if err != nil {
		return err
	}
	defer backend.Close()

	repo, err := badger.NewSnapshotRepository(backend)
	if err != nil {
		return err
	}
	defer repo.Close()

	return repo.WriteSnapshot(ctx, &storage.Snapshot{
		Metadata:  result.Metadata,
		Documents: result.Graph.Documents(),
		Nodes:     result.Graph.Nodes(),
		Edges:     result.Graph.Edges(),
	})
}

// Snapshot is an opened graph snapshot.
type Snapshot struct {
	storage.SnapshotRepository
	backend *badger.Backend
}

// OpenSnapshot opens the snapshot stored in dir for reading.
func OpenSnapshot(dir string) (*Snapshot, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	backend, err := badger.OpenBackend(dir, false)
	if err != nil {
		return nil, fmt.Errorf("failed to open snapshot: %w", err)
	}
	repo, err := badger.NewSnapshotRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}
	return &Snapshot{SnapshotRepository: repo, backend: backend}, nil
}

// Close closes the snapshot and its database.
func (s *Snapshot) Close() error {
	if err := s.SnapshotRepository.Close(); err != nil {
		return err
	}
	return s.backend.Close()
}
