package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/normgraph/core"
	"github.com/poiesic/normgraph/graph"
	"github.com/poiesic/normgraph/storage"
)

// clauseReportInterval is how often clause creation logs a progress line.
const clauseReportInterval = 50

// Pipeline builds a knowledge graph from a chunk repository.
type Pipeline struct {
	repository storage.ChunkRepository
	pool       *ants.Pool
	matcher    graph.Matcher
	similarity graph.SimilarityOptions
	progress   io.Writer
	now        func() time.Time
	logger     *slog.Logger
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size used for document loading and
// ranked similarity scoring.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}
		if p.pool != nil {
			p.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithThreshold sets the minimum similarity score for a SIMILAR_TO edge.
// Default is 0.3.
func WithThreshold(threshold float64) Option {
	return func(p *Pipeline) error {
		if threshold <= 0 || threshold > 1 {
			return fmt.Errorf("%w: %v", graph.ErrInvalidThreshold, threshold)
		}
		p.similarity.Threshold = threshold
		return nil
	}
}

// WithMaxLinks caps the number of SIMILAR_TO edges. Default is 200.
func WithMaxLinks(maxLinks int) Option {
	return func(p *Pipeline) error {
		p.similarity.MaxLinks = maxLinks
		return nil
	}
}

// WithPolicy selects how the similarity cap picks pairs.
// Default is graph.PolicyPrefix.
func WithPolicy(policy graph.SimilarityPolicy) Option {
	return func(p *Pipeline) error {
		parsed, err := graph.ParsePolicy(string(policy))
		if err != nil {
			return err
		}
		p.similarity.Policy = parsed
		return nil
	}
}

// WithMatcher sets the citation matcher. Default is graph.ContainmentMatcher.
func WithMatcher(matcher graph.Matcher) Option {
	return func(p *Pipeline) error {
		if matcher == nil {
			matcher = graph.ContainmentMatcher{}
		}
		p.matcher = matcher
		return nil
	}
}

// WithProgress reports similarity progress to w. Default is no progress output.
func WithProgress(w io.Writer) Option {
	return func(p *Pipeline) error {
		p.progress = w
		return nil
	}
}

// WithClock sets the time source for the build timestamp. Default is time.Now.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) error {
		if now == nil {
			now = time.Now
		}
		p.now = now
		return nil
	}
}

// NewPipeline creates a build pipeline over repository.
func NewPipeline(repository storage.ChunkRepository, opts ...Option) (*Pipeline, error) {
	if repository == nil {
		return nil, ErrRepositoryRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		repository: repository,
		pool:       pool,
		matcher:    graph.ContainmentMatcher{},
		similarity: graph.DefaultSimilarityOptions(),
		now:        time.Now,
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	return p, nil
}

// Result is the outcome of a successful build.
type Result struct {
	Graph      *graph.Graph
	Metadata   core.Metadata
	Summary    graph.Summary
	Structure  graph.LinkStats
	References graph.ReferenceStats
	Similarity graph.SimilarityStats
	// LoadErrors lists the chunk files that were dropped, in load order.
	LoadErrors []*storage.LoadError
	// Duplicates counts chunks dropped because their (document, chunk id)
	// was already registered.
	Duplicates int
}

// loadedDocument holds the outcome of loading one document.
type loadedDocument struct {
	id       string
	chunks   []*core.Chunk
	failures []*storage.LoadError
	err      error
}

// Run executes every build phase and returns the frozen graph.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	p.logger.Info("advanced multi-document knowledge graph build")
	result := &Result{}

	p.phase(1, "loading all documents")
	docs, err := p.load(ctx, result)
	if err != nil {
		return nil, err
	}
	chunkCount := 0
	for _, doc := range docs {
		chunkCount += len(doc.chunks)
	}
	if chunkCount == 0 {
		p.logger.Error("no chunks loaded, aborting", "documents", len(docs))
		return nil, ErrEmptyCorpus
	}
	p.logger.Info("loaded corpus", "chunks", chunkCount, "documents", len(docs))

	g := graph.New()

	p.phase(2, "creating standard nodes")
	for _, doc := range docs {
		node, err := g.AddStandard(doc.id)
		if err != nil {
			return nil, err
		}
		p.logger.Info("created standard", "id", node.ID)
	}
	p.logger.Info("created standard nodes", "count", len(docs))

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.phase(3, "creating clause nodes", "chunks", chunkCount)
	accepted, perDocument := p.createClauses(g, docs, chunkCount, result)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.phase(4, "creating requirement nodes")
	requirements := 0
	for _, chunk := range accepted {
		nodes, err := g.AddRequirements(chunk)
		requirements += len(nodes)
		if err != nil {
			p.logger.Warn("requirement not registered", "chunk", chunk.ChunkID, "document", chunk.DocumentID, "err", err)
		}
	}
	p.logger.Info("created requirement nodes", "count", requirements)

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.phase(5, "building structural edges")
	if result.Structure, err = graph.LinkStructure(g, p.logger); err != nil {
		return nil, err
	}

	p.phase(6, "detecting cross-references")
	if result.References, err = graph.DetectReferences(ctx, g, p.matcher, p.logger); err != nil {
		return nil, err
	}

	p.phase(7, "detecting similarities")
	opts := p.similarity
	opts.Executor = p.pool
	var tracker *ProgressTracker
	if p.progress != nil {
		tracker = NewProgressTracker(p.progress, "clauses", max(1, len(accepted)/100))
		tracker.Start(len(accepted))
		opts.Progress = tracker
	}
	result.Similarity, err = graph.DetectSimilarities(ctx, g, opts, p.logger)
	if tracker != nil {
		tracker.Finish()
	}
	if err != nil {
		return nil, err
	}

	g.Freeze()

	result.Graph = g
	result.Summary = graph.Summarize(g, perDocument)
	result.Metadata = core.Metadata{
		CreatedAt:     p.now(),
		NodeCount:     g.NodeCount(),
		EdgeCount:     g.EdgeCount(),
		DocumentCount: len(docs),
		ChunkCount:    len(accepted),
	}

	p.logger.Info("advanced graph build summary")
	result.Summary.Log(p.logger)
	return result, nil
}

// load reads every document concurrently and returns the documents that
// loaded, in repository order. Invalid chunks are dropped as load errors.
func (p *Pipeline) load(ctx context.Context, result *Result) ([]*loadedDocument, error) {
	ids, err := p.repository.Documents(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	loaded := make([]*loadedDocument, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		loaded[i] = &loadedDocument{id: id}
		doc := loaded[i]

		wg.Add(1)
		submitErr := p.pool.Submit(func() {
			defer wg.Done()
			doc.chunks, doc.failures, doc.err = p.repository.LoadDocument(ctx, doc.id)
		})
		if submitErr != nil {
			wg.Done()
			doc.err = submitErr
		}
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	docs := make([]*loadedDocument, 0, len(loaded))
	for _, doc := range loaded {
		p.logger.Info("loading document", "document", doc.id)
		if doc.err != nil {
			if errors.Is(doc.err, context.Canceled) || errors.Is(doc.err, context.DeadlineExceeded) {
				return nil, doc.err
			}
			p.logger.Error("failed to load document", "document", doc.id, "err", doc.err)
			continue
		}

		valid := doc.chunks[:0]
		for _, chunk := range doc.chunks {
			if err := core.ValidateChunk(chunk); err != nil {
				doc.failures = append(doc.failures, &storage.LoadError{Path: chunk.SourceFile, Err: err})
				continue
			}
			valid = append(valid, chunk)
		}
		doc.chunks = valid

		for _, failure := range doc.failures {
			p.logger.Error("failed to load chunk", "path", failure.Path, "err", failure.Err)
		}
		result.LoadErrors = append(result.LoadErrors, doc.failures...)

		p.logger.Info("loaded document", "document", doc.id, "chunks", len(doc.chunks))
		docs = append(docs, doc)
	}
	return docs, nil
}

// createClauses registers one clause per chunk in load order. A chunk whose
// (document, chunk id) is already registered is dropped with its
// requirements. It returns the accepted chunks and the accepted count per
// document.
func (p *Pipeline) createClauses(g *graph.Graph, docs []*loadedDocument, total int, result *Result) ([]*core.Chunk, map[string]int) {
	accepted := make([]*core.Chunk, 0, total)
	perDocument := make(map[string]int, len(docs))

	index := 0
	for _, doc := range docs {
		perDocument[doc.id] = 0
		for _, chunk := range doc.chunks {
			index++
			if _, err := g.AddClause(chunk, index); err != nil {
				result.Duplicates++
				p.logger.Warn("duplicate chunk dropped", "document", chunk.DocumentID,
					"chunk", chunk.ChunkID, "path", chunk.SourceFile, "err", err)
				continue
			}
			accepted = append(accepted, chunk)
			perDocument[doc.id]++

			if index%clauseReportInterval == 0 {
				p.logger.Info("creating clauses", "done", index, "total", total)
			}
		}
	}
	p.logger.Info("created clause nodes", "count", len(accepted), "duplicates", result.Duplicates)
	return accepted, perDocument
}

func (p *Pipeline) phase(n int, name string, args ...any) {
	p.logger.Info(fmt.Sprintf("PHASE %d: %s", n, name), args...)
}

// Release releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	if p.pool != nil {
		p.pool.Release()
	}
}
