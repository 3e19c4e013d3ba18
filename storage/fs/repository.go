package fs

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/poiesic/normgraph/core"
	"github.com/poiesic/normgraph/storage"
	"gopkg.in/yaml.v3"
)

// DefaultPattern matches the chunk record files inside a document directory.
const DefaultPattern = "*.{json,yaml,yml}"

// ChunkRepository reads chunk records laid out as root/<document>/<chunk file>.
type ChunkRepository struct {
	fsys    fs.FS
	root    string
	pattern string
	logger  *slog.Logger
}

var _ storage.ChunkRepository = (*ChunkRepository)(nil)

// Option configures a ChunkRepository.
type Option func(*ChunkRepository) error

// WithPattern sets the doublestar pattern, relative to a document directory,
// that selects chunk files. Default is DefaultPattern.
func WithPattern(pattern string) Option {
	return func(r *ChunkRepository) error {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
		}
		r.pattern = pattern
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(r *ChunkRepository) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// NewChunkRepository opens the chunk directory at root.
func NewChunkRepository(root string, opts ...Option) (storage.ChunkRepository, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("chunk directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}
	return newChunkRepository(os.DirFS(root), root, opts...)
}

// NewFSChunkRepository reads chunk records from an arbitrary fs.FS.
// label is used as the root of the source locators recorded on chunks.
func NewFSChunkRepository(fsys fs.FS, label string, opts ...Option) (storage.ChunkRepository, error) {
	return newChunkRepository(fsys, label, opts...)
}

func newChunkRepository(fsys fs.FS, root string, opts ...Option) (*ChunkRepository, error) {
	r := &ChunkRepository{
		fsys:    fsys,
		root:    root,
		pattern: DefaultPattern,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Documents returns the names of all subdirectories of the root in lexical order.
func (r *ChunkRepository) Documents(ctx context.Context) ([]string, error) {
	entries, err := fs.ReadDir(r.fsys, ".")
	if err != nil {
		return nil, fmt.Errorf("listing documents: %w", err)
	}

	var docs []string
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		docs = append(docs, entry.Name())
	}
	sort.Strings(docs)
	return docs, nil
}

// LoadDocument reads every chunk file of a document in lexical file order.
func (r *ChunkRepository) LoadDocument(ctx context.Context, documentID string) ([]*core.Chunk, []*storage.LoadError, error) {
	if !fs.ValidPath(documentID) || strings.Contains(documentID, "/") {
		return nil, nil, fmt.Errorf("%w: invalid document id %q", storage.ErrDocumentNotFound, documentID)
	}

	info, err := fs.Stat(r.fsys, documentID)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil, fmt.Errorf("%w: %s", storage.ErrDocumentNotFound, documentID)
		}
		return nil, nil, err
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("%w: %s is not a directory", storage.ErrDocumentNotFound, documentID)
	}

	docFS, err := fs.Sub(r.fsys, documentID)
	if err != nil {
		return nil, nil, err
	}
	files, err := doublestar.Glob(docFS, r.pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, nil, fmt.Errorf("matching chunk files of %s: %w", documentID, err)
	}
	sort.Strings(files)

	var (
		chunks   []*core.Chunk
		failures []*storage.LoadError
	)
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return nil, nil, err
		}

		locator := filepath.Join(r.root, documentID, filepath.FromSlash(name))
		chunk, err := r.readChunk(path.Join(documentID, name))
		if err != nil {
			failures = append(failures, &storage.LoadError{Path: locator, Err: err})
			continue
		}

		chunk.SourceFile = locator
		switch {
		case chunk.DocumentID == "":
			chunk.DocumentID = documentID
		case chunk.DocumentID != documentID:
			r.logger.Warn("chunk document id differs from its directory, using directory",
				"path", locator, "record", chunk.DocumentID, "directory", documentID)
			chunk.DocumentID = documentID
		}
		chunks = append(chunks, chunk)
	}

	return chunks, failures, nil
}

func (r *ChunkRepository) readChunk(name string) (*core.Chunk, error) {
	data, err := fs.ReadFile(r.fsys, name)
	if err != nil {
		return nil, err
	}

	chunk := &core.Chunk{}
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, chunk)
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		err = dec.Decode(chunk)
	}
	if err != nil {
		return nil, err
	}
	return chunk, nil
}
