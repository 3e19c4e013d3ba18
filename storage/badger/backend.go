package badger

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/poiesic/normgraph/storage"
)

// Backend wraps a BadgerDB instance and provides low-level operations.
type Backend struct {
	db     *badger.DB
	logger *slog.Logger
}

// badgerLoggerAdapter adapts slog.Logger to badger.Logger interface.
type badgerLoggerAdapter struct {
	logger *slog.Logger
}

var _ badger.Logger = (*badgerLoggerAdapter)(nil)

func (bl *badgerLoggerAdapter) Errorf(msg string, items ...any) {
	bl.logger.Error(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Warningf(msg string, items ...any) {
	bl.logger.Warn(fmt.Sprintf(msg, items...))
}

// Badger is chatty at info level; its messages are demoted to debug.
func (bl *badgerLoggerAdapter) Infof(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

func (bl *badgerLoggerAdapter) Debugf(msg string, items ...any) {
	bl.logger.Debug(fmt.Sprintf(msg, items...))
}

// OpenBackend opens a BadgerDB database at the specified path.
// Creates the directory if it doesn't exist.
func OpenBackend(filePath string, inMemory bool) (*Backend, error) {
	var opts badger.Options

	if inMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		// Ensure directory exists
		info, err := os.Stat(filePath)
		if err != nil {
			if os.IsNotExist(err) {
				if err := os.MkdirAll(filePath, 0755); err != nil {
					return nil, err
				}
				info, err = os.Stat(filePath)
				if err != nil {
					return nil, err
				}
			} else {
				return nil, err
			}
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("%s is not a directory", filePath)
		}
		opts = badger.DefaultOptions(filePath)
	}

	logger := slog.Default()
	opts.Logger = &badgerLoggerAdapter{logger: logger}
	opts.Compression = options.None

	db, err := badger.Open(opts)
	if err != nil {
		return nil, err
	}

	return &Backend{
		db:     db,
		logger: logger,
	}, nil
}

// Close closes the BadgerDB database.
func (b *Backend) Close() error {
	return b.db.Close()
}

// IsClosed returns true if the database is closed.
func (b *Backend) IsClosed() bool {
	return b.db.IsClosed()
}

// View executes fn within a read-only BadgerDB transaction.
func (b *Backend) View(fn func(tx *badger.Txn) error) error {
	if b.db.IsClosed() {
		return storage.ErrStorageClosed
	}
	tx := b.db.NewTransaction(false)
	defer tx.Discard()
	return fn(tx)
}

// Batch stages writes in memory until Replace commits them.
type Batch struct {
	keys   [][]byte
	values [][]byte
}

// Set stages value under key.
func (b *Batch) Set(key, value []byte) {
	b.keys = append(b.keys, key)
	b.values = append(b.values, value)
}

// Len returns the number of staged writes.
func (b *Batch) Len() int {
	return len(b.keys)
}

// Replace stages fresh contents with fn and, only if fn returns nil, drops
// all existing data and writes the staged contents through a WriteBatch,
// which is not bound by the transaction size limit. A failing fn leaves the
// stored data untouched.
func (b *Backend) Replace(fn func(batch *Batch) error) error {
	if b.db.IsClosed() {
		return storage.ErrStorageClosed
	}

	staged := &Batch{}
	if err := fn(staged); err != nil {
		return err
	}

	if err := b.db.DropAll(); err != nil {
		return fmt.Errorf("clearing previous snapshot: %w", err)
	}
	wb := b.db.NewWriteBatch()
	for i, key := range staged.keys {
		if err := wb.Set(key, staged.values[i]); err != nil {
			wb.Cancel()
			return err
		}
	}
	return wb.Flush()
}
