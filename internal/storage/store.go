package storage

import (
	"log/slog"
	"path/filepath"
)

// File names inside a data directory.
const (
	QueueFile      = "queue.json"
	MetadataFile   = "metadata.json"
	CategoriesFile = "categories.json"
	HistoryDir     = "history"
	LockFile       = "ytq.lock"
)

// Store bundles the per-file stores of one data directory and the lock
// that serialises writers across processes.
type Store struct {
	Dir        string
	Queue      *QueueStore
	Metadata   *MetadataStore
	Categories *CategoryTable
	History    *HistoryLog
	Lock       *Locker
}

// Open returns the stores for dataDir. Nothing is read or created until
// the first operation.
func Open(dataDir string, logger *slog.Logger) *Store {
	logger = discardLogger(logger).With("component", "storage")
	return &Store{
		Dir:        dataDir,
		Queue:      NewQueueStore(filepath.Join(dataDir, QueueFile), logger),
		Metadata:   NewMetadataStore(filepath.Join(dataDir, MetadataFile), logger),
		Categories: NewCategoryTable(filepath.Join(dataDir, CategoriesFile), logger),
		History:    NewHistoryLog(filepath.Join(dataDir, HistoryDir), logger),
		Lock:       NewLocker(filepath.Join(dataDir, LockFile)),
	}
}
