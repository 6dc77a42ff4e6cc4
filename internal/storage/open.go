package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// Backend kinds accepted by OpenBackend.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendBolt   = "bolt"
)

// OpenBackend opens the backend of the given kind. dataDir is used by the
// file backend, dbPath by sqlite and bolt. An empty dbPath is refused, since
// sqlite would open a private temporary database.
func OpenBackend(kind, dataDir, dbPath string) (Backend, error) {
	if (kind == BackendSQLite || kind == BackendBolt) && dbPath == "" {
		return nil, fmt.Errorf("store backend %s needs a database path", kind)
	}

	switch kind {
	case BackendFile, "":
		return NewFileBackend(dataDir)
	case BackendSQLite:
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		db, err := New(dbPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		if err := Migrate(db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migrate sqlite: %w", err)
		}
		return NewSQLiteBackend(db), nil
	case BackendBolt:
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		b, err := NewBoltBackend(dbPath)
		if err != nil {
			return nil, fmt.Errorf("open bolt: %w", err)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", kind)
	}
}
