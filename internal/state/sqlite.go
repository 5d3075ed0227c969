package state

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/leapstack-labs/dbschema/pkg/core"
	_ "modernc.org/sqlite" // register the pure Go sqlite driver
)

// SQLiteStore is a metadata index stored in SQLite. After ImportCatalog it
// serves the same queries as the YAML catalog it was built from.
type SQLiteStore struct {
	db     *sql.DB
	path   string
	opts   core.SourceOptions
	logger *slog.Logger
}

var _ core.Provider = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLite index instance.
func NewSQLiteStore(opts core.SourceOptions, logger *slog.Logger) *SQLiteStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &SQLiteStore{opts: opts, logger: logger}
}

// OpenIndex opens the index at path and applies pending migrations.
func OpenIndex(ctx context.Context, path string, opts core.SourceOptions, logger *slog.Logger) (*SQLiteStore, error) {
	store := NewSQLiteStore(opts, logger)
	if err := store.Open(ctx, path); err != nil {
		return nil, err
	}
	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, err
	}
	return store, nil
}

// Open opens a connection to the SQLite database.
// Use ":memory:" for an in-memory database.
func (s *SQLiteStore) Open(ctx context.Context, path string) error {
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
	if path == ":memory:" {
		dsn = ":memory:?_pragma=foreign_keys(1)"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return fmt.Errorf("failed to open sqlite database: %w", err)
	}
	if path == ":memory:" {
		// every pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	s.db = db
	s.path = path
	s.logger.Debug("opened index", "path", path)
	return nil
}

// Path returns the database path.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Close closes the SQLite database connection.
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// generateID creates a new UUID.
func generateID() string {
	return uuid.New().String()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
