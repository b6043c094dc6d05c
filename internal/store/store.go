package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/roach88/pitwall/internal/race"
)

// Schema version tracking:
// 0 - Empty database
// 1 - Championship, Track, Driver, Event and Session tables
const currentSchemaVersion = 1

// Store provides durable storage for race entities.
// Uses SQLite with WAL mode for concurrent read access.
type Store struct {
	db     *sql.DB
	tables *tables
	now    func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the time source for Created and Updated stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and creates missing tables automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - NORMAL synchronous mode (balance durability/performance)
//   - 5-second busy timeout for lock contention
//
// This function is idempotent - safe to call multiple times.
func Open(path string, opts ...Option) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_txlock=immediate")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	s := &Store{db: db, tables: newTables(DefaultSchema()), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.applySchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	slog.Debug("store opened", "path", path, "schema_version", currentSchemaVersion)
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying sql.DB for direct queries.
// Use with caution - prefer using collections.
func (s *Store) DB() *sql.DB {
	return s.db
}

// SchemaVersion reports the applied schema version.
func (s *Store) SchemaVersion(ctx context.Context) (int, error) {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return 0, fmt.Errorf("get user_version: %w", err)
	}
	return version, nil
}

// CreateStatements returns the DDL applied by Open.
func (s *Store) CreateStatements() []string {
	return s.tables.registry.CreateStatements()
}

// Championships returns a read-only view of the championship table.
func (s *Store) Championships() ReadOnly[race.Championship] {
	return newCollection(s.db, s.tables.championships, s.now)
}

// Tracks returns a read-only view of the track table.
func (s *Store) Tracks() ReadOnly[race.Track] {
	return newCollection(s.db, s.tables.tracks, s.now)
}

// Drivers returns a read-only view of the driver table.
func (s *Store) Drivers() ReadOnly[race.Driver] {
	return newCollection(s.db, s.tables.drivers, s.now)
}

// Events returns a read-only view of the event table.
func (s *Store) Events() ReadOnly[race.Event] {
	return newCollection(s.db, s.tables.events, s.now)
}

// Sessions returns a read-only view of the session table.
func (s *Store) Sessions() ReadOnly[race.Session] {
	return newCollection(s.db, s.tables.sessions, s.now)
}

// Begin starts a serializable transaction. Callers must not read through
// the Store's own views until the Tx finishes: the pool holds one connection.
func (s *Store) Begin(ctx context.Context) (*Tx, error) {
	sqlTx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return nil, fmt.Errorf("begin transaction: %w", err)
	}
	tx := &Tx{
		id:     uuid.Must(uuid.NewV7()).String(),
		tx:     sqlTx,
		tables: s.tables,
		now:    s.now,
	}
	slog.Debug("transaction started", "tx", tx.id)
	return tx, nil
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates tables if they don't exist and records the version.
// This function is idempotent.
func (s *Store) applySchema() error {
	var version int
	if err := s.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}

	for _, stmt := range s.CreateStatements() {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema: %w", err)
		}
	}

	if version < currentSchemaVersion {
		if _, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
			return fmt.Errorf("set user_version: %w", err)
		}
		slog.Info("schema migrated", "from", version, "to", currentSchemaVersion)
	}

	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
