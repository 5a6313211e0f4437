// Package sqlite implements the storage interface using SQLite.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/cenkalti/backoff/v4"
	sqlite3 "github.com/ncruces/go-sqlite3"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/tetratelabs/wazero"

	"github.com/LyoshaGodX/adaptivelearn/internal/bkt"
	"github.com/LyoshaGodX/adaptivelearn/internal/storage"
)

// Verify Store implements storage.Storage at compile time
var _ storage.Storage = (*Store)(nil)

// Store implements the Storage interface using SQLite
type Store struct {
	db     *sql.DB
	dbPath string
	params *bkt.ParamSource
	closed atomic.Bool
}

// setupWASMCache configures WASM compilation caching so the SQLite engine is
// compiled once per machine instead of on every process start. Falls back to
// an in-memory cache when the cache directory cannot be created.
func setupWASMCache() {
	var cache wazero.CompilationCache
	if userCache, err := os.UserCacheDir(); err == nil {
		dir := filepath.Join(userCache, "alearn", "wasm")
		if c, err := wazero.NewCompilationCacheWithDir(dir); err == nil {
			cache = c
		}
	}
	if cache == nil {
		cache = wazero.NewCompilationCache()
	}
	sqlite3.RuntimeConfig = wazero.NewRuntimeConfig().WithCompilationCache(cache)
}

func init() {
	setupWASMCache()
}

// New opens (creating if necessary) a SQLite database at path.
// Pass ":memory:" for an in-memory database, used mainly by tests.
func New(ctx context.Context, path string) (*Store, error) {
	var connStr string
	isInMemory := path == ":memory:" ||
		(strings.HasPrefix(path, "file:") && strings.Contains(path, "mode=memory"))
	switch {
	case path == ":memory:":
		// WAL does not apply to in-memory databases; shared cache lets the
		// single pooled connection survive reopen.
		connStr = "file:memdb?mode=memory&cache=shared&_pragma=journal_mode(DELETE)&_pragma=foreign_keys(ON)&_pragma=busy_timeout(10000)&_time_format=sqlite"
	case strings.HasPrefix(path, "file:"):
		connStr = path
		if !strings.Contains(path, "_pragma=foreign_keys") {
			connStr += "&_pragma=foreign_keys(ON)&_pragma=busy_timeout(10000)&_time_format=sqlite"
		}
	default:
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
		connStr = "file:" + path + "?_pragma=foreign_keys(ON)&_pragma=busy_timeout(10000)&_time_format=sqlite"
	}

	db, err := sql.Open("sqlite3", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if isInMemory {
		// In-memory databases are per-connection; keep the pool at one so
		// every statement sees the same data.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		// WAL supports one writer plus concurrent readers.
		db.SetMaxOpenConns(runtime.NumCPU() + 1)
		db.SetMaxIdleConns(2)
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := checkSchemaVersion(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}

	absPath := path
	if !isInMemory {
		if absPath, err = filepath.Abs(path); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to resolve database path: %w", err)
		}
	}

	return &Store{
		db:     db,
		dbPath: absPath,
		params: bkt.NewParamSource(),
	}, nil
}

func checkSchemaVersion(ctx context.Context, db *sql.DB) error {
	var version string
	err := db.QueryRowContext(ctx, `SELECT value FROM metadata WHERE key = 'schema_version'`).Scan(&version)
	if err == sql.ErrNoRows {
		_, err = db.ExecContext(ctx, `INSERT INTO metadata (key, value) VALUES ('schema_version', ?)`, schemaVersion)
		return err
	}
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("database schema version %s is not supported (want %s)", version, schemaVersion)
	}
	return nil
}

// UseParams swaps in a trained BKT parameter source. Mastery rows created
// after this call pick up per-skill parameters; existing rows keep theirs.
func (s *Store) UseParams(ps *bkt.ParamSource) {
	if ps != nil {
		s.params = ps
	}
}

// Close checkpoints the WAL and closes the database connection
func (s *Store) Close() error {
	s.closed.Store(true)
	_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	return s.db.Close()
}

// Path returns the absolute path to the database file
func (s *Store) Path() string {
	return s.dbPath
}

// IsClosed reports whether Close has been called
func (s *Store) IsClosed() bool {
	return s.closed.Load()
}

// inTransaction runs fn inside a BEGIN IMMEDIATE transaction on a dedicated
// connection. IMMEDIATE acquires the write lock up front, and the begin is
// retried with exponential backoff when another writer holds it.
func (s *Store) inTransaction(ctx context.Context, fn func(tx *sql.Conn) error) error {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	bo := backoff.WithContext(backoff.NewExponentialBackOff(), ctx)
	err = backoff.Retry(func() error {
		_, err := conn.ExecContext(ctx, "BEGIN IMMEDIATE")
		if err != nil && isBusy(err) {
			return err
		}
		if err != nil {
			return backoff.Permanent(err)
		}
		return nil
	}, bo)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	committed := false
	defer func() {
		if !committed {
			// Background context so rollback runs even after cancellation
			_, _ = conn.ExecContext(context.Background(), "ROLLBACK")
		}
	}()

	if err := fn(conn); err != nil {
		return err
	}

	if _, err := conn.ExecContext(ctx, "COMMIT"); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	committed = true
	return nil
}

func isBusy(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

// buildUpdate converts an updates map into a SET clause using the supplied
// field-to-column whitelist. Unknown fields are an error so callers cannot
// smuggle arbitrary SQL through the map keys.
func buildUpdate(allowed map[string]string, updates map[string]interface{}) (string, []interface{}, error) {
	if len(updates) == 0 {
		return "", nil, fmt.Errorf("no fields to update")
	}
	fields := make([]string, 0, len(updates))
	for f := range updates {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	var clauses []string
	var args []interface{}
	for _, f := range fields {
		col, ok := allowed[f]
		if !ok {
			return "", nil, fmt.Errorf("unknown field: %s", f)
		}
		clauses = append(clauses, col+" = ?")
		args = append(args, updates[f])
	}
	return strings.Join(clauses, ", "), args, nil
}
