// Package graph implements the persistent knowledge-graph engine for mindgraph.
//
// It stores nodes, directed explained edges and a shared dimension vocabulary
// in SQLite and keeps inline mention tokens and the edge table in sync.
// Every component receives an explicitly opened *DB; there is no package-level
// connection.
package graph

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"modernc.org/sqlite"
)

// openDB is a package-level var to allow test injection.
var openDB = sql.Open

// foldFunc is the SQL name of the Unicode-aware lowercase function. SQLite's
// own lower(), LIKE and NOCASE fold ASCII letters only.
const foldFunc = "mg_lower"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(foldFunc, 1, foldCase)
}

// foldCase lowercases its text argument the same way fold does in Go.
func foldCase(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return fold(v), nil
	case []byte:
		return fold(string(v)), nil
	default:
		return v, nil
	}
}

// fold is the case folding shared by SQL comparisons and dimension
// sanitization.
func fold(s string) string {
	return strings.ToLower(s)
}

// timeLayout keeps a fixed width so lexical order equals chronological order.
const timeLayout = "2006-01-02T15:04:05.000000Z"

// ─── Options ─────────────────────────────────────────────────────────────────

// Options configures how the database is opened.
type Options struct {
	// Path is the SQLite file. The parent directory is created if needed.
	Path string
	// BusyTimeout bounds how long a writer waits for the write lock.
	BusyTimeout time.Duration
	// Now overrides the clock used for created_at/updated_at.
	Now func() time.Time
	// Logger receives store diagnostics. Defaults to a no-op logger.
	Logger *zap.Logger
}

// ─── DB ──────────────────────────────────────────────────────────────────────

// DB is the relational store shared by the node, edge and dimension stores.
// All mutations go through Transaction.
type DB struct {
	db     *sql.DB
	now    func() time.Time
	logger *zap.Logger
	hooks  dbHooks
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// dbHooks lets tests intercept statements and transaction boundaries.
type dbHooks struct {
	exec    func(ctx context.Context, db execer, query string, args ...any) (sql.Result, error)
	beginTx func(ctx context.Context, db *sql.DB) (*sql.Tx, error)
	commit  func(tx *sql.Tx) error
}

func defaultDBHooks() dbHooks {
	return dbHooks{
		exec: func(ctx context.Context, db execer, query string, args ...any) (sql.Result, error) {
			return db.ExecContext(ctx, query, args...)
		},
		beginTx: func(ctx context.Context, db *sql.DB) (*sql.Tx, error) {
			return db.BeginTx(ctx, nil)
		},
		commit: func(tx *sql.Tx) error {
			return tx.Commit()
		},
	}
}

func (d *DB) execHook(ctx context.Context, db execer, query string, args ...any) (sql.Result, error) {
	if d.hooks.exec != nil {
		return d.hooks.exec(ctx, db, query, args...)
	}
	return db.ExecContext(ctx, query, args...)
}

func (d *DB) beginTxHook(ctx context.Context) (*sql.Tx, error) {
	if d.hooks.beginTx != nil {
		return d.hooks.beginTx(ctx, d.db)
	}
	return d.db.BeginTx(ctx, nil)
}

func (d *DB) commitHook(tx *sql.Tx) error {
	if d.hooks.commit != nil {
		return d.hooks.commit(tx)
	}
	return tx.Commit()
}

// Open opens (or creates) the SQLite database at opts.Path, applies the
// per-connection pragmas and runs migrations.
func Open(ctx context.Context, opts Options) (*DB, error) {
	if opts.Path == "" {
		return nil, fmt.Errorf("graph: database path is required")
	}
	if err := os.MkdirAll(filepath.Dir(opts.Path), 0o700); err != nil {
		return nil, fmt.Errorf("graph: create data dir: %w", err)
	}
	if opts.BusyTimeout <= 0 {
		opts.BusyTimeout = 5 * time.Second
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	db, err := openDB("sqlite", dsn(opts.Path, opts.BusyTimeout))
	if err != nil {
		return nil, fmt.Errorf("graph: open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("graph: connect: %w", err)
	}

	d := &DB{db: db, now: opts.Now, logger: opts.Logger, hooks: defaultDBHooks()}
	if err := d.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("graph: migration: %w", err)
	}

	d.logger.Debug("graph database opened", zap.String("path", opts.Path))
	return d, nil
}

// dsn builds a modernc DSN. Pragmas in the DSN apply to every pooled
// connection, and _txlock=immediate takes the write lock at BEGIN.
func dsn(path string, busy time.Duration) string {
	q := url.Values{}
	q.Add("_pragma", "foreign_keys(1)")
	q.Add("_pragma", fmt.Sprintf("busy_timeout(%d)", busy.Milliseconds()))
	q.Add("_pragma", "journal_mode(WAL)")
	q.Add("_pragma", "synchronous(NORMAL)")
	q.Set("_txlock", "immediate")
	return path + "?" + q.Encode()
}

// Close closes the underlying database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// Query runs a read statement outside any transaction.
func (d *DB) Query(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.db.QueryContext(ctx, query, args...)
}

// Exec runs a single statement outside any transaction.
func (d *DB) Exec(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.execHook(ctx, d.db, query, args...)
}

// Transaction runs fn inside one transaction. Any error returned by fn, or a
// failed commit, rolls back every statement fn executed.
func (d *DB) Transaction(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := d.beginTxHook(ctx)
	if err != nil {
		return storeFailure("begin transaction", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if err := fn(tx); err != nil {
		return err
	}
	if err := d.commitHook(tx); err != nil {
		return storeFailure("commit transaction", err)
	}
	return nil
}

func (d *DB) timestamp() string {
	return d.now().UTC().Format(timeLayout)
}

// ─── Migrations ──────────────────────────────────────────────────────────────

func (d *DB) migrate(ctx context.Context) error {
	schema := `
		CREATE TABLE IF NOT EXISTS nodes (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			title       TEXT    NOT NULL,
			content     TEXT,
			description TEXT,
			link        TEXT,
			type        TEXT,
			metadata    TEXT,
			chunk       TEXT,
			created_at  TEXT    NOT NULL,
			updated_at  TEXT    NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_nodes_updated ON nodes(updated_at DESC);
		CREATE INDEX IF NOT EXISTS idx_nodes_created ON nodes(created_at DESC);

		CREATE TABLE IF NOT EXISTS dimensions (
			name        TEXT    PRIMARY KEY,
			description TEXT,
			is_priority INTEGER NOT NULL DEFAULT 0,
			updated_at  TEXT    NOT NULL
		);

		CREATE TABLE IF NOT EXISTS node_dimensions (
			node_id   INTEGER NOT NULL,
			dimension TEXT    NOT NULL,
			UNIQUE (node_id, dimension),
			FOREIGN KEY (node_id)   REFERENCES nodes(id) ON DELETE CASCADE,
			FOREIGN KEY (dimension) REFERENCES dimensions(name) ON DELETE CASCADE
				DEFERRABLE INITIALLY DEFERRED
		);

		CREATE INDEX IF NOT EXISTS idx_nd_dimension ON node_dimensions(dimension);

		CREATE TABLE IF NOT EXISTS edges (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			from_node_id  INTEGER NOT NULL,
			to_node_id    INTEGER NOT NULL,
			source        TEXT,
			context       TEXT,
			user_feedback INTEGER,
			created_at    TEXT    NOT NULL,
			FOREIGN KEY (from_node_id) REFERENCES nodes(id) ON DELETE CASCADE,
			FOREIGN KEY (to_node_id)   REFERENCES nodes(id) ON DELETE CASCADE
		);

		CREATE INDEX IF NOT EXISTS idx_edges_from ON edges(from_node_id);
		CREATE INDEX IF NOT EXISTS idx_edges_to   ON edges(to_node_id);
		CREATE INDEX IF NOT EXISTS idx_edges_pair ON edges(from_node_id, to_node_id);
	`
	if _, err := d.execHook(ctx, d.db, schema); err != nil {
		return err
	}
	return nil
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// rowsAffected reports whether a mutation touched at least one row.
func rowsAffected(res sql.Result) bool {
	n, err := res.RowsAffected()
	return err == nil && n > 0
}
