package graph

import (
	"context"
	"database/sql"
)

// SQL exposes the internal *sql.DB for test helpers in graph_test.
// This file only compiles during `go test`.
func (d *DB) SQL() *sql.DB {
	return d.db
}

// FailExec makes every statement for which match returns true fail with err.
func (d *DB) FailExec(match func(query string) bool, err error) {
	d.hooks.exec = func(ctx context.Context, db execer, query string, args ...any) (sql.Result, error) {
		if match(query) {
			return nil, err
		}
		return db.ExecContext(ctx, query, args...)
	}
}

// FailCommit makes every commit fail with err after rolling back.
func (d *DB) FailCommit(err error) {
	d.hooks.commit = func(tx *sql.Tx) error {
		_ = tx.Rollback()
		return err
	}
}

// ResetHooks restores the default statement and transaction hooks.
func (d *DB) ResetHooks() {
	d.hooks = defaultDBHooks()
}
