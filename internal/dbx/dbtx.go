// Package dbx holds the database plumbing behind the repositories: the DBTX
// handle shared by pools and transactions, WithTx, and the PostgreSQL/SQLite
// dialect switch with its placeholder rebinding.
package dbx

import (
	"context"
	"database/sql"
	"fmt"
)

// DBTX is what a repository needs to run its statements. *sql.DB and *sql.Tx
// both implement it, so the same users or vault repository works with or
// without a surrounding transaction.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// WithTx runs fn inside one transaction on db. The transaction commits when fn
// returns nil and rolls back when fn fails or panics; a panic is re-raised
// after the rollback. Errors from fn come back unchanged so callers can match
// their sentinels.
//
// Registration uses it to make the duplicate-face scan and the insert atomic:
//
//	err := dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
//		users := rm.Users(tx)
//		refs, err := users.ListAll(ctx)
//		if err != nil {
//			return err
//		}
//		if faceAlreadyEnrolled(refs, embedding) {
//			return fmt.Errorf("%w: face already registered", common.ErrorConflict)
//		}
//		_, err = users.Create(ctx, user)
//		return err
//	})
func WithTx(ctx context.Context, db *sql.DB, opts *sql.TxOptions, fn func(ctx context.Context, tx DBTX) error) (err error) {
	tx, err := db.BeginTx(ctx, opts)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if cerr := tx.Commit(); cerr != nil {
			err = fmt.Errorf("commit tx: %w", cerr)
		}
	}()

	return fn(ctx, tx)
}
