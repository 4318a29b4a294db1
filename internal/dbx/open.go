package dbx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/facevault/internal/filex"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Open resolves the dialect from dsn, opens the pool and pings it.
func Open(ctx context.Context, dsn string) (*sql.DB, Dialect, error) {
	d, openDSN, err := DialectFromDSN(dsn)
	if err != nil {
		return nil, "", err
	}
	if d == SQLite {
		if path, ok := sqliteFilePath(openDSN); ok {
			if err := filex.EnsureParentDir(path); err != nil {
				return nil, "", fmt.Errorf("sqlite dir: %w", err)
			}
		}
		openDSN = withSQLitePragmas(openDSN)
	}

	db, err := sql.Open(d.DriverName(), openDSN)
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", d, err)
	}

	if d == SQLite {
		// a single writer avoids SQLITE_BUSY under concurrent registrations
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(20)
		db.SetConnMaxIdleTime(5 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, "", fmt.Errorf("ping %s: %w", d, err)
	}
	return db, d, nil
}

// sqliteFilePath returns the on-disk path of a plain SQLite DSN. URI forms
// (file:...) and in-memory databases report false.
func sqliteFilePath(dsn string) (string, bool) {
	if dsn == ":memory:" || strings.HasPrefix(dsn, "file:") {
		return "", false
	}
	path, _, _ := strings.Cut(dsn, "?")
	return path, path != ""
}

func withSQLitePragmas(dsn string) string {
	if strings.Contains(dsn, "_pragma=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
}

// IsUniqueViolation reports whether err is a UNIQUE or PRIMARY KEY
// constraint failure from either backend.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3.SQLITE_CONSTRAINT_UNIQUE:
			return true
		}
	}
	return false
}
