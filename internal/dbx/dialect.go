package dbx

import (
	"fmt"
	"strings"
)

// Dialect selects SQL flavour, driver and migration set.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// DriverName returns the database/sql driver registered for the dialect.
func (d Dialect) DriverName() string {
	if d == SQLite {
		return "sqlite"
	}
	return "pgx"
}

// GooseDialect returns the dialect name understood by goose.
func (d Dialect) GooseDialect() string {
	if d == SQLite {
		return "sqlite3"
	}
	return "pgx"
}

// DialectFromDSN picks a dialect from the connection string.
//
//	postgres://..., postgresql://...  -> Postgres
//	sqlite://path, sqlite:///abs/path -> SQLite (path returned without scheme)
//	file:..., *.db, :memory:          -> SQLite
//
// The returned DSN is what should be passed to sql.Open.
func DialectFromDSN(dsn string) (Dialect, string, error) {
	dsn = strings.TrimSpace(dsn)
	switch {
	case dsn == "":
		return "", "", fmt.Errorf("empty database dsn")
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return Postgres, dsn, nil
	case strings.HasPrefix(dsn, "sqlite:///"):
		return SQLite, "/" + strings.TrimPrefix(dsn, "sqlite:///"), nil
	case strings.HasPrefix(dsn, "sqlite://"):
		return SQLite, strings.TrimPrefix(dsn, "sqlite://"), nil
	case strings.HasPrefix(dsn, "file:"), strings.HasSuffix(dsn, ".db"), dsn == ":memory:":
		return SQLite, dsn, nil
	default:
		return "", "", fmt.Errorf("unsupported database dsn scheme")
	}
}

// Rebind rewrites PostgreSQL positional placeholders ($1, $2, ...) into the
// numbered form SQLite understands (?1, ?2, ...). Queries are kept in the
// PostgreSQL form in source; quoted literals are left untouched.
func (d Dialect) Rebind(query string) string {
	if d != SQLite {
		return query
	}

	var b strings.Builder
	b.Grow(len(query))

	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		if c == '\'' {
			inQuote = !inQuote
		}
		if c == '$' && !inQuote && i+1 < len(query) && query[i+1] >= '0' && query[i+1] <= '9' {
			b.WriteByte('?')
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}
