// Package migrations embeds the goose SQL migrations for each supported
// database dialect.
package migrations

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/dmitrijs2005/facevault/internal/dbx"
)

//go:embed postgres/*.sql sqlite/*.sql
var files embed.FS

// For returns the migration set for d, rooted so goose can read it from ".".
func For(d dbx.Dialect) (fs.FS, error) {
	switch d {
	case dbx.Postgres, dbx.SQLite:
		return fs.Sub(files, string(d))
	default:
		return nil, fmt.Errorf("no migrations for dialect %q", d)
	}
}
