package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/facevault/internal/dbx"
	"github.com/dmitrijs2005/facevault/internal/server/repositories/entries"
	"github.com/dmitrijs2005/facevault/internal/server/repositories/revocations"
	"github.com/dmitrijs2005/facevault/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so services can use
// the same repositories inside and outside dbx.WithTx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Dialect() dbx.Dialect
	Users(db dbx.DBTX) users.Repository
	Entries(db dbx.DBTX) entries.Repository
	Revocations(db dbx.DBTX) revocations.Repository
}
