package repomanager

import (
	"context"
	"database/sql"

	"github.com/voxjournal/voxjournal/internal/dbx"
	"github.com/voxjournal/voxjournal/internal/server/repositories/entries"
	"github.com/voxjournal/voxjournal/internal/server/repositories/refreshtokens"
	"github.com/voxjournal/voxjournal/internal/server/repositories/users"
)

// RepositoryManager hands out repositories bound to a specific DBTX, so a
// service can run several repositories inside one transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Entries(db dbx.DBTX) entries.Repository
}
