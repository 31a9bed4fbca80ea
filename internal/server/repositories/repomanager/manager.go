package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/taskhub/internal/dbx"
	"github.com/dmitrijs2005/taskhub/internal/server/repositories/files"
	"github.com/dmitrijs2005/taskhub/internal/server/repositories/projects"
	"github.com/dmitrijs2005/taskhub/internal/server/repositories/refreshrecords"
	"github.com/dmitrijs2005/taskhub/internal/server/repositories/tasks"
	"github.com/dmitrijs2005/taskhub/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX so services can run
// several of them inside one transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshRecords(db dbx.DBTX) refreshrecords.Repository
	Projects(db dbx.DBTX) projects.Repository
	Tasks(db dbx.DBTX) tasks.Repository
	Files(db dbx.DBTX) files.Repository
}
