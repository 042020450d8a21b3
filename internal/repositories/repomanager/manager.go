package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/photogallery/internal/dbx"
	"github.com/dmitrijs2005/photogallery/internal/repositories/photos"
	"github.com/dmitrijs2005/photogallery/internal/repositories/secretkeys"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Photos(db dbx.DBTX) photos.Repository
	SecretKeys(db dbx.DBTX) secretkeys.Repository
}
