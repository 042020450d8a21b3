// Package cli implements the photogallery admin command line: catalog
// edits, secret key management and the upload pipeline.
package cli

import (
	"context"
	"errors"
	"io"
	"os"

	"github.com/dmitrijs2005/photogallery/internal/admin/config"
	"github.com/dmitrijs2005/photogallery/internal/admin/ingest"
	"github.com/dmitrijs2005/photogallery/internal/admin/journal"
	"github.com/dmitrijs2005/photogallery/internal/apistructs"
	"github.com/dmitrijs2005/photogallery/internal/logging"
	"github.com/dmitrijs2005/photogallery/internal/models"
	"github.com/dmitrijs2005/photogallery/internal/services"
)

var errJournalDisabled = errors.New("upload journal is disabled")

// Photos is the catalog as the commands see it. *services.PhotoService
// implements it.
type Photos interface {
	Create(ctx context.Context, payload apistructs.PhotoPayload) (*models.Photo, error)
	Update(ctx context.Context, fileStem string, payload apistructs.PhotoPayload) (*services.UpdateResult, error)
	Get(ctx context.Context, id models.PhotoID, published models.Published) (*models.Photo, error)
	GetByFileStem(ctx context.Context, fileStem string, published models.Published) (*models.Photo, error)
	Delete(ctx context.Context, id models.PhotoID) error
	SetPublished(ctx context.Context, id models.PhotoID, published bool) error
	SetHeightOffset(ctx context.Context, id models.PhotoID, offset int) error
	Gallery(ctx context.Context, req services.GalleryRequest) (*services.GalleryPage, error)
}

type Keys interface {
	Generate(ctx context.Context) (string, error)
	Add(ctx context.Context, key string) error
	Revoke(ctx context.Context, key string) error
	List(ctx context.Context) ([]string, error)
}

type Ingester interface {
	Ingest(ctx context.Context, path string, opts ingest.Options) (*ingest.Result, error)
}

// UploadJournal is the local record of uploaded renditions.
type UploadJournal interface {
	ListByStem(ctx context.Context, stem string) ([]journal.Entry, error)
	ForgetStem(ctx context.Context, stem string) (int64, error)
}

// Backend is everything a command may touch. It is opened lazily, so
// commands such as version or dump-xmp never need a database.
type Backend interface {
	Photos() Photos
	Keys() Keys
	Migrate(ctx context.Context) error
	// Ingester wires the upload pipeline; workers overrides the configured
	// pool size when positive.
	Ingester(ctx context.Context, workers int) (Ingester, error)
	Journal(ctx context.Context) (UploadJournal, error)
	Close() error
}

// BackendFactory opens a Backend for the loaded configuration.
type BackendFactory func(ctx context.Context, cfg *config.Config, log logging.Logger) (Backend, error)

type App struct {
	config      *config.Config
	log         logging.Logger
	logOut      io.Writer
	openBackend BackendFactory
	backend     Backend
	stdinIsTTY  func() bool
}

func NewApp() *App {
	return &App{
		logOut:      os.Stderr,
		openBackend: OpenPostgresBackend,
		stdinIsTTY:  stdinIsTerminal,
	}
}

// Backend opens the backend on first use.
func (a *App) Backend(ctx context.Context) (Backend, error) {
	if a.backend != nil {
		return a.backend, nil
	}
	b, err := a.openBackend(ctx, a.config, a.log)
	if err != nil {
		return nil, err
	}
	a.backend = b
	return b, nil
}

func (a *App) Close() error {
	if a.backend == nil {
		return nil
	}
	err := a.backend.Close()
	a.backend = nil
	return err
}
