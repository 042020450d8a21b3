package cli

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/photogallery/internal/admin/config"
	"github.com/dmitrijs2005/photogallery/internal/admin/ingest"
	"github.com/dmitrijs2005/photogallery/internal/admin/journal"
	"github.com/dmitrijs2005/photogallery/internal/admin/storage"
	"github.com/dmitrijs2005/photogallery/internal/dbx"
	"github.com/dmitrijs2005/photogallery/internal/imaging"
	"github.com/dmitrijs2005/photogallery/internal/logging"
	"github.com/dmitrijs2005/photogallery/internal/repositories/repomanager"
	"github.com/dmitrijs2005/photogallery/internal/services"
)

// postgresBackend writes straight into the gallery database.
type postgresBackend struct {
	cfg       *config.Config
	log       logging.Logger
	db        *sql.DB
	journalDB *sql.DB
	rm        repomanager.RepositoryManager
	photos    *services.PhotoService
	keys      *services.SecretKeyService
}

func OpenPostgresBackend(ctx context.Context, cfg *config.Config, log logging.Logger) (Backend, error) {
	pool := dbx.DefaultPoolConfig()
	pool.MaxOpenConns = 4
	pool.MaxIdleConns = 2

	db, err := dbx.Open(ctx, "pgx", cfg.DatabaseDSN, pool)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	return &postgresBackend{
		cfg:    cfg,
		log:    log,
		db:     db,
		rm:     rm,
		photos: services.NewPhotoService(db, rm, log, services.PageSize{Default: 20, Max: 1000}),
		keys:   services.NewSecretKeyService(db, rm, log),
	}, nil
}

func (b *postgresBackend) Photos() Photos { return b.photos }
func (b *postgresBackend) Keys() Keys     { return b.keys }

func (b *postgresBackend) Migrate(ctx context.Context) error {
	return b.rm.RunMigrations(ctx, b.db)
}

func (b *postgresBackend) Ingester(ctx context.Context, workers int) (Ingester, error) {
	if err := b.cfg.S3.Validate(); err != nil {
		return nil, err
	}
	store, err := storage.NewS3Store(ctx, b.cfg.S3)
	if err != nil {
		return nil, err
	}

	var j ingest.Journal
	repo, err := b.journal(ctx)
	switch {
	case err == nil:
		j = repo
	case errors.Is(err, errJournalDisabled):
	default:
		b.log.Warn(ctx, "upload journal unavailable, every rendition will be uploaded", "path", b.cfg.JournalPath, "error", err)
	}

	if workers <= 0 {
		workers = b.cfg.Workers
	}
	return ingest.New(b.photos, imaging.NewVipsTranscoder(b.cfg.JPEGQuality), store, j, workers, b.log), nil
}

func (b *postgresBackend) Journal(ctx context.Context) (UploadJournal, error) {
	repo, err := b.journal(ctx)
	if err != nil {
		return nil, err
	}
	return repo, nil
}

func (b *postgresBackend) journal(ctx context.Context) (*journal.SQLiteRepository, error) {
	if b.cfg.JournalPath == "" {
		return nil, errJournalDisabled
	}
	if b.journalDB == nil {
		db, err := journal.Open(ctx, b.cfg.JournalPath)
		if err != nil {
			return nil, err
		}
		b.journalDB = db
	}
	return journal.NewSQLiteRepository(b.journalDB), nil
}

func (b *postgresBackend) Close() error {
	var errs []error
	if b.journalDB != nil {
		errs = append(errs, b.journalDB.Close())
	}
	errs = append(errs, b.db.Close())
	return errors.Join(errs...)
}
