// Package server initializes and runs the gallery server. It opens the
// database pool, optionally migrates the schema, wires services into the
// HTTP handler and serves until an OS signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/photogallery/internal/dbx"
	"github.com/dmitrijs2005/photogallery/internal/logging"
	"github.com/dmitrijs2005/photogallery/internal/repositories/repomanager"
	"github.com/dmitrijs2005/photogallery/internal/server/config"
	"github.com/dmitrijs2005/photogallery/internal/server/web"
	"github.com/dmitrijs2005/photogallery/internal/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *web.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	logger := logging.New(os.Stdout, "json", c.LogLevel)

	db, err := dbx.Open(ctx, "pgx", c.DatabaseDSN, dbx.DefaultPoolConfig())
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if c.Migrate {
		logger.Info(ctx, "Applying migrations...")
		if err := rm.RunMigrations(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("migration error: %w", err)
		}
	}

	photos := services.NewPhotoService(db, rm, logger, services.PageSize{
		Default: c.DefaultPhotosPerPage,
		Max:     c.MaxPhotosPerPage,
	})
	keys := services.NewSecretKeyService(db, rm, logger)

	fsys, err := web.TemplatesFS(c.TemplatePath)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	renderer, err := web.NewRenderer(fsys, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	store := web.NewSessionStore(c.SessionSecret, strings.HasPrefix(c.BaseURL, "https://"))
	handler := web.NewHandler(photos, keys, db, renderer, store, web.Options{
		BaseURL:         c.BaseURL,
		TokenSigningKey: []byte(c.TokenSigningKey),
		TokenValidity:   c.TokenValidityDuration,
		APIRateLimit:    c.APIRateLimit,
	}, logger)

	return &App{
		config: c,
		logger: logger,
		db:     db,
		server: web.NewServer(c.ListenAddr(), handler.Routes(), logger),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "address", app.config.ListenAddr())

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
