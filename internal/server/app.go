// Package server initializes and runs the backend: it opens the metadata
// database, runs migrations, wires the S3-backed object store and the user
// service, and serves the HTTP API until shutdown.
package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/modelvault/modelvault/internal/logging"
	"github.com/modelvault/modelvault/internal/server/config"
	"github.com/modelvault/modelvault/internal/server/db"
	"github.com/modelvault/modelvault/internal/server/httpapi"
	"github.com/modelvault/modelvault/internal/server/users"
	"github.com/modelvault/modelvault/internal/store/postgres"
	"github.com/modelvault/modelvault/internal/vcs"
)

type App struct {
	config      *config.Config
	logger      logging.Logger
	userService *users.Service
	fileService *vcs.Service
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSON()

	database, err := db.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	content, err := postgres.NewS3Content(ctx, postgres.S3Config{
		AccessKey:    c.S3AccessKey,
		SecretKey:    c.S3SecretKey,
		Bucket:       c.S3Bucket,
		Region:       c.S3Region,
		BaseEndpoint: c.S3BaseEndpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("object storage init error: %w", err)
	}

	us := users.NewService(users.NewPostgresRepository(database), c)
	fs := vcs.NewService(postgres.New(database, content))

	return &App{config: c, logger: logger, userService: us, fileService: fs}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpapi.NewServer(app.config.EndpointAddr, app.fileService, app.userService, app.logger)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()
}
