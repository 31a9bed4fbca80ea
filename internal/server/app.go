// Package server wires the TaskHub server: configuration, database and
// migrations, services, object storage, the HTTP and gRPC endpoints and the
// graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/taskhub/internal/logging"
	"github.com/dmitrijs2005/taskhub/internal/server/auth"
	"github.com/dmitrijs2005/taskhub/internal/server/config"
	"github.com/dmitrijs2005/taskhub/internal/server/httpapi"
	"github.com/dmitrijs2005/taskhub/internal/server/metrics"
	"github.com/dmitrijs2005/taskhub/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/taskhub/internal/server/services"
	"github.com/dmitrijs2005/taskhub/internal/server/storage"

	gs "github.com/dmitrijs2005/taskhub/internal/server/grpc"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	metrics *metrics.Metrics
	guard   *auth.Guard

	sessions *services.SessionService
	users    *services.UserService
	projects *services.ProjectService
	tasks    *services.TaskService
	files    *services.FileService
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger, err := logging.New(os.Stdout, logging.Options{
		Backend: c.LogBackend,
		Level:   c.LogLevel,
		Format:  c.LogFormat,
		Service: "taskhub",
	})
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	app, err := newApp(ctx, c, logger, db, repomanager.NewPostgresRepositoryManager())
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger, db *sql.DB, m repomanager.RepositoryManager) (*App, error) {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("db ping error: %w", err)
	}
	if err := m.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	issuer, err := auth.NewIssuer(c.AccessTokenSecret, c.RefreshTokenSecret, c.AccessTokenTTL, c.RefreshTokenTTL)
	if err != nil {
		return nil, err
	}
	store, err := services.NewCredentialStore(db, m, auth.NewBcryptHasher(c.BcryptCost))
	if err != nil {
		return nil, err
	}
	objects, err := newObjectStore(ctx, c, logger)
	if err != nil {
		return nil, err
	}

	mt := metrics.New()
	sessions := services.NewSessionService(store, issuer, logger).WithRecorder(mt)
	if err := sessions.EnsureAdmin(ctx, c.AdminLogin, c.AdminPassword, c.ResetAdminPassword); err != nil {
		return nil, err
	}

	return &App{
		config:   c,
		logger:   logger,
		db:       db,
		metrics:  mt,
		guard:    auth.NewGuard(issuer),
		sessions: sessions,
		users:    services.NewUserService(store, logger),
		projects: services.NewProjectService(db, m, objects, logger),
		tasks:    services.NewTaskService(db, m, objects, logger),
		files:    services.NewFileService(db, m, objects, c.MaxFileSize, logger),
	}, nil
}

// newObjectStore returns the S3 store, or an in-memory one when no bucket
// is configured.
func newObjectStore(ctx context.Context, c *config.Config, logger logging.Logger) (services.ObjectStore, error) {
	if c.S3Bucket == "" {
		logger.Warn(ctx, "S3 bucket not configured, attachments are kept in memory")
		return storage.NewMemoryStore(), nil
	}
	s, err := storage.NewS3Store(ctx, storage.Config{
		Region:       c.S3Region,
		AccessKey:    c.S3RootUser,
		SecretKey:    c.S3RootPassword,
		Bucket:       c.S3Bucket,
		BaseEndpoint: c.S3BaseEndpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("object storage init error: %w", err)
	}
	return s, nil
}

func (app *App) router() http.Handler {
	return httpapi.NewRouter(httpapi.Deps{
		Sessions: app.sessions,
		Users:    app.users,
		Projects: app.projects,
		Tasks:    app.tasks,
		Files:    app.files,
		Guard:    app.guard,
		Cookie: httpapi.CookieConfig{
			Secure: app.config.CookieSecure,
			MaxAge: app.config.RefreshTokenTTL,
		},
		Log:           app.logger.With("module", "http_server"),
		MaxUploadSize: app.config.MaxFileSize,
		Metrics:       app.metrics.Handler(),
		Observer:      app.metrics,
		Health:        app.db.PingContext,
	})
}

func (app *App) grpcServer() *gs.Server {
	return gs.NewServer(app.config.EndpointAddrGRPC, app.logger, gs.Deps{
		Sessions: app.sessions,
		Users:    app.users,
		Guard:    app.guard,
		Cookie: gs.CookieConfig{
			Secure: app.config.CookieSecure,
			MaxAge: app.config.RefreshTokenTTL,
		},
		Observer: app.metrics,
	})
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
	srv := &http.Server{
		Addr:              app.config.EndpointAddrHTTP,
		Handler:           app.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		app.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			app.logger.Error(ctx, "http shutdown error", "error", err)
		}
	}()

	app.logger.Info(ctx, "Starting HTTP server", "address", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.grpcServer().Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// Run serves HTTP and gRPC until ctx is done or a termination signal
// arrives, then shuts both down and closes the database.
func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(2)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "db close error", "error", err)
	}
	app.logger.Info(ctx, "App stopped")
}
