package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/renal-ai-api/internal/config"
	"github.com/phrazzld/renal-ai-api/internal/platform/memory"
	"github.com/phrazzld/renal-ai-api/internal/platform/metrics"
	"github.com/phrazzld/renal-ai-api/internal/platform/models"
	"github.com/phrazzld/renal-ai-api/internal/platform/postgres"
	"github.com/phrazzld/renal-ai-api/internal/service"
	"github.com/phrazzld/renal-ai-api/internal/service/auth"
	"github.com/phrazzld/renal-ai-api/internal/store"
	"github.com/phrazzld/renal-ai-api/internal/task"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	_ task.Observer          = (*metrics.Metrics)(nil)
	_ service.UploadObserver = (*metrics.Metrics)(nil)
)

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	db     *sql.DB

	registry *prometheus.Registry
	metrics  *metrics.Metrics

	userStore store.UserStore
	fileStore store.FileStore
	taskStore store.TaskStore

	jwtService    auth.JWTService
	authenticator *auth.Authenticator

	userService     service.UserService
	uploadService   *service.UploadService
	analysisService *service.AnalysisService

	taskRunner *task.Runner
}

// newApplication creates the application. db is nil unless the postgres
// driver is configured, in which case it must already be migrated.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger, db *sql.DB) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
		db:     db,
	}

	app.registry = metrics.NewRegistry()
	app.metrics = metrics.NewMetrics(app.registry)

	app.setupStores()

	var err error
	app.jwtService, err = auth.NewJWTService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize JWT service: %w", err)
	}
	logger.Info("JWT authentication service initialized",
		"token_lifetime_minutes", cfg.Auth.TokenLifetimeMinutes)

	app.authenticator = auth.NewAuthenticator(app.jwtService, app.userStore)

	hasher := auth.NewBcrypt(cfg.Auth.BCryptCost)
	app.userService = service.NewUserService(app.userStore, hasher, hasher, app.jwtService, logger)

	app.uploadService = service.NewUploadService(app.fileStore, service.UploadConfig{
		DataDir:  cfg.Storage.DataDir,
		MaxBytes: cfg.Storage.MaxUploadBytes(),
	}, app.metrics, logger)

	catalogue, err := models.LoadCatalogue(cfg.Models.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load model catalogue: %w", err)
	}
	manager := models.NewManager(catalogue, logger.With("component", "model_manager"))

	app.taskRunner, err = setupTaskRunner(app)
	if err != nil {
		return nil, fmt.Errorf("failed to setup task runner: %w", err)
	}

	app.analysisService = service.NewAnalysisService(app.fileStore, app.taskStore, app.taskRunner,
		service.AnalysisConfig{
			Handlers: task.Handlers(task.Delays{
				Report:        cfg.Analysis.ReportDelay,
				GlomeruliStep: cfg.Analysis.GlomeruliStepDelay,
				Nuclei:        cfg.Analysis.NucleiDelay,
			}),
			Analyzer: manager,
		}, logger)

	logger.InfoContext(ctx, "application initialized successfully")
	return app, nil
}

// setupStores selects the registry backend.
func (app *application) setupStores() {
	if app.db != nil {
		app.userStore = postgres.NewPostgresUserStore(app.db, app.logger)
		app.fileStore = postgres.NewPostgresFileStore(app.db, app.logger)
		app.taskStore = postgres.NewPostgresTaskStore(app.db, app.logger)
		app.logger.Info("using postgres registries")
		return
	}

	app.userStore = memory.NewUserStore()
	app.fileStore = memory.NewFileStore()
	app.taskStore = memory.NewTaskStore()
	app.logger.Info("using in-memory registries; state is lost on restart")
}

// Run starts the application server, handling lifecycle and cleanup.
func (app *application) Run(ctx context.Context) error {
	router := app.setupRouter()

	if err := app.startHTTPServer(ctx, router); err != nil {
		return fmt.Errorf("server error: %w", err)
	}
	return nil
}

// setupTaskRunner creates and starts the analysis worker pool.
func setupTaskRunner(app *application) (*task.Runner, error) {
	runner := task.NewRunner(task.RunnerConfig{
		WorkerCount: app.config.Analysis.WorkerCount,
		QueueSize:   app.config.Analysis.QueueSize,
	}, app.logger.With("component", "task_runner"), app.metrics)

	if err := runner.Start(); err != nil {
		return nil, fmt.Errorf("failed to start task runner: %w", err)
	}
	return runner, nil
}

// cleanup handles graceful shutdown of application resources. Analyses
// still queued or running when the runner stops stay processing.
func (app *application) cleanup() {
	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", "error", err)
		}
	}

	app.logger.Info("application shutdown completed")
}
