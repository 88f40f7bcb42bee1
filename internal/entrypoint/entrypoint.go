// Package entrypoint wires the catalog's components together and runs the server.
package entrypoint

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/mrlokans/catalog/internal/audit"
	"github.com/mrlokans/catalog/internal/auth"
	"github.com/mrlokans/catalog/internal/config"
	"github.com/mrlokans/catalog/internal/database"
	auditRepo "github.com/mrlokans/catalog/internal/database/audit"
	"github.com/mrlokans/catalog/internal/database/bookinstances"
	"github.com/mrlokans/catalog/internal/database/books"
	"github.com/mrlokans/catalog/internal/database/genres"
	"github.com/mrlokans/catalog/internal/database/users"
	http_controllers "github.com/mrlokans/catalog/internal/http"
	"github.com/mrlokans/catalog/internal/logging"
	"github.com/mrlokans/catalog/internal/metrics"
	"github.com/mrlokans/catalog/internal/readonly"
	"github.com/mrlokans/catalog/internal/scheduler"
	"github.com/mrlokans/catalog/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

// Serve runs the HTTP server until SIGINT or SIGTERM, then shuts it down
// within the configured timeout.
func Serve(router *gin.Engine, cfg *config.Config, logger *zap.Logger, onShutdown ShutdownFunc) error {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second
	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)

	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case sig := <-quit:
		logger.Info("shutting down server", zap.String("signal", sig.String()), zap.Duration("timeout", timeout))
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background work before the listener so no new tasks are enqueued.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	logger.Info("server exiting")
	return nil
}

// csrfSecret decodes the configured session secret, generating one when unset.
func csrfSecret(configured string, logger *zap.Logger) ([]byte, error) {
	if configured != "" {
		if secret, err := hex.DecodeString(configured); err == nil {
			return secret, nil
		}
		return []byte(configured), nil
	}

	generated, err := auth.GenerateSessionSecret()
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSRF secret: %w", err)
	}
	logger.Warn("generated session secret; set AUTH_SESSION_SECRET to keep sessions across restarts")
	return hex.DecodeString(generated)
}

// Run builds every component from cfg and serves until interrupted.
func Run(cfg *config.Config, version string) error {
	logger, err := logging.New(cfg.Logging)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("starting catalog", zap.String("version", version))
	if !cfg.Logging.Development {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewDatabase(cfg.Database.Path, database.WithLogLevel(logging.GormLevel(cfg.Logging)))
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("error closing database", zap.Error(err))
		}
	}()

	clock := clockwork.NewRealClock()
	genreRepo := genres.NewRepository(db.DB)
	bookRepo := books.NewRepository(db.DB)
	instanceRepo := bookinstances.NewRepository(db.DB)

	auditService := audit.NewService(auditRepo.NewRepository(db.DB), logger, clock)
	defer auditService.Wait()

	var appMetrics *metrics.Metrics
	if cfg.Metrics.Enabled {
		appMetrics = metrics.New(metrics.NewRegistry())
	}

	// Task queue and maintenance schedule
	var (
		taskClient  *tasks.Client
		taskCancel  context.CancelFunc
		maintenance *scheduler.Maintenance
	)
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.ConfigFrom(cfg.Tasks), logger)
		if err != nil {
			return fmt.Errorf("failed to initialize task queue: %w", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				logger.Error("error closing task client", zap.Error(err))
			}
		}()

		var overdueGauge prometheus.Gauge
		if appMetrics != nil {
			overdueGauge = appMetrics.OverdueCopies
		}
		scanner := tasks.NewOverdueScanner(instanceRepo, auditService, overdueGauge, clock, logger)

		taskClient.Register(
			tasks.NewOverdueScanQueue(scanner),
			tasks.NewCleanupAuditEventsQueue(auditService, logger),
		)

		var taskCtx context.Context
		taskCtx, taskCancel = context.WithCancel(context.Background())
		defer taskCancel()
		taskClient.Start(taskCtx)

		maintenance = scheduler.NewMaintenance(cfg.Maintenance, cfg.Audit.RetentionDays, taskClient, logger)
		if err := maintenance.Start(); err != nil {
			return fmt.Errorf("failed to start maintenance scheduler: %w", err)
		}
	}

	routerCfg := http_controllers.RouterConfig{
		Genres:        genreRepo,
		Books:         bookRepo,
		Instances:     instanceRepo,
		Auditor:       auditService,
		AuditReader:   auditService,
		Database:      db,
		Version:       version,
		AuthConfig:    cfg.Auth,
		Metrics:       appMetrics,
		MetricsPath:   cfg.Metrics.Path,
		TemplatesPath: cfg.UI.TemplatesPath,
		StaticPath:    cfg.UI.StaticPath,
		Logger:        logger,
		Clock:         clock,
	}
	if taskClient != nil {
		routerCfg.TaskQueue = taskClient
		routerCfg.AuditRetentionDays = cfg.Audit.RetentionDays
	}
	if cfg.ReadOnly.Enabled {
		logger.Info("read-only mode enabled; catalog writes are blocked")
		routerCfg.ReadOnly = readonly.NewMiddleware(true)
	}

	if cfg.Auth.Mode == config.AuthModeLocal {
		logger.Info("authentication mode: local")

		authService := auth.NewService(users.NewRepository(db.DB), cfg.Auth, clock)

		sqlDB, err := db.DB.DB()
		if err != nil {
			return fmt.Errorf("failed to get SQL DB for sessions: %w", err)
		}
		sessionManager, err := auth.NewSessionManager(sqlDB, cfg.Auth)
		if err != nil {
			return fmt.Errorf("failed to initialize session manager: %w", err)
		}

		secret, err := csrfSecret(cfg.Auth.SessionSecret, logger)
		if err != nil {
			return err
		}

		hasUsers, err := authService.HasUsers(context.Background())
		if err != nil {
			logger.Error("failed to count users", zap.Error(err))
		} else if !hasUsers {
			logger.Info("no librarians found; visit /setup to create an administrator account")
		}

		routerCfg.AuthService = authService
		routerCfg.AuthAuditor = auditService
		routerCfg.SessionManager = sessionManager
		routerCfg.CSRFSecret = secret
	} else {
		logger.Info("authentication mode: none")
	}

	router, err := http_controllers.NewRouter(routerCfg)
	if err != nil {
		return fmt.Errorf("failed to build router: %w", err)
	}

	onShutdown := func(ctx context.Context) {
		if maintenance != nil {
			maintenance.Stop()
		}
		if taskClient != nil {
			taskClient.Stop(ctx)
			taskCancel()
		}
	}

	return Serve(router, cfg, logger, onShutdown)
}
