package http

import (
	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"

	"github.com/mrlokans/catalog/internal/auth"
	"github.com/mrlokans/catalog/internal/logging"
)

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := cfg.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	metricsPath := cfg.MetricsPath
	if metricsPath == "" {
		metricsPath = "/metrics"
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logging.Middleware(logger))
	if cfg.Metrics != nil {
		router.Use(cfg.Metrics.Middleware(metricsPath))
	}

	router.Use(auth.SecurityHeadersMiddleware())

	// CSRF must run before session so that session context is preserved
	if len(cfg.CSRFSecret) > 0 {
		router.Use(auth.CSRFMiddleware(cfg.CSRFSecret, cfg.AuthConfig.SecureCookies))
	}
	if cfg.SessionManager != nil {
		router.Use(cfg.SessionManager.LoadSession())
	}

	var guard []gin.HandlerFunc
	authEnabled := cfg.AuthService != nil && cfg.AuthService.IsAuthEnabled()
	if authEnabled {
		authMiddleware := auth.NewMiddleware(cfg.AuthService, cfg.SessionManager, cfg.AuthConfig)
		router.Use(authMiddleware.Handler())
		guard = append(guard, authMiddleware.RequireAuth())
	}

	protect := func(h gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, guard...), h)
	}

	if cfg.ReadOnly != nil {
		router.Use(cfg.ReadOnly.Handler())
	}

	router.Use(ErrorHandler(logger))

	tmpl, err := LoadTemplates(cfg.TemplatesPath)
	if err != nil {
		return nil, err
	}
	router.SetHTMLTemplate(tmpl)

	if cfg.StaticPath != "" {
		router.Static("/static", cfg.StaticPath)
	}

	if authEnabled {
		auth.NewController(cfg.AuthService, cfg.SessionManager, cfg.AuthAuditor, logger).RegisterRoutes(router)
	}

	health := NewHealthController(cfg.Database, cfg.Version)
	home := NewHomeController(cfg.Genres, cfg.Books, cfg.Instances)
	genres := NewGenreController(cfg.Genres, cfg.Books, cfg.Auditor, cfg.Metrics)
	instances := NewBookInstanceController(cfg.Instances, cfg.Books, cfg.Auditor, cfg.Metrics, clock)
	books := NewBookController(cfg.Books)

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})
	if cfg.Metrics != nil {
		router.GET(metricsPath, gin.WrapH(cfg.Metrics.Handler()))
	}

	router.GET("/", home.Index)

	catalog := router.Group("/catalog")
	manage := router.Group("/catalog", guard...)

	catalog.GET("", home.Index)
	catalog.GET("/books", books.List)
	catalog.GET("/book/:id", books.Detail)

	// Genre routes
	catalog.GET("/genres", genres.List)
	catalog.GET("/genre/:id", genres.Detail)
	manage.GET("/genre/create", genres.CreateForm)
	manage.POST("/genre/create", genres.Create)
	manage.GET("/genre/:id/delete", genres.DeleteForm)
	manage.POST("/genre/:id/delete", genres.Delete)
	manage.GET("/genre/:id/update", genres.UpdateForm)
	manage.POST("/genre/:id/update", genres.Update)

	// Book instance routes
	catalog.GET("/bookinstances", instances.List)
	catalog.GET("/bookinstance/:id", instances.Detail)
	manage.GET("/bookinstance/create", instances.CreateForm)
	manage.POST("/bookinstance/create", instances.Create)
	manage.GET("/bookinstance/:id/delete", instances.DeleteForm)
	manage.POST("/bookinstance/:id/delete", instances.Delete)
	manage.GET("/bookinstance/:id/update", instances.UpdateForm)
	manage.POST("/bookinstance/:id/update", instances.Update)

	// JSON mirror
	api := router.Group("/api")
	api.GET("/genres", genres.APIList)
	api.GET("/genres/:id", genres.APIDetail)
	api.GET("/bookinstances", instances.APIList)
	api.GET("/bookinstances/:id", instances.APIDetail)
	api.GET("/catalog/stats", home.Stats)

	if cfg.AuditReader != nil {
		auditController := NewAuditController(cfg.AuditReader)
		router.GET("/audit", protect(auditController.AuditLogPage)...)
		api.GET("/audit", protect(auditController.GetAuditEvents)...)
	}

	if cfg.TaskQueue != nil {
		tasksController := NewTasksController(cfg.TaskQueue, cfg.AuditRetentionDays)
		taskRoutes := api.Group("/tasks", guard...)
		taskRoutes.GET("/types", tasksController.ListTaskTypes)
		// Both routes share one wildcard name: a task id or a task type.
		taskRoutes.GET("/:task", tasksController.GetTaskStatus)
		taskRoutes.POST("/:task/run", tasksController.RunTask)
	}

	router.NoRoute(func(c *gin.Context) {
		fail(c, NotFound("Not found"))
	})

	return router, nil
}
