// Package server
//
// @title UGEL API
// @version 1.0
// @description Portal institucional: comunicados, convocatorias, mesa de partes y documentos
// @host localhost:8080
// @BasePath /
package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/ugel-satipo/portal/internal/auth"
	"github.com/ugel-satipo/portal/internal/config"
	"github.com/ugel-satipo/portal/internal/models"
)

// Enqueuer is the part of asynq.Client the API uses to hand work to the worker
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Server represents the HTTP server
type Server struct {
	router    *gin.Engine
	db        *gorm.DB
	config    *config.Config
	logger    zerolog.Logger
	validator *validator.Validate
	enqueuer  Enqueuer
	closers   []func() error
	version   string
}

// New creates a new server instance
func New(cfg *config.Config, zlog zerolog.Logger, version string) (*Server, error) {
	// Initialize database with production settings
	db, err := InitDatabase(cfg, zlog)
	if err != nil {
		return nil, err
	}

	// Initialize Asynq client for enqueueing tasks
	asynqClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr: cfg.Redis.Address,
	})

	server, err := NewWithDeps(db, cfg, zlog, asynqClient, version)
	if err != nil {
		return nil, err
	}
	server.closers = append(server.closers, asynqClient.Close)
	return server, nil
}

// NewWithDeps wires a server around an already opened database and enqueuer
func NewWithDeps(db *gorm.DB, cfg *config.Config, zlog zerolog.Logger, enqueuer Enqueuer, version string) (*Server, error) {
	// Run database migrations
	if err := models.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	// Load JWT secret from database (auto-generated during first setup)
	var appConfig models.Config
	if err := db.First(&appConfig).Error; err == nil {
		auth.InitializeJWT(appConfig.JWTSecret, cfg.Auth.TokenTTL)
		zlog.Debug().Msg("Loaded JWT secret from database")
	} else {
		// JWT will be initialized during setupFirstAdmin
		zlog.Info().Msg("No config found - JWT will be initialized during first setup")
	}

	if err := os.MkdirAll(cfg.Storage.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	server := &Server{
		db:        db,
		config:    cfg,
		logger:    zlog,
		validator: newValidator(),
		enqueuer:  enqueuer,
		version:   version,
	}

	// Setup router
	server.setupRouter()

	return server, nil
}

// InitDatabase initializes the database connection with production settings
func InitDatabase(cfg *config.Config, zlog zerolog.Logger) (*gorm.DB, error) {
	const (
		maxOpenConns    = 8   // Reduced for SQLite efficiency
		maxIdleConns    = 4   // Reduced proportionally
		connMaxLifetime = 300 // 5 minutes
		busyTimeout     = 5000
	)

	// Open database connection
	db, err := gorm.Open(sqlite.Open(cfg.Database.URL), &gorm.Config{
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				LogLevel:                  logger.Error,
				IgnoreRecordNotFoundError: true,
				SlowThreshold:             200 * time.Millisecond,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Get underlying sql.DB to configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(connMaxLifetime) * time.Second)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// WAL mode must be set first for optimal concurrency
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout),
		"PRAGMA foreign_keys=1",
	}

	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			zlog.Warn().Str("pragma", pragma).Err(err).Msg("Failed to apply pragma")
		}
	}

	return db, nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()
	s.router.MaxMultipartMemory = s.config.Storage.MaxUploadSize

	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())

	s.router.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.HTTP.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint (no auth required)
	s.router.GET("/health", s.healthCheck)

	// Public auth endpoints (no auth required)
	s.router.POST("/setup", s.setupFirstAdmin)
	s.router.POST("/auth/login", s.login)

	authenticated := s.router.Group("/auth")
	authenticated.Use(JWTAuthMiddleware(s.db, s.logger))
	{
		authenticated.GET("/me", s.getCurrentUser)
		authenticated.POST("/cambiar-password", s.changePassword)
	}

	// Public portal
	s.router.GET("/comunicados", s.listPublicAnnouncements)
	s.router.GET("/comunicados/:id", s.getPublicAnnouncement)
	s.router.GET("/convocatorias", s.listPublicPostings)
	s.router.GET("/convocatorias/:id", s.getPublicPosting)
	s.router.POST("/tramites", s.registerSubmission)
	s.router.GET("/tramites/consultar/:codigo", s.trackSubmission)
	s.router.GET("/documentos", s.listPublicDocuments)
	s.router.GET("/documentos/:id/descargar", s.downloadDocument)
	s.router.GET("/archivos/:kind/:id", s.serveAttachment)

	// Back-office (JWT + operator role required)
	admin := s.router.Group("/admin")
	admin.Use(JWTAuthMiddleware(s.db, s.logger), OperatorMiddleware(s.logger))
	{
		admin.GET("/comunicados", s.listAnnouncements)
		admin.GET("/comunicados/:id", s.getAnnouncement)
		admin.POST("/comunicados", s.createAnnouncement)
		admin.PUT("/comunicados/:id", s.updateAnnouncement)
		admin.DELETE("/comunicados/:id", s.deleteAnnouncement)

		admin.GET("/convocatorias", s.listPostings)
		admin.GET("/convocatorias/:id", s.getPublicPosting)
		admin.POST("/convocatorias", s.createPosting)
		admin.PUT("/convocatorias/:id", s.updatePosting)
		admin.DELETE("/convocatorias/:id", s.deletePosting)

		admin.GET("/tramites", s.listSubmissions)
		admin.GET("/tramites/estadisticas", s.submissionStats)
		admin.GET("/tramites/:id", s.getSubmission)
		admin.PATCH("/tramites/:id/estado", s.changeSubmissionStatus)

		admin.GET("/documentos", s.listDocuments)
		admin.GET("/documentos/:id", s.getDocument)
		admin.POST("/documentos", s.createDocument)
		admin.PUT("/documentos/:id", s.updateDocument)
		admin.DELETE("/documentos/:id", s.deleteDocument)

		// User management (admin only)
		userRoutes := admin.Group("/usuarios")
		userRoutes.Use(AdminOnlyMiddleware(s.logger))
		{
			userRoutes.GET("", s.listUsers)
			userRoutes.POST("", s.createUser)
			userRoutes.PUT("/:id", s.updateUser)
			userRoutes.DELETE("/:id", s.deleteUser)
		}
	}
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", time.Since(start)).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")
	}
}

// @Router /health [get]
// @Success 200 {object} map[string]interface{}
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "ugel-api",
		"version":   s.version,
	})
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// GetDB returns the database connection for use by workers
func (s *Server) GetDB() *gorm.DB {
	return s.db
}

// Start starts the HTTP server and blocks until SIGINT/SIGTERM
func (s *Server) Start() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{
		Addr:              s.config.HTTP.Address,
		Handler:           s.router,
		ReadTimeout:       60 * time.Second, // uploads up to MaxUploadSize
		WriteTimeout:      60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", srv.Addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-sigChan:
		s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")
	case err := <-errChan:
		s.logger.Error().Err(err).Msg("HTTP server error")
		return err
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	return s.Close()
}

// Close releases the queue client and flushes the database
func (s *Server) Close() error {
	for _, closeFn := range s.closers {
		if err := closeFn(); err != nil {
			s.logger.Warn().Err(err).Msg("Error closing dependency")
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			s.logger.Error().Err(err).Msg("Error closing database")
			return err
		}
		s.logger.Info().Msg("Database closed successfully")
	}
	return nil
}
