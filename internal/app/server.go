// File: internal/app/server.go
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"green_planet_backend/internal/auth"
	"green_planet_backend/internal/blog"
	"green_planet_backend/internal/common"
	"green_planet_backend/internal/config"
	"green_planet_backend/internal/donation"
	"green_planet_backend/internal/jobs"
	"green_planet_backend/internal/middleware"
	"green_planet_backend/internal/platform/elasticsearch"
	"green_planet_backend/internal/product"
	"green_planet_backend/internal/shared"
	"green_planet_backend/internal/user"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	httpServer *http.Server
	router     *gin.Engine
	cfg        *config.Config
	logger     *zap.Logger

	claimExpiryJob *jobs.ClaimExpiryJob

	// Exposed for startup tasks in main.
	ESClient  *elasticsearch.ESClientWrapper
	AppLogger *zap.Logger
}

// NewServer wires middleware, routes and the HTTP server together.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	tokenService shared.TokenService,
	authHandler *auth.Handler,
	userHandler *user.Handler,
	productHandler *product.Handler,
	blogHandler *blog.Handler,
	donationHandler *donation.Handler,
	claimExpiryJob *jobs.ClaimExpiryJob,
	esClient *elasticsearch.ESClientWrapper,
) (*Server, error) {
	gin.SetMode(cfg.GinMode)
	router := gin.New()

	router.Use(middleware.ZapLogger(logger))
	router.Use(middleware.ErrorHandler(logger))
	router.Use(gin.Recovery())

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.AllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"}
	corsConfig.AllowCredentials = true
	corsConfig.ExposeHeaders = []string{"Content-Length", "X-Request-ID"}
	router.Use(cors.New(corsConfig))

	authMW := middleware.AuthMiddleware(tokenService, logger.Named("AuthMiddleware"))
	adminRoleMW := middleware.RoleAuthMiddleware(common.RoleAdmin)

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "UP", "message": "Green Planet API is healthy!"})
	})

	// Uploaded images are served straight from disk.
	router.Static("/uploads", cfg.UploadDir)

	api := router.Group("/api")
	authHandler.RegisterRoutes(api, authMW)
	userHandler.RegisterRoutes(api, authMW)
	productHandler.RegisterRoutes(api, authMW)
	blogHandler.RegisterRoutes(api, authMW)
	donationHandler.RegisterRoutes(api, authMW, adminRoleMW)

	addr := fmt.Sprintf("%s:%s", cfg.ServerHost, cfg.ServerPort)
	httpServer := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		httpServer:     httpServer,
		router:         router,
		cfg:            cfg,
		logger:         logger,
		claimExpiryJob: claimExpiryJob,
		ESClient:       esClient,
		AppLogger:      logger,
	}, nil
}

// Start launches the background jobs and the HTTP listener. It blocks until
// the server stops.
func (s *Server) Start() error {
	if s.claimExpiryJob != nil {
		if err := s.claimExpiryJob.SetupAndStart(); err != nil {
			s.logger.Error("Failed to start claim sweep job", zap.Error(err))
		}
	}

	s.logger.Info("HTTP Server starting",
		zap.String("address", s.httpServer.Addr),
		zap.String("gin_mode", s.cfg.GinMode),
	)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		s.logger.Error("Failed to start HTTP server", zap.Error(err))
		return err
	}
	s.logger.Info("HTTP Server stopped")
	return nil
}

// Shutdown stops background jobs and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Attempting graceful server shutdown...")
	if s.claimExpiryJob != nil {
		s.claimExpiryJob.Stop()
	}
	return s.httpServer.Shutdown(ctx)
}
