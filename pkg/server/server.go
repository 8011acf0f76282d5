package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "outagewatch/docs" // swagger docs
	"outagewatch/pkg/config"
	"outagewatch/pkg/handlers"
	"outagewatch/pkg/logger"
	"outagewatch/pkg/middleware"
	"outagewatch/pkg/monitor"
	"outagewatch/pkg/scheduler"
)

// Server constants
const (
	DefaultReadTimeout  = 30 * time.Second
	DefaultWriteTimeout = 6 * time.Minute // outlasts a forced check
	DefaultIdleTimeout  = 120 * time.Second
)

// Config holds HTTP server configuration
type Config struct {
	Address   string
	Port      int
	Config    *config.Config
	Monitor   *monitor.Monitor
	Snapshots handlers.SnapshotLister
	// Gatherer backs /metrics; nil disables the endpoint.
	Gatherer prometheus.Gatherer
}

// HTTPServer represents the HTTP server component
type HTTPServer struct {
	server     *http.Server
	router     *gin.Engine
	config     *Config
	ctx        context.Context
	handlerSvc *handlers.HandlerService
}

// NewHTTPServer creates a new HTTP server instance
func NewHTTPServer(ctx context.Context, cfg *Config) (*HTTPServer, error) {
	if cfg.Monitor == nil {
		return nil, errors.New("http server needs a monitor")
	}
	logger.Info("Initializing HTTP server", zap.String("address", cfg.Address), zap.Int("port", cfg.Port))

	if cfg.Config == nil || cfg.Config.App == nil || !cfg.Config.App.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}

	server := &HTTPServer{
		router:     gin.New(),
		config:     cfg,
		ctx:        ctx,
		handlerSvc: handlers.NewHandlerService(ctx, cfg.Config, cfg.Monitor, cfg.Snapshots),
	}

	server.setupRoutes()

	addr := fmt.Sprintf("%s:%d", cfg.Address, cfg.Port)
	server.server = &http.Server{
		Addr:         addr,
		Handler:      server.router,
		ReadTimeout:  DefaultReadTimeout,
		WriteTimeout: DefaultWriteTimeout,
		IdleTimeout:  DefaultIdleTimeout,
		BaseContext:  func(_ net.Listener) context.Context { return ctx },
	}

	logger.Info("HTTP server initialized", zap.String("listen_addr", addr))
	return server, nil
}

// SetScheduler sets the scheduler reference in the handler service
func (s *HTTPServer) SetScheduler(sched *scheduler.TaskScheduler) {
	s.handlerSvc.SetScheduler(sched)
}

// Handler exposes the router, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.router
}

// setupRoutes configures all HTTP routes
func (s *HTTPServer) setupRoutes() {
	s.addMiddleware()

	s.router.GET("/health", s.handlerSvc.HealthCheck)

	if s.config.Gatherer != nil {
		path := "/metrics"
		if s.config.Config != nil && s.config.Config.Metrics != nil && s.config.Config.Metrics.Path != "" {
			path = s.config.Config.Metrics.Path
		}
		s.router.GET(path, gin.WrapH(promhttp.HandlerFor(s.config.Gatherer, promhttp.HandlerOpts{})))
	}

	s.router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	s.setupAPIRoutes()

	logger.Info("HTTP routes configured")
}

// Start starts the HTTP server and blocks until it stops.
func (s *HTTPServer) Start() error {
	logger.Info("Starting HTTP server", zap.String("addr", s.server.Addr))

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the HTTP server
func (s *HTTPServer) Shutdown(ctx context.Context) error {
	logger.Info("Shutting down HTTP server")

	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("HTTP server shutdown failed: %w", err)
	}

	return nil
}

// addMiddleware adds all middleware to the router
func (s *HTTPServer) addMiddleware() {
	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = append(corsCfg.AllowHeaders, middleware.RequestIDHeader)
	corsCfg.ExposeHeaders = []string{middleware.RequestIDHeader}

	s.router.Use(
		middleware.RequestID(),
		middleware.GinZapLogger(),
		middleware.Recovery(),
		middleware.ErrorHandler(),
		cors.New(corsCfg),
	)
}

// setupAPIRoutes configures API v1 routes
func (s *HTTPServer) setupAPIRoutes() {
	api := s.router.Group("/api/v1")

	s.setupSystemRoutes(api)
	s.setupOperatorRoutes(api)
	s.setupSchedulerRoutes(api)
}

// setupSystemRoutes configures system endpoints
func (s *HTTPServer) setupSystemRoutes(api *gin.RouterGroup) {
	api.GET("/status", s.handlerSvc.GetStatus)
	api.GET("/config", s.handlerSvc.GetAppConfig)
	api.GET("/snapshots", s.handlerSvc.GetSnapshots)
}

// setupOperatorRoutes configures the endpoints used to drive the browser by hand
func (s *HTTPServer) setupOperatorRoutes(api *gin.RouterGroup) {
	clickRate, clickBurst := 2.0, 5
	if cfg := s.config.Config; cfg != nil && cfg.Server != nil {
		if cfg.Server.ClickRate > 0 {
			clickRate = cfg.Server.ClickRate
		}
		if cfg.Server.ClickBurst > 0 {
			clickBurst = cfg.Server.ClickBurst
		}
	}

	api.GET("/screenshot", s.handlerSvc.GetScreenshot)
	api.POST("/click", middleware.RateLimit(clickRate, clickBurst), s.handlerSvc.Click)
	api.GET("/init", s.handlerSvc.InitSession)
	api.POST("/init", s.handlerSvc.InitSession)
	api.GET("/restart", s.handlerSvc.RestartSession)
	api.POST("/restart", s.handlerSvc.RestartSession)
	api.POST("/cookies/clear", s.handlerSvc.ClearCookies)
	api.POST("/check", s.handlerSvc.ForceCheck)
}

// setupSchedulerRoutes configures scheduler endpoints
func (s *HTTPServer) setupSchedulerRoutes(api *gin.RouterGroup) {
	api.GET("/scheduler/status", s.handlerSvc.GetSchedulerStatus)
	api.GET("/scheduler/jobs", s.handlerSvc.GetScheduledJobs)
}
