package httpserver

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"chatdeck/services/inbox-sync/internal/config"
	"chatdeck/services/inbox-sync/internal/engine"
	"chatdeck/services/inbox-sync/internal/infrastructure/auth"
	"chatdeck/services/inbox-sync/internal/interfaces/httpserver/handlers"
	"chatdeck/services/inbox-sync/internal/interfaces/httpserver/middlewares"
	"chatdeck/services/inbox-sync/internal/interfaces/httpserver/routes"
)

// HTTPServer is the HTTP server for the inbox-sync API.
type HTTPServer struct {
	cfg         *config.Config
	engine      *gin.Engine
	log         zerolog.Logger
	handlerProv *handlers.Provider
	routeProv   *routes.Provider
}

// New creates a new HTTP server.
func New(
	cfg *config.Config,
	log zerolog.Logger,
	service handlers.ChatService,
	visibility handlers.VisibilityReporter,
	capability engine.CapabilitySource,
	authValidator *auth.Validator,
) *HTTPServer {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	ginEngine := gin.New()
	ginEngine.Use(gin.Recovery())

	// Apply middlewares in order
	ginEngine.Use(middlewares.RequestID())
	ginEngine.Use(middlewares.Tracing(cfg.ServiceName))
	ginEngine.Use(middlewares.Metrics())
	ginEngine.Use(middlewares.CORS())
	ginEngine.Use(middlewares.RequestLoggerWithLogger(log))

	// Public routes (no auth)
	registerCoreRoutes(ginEngine, cfg)

	handlerProvider := handlers.NewProvider(service, visibility, capability, log)
	routeProvider := routes.NewProvider(handlerProvider, authValidator)

	routeProvider.Register(ginEngine)

	return &HTTPServer{
		cfg:         cfg,
		engine:      ginEngine,
		log:         log,
		handlerProv: handlerProvider,
		routeProv:   routeProvider,
	}
}

// Run starts the HTTP server and blocks until context is cancelled.
func (s *HTTPServer) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:    s.cfg.Addr(),
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.Addr()).Msg("HTTP server listening")
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error().Err(err).Msg("HTTP server error")
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		s.log.Info().Msg("context cancelled, shutting down HTTP server")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	return nil
}

func registerCoreRoutes(engine *gin.Engine, cfg *config.Config) {
	engine.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"service": cfg.ServiceName,
			"status":  "ok",
		})
	})

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})

	engine.GET("/readyz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})

	// Prometheus metrics endpoint
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
