package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"unimart/internal/config"
	"unimart/internal/handlers"
	"unimart/internal/middleware"
)

type HTTPServer struct {
	engine *gin.Engine
	server *http.Server
	log    zerolog.Logger
	cfg    *config.AppConfig
}

func NewHTTPServer(cfg *config.AppConfig, log zerolog.Logger, handlerSet handlers.HandlerSet) *HTTPServer {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.RedirectTrailingSlash = true
	engine.RedirectFixedPath = true
	engine.HandleMethodNotAllowed = true

	engine.Use(
		middleware.RequestID(log),
		middleware.Logger(log),
		middleware.Recovery(log),
		middleware.CORS(cfg.AllowCORSOrigins),
	)

	engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Not found"})
	})
	engine.NoMethod(func(c *gin.Context) {
		c.JSON(http.StatusMethodNotAllowed, gin.H{"message": "Method not allowed"})
	})

	handlerSet.Register(engine.Group("/"))

	srv := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      engine,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}

	return &HTTPServer{
		engine: engine,
		server: srv,
		log:    log,
		cfg:    cfg,
	}
}

// Handler exposes the engine, mainly for tests.
func (s *HTTPServer) Handler() http.Handler {
	return s.engine
}

func (s *HTTPServer) Start() error {
	s.log.Info().
		Str("addr", s.server.Addr).
		Msg("http server starting")

	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("listen and serve: %w", err)
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("http server shutting down")
	return s.server.Shutdown(ctx)
}
