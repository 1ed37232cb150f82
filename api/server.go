// Package api provides the HTTP REST API for the document preparation
// pipeline.
package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/ragkit/docprep/pkg/chunkers"
	"github.com/ragkit/docprep/pkg/config"
	"github.com/ragkit/docprep/pkg/interfaces"
	"github.com/ragkit/docprep/pkg/vectordb"
)

// Version is the service version reported by the health endpoint
const Version = "1.0.0"

// Server is the API server instance
type Server struct {
	config   *config.Config
	logger   interfaces.Logger
	provider chunkers.EmbeddingProvider
	index    *vectordb.QdrantIndex
	router   *gin.Engine
	server   *http.Server
}

// NewServer creates an API server. provider may be nil when no embedding
// strategies are needed; index may be nil when indexing is disabled.
func NewServer(cfg *config.Config, log interfaces.Logger, provider chunkers.EmbeddingProvider, index *vectordb.QdrantIndex) *Server {
	if cfg.Logging.Level == "error" || cfg.Logging.Level == "warn" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		config:   cfg,
		logger:   log,
		provider: provider,
		index:    index,
		router:   gin.New(),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.loggingMiddleware())
	s.router.Use(s.requestIDMiddleware())

	corsConfig := cors.DefaultConfig()
	if len(s.config.Server.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = s.config.Server.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type"}
	s.router.Use(cors.New(corsConfig))
}

func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.healthCheck)

	v1 := s.router.Group("/v1")
	{
		v1.POST("/clean", s.cleanDocument)
		v1.POST("/chunk", s.chunkDocument)
		v1.GET("/strategies", s.listStrategies)
	}
}

// Router exposes the gin engine, mainly for tests
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start runs the server until the context is cancelled, then shuts down
// gracefully
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port),
		Handler:      s.router,
		ReadTimeout:  s.config.Server.ReadTimeout,
		WriteTimeout: s.config.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("starting API server", map[string]interface{}{
		"addr": s.server.Addr,
		"mode": gin.Mode(),
	})

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down API server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}
