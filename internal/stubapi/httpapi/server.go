// Package httpapi serves the stub clinical coding API over HTTP with gin.
package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/dmitrijs2005/codemap/internal/logging"
	"github.com/dmitrijs2005/codemap/internal/stubapi/codes"
	"github.com/dmitrijs2005/codemap/internal/stubapi/users"
	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 5 * time.Second

type Server struct {
	address string
	users   *users.Service
	codes   *codes.Catalogue
	logger  logging.Logger
	latency time.Duration
}

func NewServer(address string, l logging.Logger, us *users.Service, cs *codes.Catalogue, latency time.Duration) *Server {
	return &Server{
		address: address,
		logger:  l.With("module", "http_server"),
		users:   us,
		codes:   cs,
		latency: latency,
	}
}

// Handler builds the gin engine with every route registered.
func (s *Server) Handler() http.Handler {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(loggingMiddleware(s.logger))
	if s.latency > 0 {
		engine.Use(latencyMiddleware(s.latency))
	}
	engine.NoRoute(func(c *gin.Context) {
		respondError(c, http.StatusNotFound, "NOT_FOUND", "no route for "+c.Request.Method+" "+c.Request.URL.Path)
	})

	authGroup := engine.Group("/auth")
	authGroup.POST("/login", s.login)
	authGroup.POST("/refresh", s.refresh)
	authGroup.POST("/logout", s.logout)

	secured := engine.Group("/codes")
	secured.Use(s.accessTokenMiddleware())
	secured.GET("", s.listCodes)
	secured.GET("/search", s.searchCodes)
	secured.GET("/:id", s.getCode)
	secured.PUT("/:id", s.updateCode)
	secured.DELETE("/:id", s.deleteCode)
	secured.GET("/:id/mappings", s.codeMappings)

	return engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.address,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error(ctx, "shutdown", "error", err)
		}
	}()

	s.logger.Info(ctx, "Starting HTTP server", "address", s.address)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
