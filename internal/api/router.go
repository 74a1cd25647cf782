// Package api exposes the dispatch engine over HTTP for callers that do not
// go through the workflow engine.
package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"technician-dispatch/internal/common/logger"
	"technician-dispatch/internal/dispatch"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Matcher runs one dispatch for a request id.
type Matcher interface {
	Match(ctx context.Context, requestID string) (*dispatch.MatchResult, error)
}

// Check is a named readiness probe.
type Check struct {
	Name string
	Ping func(ctx context.Context) error
}

type Deps struct {
	Matcher Matcher
	Checks  []Check
	Logger  logger.Logger
}

func NewRouter(deps Deps) *gin.Engine {
	e := gin.New()
	e.Use(gin.Recovery(), requestLogger(deps.Logger))

	h := &healthResource{checks: deps.Checks}
	e.GET("/health", h.Health)
	e.GET("/ready", h.Ready)
	e.GET("/metrics", gin.WrapH(promhttp.Handler()))

	registerAssign(e.Group("/api/v1"), deps.Matcher, deps.Logger)
	return e
}

// Server wraps http.Server so main can start and drain it.
type Server struct {
	srv    *http.Server
	logger logger.Logger
}

func NewServer(addr string, handler http.Handler, log logger.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: log,
	}
}

// Start serves in the background. Errors other than a clean shutdown are
// sent on the returned channel.
func (s *Server) Start() <-chan error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", map[string]interface{}{"address": s.srv.Addr})
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	return errCh
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
