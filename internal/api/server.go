package api

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/user/serpclick/internal/run"
)

// Server exposes read-only run status and metrics while a run executes.
// It never mutates the run; the keyword loop stays strictly sequential.
type Server struct {
	httpServer *http.Server
	tracker    *run.Tracker
	logger     *zap.Logger
}

func NewServer(addr string, tracker *run.Tracker, gatherer prometheus.Gatherer, logger *zap.Logger) *Server {
	s := &Server{tracker: tracker, logger: logger}
	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.setupRouter(gatherer),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
