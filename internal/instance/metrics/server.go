package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/Iron-Ham/claudia/internal/logging"
)

// Server serves /metrics for a Recorder.
type Server struct {
	srv    *http.Server
	logger *logging.Logger
}

// NewServer creates a metrics server listening on addr.
func NewServer(addr string, rec *Recorder, logger *logging.Logger) *Server {
	if logger == nil {
		logger = logging.NopLogger()
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", rec.Handler())

	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		},
		logger: logger.WithComponent("metrics"),
	}
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.srv.Addr
}

// ListenAndServe blocks serving metrics until Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.logger.Info("metrics server listening", "addr", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		s.logger.Error("metrics server failed", "error", err.Error())
		return err
	}
	return nil
}

// Shutdown stops the server, waiting for in-flight scrapes until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}
