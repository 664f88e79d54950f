package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

const (
	readTimeout  = 30 * time.Second
	writeTimeout = 60 * time.Second
)

// Server accepts the sync protocol's inbound requests on the group's
// shared port. Requests may arrive at any time, including mid-round;
// they contend with the sync workers only on the file set's own lock.
type Server struct {
	server *http.Server
}

func New(port int, h *Handler) *Server {
	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%d", port),
			Handler:      SetupRoutes(h),
			ReadTimeout:  readTimeout,
			WriteTimeout: writeTimeout,
		},
	}
}

// Start blocks serving requests until Stop is called.
func (s *Server) Start() error {
	slog.Info("http server start", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	slog.Info("http server stopped")
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}
