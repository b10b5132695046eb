// Package status serves the controller's published snapshot over HTTP.
// It is a read-only observability surface; nothing here controls the
// repeater.
package status

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/zerolog"

	"github.com/wrxc682/repeaterd/pkg/repeater"
)

// Source provides the latest controller snapshot.
type Source interface {
	Status() repeater.Status
}

type Server struct {
	source Source
	srv    *http.Server
	logger zerolog.Logger
}

func NewServer(port int, source Source, logger zerolog.Logger) *Server {
	return &Server{
		source: source,
		srv:    &http.Server{Addr: fmt.Sprintf(":%d", port)},
		logger: logger,
	}
}

func (s *Server) Stop(ctx context.Context) {
	s.srv.Shutdown(ctx)
}

func (s *Server) Run(ctx context.Context) error {
	s.srv.Handler = s.routes()

	s.logger.Info().Str("addr", s.srv.Addr).Msg("status server listening")

	err := s.srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func (s *Server) routes() http.Handler {
	handler := httprouter.New()
	handler.GET("/status", s.handleStatus)
	handler.GET("/healthz", s.handleHealthz)
	return handler
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(s.source.Status()); err != nil {
		s.logger.Error().Err(err).Msg("failed to encode status")
	}
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok\n"))
}
