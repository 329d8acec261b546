package web

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/oklog/ulid/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"matebot-telegram/internal/config"
	"matebot-telegram/internal/domain/model"
	"matebot-telegram/internal/infra/logging"
	"matebot-telegram/internal/infra/metrics"
	"matebot-telegram/internal/usecase"
)

// Server receives push notifications from the core API and feeds them into
// the event dispatcher. It also exposes health and metrics endpoints.
type Server struct {
	cfg        config.CallbackConfig
	dispatcher *usecase.EventDispatcher
	log        *zerolog.Logger
	srv        *http.Server
}

func NewServer(cfg config.CallbackConfig, dispatcher *usecase.EventDispatcher, logger *zerolog.Logger) *Server {
	s := &Server{
		cfg:        cfg,
		dispatcher: dispatcher,
		log:        logger,
	}
	s.srv = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Address, cfg.Port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())
	r.Post("/", s.handleCallback)
	return r
}

// ListenAndServe blocks until the server fails or Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.log.Info().Str("addr", s.srv.Addr).Msg("Starting callback server")
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	ctx := logging.WithTraceID(r.Context(), ulid.Make().String())
	log := logging.With(ctx, s.log)

	if !s.authorized(r) {
		metrics.IncCallbackRejected()
		log.Warn().Str("remote", r.RemoteAddr).Msg("Rejected callback request with bad credentials")
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	var notification model.EventsNotification
	if err := dec.Decode(&notification); err != nil {
		metrics.IncCallbackRejected()
		log.Warn().Err(err).Msg("Rejected malformed callback payload")
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	if notification.Number != len(notification.Events) {
		log.Warn().Int("number", notification.Number).Int("events", len(notification.Events)).
			Msg("Callback event count mismatch")
	}

	log.Debug().Int("events", len(notification.Events)).Msg("Dispatching callback events")
	s.dispatcher.Dispatch(ctx, notification.Events)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) authorized(r *http.Request) bool {
	if s.cfg.SharedSecret == "" {
		return true
	}
	auth := r.Header.Get("Authorization")
	parts := strings.SplitN(auth, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return false
	}
	return parts[1] == s.cfg.SharedSecret
}
