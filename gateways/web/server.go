// Package web wires the REST gateway of the meetings service.
package web

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	config "github.com/attendly/backend/config/meetings"
	"github.com/attendly/backend/gateways/web/handler"
	"github.com/attendly/backend/pkg/json"
	"github.com/attendly/backend/pkg/metrics"
)

const requestsPerMinute = 120

type Server struct {
	cfg     *config.Config
	log     *slog.Logger
	handler *handler.Handler
	metrics *metrics.Metrics
}

func New(cfg *config.Config, log *slog.Logger, h *handler.Handler, m *metrics.Metrics) *Server {
	return &Server{
		cfg:     cfg,
		log:     log,
		handler: h,
		metrics: m,
	}
}

func (s *Server) router() http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	router.Use(s.handler.RateLimit(requestsPerMinute))

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		json.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	router.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	router.Route("/api/v1", func(api chi.Router) {
		api.Route("/auth", func(auth chi.Router) {
			auth.Post("/signup", s.handler.Signup)
			auth.Post("/login", s.handler.Login)
			auth.Get("/me", s.handler.Me)
		})

		api.Group(func(private chi.Router) {
			private.Use(s.handler.Authenticate)

			private.Route("/meetings", func(meetings chi.Router) {
				meetings.Post("/upload", s.handler.UploadMeeting)
				meetings.Get("/", s.handler.ListMeetings)
				meetings.Get("/stats", s.handler.MeetingStats)
				meetings.Get("/{id}", s.handler.GetMeeting)
				meetings.Patch("/{id}", s.handler.UpdateMeeting)
				meetings.Delete("/{id}", s.handler.DeleteMeeting)

				meetings.Get("/{id}/transcription", s.handler.GetMeetingTranscription)
				meetings.Get("/{id}/transcription/stats", s.handler.TranscriptionStats)
				meetings.Get("/{id}/action-items", s.handler.ListActionItems)
			})

			private.Route("/transcriptions", func(transcriptions chi.Router) {
				transcriptions.Get("/{id}", s.handler.GetTranscription)
				transcriptions.Get("/{id}/segments", s.handler.ListChatSegments)
				transcriptions.Delete("/{id}", s.handler.DeleteTranscription)
			})

			private.Route("/action-items", func(items chi.Router) {
				items.Post("/", s.handler.CreateActionItem)
				items.Put("/{id}", s.handler.UpdateActionItem)
				items.Delete("/{id}", s.handler.DeleteActionItem)
			})
		})
	})

	return router
}

// Start serves HTTP until ctx is cancelled or the listener fails, then shuts
// down gracefully.
func (s *Server) Start(ctx context.Context) error {
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.cfg.Port),
		Handler:      s.router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		s.log.Info("web gateway started", "address", srv.Addr)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		s.log.Info("start shutdown")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			srv.Close()
			return fmt.Errorf("failed to gracefully shutdown server: %w", err)
		}
	}

	return nil
}
