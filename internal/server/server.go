package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/kapu/trendwatch-go/internal/config"
	"go.uber.org/zap"
)

// Server is the dashboard HTTP surface.
type Server struct {
	server *http.Server
	router *chi.Mux
	hub    *Hub
	logger *zap.Logger
}

type Dependencies struct {
	Snapshots SnapshotProvider
	Store     SubscriberStore
	Mail      DigestSender
	Regions   []string
	DigestN   int
	Logger    *zap.Logger
}

func NewServer(cfg config.ServerConfig, deps Dependencies) *Server {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	hub := NewHub(deps.Logger)
	trendHandler := NewTrendHandler(deps.Snapshots, deps.Logger)
	subHandler := NewSubscriptionHandler(deps.Store, deps.Mail, deps.Snapshots, deps.Regions, deps.DigestN, deps.Logger)

	router.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Route("/v1", func(r chi.Router) {
			r.Route("/trends", func(r chi.Router) {
				r.Get("/", trendHandler.GetTrends)
				r.Get("/export", trendHandler.ExportCSV)
				r.Get("/top", trendHandler.GetTop)
				r.Get("/cloud", trendHandler.GetCloud)
				r.Post("/refresh", trendHandler.ForceRefresh)
			})

			r.Route("/subscriptions", func(r chi.Router) {
				r.Get("/", subHandler.ListSubscribers)
				r.Post("/", subHandler.Subscribe)
				r.Delete("/", subHandler.Unsubscribe)
			})

			r.Post("/digest", subHandler.SendDigest)
		})
	})

	router.Get("/ws", hub.ServeWS)

	return &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  120 * time.Second,
		},
		router: router,
		hub:    hub,
		logger: deps.Logger,
	}
}

// Hub exposes the refresh-event hub so the refresher can broadcast.
func (s *Server) Hub() *Hub {
	return s.hub
}

func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", zap.String("addr", s.server.Addr))
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.hub.Close()
	return s.server.Shutdown(ctx)
}
