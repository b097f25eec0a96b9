package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dukerupert/dealfinder/internal/config"
	"github.com/dukerupert/dealfinder/internal/handler"
	"github.com/dukerupert/dealfinder/internal/linkcheck"
	"github.com/dukerupert/dealfinder/internal/middleware"
	"github.com/dukerupert/dealfinder/internal/service"
	"github.com/dukerupert/dealfinder/internal/store"
	ws "github.com/dukerupert/dealfinder/internal/websocket"
)

type Server struct {
	db          *sql.DB
	hub         *ws.Hub
	authSvc     *service.AuthService
	authH       *handler.AuthHandler
	dealH       *handler.DealHandler
	rateLimiter *middleware.RateLimiter
	corsOrigins []string
	clientIP    func(*http.Request) string
	logger      *slog.Logger
}

// New wires stores, services and handlers over db. opts are passed to both
// services; tests use them to pin the clock.
func New(db *sql.DB, cfg *config.Config, notifier service.Notifier, logger *slog.Logger, opts ...service.Option) (*Server, error) {
	hub := ws.NewHub(logger.With("component", "websocket"))

	userStore := store.NewUserStore(db)
	sessionStore := store.NewSessionStore(db)
	dealStore := store.NewDealStore(db)

	authSvc, err := service.NewAuthService(userStore, sessionStore, notifier, cfg.BcryptCost, logger.With("component", "auth"), opts...)
	if err != nil {
		return nil, err
	}
	dealSvc := service.NewDealService(dealStore, opts...)

	var checkOpts []linkcheck.Option
	if cfg.AllowPrivateLinks {
		checkOpts = append(checkOpts, linkcheck.AllowPrivateNetworks())
	}

	return &Server{
		db:          db,
		hub:         hub,
		authSvc:     authSvc,
		authH:       handler.NewAuthHandler(authSvc, cfg.Production(), logger.With("component", "auth")),
		dealH:       handler.NewDealHandler(dealSvc, linkcheck.New(checkOpts...), hub, logger.With("component", "deals")),
		rateLimiter: middleware.NewRateLimiter(cfg.AuthRateLimit, time.Minute),
		corsOrigins: cfg.CORSOrigins,
		clientIP:    middleware.ClientIP(cfg.TrustProxyHeaders),
		logger:      logger,
	}, nil
}

// AuthService returns the auth service for cleanup and shutdown.
func (s *Server) AuthService() *service.AuthService {
	return s.authSvc
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

// Hub returns the live feed hub so shutdown can disconnect subscribers.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

// Cleanup drops expired sessions and idle rate limiter entries.
func (s *Server) Cleanup(ctx context.Context) {
	n, err := s.authSvc.Cleanup(ctx)
	if err != nil {
		s.logger.Error("session cleanup", "error", err)
	} else if n > 0 {
		s.logger.Info("session cleanup", "deleted", n)
	}
	s.rateLimiter.Cleanup()
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestLogger(s.logger.With("component", "http")))
	r.Use(middleware.Recover(s.logger.With("component", "http")))
	r.Use(middleware.CORS(s.corsOrigins))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Route not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
	})

	r.Get("/health", s.healthHandler)

	requireAuth := middleware.RequireAuth(s.authSvc, s.logger.With("component", "auth"))
	optionalAuth := middleware.OptionalAuth(s.authSvc)
	rateLimited := middleware.RateLimit(s.rateLimiter, s.clientIP)

	r.Route("/api/auth", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(rateLimited)
			r.Post("/register", s.authH.Register)
			r.Post("/login", s.authH.Login)
			r.Post("/verify-email", s.authH.VerifyEmail)
			r.Post("/forgot-password", s.authH.ForgotPassword)
			r.Post("/reset-password", s.authH.ResetPassword)
		})
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/logout", s.authH.Logout)
			r.Get("/me", s.authH.Me)
		})
	})

	r.Route("/api/deals", func(r chi.Router) {
		r.Get("/live", ws.HandleWebSocket(s.hub, s.corsOrigins, s.logger.With("component", "websocket")))
		r.Get("/categories", s.dealH.Categories)
		r.Get("/categories/suggest", s.dealH.SuggestCategory)

		r.Group(func(r chi.Router) {
			r.Use(optionalAuth)
			r.Get("/", s.dealH.List)
			r.Get("/user/{userId}", s.dealH.ListByUser)
			r.Get("/{id}", s.dealH.Get)
		})
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Post("/", s.dealH.Create)
			r.Post("/verify-link", s.dealH.VerifyLink)
			r.Put("/{id}", s.dealH.Update)
			r.Delete("/{id}", s.dealH.Delete)
		})
	})

	return r
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		s.logger.Error("health check", "error", err)
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
