package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/hughigh/loginserver/config"
	"github.com/hughigh/loginserver/internal/db"
	"github.com/hughigh/loginserver/internal/handlers"
	"github.com/hughigh/loginserver/internal/mq"
	"github.com/hughigh/loginserver/internal/oauth"
	"github.com/hughigh/loginserver/internal/services"
	"github.com/hughigh/loginserver/internal/store"
	"github.com/hughigh/loginserver/internal/token"
	"github.com/hughigh/loginserver/types"
)

// Server wraps the HTTP server and its long-lived resources.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	publisher  mq.Publisher
}

// New constructs a Server with all dependencies wired.
func New(ctx context.Context, cfg config.Config) (*Server, error) {
	if strings.TrimSpace(cfg.JWT.Secret) == "" {
		return nil, errors.New("JWT_SECRET is required")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	publisher, err := mq.NewPublisher(ctx, cfg.Audit)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	provider, err := oauth.NewGoogle(ctx, cfg.Google, cfg.ProviderTimeout)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	userRepo := store.NewUserRepository(dbConn)
	eventRepo := store.NewAuthEventRepository(dbConn)

	codec := token.NewCodec(cfg.JWT.Secret, cfg.JWT.TokenTTL)
	auditService := services.NewAuditService(eventRepo, publisher, cfg.Audit.Channel, logger)
	userService := services.NewUserService(userRepo)
	authService := services.NewAuthService(provider, userRepo, auditService, codec, logger)

	guard := handlers.NewSessionGuard(userService, codec)
	authHandler := handlers.NewAuthHandler(authService, cfg.Cookie, cfg.JWT.TokenTTL, frontendURL(cfg))
	adminHandler := handlers.NewAdminHandler(userService, auditService)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		middleware.Logger,
		middleware.Timeout(60*time.Second),
	)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, authHandler, guard)
	})
	router.Route("/admin", func(r chi.Router) {
		handlers.AdminRouter(r, adminHandler, guard)
	})
	router.Route("/students", func(r chi.Router) {
		r.Use(guard.RequireAuth, guard.RequireRole(types.RoleStudent))
		r.Get("/dashboard", handlers.StudentDashboard)
	})
	router.Route("/teachers", func(r chi.Router) {
		r.Use(guard.RequireAuth, guard.RequireRole(types.RoleTeacher, types.RoleAdmin))
		r.Get("/dashboard", handlers.TeacherDashboard)
	})

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		publisher:  publisher,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.publisher != nil {
		_ = s.publisher.Close()
	}
	if s.db != nil {
		_ = s.db.Close()
	}
	return s.httpServer.Close()
}

// frontendURL is the base of post-login redirect URLs: the first configured
// CORS origin.
func frontendURL(cfg config.Config) string {
	if len(cfg.CORSOrigins) > 0 {
		return strings.TrimRight(cfg.CORSOrigins[0], "/")
	}
	return ""
}
