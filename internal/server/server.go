// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the composition root: the database, the services, the handlers
// and the middleware chains are all wired here, so main.go stays minimal
// and the rest of the codebase never constructs its own dependencies.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/findteam/find-backend/internal/auth"
	"github.com/findteam/find-backend/internal/handler"
	"github.com/findteam/find-backend/internal/middleware"
	"github.com/findteam/find-backend/internal/model"
	sqliteRepo "github.com/findteam/find-backend/internal/repository/sqlite"
	"github.com/findteam/find-backend/internal/service"
)

// OAuthCredentials holds one provider's client registration.
type OAuthCredentials struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
}

// Config holds server configuration, loaded from the environment by main.
type Config struct {
	Port        int
	StaticDir   string
	DBPath      string
	JWTSecret   string
	AdminEmails string // comma-separated allowlist for ADMIN sign-ins
	Google      OAuthCredentials
	GitHub      OAuthCredentials
}

// Server owns the router and the database connection. The connection is
// closed during graceful shutdown so the WAL is flushed and the file lock
// released.
type Server struct {
	router *chi.Mux
	config Config
	logger *slog.Logger
	db     *sqliteRepo.DB
}

// New creates a Server with all dependencies wired:
// sqlite.DB → services → handlers → routes. Each layer only receives the
// interfaces it needs; handlers never touch the database directly.
func New(cfg Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if err := s.setupRoutes(); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTE STRUCTURE:
//
//	GET    /static/*                          → static files
//	GET    /auth/{provider}/{role}            → start OAuth flow (user|org|admin|login)
//	GET    /auth/{provider}/callback          → complete OAuth flow
//	POST   /auth/logout                       → clear session cookie
//	GET    /api/skills                        → public skill catalog
//	GET    /api/me                            → authenticated principal
//	/api/user/*                               → USER-only profile routes
//	/api/org/*                                → ORG-only routes
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(middleware.Logger(s.logger))

	fileServer := http.FileServer(http.Dir(s.config.StaticDir))
	s.router.Handle("/static/*", http.StripPrefix("/static/", fileServer))

	// === Auth stack ===
	tokens, err := auth.NewTokenService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	states, err := auth.NewStateService(s.config.JWTSecret)
	if err != nil {
		return fmt.Errorf("creating state service: %w", err)
	}

	providers := map[string]auth.Provider{
		"google": auth.NewGoogleProvider(
			s.config.Google.ClientID,
			s.config.Google.ClientSecret,
			s.config.Google.CallbackURL,
		),
		"github": auth.NewGitHubProvider(
			s.config.GitHub.ClientID,
			s.config.GitHub.ClientSecret,
			s.config.GitHub.CallbackURL,
		),
	}

	allowlist := auth.NewAdminAllowlist(s.config.AdminEmails)

	// === Services ===
	provisionService := service.NewProvisionService(s.db, auth.NewEmailResolver(), allowlist, s.logger)
	principalService := service.NewPrincipalService(s.db)
	profileService := service.NewProfileService(s.db, s.logger)

	// === Handlers ===
	authHandler := handler.NewAuthHandler(providers, tokens, states, provisionService, s.logger)
	userHandler := handler.NewUserHandler(profileService, s.logger)
	orgHandler := handler.NewOrgHandler(profileService, s.logger)
	publicHandler := handler.NewPublicHandler(profileService, s.logger)

	requireAuth := auth.RequireAuth(tokens, principalService)

	// === Auth routes ===
	s.router.Route("/auth", func(r chi.Router) {
		r.Get("/{provider}/callback", authHandler.HandleCallback)
		r.Get("/{provider}/{role}", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)
	})

	// === API routes ===
	s.router.Route("/api", func(r chi.Router) {
		r.Get("/skills", publicHandler.HandleSkillCatalog)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/me", authHandler.HandleMe)
		})

		r.Route("/user", func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(auth.RequireKind(model.KindUser))

			r.Post("/onboard", userHandler.HandleOnboard)

			r.Get("/skills", userHandler.HandleListSkills)
			r.Post("/skills", userHandler.HandleAddSkill)
			r.Delete("/skills/{id}", userHandler.HandleDeleteSkill)

			r.Get("/security-records", userHandler.HandleListSecurityRecords)
			r.Post("/security-records", userHandler.HandleAddSecurityRecord)
			r.Put("/security-records/{id}", userHandler.HandleUpdateSecurityRecord)
			r.Delete("/security-records/{id}", userHandler.HandleDeleteSecurityRecord)

			r.Get("/work-experiences", userHandler.HandleListWorkExperiences)
			r.Post("/work-experiences", userHandler.HandleAddWorkExperience)
			r.Put("/work-experiences/{id}", userHandler.HandleUpdateWorkExperience)
			r.Delete("/work-experiences/{id}", userHandler.HandleDeleteWorkExperience)

			r.Get("/privacy-settings", userHandler.HandlePrivacySettings)
			r.Put("/privacy-settings", userHandler.HandleSetPrivacySetting)
		})

		r.Route("/org", func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(auth.RequireKind(model.KindOrg))

			r.Post("/onboard", orgHandler.HandleOnboard)
		})
	})

	return nil
}

// Start runs the HTTP server until a shutdown signal arrives, then drains
// in-flight requests (30s budget) and closes the database.
func (s *Server) Start() error {
	defer s.db.Close()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
