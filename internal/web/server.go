package web

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	spotifyauth "github.com/zmb3/spotify/v2/auth"

	"github.com/metalstats/metalstats/internal/canvas"
	"github.com/metalstats/metalstats/internal/ratelimit"
	"github.com/metalstats/metalstats/internal/showcase"
	"github.com/metalstats/metalstats/internal/topitems"
)

// DefaultAddr is the default server address.
const DefaultAddr = "127.0.0.1:8080"

// ServerConfig holds server configuration.
type ServerConfig struct {
	Addr         string
	ClientID     string
	ClientSecret string
	RedirectURL  string
	DatabaseURL  string
	ImagesDir    string
	Version      string
	TemplatesFS  fs.FS
	StaticFS     fs.FS
	Logger       *slog.Logger
}

// Server is the HTTP server for the web application.
type Server struct {
	router   chi.Router
	server   *http.Server
	store    *showcase.Store
	handlers *Handlers
	logger   *slog.Logger
}

// NewServer wires the full pipeline: OAuth, sessions, aggregation service,
// cover fetcher, composer, rate limiter and showcase store.
func NewServer(ctx context.Context, cfg ServerConfig) (*Server, error) {
	auth := spotifyauth.New(
		spotifyauth.WithClientID(cfg.ClientID),
		spotifyauth.WithClientSecret(cfg.ClientSecret),
		spotifyauth.WithRedirectURL(cfg.RedirectURL),
		spotifyauth.WithScopes(spotifyauth.ScopeUserTopRead),
	)

	templates, err := NewTemplates(cfg.TemplatesFS)
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	settings := canvas.DefaultSettings()

	fetcher, err := canvas.NewFetcher(cfg.StaticFS, settings, cfg.Logger)
	if err != nil {
		return nil, fmt.Errorf("creating cover fetcher: %w", err)
	}

	composer, err := canvas.NewComposer(cfg.StaticFS, settings)
	if err != nil {
		return nil, fmt.Errorf("creating canvas composer: %w", err)
	}

	store, err := showcase.New(ctx, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("opening showcase store: %w", err)
	}

	images, err := showcase.NewImageDir(cfg.ImagesDir)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("preparing images directory: %w", err)
	}

	handlers := NewHandlers(HandlersConfig{
		Auth:      auth,
		Refresher: newOAuthRefresher(cfg.ClientID, cfg.ClientSecret),
		Sessions:  NewSessionStore(),
		Templates: templates,
		Top:       topitems.NewService(),
		Fetcher:   fetcher,
		Composer:  composer,
		Limiter:   ratelimit.New(ratelimit.DefaultWindow, ratelimit.DefaultRequests),
		Store:     store,
		Images:    images,
		Logger:    cfg.Logger,
		Version:   cfg.Version,
	})

	router := chi.NewRouter()

	s := &Server{
		router:   router,
		store:    store,
		handlers: handlers,
		logger:   cfg.Logger,
	}

	s.setupMiddleware()
	s.setupRoutes(cfg.StaticFS, images.Path())

	s.server = &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// setupMiddleware configures middleware for the router.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(requestLogger(s.logger))
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))
}

// setupRoutes configures routes for the application.
func (s *Server) setupRoutes(staticFS fs.FS, imagesDir string) {
	// Static assets and published images
	s.router.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(staticFS))))
	s.router.Handle("/images/*", http.StripPrefix("/images/", http.FileServer(http.Dir(imagesDir))))

	// Pages
	s.router.Get("/", s.handlers.Home)
	s.router.Get("/about", s.handlers.About)
	s.router.Get("/po-tos", s.handlers.ShowcaseGallery)
	s.router.Get("/healthcheck", s.handlers.Healthcheck)

	// Auth routes
	s.router.Get("/auth/login", s.handlers.Login)
	s.router.Get("/callback", s.handlers.Callback)
	s.router.Post("/auth/logout", s.handlers.Logout)

	// Report card
	s.router.Get("/top", s.handlers.TopItems)
	s.router.Get("/top-grid", s.handlers.TopGrid)

	// Showcase feed
	s.router.Get("/showcase", s.handlers.ShowcaseFeed)
	s.router.Post("/showcase", s.handlers.PublishShowcase)
}

// requestLogger logs one line per request through the shared slog handle.
func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			logger.Info("request",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", ww.Status()),
				slog.Duration("duration", time.Since(start)),
				slog.String("request_id", middleware.GetReqID(r.Context())),
			)
		})
	}
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	s.logger.Info("starting server", slog.String("addr", s.server.Addr))
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	defer s.store.Close()
	return s.server.Shutdown(ctx)
}

// Run starts the server and handles graceful shutdown on interrupt signals.
func (s *Server) Run() error {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	errCh := make(chan error, 1)
	go func() {
		if err := s.Start(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-stop:
		s.logger.Info("shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	s.logger.Info("server stopped")
	return nil
}
