// Package httpapi exposes the gateway and vault over HTTP+JSON.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/dmitrijs2005/facevault/internal/logging"
	"github.com/dmitrijs2005/facevault/internal/server/health"
	"github.com/dmitrijs2005/facevault/internal/server/models"
	"github.com/dmitrijs2005/facevault/internal/server/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// AuthAPI is implemented by *services.AuthService.
type AuthAPI interface {
	Register(ctx context.Context, username, password, image string) (*models.User, error)
	Login(ctx context.Context, password, image string) (*services.LoginResult, error)
	Logout(ctx context.Context, token string) error
	Me(ctx context.Context, token string) (*models.User, error)
	VerifyFaces(ctx context.Context, imageA, imageB string) (bool, error)
}

// VaultAPI is implemented by *services.VaultService.
type VaultAPI interface {
	Create(ctx context.Context, token, name, category string, fields map[string]string) (*services.EntrySummary, error)
	List(ctx context.Context, token string) ([]*services.EntrySummary, error)
	Reveal(ctx context.Context, token, id string) (*services.EntryDetail, error)
	Delete(ctx context.Context, token, id string) error
}

// Options configures the router.
type Options struct {
	AllowedOrigins []string
	MaxBodyBytes   int64

	// TrustProxyHeaders rewrites RemoteAddr from X-Real-IP / X-Forwarded-For
	// before rate limiting. Off by default; clients control those headers.
	TrustProxyHeaders bool

	RegisterPerMinute   int
	LoginPerMinute      int
	VerifyFacePerMinute int
}

// NewRouter creates the chi router with the middleware stack and every route.
func NewRouter(auth AuthAPI, vault VaultAPI, hs *health.Service, log logging.Logger, opts Options) *chi.Mux {
	h := &Handler{
		auth:    auth,
		vault:   vault,
		health:  hs,
		log:     log.With("module", "http"),
		maxBody: opts.MaxBodyBytes,
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	if opts.TrustProxyHeaders {
		r.Use(middleware.RealIP)
	}
	r.Use(requestLogger(h.log))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.With(rateLimit(newLimiterSet(opts.RegisterPerMinute, time.Minute))).Post("/register", h.Register)
	r.With(rateLimit(newLimiterSet(opts.LoginPerMinute, time.Minute))).Post("/login", h.Login)
	r.With(rateLimit(newLimiterSet(opts.VerifyFacePerMinute, time.Minute))).Post("/verify-face", h.VerifyFace)
	r.Post("/logout", h.Logout)
	r.Get("/me", h.Me)
	r.Get("/healthz", h.Health)

	r.Route("/vault", func(r chi.Router) {
		r.Get("/", h.ListEntries)
		r.Post("/", h.CreateEntry)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.RevealEntry)
			r.Delete("/", h.DeleteEntry)
		})
	})

	return r
}

// Server runs the router on an http.Server until its context is cancelled.
type Server struct {
	srv    *http.Server
	logger logging.Logger
}

func NewServer(addr string, handler http.Handler, l logging.Logger) *Server {
	return &Server{
		srv: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: l.With("module", "http_server"),
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "Starting HTTP server", "address", s.srv.Addr)
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info(context.Background(), "Stopping HTTP server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}
