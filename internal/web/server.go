// Package web serves the graduates registry API: the two-step bulk import,
// sample downloads, and basic record management.
package web

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/JonMunkholm/alumni/internal/config"
	"github.com/JonMunkholm/alumni/internal/core"
	"github.com/JonMunkholm/alumni/internal/database"
	mw "github.com/JonMunkholm/alumni/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Registry is the record store behind the graduate endpoints.
type Registry interface {
	ListGraduatesPage(ctx context.Context, limit, offset int) ([]database.Graduate, int64, error)
	GetGraduate(ctx context.Context, id int64) (database.Graduate, error)
	SoftDeleteGraduate(ctx context.Context, id int64) error
	Ping(ctx context.Context) error
}

// Server is the HTTP server for the graduates registry.
type Server struct {
	cfg      *config.Config
	service  *core.Service
	registry Registry
	router   *chi.Mux
	server   *http.Server

	apiLimiter    *rateLimiter
	importLimiter *rateLimiter
}

// NewServer wires routes and middleware. The rate limiters are nil when
// rate limiting is disabled.
func NewServer(cfg *config.Config, service *core.Service, registry Registry) *Server {
	s := &Server{
		cfg:      cfg,
		service:  service,
		registry: registry,
		router:   chi.NewRouter(),
	}
	if cfg.Rate.Enabled {
		s.apiLimiter = newRateLimiter(cfg.Rate.RequestsPerMinute, time.Minute)
		s.importLimiter = newRateLimiter(cfg.Rate.ImportLimit, time.Minute)
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(mw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(mw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(securityHeaders)
	if s.cfg.Server.WriteTimeout > 0 {
		s.router.Use(middleware.Timeout(s.cfg.Server.WriteTimeout))
	}
	if s.apiLimiter != nil {
		s.router.Use(s.rateLimit(s.apiLimiter))
	}
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(&s.cfg.Security))

		r.Route("/graduates", func(r chi.Router) {
			r.Get("/", s.handleListGraduates)

			r.Route("/import", func(r chi.Router) {
				r.Get("/sample/{format}", s.handleSample)

				r.Group(func(r chi.Router) {
					if s.importLimiter != nil {
						r.Use(s.rateLimit(s.importLimiter))
					}
					r.Post("/preview", s.handlePreview)
					r.Post("/confirm", s.handleConfirm)
				})
			})

			r.Get("/{id}", s.handleGetGraduate)
			r.Delete("/{id}", s.handleDeleteGraduate)
		})
	})
}

// Start listens on the configured address until Shutdown is called.
func (s *Server) Start() error {
	sc := s.cfg.Server
	s.server = &http.Server{
		Addr:         sc.Addr(),
		Handler:      s.router,
		ReadTimeout:  sc.ReadTimeout,
		WriteTimeout: sc.WriteTimeout,
		IdleTimeout:  sc.IdleTimeout,
	}

	slog.Info("starting server", "addr", sc.Addr())
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops accepting requests, then waits for in-flight imports to
// finish or ctx to expire.
func (s *Server) Shutdown(ctx context.Context) error {
	defer s.apiLimiter.Close()
	defer s.importLimiter.Close()

	if s.server != nil {
		if err := s.server.Shutdown(ctx); err != nil {
			return err
		}
	}
	if active := s.service.Limiter().Active(); active > 0 {
		slog.Info("waiting for imports to finish", "active", active)
	}
	return s.service.Limiter().WaitForDrain(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

type healthResponse struct {
	Status  string             `json:"status"`
	Error   string             `json:"error,omitempty"`
	Imports core.LimiterStatus `json:"imports"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{Status: "ok", Imports: s.service.Limiter().Status()}
	status := http.StatusOK
	if err := s.registry.Ping(ctx); err != nil {
		resp.Status = "unavailable"
		resp.Error = core.MapError(err).Code
		status = http.StatusServiceUnavailable
	}
	writeJSONStatus(w, status, resp)
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	writeJSONStatus(w, http.StatusOK, v)
}

// writeJSONStatus encodes v with the given status. Encoding errors are
// only logged since the header is already sent.
func writeJSONStatus(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
