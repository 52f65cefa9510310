// Package httpserver exposes the sermon archive over a JSON API.
package httpserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/gchung00/daily-qt/internal/archive"
	"github.com/gchung00/daily-qt/internal/config"
	"github.com/gchung00/daily-qt/internal/pagecache"
	"github.com/gchung00/daily-qt/internal/sermon"
	"github.com/gchung00/daily-qt/internal/youtube"
)

// Archive is the part of archive.Service the API serves.
type Archive interface {
	Save(ctx context.Context, date, text string, force bool) error
	Delete(ctx context.Context, date string) error
	Get(ctx context.Context, date string) (archive.Entry, error)
	Dates(ctx context.Context) ([]string, error)
	Latest(ctx context.Context) (archive.Entry, error)
	Sermons(ctx context.Context) ([]sermon.Parsed, error)
	ByBook(ctx context.Context, bookID string) ([]sermon.Parsed, error)
	Rebuild(ctx context.Context) (int, error)
}

// Videos looks up video metadata. A nil video means it does not exist.
type Videos interface {
	Metadata(ctx context.Context, id string) (*youtube.Video, error)
	MetadataList(ctx context.Context, ids []string) ([]youtube.Video, error)
}

// Deps are the collaborators behind the routes. Pages, Videos and Webhook
// are optional.
type Deps struct {
	Archive Archive
	Pages   pagecache.Cache
	Videos  Videos
	Auth    *Auth
	Webhook http.Handler
}

// Server wraps the HTTP server and its dependencies.
type Server struct {
	http   *http.Server
	logger *slog.Logger
}

// New builds the HTTP server (router, middlewares, route registration).
func New(cfg *config.HTTPConfig, d Deps, logger *slog.Logger) *Server {
	return &Server{
		http: &http.Server{
			Addr:              cfg.Listen,
			Handler:           NewRouter(cfg, d, logger),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
			IdleTimeout:       60 * time.Second,
			MaxHeaderBytes:    1 << 20,
		},
		logger: logger,
	}
}

// NewRouter returns the routed handler without a listener.
func NewRouter(cfg *config.HTTPConfig, d Deps, logger *slog.Logger) http.Handler {
	if d.Pages == nil {
		d.Pages = pagecache.Noop{}
	}
	h := &handlers{deps: d, logger: logger}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(AccessLog(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/healthz", h.health)

	if d.Webhook != nil {
		r.Method(http.MethodPost, "/telegram/webhook", d.Webhook)
	}

	r.Route("/api", func(r chi.Router) {
		if cfg.RequestTimeout > 0 {
			r.Use(middleware.Timeout(cfg.RequestTimeout))
		}

		r.Get("/sermons", h.listDates)
		r.Get("/sermons/latest", h.latest)
		r.Get("/sermons/list", h.listSermons)
		r.Get("/sermons/{date}", h.getSermon)
		r.Get("/books", h.listBooks)
		r.Post("/parse", h.parse)

		if d.Videos != nil {
			r.Get("/videos", h.videos)
			r.Get("/videos/{id}", h.video)
		}

		if d.Auth != nil {
			r.Route("/auth", func(r chi.Router) {
				r.With(d.Auth.Throttle).Post("/login", d.Auth.login)
				r.Delete("/login", d.Auth.logout)
				r.Get("/check", d.Auth.check)
			})

			r.Group(func(r chi.Router) {
				r.Use(d.Auth.RequireAdmin)
				r.Post("/sermons", h.saveSermon)
				r.Delete("/sermons/{date}", h.deleteSermon)
				r.Post("/index/rebuild", h.rebuild)
			})
		}
	})

	return r
}

// Start runs the HTTP server (blocks until error or shutdown).
func (s *Server) Start() error {
	s.logger.Info("HTTP server listening", "addr", s.http.Addr)
	err := s.http.ListenAndServe()
	// http.ErrServerClosed is expected on graceful shutdown.
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Stop gracefully shuts down the server with the provided context deadline.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("HTTP server shutting down")
	return s.http.Shutdown(ctx)
}
