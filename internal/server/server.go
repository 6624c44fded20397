package server

import (
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/alfagnish/usersvc/internal/config"
	"github.com/alfagnish/usersvc/internal/events"
	"github.com/alfagnish/usersvc/internal/handlers"
	"github.com/alfagnish/usersvc/internal/proxy"
	"github.com/alfagnish/usersvc/internal/users"
	"github.com/alfagnish/usersvc/internal/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// New creates a fully-configured chi router with all route groups,
// middleware, and handlers wired together. The store is shared by every
// handler and must already be open.
func New(cfg *config.Config, store users.Store, hub *events.Hub) (http.Handler, error) {
	r := chi.NewRouter()

	// ── Middleware ───────────────────────────────────────────
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		MaxAge:         300,
	}))
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	// ── Handlers ────────────────────────────────────────────
	usersH := handlers.NewUsersHandler(store, hub, cfg.StrictValidation)
	eventsH := handlers.NewEventsHandler(hub)
	systemH := handlers.NewSystemHandler(store, cfg.StrictValidation)

	// ── Route groups ────────────────────────────────────────
	r.Route("/users", usersH.Routes)
	r.Route("/ws", eventsH.Routes)
	r.Route("/healthz", systemH.Routes)

	// ── Browser client ──────────────────────────────────────
	if cfg.FrontendURL != "" {
		frontend, err := proxy.NewFrontendProxy(cfg.FrontendURL)
		if err != nil {
			return nil, err
		}
		r.Handle("/*", frontend)
	} else {
		r.Handle("/*", web.Handler())
	}

	return r, nil
}

// requestLogger is a simple middleware that logs each HTTP request with
// method, path, status code, and duration.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		// Only log API requests to reduce noise from static file serving.
		if !isAPIPath(r.URL.Path) {
			return
		}
		status := ww.Status()
		if status == 0 {
			status = 200
		}
		log.Printf("[%s] %s %s %d %s",
			middleware.GetReqID(r.Context()),
			r.Method,
			r.URL.Path,
			status,
			time.Since(start).Round(time.Millisecond),
		)
	})
}

func isAPIPath(p string) bool {
	return p == "/users" || strings.HasPrefix(p, "/users/") || p == "/healthz"
}
