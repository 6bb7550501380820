// Package server assembles the HTTP surface: the middleware stack, the API
// route table, the API docs, the health probe and the embedded frontend.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/user/landing-go/accounts"
	"github.com/user/landing-go/apperror"
	"github.com/user/landing-go/auth"
	"github.com/user/landing-go/config"
	"github.com/user/landing-go/httpio"
	"github.com/user/landing-go/logging"
	"github.com/user/landing-go/posts"
)

const healthTimeout = 2 * time.Second

// Pinger is implemented by *db.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps are the collaborators the router dispatches to.
type Deps struct {
	Accounts *accounts.Handlers
	Posts    *posts.Handlers
	Tokens   auth.TokenValidator
	DB       Pinger
	Logger   logging.Logger

	// Frontend serves every GET that no other route claims. May be nil.
	Frontend http.Handler
}

// NewRouter builds the application handler.
func NewRouter(cfg *config.ServerConfig, deps Deps) http.Handler {
	r := chi.NewRouter()

	// chi requires all middleware to be registered before any routes
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(deps.Logger))
	r.Use(Recoverer)
	r.Use(middleware.Timeout(cfg.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Get("/healthz", handleHealth(deps.DB))
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	gate := auth.Gate(deps.Tokens)

	r.Route("/api", func(r chi.Router) {
		r.Post("/accounts", deps.Accounts.HandleCreateAccount())
		r.Post("/login", deps.Accounts.HandleLogin())
		r.With(gate).Get("/accounts/me", deps.Accounts.HandleMe())

		r.Get("/posts", deps.Posts.HandleList())
		r.Get("/posts/{post_id}", deps.Posts.HandleGet())
		r.Group(func(r chi.Router) {
			r.Use(gate)
			r.Post("/posts", deps.Posts.HandleCreate())
			r.Put("/posts/{post_id}", deps.Posts.HandleUpdate())
			r.Delete("/posts/{post_id}", deps.Posts.HandleDelete())
		})

		r.NotFound(notFound)
		r.MethodNotAllowed(methodNotAllowed)
	})

	r.NotFound(frontendFallback(deps.Frontend))

	return r
}

// NewHTTPServer wraps handler in an http.Server listening on cfg.Port. The
// write timeout leaves room for a request that runs up to RequestTimeout.
func NewHTTPServer(cfg *config.ServerConfig, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// handleHealth reports 200 while the database answers a ping and 503 otherwise.
func handleHealth(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			httpio.WriteError(w, r, apperror.NewUnavailableError("database unavailable", err))
			return
		}
		httpio.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func notFound(w http.ResponseWriter, r *http.Request) {
	httpio.WriteError(w, r, apperror.NewNotFoundError("resource not found", nil))
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	httpio.WriteError(w, r, apperror.NewAppError(apperror.MethodNotAllowedError, "method not allowed", nil))
}

// frontendFallback hands unmatched GET and HEAD requests to the frontend so
// client-side routes resolve to the single-page app.
func frontendFallback(frontend http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if frontend == nil || (r.Method != http.MethodGet && r.Method != http.MethodHead) {
			notFound(w, r)
			return
		}
		frontend.ServeHTTP(w, r)
	}
}
