package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pribylovaa/local-auth/internal/metrics"
	apierrors "github.com/pribylovaa/local-auth/internal/transport/http/errors"
	"github.com/pribylovaa/local-auth/internal/transport/http/handlers"
	"github.com/pribylovaa/local-auth/internal/transport/http/middleware"
)

// Options: параметры сборки HTTP-роутера.
type Options struct {
	Logger   *slog.Logger
	Timeout  time.Duration
	BasePath string // например, "/api"; пустой регистрирует роуты на корне.

	// Metrics: коллекторы; nil отключает метрики запросов.
	Metrics *metrics.Metrics
	// MetricsHandler обслуживает /metrics; при nil эндпойнт не регистрируется.
	MetricsHandler http.Handler
	// Ready: проверка готовности для /healthz.
	Ready func(ctx context.Context) error
}

// NewRouter собирает http.Handler с chi и подключёнными middleware/роутами.
func NewRouter(svc handlers.AuthService, verifier middleware.TokenVerifier, opts Options) http.Handler {
	root := chi.NewRouter()

	// Middleware (внешний -> внутренний).
	root.Use(
		middleware.RequestID(),          // X-Request-Id нужен и логам, и телу ошибки
		middleware.Logging(opts.Logger), // request-scoped логгер в контексте
		opts.Metrics.Middleware,         // снаружи Recover: паники учитываются как 500
		middleware.Recover(),            // паника -> 500 с уже готовым логгером
	)

	root.NotFound(func(w http.ResponseWriter, r *http.Request) {
		apierrors.WriteError(w, r, apierrors.ErrNotFound)
	})
	root.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		apierrors.WriteError(w, r, apierrors.ErrMethodNotAllowed)
	})

	// Служебные эндпойнты идут без таймаута и базового пути.
	root.Get("/livez", handlers.Livez)
	root.Get("/healthz", handlers.Healthz(opts.Ready))
	if opts.MetricsHandler != nil {
		root.Handle("/metrics", opts.MetricsHandler)
	}

	h := handlers.New(svc, opts.Metrics)

	routes := func(r chi.Router) {
		r.Use(middleware.Timeout(opts.Timeout))
		registerRoutes(r, h, verifier)
	}

	if opts.BasePath != "" {
		root.Route(opts.BasePath, routes)
		return root
	}

	root.Group(routes)
	return root
}

// registerRoutes: единая точка регистрации эндпойнтов аутентификации.
func registerRoutes(r chi.Router, h *handlers.Handlers, verifier middleware.TokenVerifier) {
	r.Post("/auth/signup", h.SignUp)
	r.Post("/auth/login", h.SignIn)

	r.With(middleware.RequireRefresh(verifier)).Post("/auth/refresh", h.Refresh)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAccess(verifier))
		r.Post("/auth/logout", h.SignOut)
		r.Get("/auth/me", h.Me)
	})
}
