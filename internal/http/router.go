package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/MrJamesThe3rd/dunning/internal/http/auth"
	"github.com/MrJamesThe3rd/dunning/internal/http/logs"
	"github.com/MrJamesThe3rd/dunning/internal/metrics"
)

type Options struct {
	AllowedOrigins []string
	// JWTSecret protects the dashboard and the API. Empty leaves them open.
	JWTSecret string
	// PDFDir is served under /invoices/ for the dashboard's PDF links.
	PDFDir string
}

func New(opts Options, logsV1 *logs.Handler) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(metrics.Middleware)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:         300,
	}))

	router.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	router.Handle("/metrics", metrics.Handler())

	router.Group(func(r chi.Router) {
		if opts.JWTSecret != "" {
			r.Use(auth.Middleware(opts.JWTSecret))
		}

		r.Get("/", logsV1.Dashboard)

		if opts.PDFDir != "" {
			r.Handle("/invoices/*", http.StripPrefix("/invoices/", http.FileServer(http.Dir(opts.PDFDir))))
		}

		r.Route("/api/v1", func(r chi.Router) {
			r.Route("/logs", logsV1.Routes)
		})
	})

	return router
}
