// Package server assembles the HTTP surface: middleware chain, module
// routes, health, and metrics.
package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	audithandler "custos/internal/audit/handler"
	"custos/internal/platform/middleware"
	producthandler "custos/internal/product/handler"
)

type Deps struct {
	Logger   *slog.Logger
	Products *producthandler.Handler
	Audit    *audithandler.Handler
	Tokens   middleware.TokenValidator
}

func NewRouter(deps Deps) chi.Router {
	r := chi.NewRouter()
	r.Use(
		middleware.RequestID,
		middleware.RequestTime,
		middleware.Recovery(deps.Logger),
		middleware.Logger(deps.Logger),
	)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	deps.Products.Register(r, middleware.RequireAuth(deps.Tokens))
	deps.Audit.Register(r)
	return r
}
