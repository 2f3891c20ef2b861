package server

import (
	"log/slog"
	"net/http"
	"time"

	"firepoz-backend/internal/config"
	"firepoz-backend/internal/handler"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handlers groups every route set served by the router.
type Handlers struct {
	Health     handler.HealthHandler
	Auth       handler.AuthHandler
	Users      handler.UserHandler
	Clients    handler.PartyHandler
	Suppliers  handler.PartyHandler
	Products   handler.ProductHandler
	Categories handler.CategoryHandler
	Stock      handler.StockHandler
	Sales      handler.SaleHandler
	Dashboard  handler.DashboardHandler
	Store      handler.StoreHandler
}

// NewRouter wires HTTP routes and middleware.
func NewRouter(cfg config.Config, logger *slog.Logger, h Handlers) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggerMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(httprate.LimitByIP(cfg.RateLimit, 1*time.Minute))

	h.Health.RegisterRoutes(r)
	r.Method("GET", "/metrics", promhttp.Handler())

	r.Group(func(pr chi.Router) {
		pr.Use(middleware.AllowContentType("application/json"))
		h.Auth.RegisterRoutes(pr)
		h.Users.RegisterRoutes(pr)
		h.Clients.RegisterRoutes(pr)
		h.Suppliers.RegisterRoutes(pr)
		h.Products.RegisterRoutes(pr)
		h.Categories.RegisterRoutes(pr)
		h.Stock.RegisterRoutes(pr)
		h.Sales.RegisterRoutes(pr)
		h.Dashboard.RegisterRoutes(pr)
	})

	// whole-store operations move the full image; keep them rare
	r.Group(func(ar chi.Router) {
		ar.Use(httprate.LimitByIP(10, 1*time.Minute))
		h.Store.RegisterRoutes(ar)
	})

	return r
}
