package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/RiBaSoOrg/BasketService/internal/service"
	"github.com/RiBaSoOrg/BasketService/pkg/health"
	"github.com/RiBaSoOrg/BasketService/pkg/middleware"
)

// NewRouter creates a chi router with all basket service routes registered.
func NewRouter(
	basketService *service.BasketService,
	healthHandler *health.Handler,
	logger *slog.Logger,
	corsOrigin string,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.CORS(corsOrigin))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("basket"))
	r.Use(middleware.Tracing("basket"))
	r.Use(middleware.RequestLogger(logger))

	// Health check and metrics endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	// Basket API endpoints
	basketHandler := NewBasketHandler(basketService, logger)

	r.Route("/api/v1/baskets", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/", basketHandler.CreateBasket)
		r.Get("/user/{userID}", basketHandler.GetBasketIDForUser)

		r.Route("/{basketID}", func(r chi.Router) {
			r.Get("/", basketHandler.GetBasket)
			r.Delete("/", basketHandler.DeleteBasket)
			r.Get("/total", basketHandler.GetTotalCost)
			r.Post("/items", basketHandler.AddItem)
			r.Get("/items/{itemID}", basketHandler.GetItem)
			r.Delete("/items/{itemID}", basketHandler.RemoveItem)
		})
	})

	return r
}
