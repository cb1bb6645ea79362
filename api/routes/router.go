package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/packfinderz-cart/api/controllers"
	"github.com/angelmondragon/packfinderz-cart/api/middleware"
	"github.com/angelmondragon/packfinderz-cart/internal/catalog"
	"github.com/angelmondragon/packfinderz-cart/pkg/config"
	"github.com/angelmondragon/packfinderz-cart/pkg/logger"
	"github.com/angelmondragon/packfinderz-cart/pkg/metrics"
)

type RouterParams struct {
	Config  *config.Config
	Logger  *logger.Logger
	Carts   controllers.CartResolver
	Catalog catalog.Reader
	// Pingers are checked by /health/ready, keyed by dependency name.
	Pingers     map[string]controllers.Pinger
	HTTPMetrics *metrics.HTTPMetrics
	// Gatherer backs /metrics; the route is skipped when nil.
	Gatherer prometheus.Gatherer
}

func NewRouter(p RouterParams) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(p.HTTPMetrics),
		middleware.CORS(cfg.App.CORSOrigins),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.Pingers))
	})

	if p.Gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/products", controllers.ProductsList(p.Catalog, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Post("/session", controllers.CartSessionCreate(cfg.Session, cfg.Cart.Currency, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.CartSession(cfg.Session, cfg.Cart.Currency, logg))
				r.Get("/", controllers.CartGet(p.Carts, logg))
				r.Delete("/", controllers.CartClear(p.Carts, logg))
				r.Post("/items", controllers.CartAddItem(p.Carts, p.Catalog, logg))
				r.Route("/items/{productId}", func(r chi.Router) {
					r.Get("/", controllers.CartGetItem(p.Carts, logg))
					r.Put("/", controllers.CartSetQuantity(p.Carts, logg))
					r.Delete("/", controllers.CartRemoveItem(p.Carts, logg))
				})
			})
		})
	})

	return r
}
