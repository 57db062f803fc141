package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// Handlers groups everything the router serves.
type Handlers struct {
	Products *ProductHandler
	Carts    *CartHandler
	Stores   *StoreHandler
	Checkout *CheckoutHandler
}

func NewRouter(h Handlers, log *slog.Logger, requestTimeout time.Duration) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(RequestLogger(log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(requestTimeout))
	r.Use(middleware.Compress(5))
	r.Use(MockAuthMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.Products.List)
			r.Get("/{id}", h.Products.Get)
			r.Post("/{id}/price", h.Products.Price)
		})
		r.Route("/cart", func(r chi.Router) {
			r.Get("/", h.Carts.GetCart)
			r.Delete("/", h.Carts.ClearCart)
			r.Post("/items", h.Carts.AddItem)
			r.Patch("/items/{key}", h.Carts.UpdateQuantity)
			r.Delete("/items/{key}", h.Carts.RemoveItem)
		})
		r.Route("/stores/{storeID}", func(r chi.Router) {
			r.Get("/status", h.Stores.Status)
			r.Get("/slots", h.Stores.Slots)
			r.Post("/delivery", h.Stores.Delivery)
			r.Put("/settings", h.Stores.UpdateSettings)
		})
		r.Route("/checkout", func(r chi.Router) {
			r.Post("/quote", h.Checkout.Quote)
			r.Post("/orders", h.Checkout.PlaceOrder)
		})
	})

	return otelhttp.NewHandler(r, "storefront-api")
}
