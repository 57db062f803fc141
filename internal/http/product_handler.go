package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/pricing"
)

// ProductCatalog is the read side of the catalog the menu endpoints use.
type ProductCatalog interface {
	ListProducts(ctx context.Context) ([]*domain.Product, error)
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	GetCatalog(ctx context.Context) (domain.Catalog, error)
}

type ProductHandler struct {
	products ProductCatalog
	timeout  time.Duration
}

func NewProductHandler(products ProductCatalog, timeout time.Duration) *ProductHandler {
	return &ProductHandler{
		products: products,
		timeout:  timeout,
	}
}

type ProductsResponse struct {
	Products []*domain.Product `json:"products"`
}

type ProductResponse struct {
	*domain.Product
	Menu pricing.Menu `json:"menu"`
}

type PriceRequestDTO struct {
	Selection domain.Selection `json:"selection"`
	Quantity  int              `json:"quantity" validate:"gte=1,lte=99"`
}

type PriceResponse struct {
	pricing.LinePrice
	Key domain.LineKey `json:"key"`
}

func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	products, err := h.products.ListProducts(ctx)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if products == nil {
		products = []*domain.Product{}
	}
	respondJSON(w, http.StatusOK, &ProductsResponse{Products: products})
}

// Get returns one product together with the extras a customer may pick.
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	product, catalog, ok := h.load(ctx, w, r)
	if !ok {
		return
	}
	respondJSON(w, http.StatusOK, &ProductResponse{
		Product: product,
		Menu:    pricing.AvailableExtras(product, catalog),
	})
}

// Price previews the price of a configured product without touching the cart.
func (h *ProductHandler) Price(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req PriceRequestDTO
	if !decodeBody(w, r, &req) {
		return
	}

	product, catalog, ok := h.load(ctx, w, r)
	if !ok {
		return
	}
	line, err := pricing.PriceLine(product, req.Selection, catalog, req.Quantity)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, &PriceResponse{
		LinePrice: line,
		Key:       domain.NewLineKey(product.ID, req.Selection),
	})
}

func (h *ProductHandler) load(ctx context.Context, w http.ResponseWriter, r *http.Request) (*domain.Product, domain.Catalog, bool) {
	product, err := h.products.GetProduct(ctx, chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, r, err)
		return nil, domain.Catalog{}, false
	}
	catalog, err := h.products.GetCatalog(ctx)
	if err != nil {
		handleServiceError(w, r, err)
		return nil, domain.Catalog{}, false
	}
	return product, catalog, true
}
