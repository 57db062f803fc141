package http

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/service"
)

type CartAPI interface {
	GetCart(ctx context.Context, userID string) (*domain.Cart, error)
	AddItem(ctx context.Context, userID string, req service.AddItemRequest) (*domain.Cart, error)
	UpdateQuantity(ctx context.Context, userID string, key domain.LineKey, delta int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, userID string, key domain.LineKey) (*domain.Cart, error)
	ClearCart(ctx context.Context, userID string) error
}

type CartHandler struct {
	carts   CartAPI
	timeout time.Duration
}

func NewCartHandler(carts CartAPI, timeout time.Duration) *CartHandler {
	return &CartHandler{
		carts:   carts,
		timeout: timeout,
	}
}

type AddItemRequestDTO struct {
	ProductID string           `json:"product_id" validate:"required"`
	Selection domain.Selection `json:"selection"`
	Quantity  int              `json:"quantity" validate:"gte=1,lte=99"`
	Locale    string           `json:"locale" validate:"omitempty,oneof=ar he en"`
}

type UpdateQuantityRequestDTO struct {
	Delta int `json:"delta" validate:"required"`
}

// CartResponse is the cart with its derived totals.
type CartResponse struct {
	*domain.Cart
	Count    int             `json:"count"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

func newCartResponse(cart *domain.Cart) *CartResponse {
	return &CartResponse{Cart: cart, Count: cart.Count(), Subtotal: cart.Subtotal()}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	cart, err := h.carts.GetCart(ctx, userID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newCartResponse(cart))
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req AddItemRequestDTO
	if !decodeBody(w, r, &req) {
		return
	}

	cart, err := h.carts.AddItem(ctx, userID, service.AddItemRequest{
		ProductID: req.ProductID,
		Selection: req.Selection,
		Quantity:  req.Quantity,
		Locale:    req.Locale,
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, newCartResponse(cart))
}

// UpdateQuantity applies a relative change to one line.
func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}
	key, ok := lineKeyParam(w, r)
	if !ok {
		return
	}

	var req UpdateQuantityRequestDTO
	if !decodeBody(w, r, &req) {
		return
	}

	cart, err := h.carts.UpdateQuantity(ctx, userID, key, req.Delta)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newCartResponse(cart))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}
	key, ok := lineKeyParam(w, r)
	if !ok {
		return
	}

	cart, err := h.carts.RemoveItem(ctx, userID, key)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, newCartResponse(cart))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	if err := h.carts.ClearCart(ctx, userID); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// lineKeyParam reads the line key from the path. chi matches on the raw path
// when the request had escaped characters, so the value is unescaped then.
func lineKeyParam(w http.ResponseWriter, r *http.Request) (domain.LineKey, bool) {
	raw := chi.URLParam(r, "key")
	if r.URL.RawPath != "" {
		unescaped, err := url.PathUnescape(raw)
		if err != nil {
			respondError(w, http.StatusBadRequest, "invalid_line_key", "line key is malformed")
			return "", false
		}
		raw = unescaped
	}
	if raw == "" {
		respondError(w, http.StatusBadRequest, "invalid_line_key", "line key is required")
		return "", false
	}
	return domain.LineKey(raw), true
}
