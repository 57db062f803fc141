package http

import (
	"context"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/service"
)

type CheckoutAPI interface {
	Quote(ctx context.Context, req service.QuoteRequest) (*service.OrderQuote, error)
	PlaceOrder(ctx context.Context, req service.QuoteRequest) (*service.PlacedOrder, error)
}

type CheckoutHandler struct {
	checkout CheckoutAPI
	timeout  time.Duration
}

func NewCheckoutHandler(checkout CheckoutAPI, timeout time.Duration) *CheckoutHandler {
	return &CheckoutHandler{
		checkout: checkout,
		timeout:  timeout,
	}
}

type ScheduleDTO struct {
	Day  string `json:"day" validate:"required,oneof=today tomorrow"`
	Time string `json:"time" validate:"required"`
}

type CheckoutRequestDTO struct {
	StoreID   string          `json:"store_id" validate:"required"`
	OrderType string          `json:"order_type" validate:"required,oneof=pickup delivery"`
	Lat       *float64        `json:"lat" validate:"omitempty,gte=-90,lte=90"`
	Lng       *float64        `json:"lng" validate:"omitempty,gte=-180,lte=180"`
	City      string          `json:"city" validate:"max=100"`
	Discount  decimal.Decimal `json:"discount"`
	Schedule  *ScheduleDTO    `json:"schedule" validate:"omitempty"`
}

func (d CheckoutRequestDTO) toQuoteRequest(userID string) service.QuoteRequest {
	req := service.QuoteRequest{
		UserID:    userID,
		StoreID:   d.StoreID,
		OrderType: domain.OrderType(d.OrderType),
		City:      d.City,
		Discount:  d.Discount,
	}
	if d.Lat != nil && d.Lng != nil {
		req.Location = &domain.Coordinate{Lat: *d.Lat, Lng: *d.Lng}
	}
	if d.Schedule != nil {
		req.Schedule = &service.ScheduleChoice{Day: domain.Day(d.Schedule.Day), Time: d.Schedule.Time}
	}
	return req
}

func (h *CheckoutHandler) Quote(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(ctx context.Context, req service.QuoteRequest) (any, int, error) {
		quote, err := h.checkout.Quote(ctx, req)
		return quote, http.StatusOK, err
	})
}

// PlaceOrder accepts the order; the cart is emptied once the order event is consumed.
func (h *CheckoutHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, func(ctx context.Context, req service.QuoteRequest) (any, int, error) {
		order, err := h.checkout.PlaceOrder(ctx, req)
		return order, http.StatusCreated, err
	})
}

func (h *CheckoutHandler) serve(w http.ResponseWriter, r *http.Request, call func(context.Context, service.QuoteRequest) (any, int, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	userID := getUserIDFromContext(r.Context())
	if userID == "" {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing user authentication")
		return
	}

	var req CheckoutRequestDTO
	if !decodeBody(w, r, &req) {
		return
	}

	res, status, err := call(ctx, req.toQuoteRequest(userID))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, status, res)
}
