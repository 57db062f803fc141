package http

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/fjod/go_storefront/internal/catalog"
	"github.com/fjod/go_storefront/internal/delivery"
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/service"
)

type StoreAPI interface {
	Status(ctx context.Context, storeID string, orderType domain.OrderType) (domain.StoreStatus, error)
	Slots(ctx context.Context, storeID string, orderType domain.OrderType, day domain.Day) ([]service.SlotView, error)
	Delivery(ctx context.Context, storeID string, q delivery.Query, subtotal decimal.Decimal) (service.DeliveryQuote, error)
	UpdateSettings(ctx context.Context, cfg *domain.StoreConfig) error
}

type StoreHandler struct {
	stores  StoreAPI
	timeout time.Duration
}

func NewStoreHandler(stores StoreAPI, timeout time.Duration) *StoreHandler {
	return &StoreHandler{
		stores:  stores,
		timeout: timeout,
	}
}

type SlotsResponse struct {
	Day   domain.Day         `json:"day"`
	Slots []service.SlotView `json:"slots"`
}

type DeliveryRequestDTO struct {
	Lat      *float64        `json:"lat" validate:"omitempty,gte=-90,lte=90"`
	Lng      *float64        `json:"lng" validate:"omitempty,gte=-180,lte=180"`
	City     string          `json:"city" validate:"max=100"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

// location returns the customer coordinates, or nil unless both are given.
func (d DeliveryRequestDTO) location() *domain.Coordinate {
	if d.Lat == nil || d.Lng == nil {
		return nil
	}
	return &domain.Coordinate{Lat: *d.Lat, Lng: *d.Lng}
}

func orderTypeParam(r *http.Request) domain.OrderType {
	if v := r.URL.Query().Get("order_type"); v != "" {
		return domain.OrderType(v)
	}
	return domain.OrderTypePickup
}

func (h *StoreHandler) Status(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	status, err := h.stores.Status(ctx, chi.URLParam(r, "storeID"), orderTypeParam(r))
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, status)
}

// Slots lists the bookable times for today or tomorrow.
func (h *StoreHandler) Slots(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	day := domain.Day(r.URL.Query().Get("day"))
	if day == "" {
		day = domain.DayToday
	}

	slots, err := h.stores.Slots(ctx, chi.URLParam(r, "storeID"), orderTypeParam(r), day)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	if slots == nil {
		slots = []service.SlotView{}
	}
	respondJSON(w, http.StatusOK, &SlotsResponse{Day: day, Slots: slots})
}

func (h *StoreHandler) Delivery(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req DeliveryRequestDTO
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Subtotal.IsNegative() {
		respondError(w, http.StatusBadRequest, "invalid_request", "subtotal cannot be negative")
		return
	}

	quote, err := h.stores.Delivery(ctx, chi.URLParam(r, "storeID"), delivery.Query{
		Location: req.location(),
		City:     req.City,
	}, req.Subtotal)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, quote)
}

// UpdateSettings replaces a store's settings with the posted settings document,
// in the same loose format the catalog stores.
func (h *StoreHandler) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodySize))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "could not read body")
		return
	}
	cfg, err := catalog.DecodeSettings(chi.URLParam(r, "storeID"), body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid settings document")
		return
	}

	if err := h.stores.UpdateSettings(ctx, cfg); err != nil {
		handleServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
