package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/fjod/go_storefront/internal/delivery"
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/schedule"
)

// OrderPublisher announces accepted orders to the rest of the system.
type OrderPublisher interface {
	PublishOrderPlaced(ctx context.Context, event domain.OrderPlaced) error
}

// CartReader loads the authoritative cart, never a cached copy.
type CartReader interface {
	StoredCart(ctx context.Context, userID string) (*domain.Cart, error)
}

type StoreConfigs interface {
	Config(ctx context.Context, storeID string) (*domain.StoreConfig, error)
}

// ScheduleChoice is a slot picked for a later pickup or delivery.
type ScheduleChoice struct {
	Day  domain.Day
	Time string
}

type QuoteRequest struct {
	UserID    string
	StoreID   string
	OrderType domain.OrderType
	Location  *domain.Coordinate
	City      string
	Discount  decimal.Decimal
	Schedule  *ScheduleChoice
}

type OrderQuote struct {
	Items         []domain.CartItem       `json:"items"`
	Count         int                     `json:"count"`
	Subtotal      decimal.Decimal         `json:"subtotal"`
	Discount      decimal.Decimal         `json:"discount"`
	Delivery      domain.DeliveryDecision `json:"delivery"`
	DeliveryFee   decimal.Decimal         `json:"delivery_fee"`
	FreeRemaining decimal.Decimal         `json:"free_delivery_remaining"`
	Total         decimal.Decimal         `json:"total"`
	Status        domain.StoreStatus      `json:"store_status"`
	ScheduledFor  *time.Time              `json:"scheduled_for,omitempty"`
	ScheduleLabel string                  `json:"schedule_label,omitempty"`
}

type PlacedOrder struct {
	OrderID string     `json:"order_id"`
	Quote   OrderQuote `json:"quote"`
}

type CheckoutService struct {
	carts     CartReader
	stores    StoreConfigs
	publisher OrderPublisher
	log       *slog.Logger
	now       func() time.Time
}

func NewCheckoutService(carts CartReader, stores StoreConfigs, publisher OrderPublisher, log *slog.Logger) *CheckoutService {
	if log == nil {
		log = slog.Default()
	}
	return &CheckoutService{
		carts:     carts,
		stores:    stores,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// Quote totals the user's cart for the requested order and checks that the
// store can accept it.
func (s *CheckoutService) Quote(ctx context.Context, req QuoteRequest) (*OrderQuote, error) {
	if !req.OrderType.Valid() {
		return nil, ErrInvalidOrderType
	}
	if req.Discount.IsNegative() {
		return nil, ErrInvalidDiscount
	}

	cart, err := s.carts.StoredCart(ctx, req.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}
	if cart.IsEmpty() {
		return nil, ErrEmptyCart
	}

	cfg, err := s.stores.Config(ctx, req.StoreID)
	if err != nil {
		return nil, err
	}

	subtotal := cart.Subtotal()
	quote := &OrderQuote{
		Items:         cart.Items,
		Count:         cart.Count(),
		Subtotal:      subtotal,
		Discount:      req.Discount,
		Delivery:      domain.DeliveryDecision{Fee: decimal.Zero, Source: domain.FeeSourceNone},
		DeliveryFee:   decimal.Zero,
		FreeRemaining: decimal.Zero,
	}

	if req.OrderType == domain.OrderTypeDelivery {
		decision := delivery.Resolve(delivery.Query{Location: req.Location, City: req.City}, cfg)
		if !domain.KnownLocation(req.Location) && decision.Source != domain.FeeSourceCity {
			return nil, ErrLocationRequired
		}
		if subtotal.LessThan(cfg.MinimumOrder) {
			return nil, ErrBelowMinimumOrder
		}
		quote.Delivery = decision
		quote.DeliveryFee = decision.EffectiveFee(subtotal)
		quote.FreeRemaining = decision.FreeDeliveryRemaining(subtotal)
	}

	now := s.now().In(cfg.Location())
	quote.Status = schedule.Status(cfg, req.OrderType, now)

	if req.Schedule != nil {
		when, label, err := s.checkSchedule(cfg, req.OrderType, *req.Schedule, now)
		if err != nil {
			return nil, err
		}
		quote.ScheduledFor = &when
		quote.ScheduleLabel = label
	} else if !quote.Status.AcceptsOrders() {
		return nil, ErrStoreClosed
	}

	quote.Total = domain.OrderTotal(subtotal, req.Discount, quote.DeliveryFee, req.OrderType)
	return quote, nil
}

// checkSchedule accepts any slot of the chosen day's hours that is still
// more than the minimum lead time away. Manual closures block scheduling too.
func (s *CheckoutService) checkSchedule(cfg *domain.StoreConfig, orderType domain.OrderType, choice ScheduleChoice, now time.Time) (time.Time, string, error) {
	if cfg.ManuallyClosed || (orderType == domain.OrderTypeDelivery && cfg.DeliveryManuallyClosed) {
		return time.Time{}, "", ErrStoreClosed
	}
	date, err := schedule.DayDate(choice.Day, now)
	if err != nil {
		return time.Time{}, "", err
	}

	for _, slot := range schedule.GenerateSlots(cfg.ScheduleFor(orderType)[date.Weekday()]) {
		if slot.Time != choice.Time {
			continue
		}
		when, err := schedule.ValidateSlot(choice.Day, slot, now)
		if err != nil {
			return time.Time{}, "", err
		}
		return when, schedule.Label(choice.Day, slot), nil
	}
	return time.Time{}, "", ErrSlotUnavailable
}

// PlaceOrder quotes the order again, assigns it an id and publishes it.
// The cart is cleared by the consumer of the published event.
func (s *CheckoutService) PlaceOrder(ctx context.Context, req QuoteRequest) (*PlacedOrder, error) {
	quote, err := s.Quote(ctx, req)
	if err != nil {
		return nil, err
	}

	event := domain.OrderPlaced{
		OrderID:      uuid.NewString(),
		UserID:       req.UserID,
		StoreID:      req.StoreID,
		OrderType:    req.OrderType,
		Items:        domain.OrderLines(quote.Items),
		Subtotal:     quote.Subtotal,
		Discount:     quote.Discount,
		DeliveryFee:  quote.DeliveryFee,
		FeeSource:    quote.Delivery.Source,
		Total:        quote.Total,
		ScheduledFor: quote.ScheduledFor,
		PlacedAt:     s.now().UTC(),
	}

	if err := s.publisher.PublishOrderPlaced(ctx, event); err != nil {
		s.log.ErrorContext(ctx, "failed to publish order",
			slog.String("order_id", event.OrderID),
			slog.String("user_id", req.UserID),
			slog.Any("error", err))
		return nil, fmt.Errorf("failed to publish order: %w", err)
	}

	s.log.InfoContext(ctx, "order placed",
		slog.String("order_id", event.OrderID),
		slog.String("store_id", req.StoreID),
		slog.String("order_type", string(req.OrderType)),
		slog.String("total", event.Total.String()))

	return &PlacedOrder{OrderID: event.OrderID, Quote: *quote}, nil
}
