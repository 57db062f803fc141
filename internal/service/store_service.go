package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fjod/go_storefront/internal/cache"
	"github.com/fjod/go_storefront/internal/delivery"
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/schedule"
)

// StoreSource loads and saves store settings.
type StoreSource interface {
	GetStoreConfig(ctx context.Context, storeID string) (*domain.StoreConfig, error)
	SaveStoreConfig(ctx context.Context, cfg *domain.StoreConfig) error
}

type SlotView struct {
	domain.TimeSlot
	Label string    `json:"label"`
	At    time.Time `json:"at"`
}

type DeliveryQuote struct {
	Decision      domain.DeliveryDecision `json:"decision"`
	EffectiveFee  decimal.Decimal         `json:"effective_fee"`
	FreeRemaining decimal.Decimal         `json:"free_delivery_remaining"`
}

type StoreService struct {
	source StoreSource
	cache  cache.StoreCache
	log    *slog.Logger
	now    func() time.Time
}

func NewStoreService(source StoreSource, cache cache.StoreCache, log *slog.Logger) *StoreService {
	if log == nil {
		log = slog.Default()
	}
	return &StoreService{source: source, cache: cache, log: log, now: time.Now}
}

// Config returns the store settings, preferring the cached copy.
func (s *StoreService) Config(ctx context.Context, storeID string) (*domain.StoreConfig, error) {
	cfg, err := s.cache.GetStore(ctx, storeID)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		s.log.WarnContext(ctx, "store cache get failed", slog.String("store_id", storeID), slog.Any("error", err))
	}

	cfg, err = s.source.GetStoreConfig(ctx, storeID)
	if err != nil {
		return nil, err
	}
	if errSet := s.cache.SetStore(ctx, cfg); errSet != nil {
		s.log.WarnContext(ctx, "store cache set failed", slog.String("store_id", storeID), slog.Any("error", errSet))
	}
	return cfg, nil
}

func (s *StoreService) UpdateSettings(ctx context.Context, cfg *domain.StoreConfig) error {
	if err := s.source.SaveStoreConfig(ctx, cfg); err != nil {
		return err
	}
	if err := s.cache.DeleteStore(ctx, cfg.ID); err != nil {
		s.log.WarnContext(ctx, "store cache invalidate failed", slog.String("store_id", cfg.ID), slog.Any("error", err))
	}
	return nil
}

func (s *StoreService) Status(ctx context.Context, storeID string, orderType domain.OrderType) (domain.StoreStatus, error) {
	if !orderType.Valid() {
		return domain.StoreStatus{}, ErrInvalidOrderType
	}
	cfg, err := s.Config(ctx, storeID)
	if err != nil {
		return domain.StoreStatus{}, err
	}
	return schedule.Status(cfg, orderType, s.now()), nil
}

func (s *StoreService) Slots(ctx context.Context, storeID string, orderType domain.OrderType, day domain.Day) ([]SlotView, error) {
	if !orderType.Valid() {
		return nil, ErrInvalidOrderType
	}
	cfg, err := s.Config(ctx, storeID)
	if err != nil {
		return nil, err
	}

	now := s.now().In(cfg.Location())
	slots, err := schedule.AvailableSlots(cfg, orderType, day, now)
	if err != nil {
		return nil, err
	}
	date, err := schedule.DayDate(day, now)
	if err != nil {
		return nil, err
	}

	views := make([]SlotView, 0, len(slots))
	for _, slot := range slots {
		views = append(views, SlotView{
			TimeSlot: slot,
			Label:    schedule.Label(day, slot),
			At:       schedule.SlotTime(date, slot),
		})
	}
	return views, nil
}

func (s *StoreService) Delivery(ctx context.Context, storeID string, q delivery.Query, subtotal decimal.Decimal) (DeliveryQuote, error) {
	cfg, err := s.Config(ctx, storeID)
	if err != nil {
		return DeliveryQuote{}, err
	}
	decision := delivery.Resolve(q, cfg)
	return DeliveryQuote{
		Decision:      decision,
		EffectiveFee:  decision.EffectiveFee(subtotal),
		FreeRemaining: decision.FreeDeliveryRemaining(subtotal),
	}, nil
}
