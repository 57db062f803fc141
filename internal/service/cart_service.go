package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/fjod/go_storefront/internal/cache"
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/pricing"
	"github.com/fjod/go_storefront/internal/repository"
)

// ProductSource is the part of the catalog the cart needs to price lines.
type ProductSource interface {
	GetProduct(ctx context.Context, id string) (*domain.Product, error)
	GetCatalog(ctx context.Context) (domain.Catalog, error)
}

type AddItemRequest struct {
	ProductID string
	Selection domain.Selection
	Quantity  int
	Locale    string
}

type CartService struct {
	repo     repository.CartRepository
	cache    cache.CartCache
	products ProductSource
	log      *slog.Logger
	sfg      singleflight.Group // Prevents cache stampede
	writes   atomic.Uint64      // bumped on every invalidation
	now      func() time.Time
}

func NewCartService(repo repository.CartRepository, cache cache.CartCache, products ProductSource, log *slog.Logger) *CartService {
	if log == nil {
		log = slog.Default()
	}
	return &CartService{
		repo:     repo,
		cache:    cache,
		products: products,
		log:      log,
		now:      time.Now,
	}
}

func (s *CartService) GetCart(ctx context.Context, userID string) (*domain.Cart, error) {
	v, err, _ := s.sfg.Do(userID, func() (interface{}, error) {
		cart, err := s.cache.Get(ctx, userID)
		if err == nil {
			return cart, nil
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			s.log.WarnContext(ctx, "cache get failed", slog.String("user_id", userID), slog.Any("error", err))
		}

		gen := s.writes.Load()
		cart, err = s.repo.GetCart(ctx, userID)
		if errors.Is(err, repository.ErrCartNotFound) {
			return s.emptyCart(userID), nil
		}
		if err != nil {
			return nil, err
		}

		go func() {
			// A write since the read means cart is stale.
			if s.writes.Load() != gen {
				return
			}
			fillCtx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()
			if errSet := s.cache.Set(fillCtx, userID, cart); errSet != nil {
				s.log.Warn("cache set failed", slog.String("user_id", userID), slog.Any("error", errSet))
			}
		}()

		return cart, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*domain.Cart), nil
}

// StoredCart reads the cart from the repository, skipping the cache.
// Checkout totals are computed from it.
func (s *CartService) StoredCart(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.repo.GetCart(ctx, userID)
	if errors.Is(err, repository.ErrCartNotFound) {
		return s.emptyCart(userID), nil
	}
	if err != nil {
		return nil, err
	}
	return cart, nil
}

// AddItem prices the configured product and merges it into the user's cart.
func (s *CartService) AddItem(ctx context.Context, userID string, req AddItemRequest) (*domain.Cart, error) {
	product, err := s.products.GetProduct(ctx, req.ProductID)
	if err != nil {
		return nil, err
	}
	catalog, err := s.products.GetCatalog(ctx)
	if err != nil {
		return nil, err
	}

	req.Selection.Note = strings.TrimSpace(req.Selection.Note)
	line, err := pricing.PriceLine(product, req.Selection, catalog, req.Quantity)
	if err != nil {
		return nil, err
	}

	key := domain.NewLineKey(product.ID, req.Selection)
	return s.mutate(ctx, userID, func(cart *domain.Cart) error {
		if prev, ok := cart.Line(key); ok && !prev.UnitPrice.Equal(line.Unit) {
			s.log.WarnContext(ctx, "merged line keeps its original unit price",
				slog.String("user_id", userID),
				slog.String("product_id", product.ID),
				slog.String("kept", prev.UnitPrice.String()),
				slog.String("priced", line.Unit.String()))
		}
		return cart.AddOrMerge(domain.CartItem{
			Key:         key,
			ProductID:   product.ID,
			ProductName: product.Names.Get(req.Locale),
			UnitPrice:   line.Unit,
			Quantity:    req.Quantity,
			Selection:   req.Selection,
			AddedAt:     s.now().UTC(),
		})
	})
}

// UpdateQuantity changes a line by delta; a line never drops below one unit.
func (s *CartService) UpdateQuantity(ctx context.Context, userID string, key domain.LineKey, delta int) (*domain.Cart, error) {
	return s.mutate(ctx, userID, func(cart *domain.Cart) error {
		return cart.UpdateQuantity(key, delta)
	})
}

func (s *CartService) RemoveItem(ctx context.Context, userID string, key domain.LineKey) (*domain.Cart, error) {
	return s.mutate(ctx, userID, func(cart *domain.Cart) error {
		return cart.Remove(key)
	})
}

func (s *CartService) ClearCart(ctx context.Context, userID string) error {
	err := s.repo.DeleteCart(ctx, userID)
	if err != nil && !errors.Is(err, repository.ErrCartNotFound) {
		s.log.ErrorContext(ctx, "repo delete cart failed", slog.String("user_id", userID), slog.Any("error", err))
		return err
	}

	s.invalidateCache(userID)
	return nil
}

// mutate reads the stored cart, applies fn and writes it back. Concurrent
// writers for one user are last-writer-wins.
func (s *CartService) mutate(ctx context.Context, userID string, fn func(*domain.Cart) error) (*domain.Cart, error) {
	cart, err := s.repo.GetCart(ctx, userID)
	if errors.Is(err, repository.ErrCartNotFound) {
		cart = s.emptyCart(userID)
	} else if err != nil {
		return nil, fmt.Errorf("failed to load cart: %w", err)
	}

	if err := fn(cart); err != nil {
		return nil, err
	}

	if err := s.repo.UpsertCart(ctx, cart); err != nil {
		s.log.ErrorContext(ctx, "repo upsert cart failed", slog.String("user_id", userID), slog.Any("error", err))
		return nil, err
	}

	s.invalidateCache(userID)
	return cart, nil
}

func (s *CartService) emptyCart(userID string) *domain.Cart {
	now := s.now().UTC()
	return &domain.Cart{
		UserID:    userID,
		Items:     []domain.CartItem{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func (s *CartService) invalidateCache(userID string) {
	s.writes.Add(1)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.cache.Delete(ctx, userID); err != nil {
		s.log.Warn("cache invalidate failed", slog.String("user_id", userID), slog.Any("error", err))
	}
}
