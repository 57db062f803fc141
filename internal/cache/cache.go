package cache

import (
	"context"
	"errors"

	"github.com/fjod/go_storefront/internal/domain"
)

type CartCache interface {
	Get(ctx context.Context, userID string) (*domain.Cart, error)
	Set(ctx context.Context, userID string, cart *domain.Cart) error
	Delete(ctx context.Context, userID string) error
}

// StoreCache keeps decoded store settings between requests.
type StoreCache interface {
	GetStore(ctx context.Context, storeID string) (*domain.StoreConfig, error)
	SetStore(ctx context.Context, cfg *domain.StoreConfig) error
	DeleteStore(ctx context.Context, storeID string) error
}

var ErrCacheMiss = errors.New("cache miss")
