package service

import (
	"context"
	"sync"

	"github.com/fjod/go_storefront/internal/cache"
	"github.com/fjod/go_storefront/internal/catalog"
	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/internal/repository"
)

type mockRepository struct {
	m       sync.RWMutex
	cart    *domain.Cart
	err     error
	upserts int
	onGet   func()
}

func (m *mockRepository) GetCart(context.Context, string) (*domain.Cart, error) {
	if m.onGet != nil {
		m.onGet()
	}
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.cart == nil {
		return nil, repository.ErrCartNotFound
	}
	c := *m.cart
	c.Items = append([]domain.CartItem(nil), m.cart.Items...)
	return &c, nil
}

func (m *mockRepository) UpsertCart(_ context.Context, c *domain.Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	m.upserts++
	m.cart = c
	return nil
}

func (m *mockRepository) DeleteCart(context.Context, string) error {
	m.m.Lock()
	defer m.m.Unlock()
	if m.err != nil {
		return m.err
	}
	if m.cart == nil {
		return repository.ErrCartNotFound
	}
	m.cart = nil
	return nil
}

func (m *mockRepository) stored() *domain.Cart {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.cart
}

type mockCache struct {
	m     sync.RWMutex
	cart  *domain.Cart
	store *domain.StoreConfig
	err   error
}

func (m *mockCache) Get(context.Context, string) (*domain.Cart, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.err != nil {
		return nil, m.err
	}
	if m.cart == nil {
		return nil, cache.ErrCacheMiss
	}
	return m.cart, nil
}

func (m *mockCache) Set(_ context.Context, _ string, cart *domain.Cart) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.cart = cart
	return m.err
}

func (m *mockCache) Delete(context.Context, string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.cart = nil
	return m.err
}

func (m *mockCache) GetStore(context.Context, string) (*domain.StoreConfig, error) {
	m.m.RLock()
	defer m.m.RUnlock()
	if m.store == nil {
		return nil, cache.ErrCacheMiss
	}
	return m.store, nil
}

func (m *mockCache) SetStore(_ context.Context, cfg *domain.StoreConfig) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.store = cfg
	return nil
}

func (m *mockCache) DeleteStore(context.Context, string) error {
	m.m.Lock()
	defer m.m.Unlock()
	m.store = nil
	return nil
}

func (m *mockCache) getCart() *domain.Cart {
	m.m.RLock()
	defer m.m.RUnlock()
	return m.cart
}

type mockCatalog struct {
	products map[string]*domain.Product
	catalog  domain.Catalog
	stores   map[string]*domain.StoreConfig
	reads    int
	err      error
}

func (m *mockCatalog) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	if m.err != nil {
		return nil, m.err
	}
	p, ok := m.products[id]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	return p, nil
}

func (m *mockCatalog) GetCatalog(context.Context) (domain.Catalog, error) {
	return m.catalog, m.err
}

func (m *mockCatalog) GetStoreConfig(_ context.Context, id string) (*domain.StoreConfig, error) {
	m.reads++
	if m.err != nil {
		return nil, m.err
	}
	cfg, ok := m.stores[id]
	if !ok {
		return nil, catalog.ErrStoreNotFound
	}
	return cfg, nil
}

func (m *mockCatalog) SaveStoreConfig(_ context.Context, cfg *domain.StoreConfig) error {
	if m.err != nil {
		return m.err
	}
	if m.stores == nil {
		m.stores = make(map[string]*domain.StoreConfig)
	}
	m.stores[cfg.ID] = cfg
	return nil
}

type mockPublisher struct {
	events []domain.OrderPlaced
	err    error
}

func (m *mockPublisher) PublishOrderPlaced(_ context.Context, e domain.OrderPlaced) error {
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, e)
	return nil
}
