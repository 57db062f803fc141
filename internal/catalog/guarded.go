package catalog

import (
	"context"
	"errors"
	"log/slog"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/pkg/circuitbreaker"
)

// Guarded routes catalog reads and writes through a circuit breaker so a
// failing database is not hammered. Not-found answers do not count as failures.
type Guarded struct {
	repo    RepoInterface
	breaker *circuitbreaker.Breaker
}

func NewGuarded(repo RepoInterface, log *slog.Logger) *Guarded {
	return &Guarded{
		repo:    repo,
		breaker: circuitbreaker.New(circuitbreaker.DefaultSettings("catalog"), log),
	}
}

func isAnswer(err error) bool {
	return errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrStoreNotFound) ||
		errors.Is(err, context.Canceled)
}

func (g *Guarded) ListProducts(ctx context.Context) ([]*domain.Product, error) {
	return circuitbreaker.Execute(g.breaker, func() ([]*domain.Product, error) {
		return g.repo.ListProducts(ctx)
	}, isAnswer)
}

func (g *Guarded) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	return circuitbreaker.Execute(g.breaker, func() (*domain.Product, error) {
		return g.repo.GetProduct(ctx, id)
	}, isAnswer)
}

func (g *Guarded) GetCatalog(ctx context.Context) (domain.Catalog, error) {
	return circuitbreaker.Execute(g.breaker, func() (domain.Catalog, error) {
		return g.repo.GetCatalog(ctx)
	}, isAnswer)
}

func (g *Guarded) GetStoreConfig(ctx context.Context, storeID string) (*domain.StoreConfig, error) {
	return circuitbreaker.Execute(g.breaker, func() (*domain.StoreConfig, error) {
		return g.repo.GetStoreConfig(ctx, storeID)
	}, isAnswer)
}

func (g *Guarded) SaveStoreConfig(ctx context.Context, cfg *domain.StoreConfig) error {
	_, err := circuitbreaker.Execute(g.breaker, func() (struct{}, error) {
		return struct{}{}, g.repo.SaveStoreConfig(ctx, cfg)
	}, isAnswer)
	return err
}

// State exposes the breaker state for health reporting.
func (g *Guarded) State() string {
	return g.breaker.State()
}
