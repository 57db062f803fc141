package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_storefront/internal/domain"
	"github.com/fjod/go_storefront/pkg/circuitbreaker"
)

type flakyRepo struct {
	RepoInterface
	err   error
	calls int
}

func (f *flakyRepo) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &domain.Product{ID: id}, nil
}

func (f *flakyRepo) GetStoreConfig(context.Context, string) (*domain.StoreConfig, error) {
	f.calls++
	return nil, f.err
}

func TestGuarded_OpensOnRepeatedFailures(t *testing.T) {
	repo := &flakyRepo{err: errors.New("disk I/O error")}
	g := NewGuarded(repo, nil)

	for i := 0; i < 5; i++ {
		_, err := g.GetProduct(context.Background(), "p")
		require.Error(t, err)
	}
	assert.Equal(t, "open", g.State())

	_, err := g.GetProduct(context.Background(), "p")
	assert.True(t, circuitbreaker.IsOpen(err))
	assert.Equal(t, 5, repo.calls)
}

func TestGuarded_NotFoundDoesNotTrip(t *testing.T) {
	repo := &flakyRepo{err: ErrStoreNotFound}
	g := NewGuarded(repo, nil)

	for i := 0; i < 10; i++ {
		_, err := g.GetStoreConfig(context.Background(), "nope")
		assert.ErrorIs(t, err, ErrStoreNotFound)
	}
	assert.Equal(t, "closed", g.State())
	assert.Equal(t, 10, repo.calls)
}

func TestGuarded_PassesResults(t *testing.T) {
	g := NewGuarded(&flakyRepo{}, nil)

	p, err := g.GetProduct(context.Background(), "falafel-wrap")
	require.NoError(t, err)
	assert.Equal(t, "falafel-wrap", p.ID)
}
