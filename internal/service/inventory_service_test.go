package service

import (
	"context"
	"testing"

	"hospital-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (r *memRepo) GetProductByID(ctx context.Context, id int64) (*models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return nil, models.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memRepo) GetProducts(ctx context.Context) ([]models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Product
	for _, p := range r.products {
		out = append(out, *p)
	}
	return out, nil
}

func (r *memRepo) UpdateProductThreshold(ctx context.Context, id int64, threshold int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.products[id]
	if !ok {
		return models.ErrProductNotFound
	}
	p.LowStockThreshold = threshold
	return nil
}

func TestRestockIncrementsStock(t *testing.T) {
	repo := newMemRepo(
		&models.Product{ID: 1, Name: "Syringe", Stock: 2, LowStockThreshold: 5},
	)
	svc := NewInventoryService(repo, nil)

	product, err := svc.Restock(context.Background(), 1, 20)
	require.NoError(t, err)
	assert.Equal(t, 22, product.Stock)
	assert.Equal(t, 22, repo.productStock(1))
}

func TestRestockRejectsInvalidQuantity(t *testing.T) {
	repo := newMemRepo(
		&models.Product{ID: 1, Name: "Syringe", Stock: 2, LowStockThreshold: 5},
	)
	svc := NewInventoryService(repo, nil)

	_, err := svc.Restock(context.Background(), 1, 0)
	require.ErrorIs(t, err, models.ErrInvalidLineData)
	assert.Equal(t, 2, repo.productStock(1))
}

func TestRestockUnknownProduct(t *testing.T) {
	repo := newMemRepo()
	svc := NewInventoryService(repo, nil)

	_, err := svc.Restock(context.Background(), 42, 5)
	require.ErrorIs(t, err, models.ErrProductNotFound)
}
