package service

import (
	"context"

	"hospital-service/internal/models"
	"hospital-service/internal/redisclient"
	"hospital-service/internal/store"
	"hospital-service/internal/util"

	"go.uber.org/zap"
)

// InventoryRepository is the persistence contract for catalog reads and
// restocking. *store.Store satisfies it.
type InventoryRepository interface {
	WithinTx(ctx context.Context, fn func(tx store.Tx) error) error
	GetProductByID(ctx context.Context, id int64) (*models.Product, error)
	GetProducts(ctx context.Context) ([]models.Product, error)
	UpdateProductThreshold(ctx context.Context, id int64, threshold int) error
}

// InventoryService handles catalog reads and restocking. Stock changes
// go through the stock adjuster so they take the same per-product lock
// as checkout decrements.
type InventoryService struct {
	repo   InventoryRepository
	redis  *redisclient.Client
	stock  *stockAdjuster
	logger *zap.Logger
}

// NewInventoryService creates a new inventory service. redis may be nil.
func NewInventoryService(repo InventoryRepository, redis *redisclient.Client) *InventoryService {
	return &InventoryService{
		repo:   repo,
		redis:  redis,
		stock:  &stockAdjuster{},
		logger: util.GetLogger(),
	}
}

// ListProducts returns the full catalog
func (s *InventoryService) ListProducts(ctx context.Context) ([]models.Product, error) {
	return s.repo.GetProducts(ctx)
}

// GetProduct returns one product with its current stock and threshold
func (s *InventoryService) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	return s.repo.GetProductByID(ctx, id)
}

// SetThreshold updates a product's low-stock threshold
func (s *InventoryService) SetThreshold(ctx context.Context, id int64, threshold int) error {
	if threshold < 0 {
		return models.ErrInvalidLineData
	}
	return s.repo.UpdateProductThreshold(ctx, id, threshold)
}

// Restock adds qty to a product's stock and clears it from the
// low-stock board once it is back above its threshold.
func (s *InventoryService) Restock(ctx context.Context, id int64, qty int) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "InventoryService.Restock")
	defer span.End()

	var product *models.Product
	err := s.repo.WithinTx(ctx, func(tx store.Tx) error {
		var err error
		product, err = s.stock.Increment(ctx, tx, id, qty)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Product restocked",
		zap.Int64("product_id", id),
		zap.Int("quantity", qty),
		zap.Int("stock", product.Stock))

	if s.redis != nil && product.Stock > product.LowStockThreshold {
		if err := s.redis.ClearLowStock(ctx, id); err != nil {
			s.logger.Warn("Failed to clear low-stock board entry",
				zap.Int64("product_id", id),
				zap.Error(err))
		}
	}

	return product, nil
}
