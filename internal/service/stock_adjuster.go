package service

import (
	"context"
	"fmt"

	"hospital-service/internal/models"
	"hospital-service/internal/store"
	"hospital-service/internal/util"
)

// stockAdjuster applies stock decrements under mutual exclusion. The
// row-level lock taken by ProductForUpdate serializes concurrent
// adjustments to the same product; different products do not contend.
// Stock is strictly non-negative: a decrement that would go below zero
// fails with InsufficientStock and changes nothing.
type stockAdjuster struct{}

// Decrement subtracts qty from the product's stock inside the caller's
// unit of work. It returns a ThresholdCrossing when the decrement moves
// the stock from above the low-stock threshold to at-or-below it, and
// nil otherwise.
func (a *stockAdjuster) Decrement(ctx context.Context, tx store.Tx, productID int64, qty int) (*models.ThresholdCrossing, error) {
	ctx, span := util.StartSpan(ctx, "stockAdjuster.Decrement")
	defer span.End()

	product, err := tx.ProductForUpdate(ctx, productID)
	if err != nil {
		return nil, err
	}

	newStock := product.Stock - qty
	if newStock < 0 {
		return nil, fmt.Errorf("%w: product %d has %d in stock, requested %d",
			models.ErrInsufficientStock, productID, product.Stock, qty)
	}

	if err := tx.SetProductStock(ctx, productID, newStock); err != nil {
		return nil, err
	}

	util.StockDecrementsTotal.Inc()

	if product.Stock > product.LowStockThreshold && newStock <= product.LowStockThreshold {
		return &models.ThresholdCrossing{
			ProductID:   product.ID,
			ProductName: product.Name,
			Stock:       newStock,
		}, nil
	}
	return nil, nil
}

// Increment adds qty to the product's stock under the same row lock as
// Decrement. Used by restocking; returns the updated product.
func (a *stockAdjuster) Increment(ctx context.Context, tx store.Tx, productID int64, qty int) (*models.Product, error) {
	if qty < 1 {
		return nil, fmt.Errorf("%w: restock quantity must be at least 1, got %d",
			models.ErrInvalidLineData, qty)
	}

	product, err := tx.ProductForUpdate(ctx, productID)
	if err != nil {
		return nil, err
	}

	product.Stock += qty
	if err := tx.SetProductStock(ctx, productID, product.Stock); err != nil {
		return nil, err
	}
	return product, nil
}
