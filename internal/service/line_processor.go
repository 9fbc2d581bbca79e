package service

import (
	"context"
	"fmt"

	"hospital-service/internal/models"
	"hospital-service/internal/store"
)

// lineProcessor validates and persists one purchase line inside the
// caller's unit of work. Stock is never touched here directly; the
// decrement goes through the stock adjuster and its errors propagate
// unchanged.
type lineProcessor struct {
	stock *stockAdjuster
}

func (p *lineProcessor) apply(ctx context.Context, tx store.Tx, billID int64, line CheckoutLine) (*models.ThresholdCrossing, error) {
	if line.Quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be at least 1, got %d",
			models.ErrInvalidLineData, line.Quantity)
	}
	if line.UnitPrice <= 0 {
		return nil, fmt.Errorf("%w: unit price must be positive, got %d",
			models.ErrInvalidLineData, line.UnitPrice)
	}
	if line.Discount < 0 {
		return nil, fmt.Errorf("%w: discount must be non-negative, got %d",
			models.ErrInvalidLineData, line.Discount)
	}

	// The adjuster resolves the product under its row lock, so an
	// unresolved reference surfaces as ProductNotFound before the line
	// row (with its product foreign key) is written.
	crossing, err := p.stock.Decrement(ctx, tx, line.ProductID, line.Quantity)
	if err != nil {
		return nil, err
	}

	row := &models.PurchaseLine{
		BillID:    billID,
		ProductID: line.ProductID,
		Quantity:  line.Quantity,
		UnitPrice: line.UnitPrice,
		Discount:  line.Discount,
		LineTotal: int64(line.Quantity)*line.UnitPrice - line.Discount,
	}
	if err := tx.CreateLine(ctx, row); err != nil {
		return nil, err
	}

	return crossing, nil
}
