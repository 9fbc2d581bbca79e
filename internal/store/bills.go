package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"hospital-service/internal/models"
)

// GetBillByID retrieves a committed purchase bill by ID
func (s *Store) GetBillByID(ctx context.Context, id int64) (*models.PurchaseBill, error) {
	var bill models.PurchaseBill
	err := s.db.GetContext(ctx, &bill, "SELECT * FROM purchase_bills WHERE id = $1", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("bill not found: %d", id)
	}
	if err != nil {
		return nil, mapDBError(err)
	}
	return &bill, nil
}

// GetBillByIdempotencyKey retrieves a bill by idempotency key, or nil if
// no bill was committed under that key.
func (s *Store) GetBillByIdempotencyKey(ctx context.Context, key string) (*models.PurchaseBill, error) {
	var bill models.PurchaseBill
	err := s.db.GetContext(ctx, &bill, "SELECT * FROM purchase_bills WHERE idempotency_key = $1", key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, mapDBError(err)
	}
	return &bill, nil
}

// GetLinesByBillID retrieves all line items for a bill
func (s *Store) GetLinesByBillID(ctx context.Context, billID int64) ([]models.PurchaseLine, error) {
	var lines []models.PurchaseLine
	err := s.db.SelectContext(ctx, &lines,
		"SELECT * FROM purchase_lines WHERE bill_id = $1 ORDER BY id", billID)
	if err != nil {
		return nil, mapDBError(err)
	}
	return lines, nil
}

// GetBillsByCashierID retrieves bills registered by a cashier
func (s *Store) GetBillsByCashierID(ctx context.Context, cashierID int64) ([]models.PurchaseBill, error) {
	var bills []models.PurchaseBill
	err := s.db.SelectContext(ctx, &bills,
		"SELECT * FROM purchase_bills WHERE cashier_id = $1 ORDER BY created_at DESC", cashierID)
	if err != nil {
		return nil, mapDBError(err)
	}
	return bills, nil
}
