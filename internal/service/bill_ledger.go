package service

import (
	"context"
	"fmt"

	"hospital-service/internal/models"
	"hospital-service/internal/store"
)

// Remain amount policies. Whether remain_amount may go negative
// (representing change due to the customer) is a business decision,
// so it is configuration rather than a fixed invariant.
const (
	RemainPolicyAllowNegative = "allow_negative"
	RemainPolicyClamp         = "clamp"
)

// billLedger validates and persists the bill header. It owns the
// PurchaseBill record exclusively; the header is immutable once committed.
type billLedger struct {
	remainPolicy string
}

// buildHeader validates the monetary fields of a checkout and produces
// the bill header to persist. All failures here are InvalidBillData and
// are raised before any stock mutation occurs.
func (l *billLedger) buildHeader(req *CheckoutRequest) (*models.PurchaseBill, error) {
	if req.TotalAmount < 1 {
		return nil, fmt.Errorf("%w: total_amount must be at least 1, got %d",
			models.ErrInvalidBillData, req.TotalAmount)
	}
	if req.NetTotal < 0 || req.TotalDiscount < 0 || req.AmountReceived < 0 {
		return nil, fmt.Errorf("%w: monetary fields must be non-negative",
			models.ErrInvalidBillData)
	}

	var lineNet, lineDiscount int64
	for _, line := range req.Lines {
		lineNet += int64(line.Quantity) * line.UnitPrice
		lineDiscount += line.Discount
	}
	if lineNet != req.NetTotal {
		return nil, fmt.Errorf("%w: line totals %d do not reconcile with net_total %d",
			models.ErrInvalidBillData, lineNet, req.NetTotal)
	}
	if lineDiscount != req.TotalDiscount {
		return nil, fmt.Errorf("%w: line discounts %d do not reconcile with total_discount %d",
			models.ErrInvalidBillData, lineDiscount, req.TotalDiscount)
	}
	if req.NetTotal-req.TotalDiscount != req.TotalAmount {
		return nil, fmt.Errorf("%w: net_total %d minus total_discount %d does not equal total_amount %d",
			models.ErrInvalidBillData, req.NetTotal, req.TotalDiscount, req.TotalAmount)
	}

	remain := req.TotalAmount - req.AmountReceived
	if remain < 0 && l.remainPolicy == RemainPolicyClamp {
		remain = 0
	}

	bill := &models.PurchaseBill{
		BillNo:          newBillNo(),
		CashierID:       req.CashierID,
		CustomerID:      req.CustomerID,
		CustomerName:    req.CustomerName,
		CustomerContact: req.CustomerContact,
		NetTotal:        req.NetTotal,
		TotalAmount:     req.TotalAmount,
		TotalDiscount:   req.TotalDiscount,
		AmountReceived:  req.AmountReceived,
		RemainAmount:    remain,
	}
	if req.IdempotencyKey != "" {
		key := req.IdempotencyKey
		bill.IdempotencyKey = &key
	}
	return bill, nil
}

// create persists the header inside the caller's unit of work and fills
// in the generated identity.
func (l *billLedger) create(ctx context.Context, tx store.Tx, bill *models.PurchaseBill) error {
	return tx.CreateBill(ctx, bill)
}
