package service

import (
	"testing"

	"hospital-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildHeaderValidation(t *testing.T) {
	base := func() *CheckoutRequest {
		return validRequest(
			CheckoutLine{ProductID: 1, Quantity: 2, UnitPrice: 500, Discount: 100},
		)
	}

	tests := []struct {
		name   string
		mutate func(req *CheckoutRequest)
	}{
		{"zero total amount", func(req *CheckoutRequest) { req.TotalAmount = 0 }},
		{"negative net total", func(req *CheckoutRequest) { req.NetTotal = -1 }},
		{"negative discount", func(req *CheckoutRequest) { req.TotalDiscount = -1 }},
		{"negative amount received", func(req *CheckoutRequest) { req.AmountReceived = -1 }},
		{"net total does not match lines", func(req *CheckoutRequest) { req.NetTotal += 50 }},
		{"discount does not match lines", func(req *CheckoutRequest) {
			req.TotalDiscount += 50
			req.TotalAmount -= 50
		}},
		{"total amount inconsistent", func(req *CheckoutRequest) { req.TotalAmount -= 1 }},
	}

	ledger := &billLedger{remainPolicy: RemainPolicyAllowNegative}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base()
			tt.mutate(req)

			_, err := ledger.buildHeader(req)
			require.ErrorIs(t, err, models.ErrInvalidBillData)
		})
	}
}

func TestBuildHeaderValid(t *testing.T) {
	ledger := &billLedger{remainPolicy: RemainPolicyAllowNegative}

	req := validRequest(
		CheckoutLine{ProductID: 1, Quantity: 2, UnitPrice: 500, Discount: 100},
		CheckoutLine{ProductID: 2, Quantity: 1, UnitPrice: 300},
	)
	req.AmountReceived = 700

	bill, err := ledger.buildHeader(req)
	require.NoError(t, err)

	assert.NotEmpty(t, bill.BillNo)
	assert.Equal(t, int64(1300), bill.NetTotal)
	assert.Equal(t, int64(100), bill.TotalDiscount)
	assert.Equal(t, int64(1200), bill.TotalAmount)
	assert.Equal(t, int64(500), bill.RemainAmount)
	assert.Nil(t, bill.IdempotencyKey)
}
