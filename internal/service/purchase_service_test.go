package service

import (
	"context"
	"sync"
	"testing"

	"hospital-service/internal/models"
	"hospital-service/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memRepo is an in-memory Repository. WithinTx stages all writes and
// applies them only when fn succeeds, mirroring the commit/rollback
// contract of the database store.
type memRepo struct {
	mu       sync.Mutex
	products map[int64]*models.Product
	bills    map[int64]*models.PurchaseBill
	lines    []models.PurchaseLine
	nextBill int64
	nextLine int64
}

func newMemRepo(products ...*models.Product) *memRepo {
	r := &memRepo{
		products: make(map[int64]*models.Product),
		bills:    make(map[int64]*models.PurchaseBill),
	}
	for _, p := range products {
		cp := *p
		r.products[p.ID] = &cp
	}
	return r
}

func (r *memRepo) WithinTx(ctx context.Context, fn func(tx store.Tx) error) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	tx := &memTx{repo: r, stock: make(map[int64]int)}
	if err := fn(tx); err != nil {
		return err
	}
	tx.commit()
	return nil
}

func (r *memRepo) GetBillByIdempotencyKey(ctx context.Context, key string) (*models.PurchaseBill, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, bill := range r.bills {
		if bill.IdempotencyKey != nil && *bill.IdempotencyKey == key {
			cp := *bill
			return &cp, nil
		}
	}
	return nil, nil
}

func (r *memRepo) GetBillByID(ctx context.Context, id int64) (*models.PurchaseBill, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bill, ok := r.bills[id]
	if !ok {
		return nil, models.ErrPersistence
	}
	cp := *bill
	return &cp, nil
}

func (r *memRepo) GetLinesByBillID(ctx context.Context, billID int64) ([]models.PurchaseLine, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.PurchaseLine
	for _, line := range r.lines {
		if line.BillID == billID {
			out = append(out, line)
		}
	}
	return out, nil
}

func (r *memRepo) productStock(id int64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.products[id].Stock
}

func (r *memRepo) lineCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.lines)
}

func (r *memRepo) billCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.bills)
}

// memTx stages writes against memRepo until commit.
type memTx struct {
	repo  *memRepo
	bills []*models.PurchaseBill
	lines []*models.PurchaseLine
	stock map[int64]int
}

func (t *memTx) CreateBill(ctx context.Context, bill *models.PurchaseBill) error {
	t.repo.nextBill++
	bill.ID = t.repo.nextBill
	cp := *bill
	t.bills = append(t.bills, &cp)
	return nil
}

func (t *memTx) CreateLine(ctx context.Context, line *models.PurchaseLine) error {
	t.repo.nextLine++
	line.ID = t.repo.nextLine
	cp := *line
	t.lines = append(t.lines, &cp)
	return nil
}

func (t *memTx) ProductForUpdate(ctx context.Context, productID int64) (*models.Product, error) {
	p, ok := t.repo.products[productID]
	if !ok {
		return nil, models.ErrProductNotFound
	}
	cp := *p
	if staged, ok := t.stock[productID]; ok {
		cp.Stock = staged
	}
	return &cp, nil
}

func (t *memTx) SetProductStock(ctx context.Context, productID int64, stock int) error {
	t.stock[productID] = stock
	return nil
}

func (t *memTx) commit() {
	for _, bill := range t.bills {
		t.repo.bills[bill.ID] = bill
	}
	for _, line := range t.lines {
		t.repo.lines = append(t.repo.lines, *line)
	}
	for id, stock := range t.stock {
		t.repo.products[id].Stock = stock
	}
}

func newTestService(repo *memRepo) *PurchaseService {
	return NewPurchaseService(repo, nil, nil, nil, RemainPolicyAllowNegative)
}

// validRequest builds a checkout whose header reconciles with its lines
// and is fully paid.
func validRequest(lines ...CheckoutLine) *CheckoutRequest {
	var net, discount int64
	for _, line := range lines {
		net += int64(line.Quantity) * line.UnitPrice
		discount += line.Discount
	}
	return &CheckoutRequest{
		CashierID:      1,
		NetTotal:       net,
		TotalDiscount:  discount,
		TotalAmount:    net - discount,
		AmountReceived: net - discount,
		Lines:          lines,
	}
}

func TestCheckoutCommitsAllWrites(t *testing.T) {
	repo := newMemRepo(
		&models.Product{ID: 1, Name: "Paracetamol", Stock: 50, LowStockThreshold: 5},
		&models.Product{ID: 2, Name: "Ibuprofen", Stock: 30, LowStockThreshold: 5},
	)
	svc := newTestService(repo)

	resp, err := svc.Checkout(context.Background(), validRequest(
		CheckoutLine{ProductID: 1, Quantity: 3, UnitPrice: 500},
		CheckoutLine{ProductID: 2, Quantity: 2, UnitPrice: 800, Discount: 100},
	))
	require.NoError(t, err)
	require.NotZero(t, resp.BillID)

	bill, lines, err := svc.GetPurchase(context.Background(), resp.BillID)
	require.NoError(t, err)
	assert.Len(t, lines, 2)
	for _, line := range lines {
		assert.Equal(t, resp.BillID, line.BillID)
	}

	assert.Equal(t, 47, repo.productStock(1))
	assert.Equal(t, 28, repo.productStock(2))

	assert.Equal(t, int64(3*500+2*800), bill.NetTotal)
	assert.Equal(t, int64(100), bill.TotalDiscount)
	assert.Equal(t, bill.TotalAmount-bill.AmountReceived, bill.RemainAmount)
}

func TestCheckoutAbortsAtomically(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(req *CheckoutRequest)
		wantErr error
	}{
		{
			name: "unknown product on second line",
			mutate: func(req *CheckoutRequest) {
				req.Lines[1].ProductID = 999
			},
			wantErr: models.ErrProductNotFound,
		},
		{
			name: "invalid quantity",
			mutate: func(req *CheckoutRequest) {
				req.Lines[1].Quantity = 0
				// keep the header reconciled so the line check is reached
				req.NetTotal -= 2 * 800
				req.TotalAmount = req.NetTotal - req.TotalDiscount
				req.AmountReceived = req.TotalAmount
			},
			wantErr: models.ErrInvalidLineData,
		},
		{
			name: "insufficient stock on second line",
			mutate: func(req *CheckoutRequest) {
				req.Lines[1].Quantity = 31
				req.NetTotal += 29 * 800
				req.TotalAmount = req.NetTotal - req.TotalDiscount
				req.AmountReceived = req.TotalAmount
			},
			wantErr: models.ErrInsufficientStock,
		},
		{
			name: "invalid header",
			mutate: func(req *CheckoutRequest) {
				req.TotalAmount = 0
			},
			wantErr: models.ErrInvalidBillData,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemRepo(
				&models.Product{ID: 1, Name: "Paracetamol", Stock: 50, LowStockThreshold: 5},
				&models.Product{ID: 2, Name: "Ibuprofen", Stock: 30, LowStockThreshold: 5},
			)
			svc := newTestService(repo)

			req := validRequest(
				CheckoutLine{ProductID: 1, Quantity: 3, UnitPrice: 500},
				CheckoutLine{ProductID: 2, Quantity: 2, UnitPrice: 800},
			)
			tt.mutate(req)

			_, err := svc.Checkout(context.Background(), req)
			require.ErrorIs(t, err, tt.wantErr)

			// Full atomicity: nothing durable survives the abort.
			assert.Zero(t, repo.billCount())
			assert.Zero(t, repo.lineCount())
			assert.Equal(t, 50, repo.productStock(1))
			assert.Equal(t, 30, repo.productStock(2))
		})
	}
}

func TestThresholdCrossingFiresOnTransitionOnly(t *testing.T) {
	repo := newMemRepo(
		&models.Product{ID: 1, Name: "Amoxicillin", Stock: 10, LowStockThreshold: 5},
	)
	svc := newTestService(repo)

	// 10 -> 4 crosses the threshold.
	resp, err := svc.Checkout(context.Background(), validRequest(
		CheckoutLine{ProductID: 1, Quantity: 6, UnitPrice: 100},
	))
	require.NoError(t, err)
	require.Len(t, resp.Crossings, 1)
	assert.Equal(t, int64(1), resp.Crossings[0].ProductID)
	assert.Equal(t, "Amoxicillin", resp.Crossings[0].ProductName)
	assert.Equal(t, 4, resp.Crossings[0].Stock)
	assert.Equal(t, 4, repo.productStock(1))

	// 4 -> 3 is already below the threshold, no new crossing.
	resp, err = svc.Checkout(context.Background(), validRequest(
		CheckoutLine{ProductID: 1, Quantity: 1, UnitPrice: 100},
	))
	require.NoError(t, err)
	assert.Empty(t, resp.Crossings)
	assert.Equal(t, 3, repo.productStock(1))
}

func TestRemainAmountPolicy(t *testing.T) {
	tests := []struct {
		name       string
		policy     string
		received   int64
		wantRemain int64
	}{
		{"exact payment", RemainPolicyAllowNegative, 1000, 0},
		{"partial payment", RemainPolicyAllowNegative, 400, 600},
		{"overpayment shows change due", RemainPolicyAllowNegative, 1500, -500},
		{"overpayment clamped", RemainPolicyClamp, 1500, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := newMemRepo(
				&models.Product{ID: 1, Name: "Gauze", Stock: 100, LowStockThreshold: 10},
			)
			svc := NewPurchaseService(repo, nil, nil, nil, tt.policy)

			req := validRequest(CheckoutLine{ProductID: 1, Quantity: 10, UnitPrice: 100})
			req.AmountReceived = tt.received

			resp, err := svc.Checkout(context.Background(), req)
			require.NoError(t, err)

			bill, _, err := svc.GetPurchase(context.Background(), resp.BillID)
			require.NoError(t, err)
			assert.Equal(t, tt.wantRemain, bill.RemainAmount)
		})
	}
}

func TestConcurrentCheckoutsLastUnit(t *testing.T) {
	repo := newMemRepo(
		&models.Product{ID: 1, Name: "Insulin", Stock: 1, LowStockThreshold: 0},
	)
	svc := newTestService(repo)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = svc.Checkout(context.Background(), validRequest(
				CheckoutLine{ProductID: 1, Quantity: 1, UnitPrice: 2500},
			))
		}(i)
	}
	wg.Wait()

	var committed, insufficient int
	for _, err := range errs {
		switch {
		case err == nil:
			committed++
		default:
			require.ErrorIs(t, err, models.ErrInsufficientStock)
			insufficient++
		}
	}

	assert.Equal(t, 1, committed)
	assert.Equal(t, 1, insufficient)
	assert.Equal(t, 0, repo.productStock(1))
	assert.Equal(t, 1, repo.billCount())
	assert.Equal(t, 1, repo.lineCount())
}

func TestRetryAfterAbortIsDeterministic(t *testing.T) {
	repo := newMemRepo(
		&models.Product{ID: 1, Name: "Saline", Stock: 2, LowStockThreshold: 0},
	)
	svc := newTestService(repo)

	req := validRequest(CheckoutLine{ProductID: 1, Quantity: 5, UnitPrice: 300})

	_, err := svc.Checkout(context.Background(), req)
	require.ErrorIs(t, err, models.ErrInsufficientStock)

	// The abort left no hidden state; the retry fails identically.
	_, err = svc.Checkout(context.Background(), req)
	require.ErrorIs(t, err, models.ErrInsufficientStock)

	assert.Equal(t, 2, repo.productStock(1))
	assert.Zero(t, repo.billCount())
	assert.Zero(t, repo.lineCount())
}

func TestCheckoutIdempotency(t *testing.T) {
	repo := newMemRepo(
		&models.Product{ID: 1, Name: "Bandage", Stock: 20, LowStockThreshold: 2},
	)
	svc := newTestService(repo)

	req := validRequest(CheckoutLine{ProductID: 1, Quantity: 4, UnitPrice: 150})
	req.IdempotencyKey = "checkout-abc-123"

	first, err := svc.Checkout(context.Background(), req)
	require.NoError(t, err)

	second, err := svc.Checkout(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first.BillID, second.BillID)

	// The duplicate neither wrote lines nor touched stock again.
	assert.Equal(t, 16, repo.productStock(1))
	assert.Equal(t, 1, repo.lineCount())
}
