package service

import (
	"context"
	"time"

	"hospital-service/internal/broker"
	"hospital-service/internal/models"
	"hospital-service/internal/redisclient"
	"hospital-service/internal/store"
	"hospital-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Repository is the persistence contract the purchase engine depends on.
// *store.Store satisfies it; tests use an in-memory implementation.
type Repository interface {
	WithinTx(ctx context.Context, fn func(tx store.Tx) error) error
	GetBillByIdempotencyKey(ctx context.Context, key string) (*models.PurchaseBill, error)
	GetBillByID(ctx context.Context, id int64) (*models.PurchaseBill, error)
	GetLinesByBillID(ctx context.Context, billID int64) ([]models.PurchaseLine, error)
}

// PurchaseService coordinates one checkout as a single atomic unit of
// work: bill header, every line item, and every stock decrement commit
// together or not at all. Threshold crossings observed during the
// transaction are handed to the dispatcher only after commit.
type PurchaseService struct {
	repo       Repository
	dispatcher *Dispatcher
	events     *broker.EventPublisher
	stats      *redisclient.Client
	ledger     *billLedger
	lines      *lineProcessor
	logger     *zap.Logger
}

// NewPurchaseService creates a new purchase service. remainPolicy is one
// of RemainPolicyAllowNegative or RemainPolicyClamp. events and stats
// may be nil; both feed best-effort post-commit side channels only.
func NewPurchaseService(
	repo Repository,
	dispatcher *Dispatcher,
	events *broker.EventPublisher,
	stats *redisclient.Client,
	remainPolicy string,
) *PurchaseService {
	return &PurchaseService{
		repo:       repo,
		dispatcher: dispatcher,
		events:     events,
		stats:      stats,
		ledger:     &billLedger{remainPolicy: remainPolicy},
		lines:      &lineProcessor{stock: &stockAdjuster{}},
		logger:     util.GetLogger(),
	}
}

// CheckoutRequest represents a validated point-of-sale checkout.
// Monetary values are in minor currency units.
type CheckoutRequest struct {
	CashierID       int64          `json:"cashier_id" binding:"required"`
	CustomerID      *int64         `json:"customer_id,omitempty"`
	CustomerName    *string        `json:"customer_name,omitempty"`
	CustomerContact *string        `json:"customer_contact,omitempty"`
	NetTotal        int64          `json:"net_total"`
	TotalAmount     int64          `json:"total_amount" binding:"required"`
	TotalDiscount   int64          `json:"total_discount"`
	AmountReceived  int64          `json:"amount_received"`
	Lines           []CheckoutLine `json:"lines" binding:"required,min=1"`
	IdempotencyKey  string         `json:"idempotency_key,omitempty"`
}

// CheckoutLine represents one purchase line in a checkout
type CheckoutLine struct {
	ProductID int64 `json:"product_id" binding:"required"`
	Quantity  int   `json:"quantity" binding:"required"`
	UnitPrice int64 `json:"unit_price" binding:"required"`
	Discount  int64 `json:"discount"`
}

// CheckoutResponse represents the result of a committed checkout
type CheckoutResponse struct {
	BillID    int64                      `json:"bill_id"`
	BillNo    string                     `json:"bill_no"`
	Crossings []models.ThresholdCrossing `json:"crossings,omitempty"`
}

// Checkout persists the bill, every line item, and every stock decrement
// atomically. On any failure nothing is durable and a domain error is
// returned. On success the new bill identity is returned together with
// the threshold crossings observed, which are also dispatched
// asynchronously as low-stock reminders.
func (s *PurchaseService) Checkout(ctx context.Context, req *CheckoutRequest) (*CheckoutResponse, error) {
	ctx, span := util.StartSpan(ctx, "PurchaseService.Checkout")
	defer span.End()

	start := time.Now()
	defer func() {
		util.CheckoutLatency.Observe(time.Since(start).Seconds())
	}()

	if req.IdempotencyKey != "" {
		existing, err := s.repo.GetBillByIdempotencyKey(ctx, req.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			s.logger.Info("Duplicate checkout request detected",
				zap.String("idempotency_key", req.IdempotencyKey),
				zap.Int64("bill_id", existing.ID))
			return &CheckoutResponse{BillID: existing.ID, BillNo: existing.BillNo}, nil
		}
	}

	// Header validation happens before the transaction opens, so an
	// invalid bill can never touch product stock.
	bill, err := s.ledger.buildHeader(req)
	if err != nil {
		s.abort(err)
		return nil, err
	}

	var crossings []models.ThresholdCrossing
	err = s.repo.WithinTx(ctx, func(tx store.Tx) error {
		if err := s.ledger.create(ctx, tx, bill); err != nil {
			return err
		}
		for _, line := range req.Lines {
			crossing, err := s.lines.apply(ctx, tx, bill.ID, line)
			if err != nil {
				return err
			}
			if crossing != nil {
				crossings = append(crossings, *crossing)
			}
		}
		return nil
	})
	if err != nil {
		s.abort(err)
		return nil, err
	}

	util.PurchasesCommittedTotal.Inc()
	s.logger.Info("Purchase committed",
		zap.Int64("bill_id", bill.ID),
		zap.String("bill_no", bill.BillNo),
		zap.Int("lines", len(req.Lines)),
		zap.Int("crossings", len(crossings)))

	// Reminders run off the critical path; their failure never affects
	// the already-committed purchase.
	if len(crossings) > 0 && s.dispatcher != nil {
		s.dispatcher.Dispatch(crossings)
	}

	s.afterCommit(bill, len(req.Lines))

	return &CheckoutResponse{
		BillID:    bill.ID,
		BillNo:    bill.BillNo,
		Crossings: crossings,
	}, nil
}

// afterCommit feeds the reporting side channels. Failures here are
// logged only; the purchase is already durable.
func (s *PurchaseService) afterCommit(bill *models.PurchaseBill, lineCount int) {
	if s.events == nil && s.stats == nil {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if s.events != nil {
			event := &models.PurchaseCommittedEvent{
				BaseEvent: models.BaseEvent{
					EventID:   uuid.New().String(),
					EventType: models.EventTypePurchaseCommitted,
					Timestamp: time.Now(),
				},
				BillID:      bill.ID,
				CashierID:   bill.CashierID,
				TotalAmount: bill.TotalAmount,
				LineCount:   lineCount,
			}
			if err := s.events.PublishPurchaseCommitted(ctx, event); err != nil {
				s.logger.Error("Failed to publish PurchaseCommitted event",
					zap.Int64("bill_id", bill.ID), zap.Error(err))
			}
		}

		if s.stats != nil {
			if err := s.stats.IncrDailyPurchases(ctx, bill.TotalAmount); err != nil {
				s.logger.Warn("Failed to update daily purchase counters",
					zap.Int64("bill_id", bill.ID), zap.Error(err))
			}
		}
	}()
}

func (s *PurchaseService) abort(err error) {
	kind := models.ErrorKind(err)
	util.PurchasesAbortedTotal.WithLabelValues(kind).Inc()
	s.logger.Warn("Purchase aborted",
		zap.String("kind", kind),
		zap.Error(err))
}

// GetPurchase retrieves a committed bill and its line items
func (s *PurchaseService) GetPurchase(ctx context.Context, billID int64) (*models.PurchaseBill, []models.PurchaseLine, error) {
	bill, err := s.repo.GetBillByID(ctx, billID)
	if err != nil {
		return nil, nil, err
	}

	lines, err := s.repo.GetLinesByBillID(ctx, billID)
	if err != nil {
		return nil, nil, err
	}

	return bill, lines, nil
}

func newBillNo() string {
	return "PB-" + uuid.New().String()[:8]
}
