package service

import (
	"context"
	"time"

	"hospital-service/internal/models"
	"hospital-service/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Publisher publishes one low-stock reminder. Delivery is best-effort,
// at-most-once: a failed publish is logged and never retried.
type Publisher interface {
	PublishLowStock(ctx context.Context, event *models.LowStockEvent) error
}

// Dispatcher consumes the threshold crossings of committed transactions
// and publishes low-stock reminders off the critical path. It holds no
// transaction locks and its failures never reach the purchase caller.
// Crossings from one Dispatch call are published in FIFO order.
type Dispatcher struct {
	publisher Publisher
	queue     chan []models.ThresholdCrossing
	logger    *zap.Logger
	done      chan struct{}
}

// NewDispatcher creates a dispatcher with the given queue depth.
func NewDispatcher(publisher Publisher, buffer int) *Dispatcher {
	if buffer < 1 {
		buffer = 64
	}
	return &Dispatcher{
		publisher: publisher,
		queue:     make(chan []models.ThresholdCrossing, buffer),
		logger:    util.GetLogger(),
		done:      make(chan struct{}),
	}
}

// Start runs the dispatch loop until ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	defer close(d.done)

	for {
		select {
		case <-ctx.Done():
			return
		case crossings := <-d.queue:
			for _, crossing := range crossings {
				d.publish(crossing)
			}
		}
	}
}

// Dispatch enqueues crossings for asynchronous delivery. It never
// blocks the caller: if the queue is full the batch is dropped and
// logged, consistent with at-most-once reminder semantics.
func (d *Dispatcher) Dispatch(crossings []models.ThresholdCrossing) {
	select {
	case d.queue <- crossings:
	default:
		util.ReminderPublishFailures.Inc()
		d.logger.Warn("Reminder queue full, dropping crossings",
			zap.Int("count", len(crossings)))
	}
}

// Wait blocks until the dispatch loop has exited.
func (d *Dispatcher) Wait() {
	<-d.done
}

func (d *Dispatcher) publish(crossing models.ThresholdCrossing) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	event := &models.LowStockEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeLowStock,
			Timestamp: time.Now(),
		},
		ProductID:   crossing.ProductID,
		ProductName: crossing.ProductName,
		Stock:       crossing.Stock,
	}

	if err := d.publisher.PublishLowStock(ctx, event); err != nil {
		util.ReminderPublishFailures.Inc()
		d.logger.Error("Failed to publish low-stock reminder",
			zap.String("product_name", crossing.ProductName),
			zap.Int64("product_id", crossing.ProductID),
			zap.Error(err))
		return
	}

	util.LowStockEventsTotal.Inc()
	d.logger.Info("Low-stock reminder published",
		zap.String("product_name", crossing.ProductName),
		zap.Int("stock", crossing.Stock))
}
