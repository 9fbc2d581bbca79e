package worker

import (
	"context"
	"time"

	"hospital-service/internal/broker"
	"hospital-service/internal/models"
	"hospital-service/internal/redisclient"
	"hospital-service/internal/util"

	"go.uber.org/zap"
)

// ReminderWorker consumes low-stock reminders from the broadcast topic
// and maintains the low-stock board the dashboard reads. It runs
// entirely outside the purchase transaction path.
type ReminderWorker struct {
	consumer     *broker.Consumer
	eventHandler *broker.EventHandler
	redis        *redisclient.Client
	dedupeWindow time.Duration
	logger       *zap.Logger
}

// NewReminderWorker creates a new reminder worker
func NewReminderWorker(consumer *broker.Consumer, redis *redisclient.Client, dedupeWindow time.Duration) *ReminderWorker {
	w := &ReminderWorker{
		consumer:     consumer,
		redis:        redis,
		dedupeWindow: dedupeWindow,
		logger:       util.GetLogger(),
	}

	eventHandler := broker.NewEventHandler()
	eventHandler.OnLowStock(w.handleLowStock)
	w.eventHandler = eventHandler

	return w
}

// Start starts the worker
func (w *ReminderWorker) Start(ctx context.Context) error {
	w.logger.Info("Starting reminder worker")
	return w.consumer.StartConsuming(ctx, w.eventHandler.HandleMessage)
}

// Stop stops the worker
func (w *ReminderWorker) Stop() error {
	w.logger.Info("Stopping reminder worker")
	return w.consumer.Close()
}

func (w *ReminderWorker) handleLowStock(ctx context.Context, event *models.LowStockEvent) error {
	util.RemindersConsumedTotal.Inc()

	first, err := w.redis.MarkReminderSent(ctx, event.ProductID, w.dedupeWindow)
	if err != nil {
		// The board update still proceeds; dedupe is an optimization.
		w.logger.Warn("Reminder dedupe check failed",
			zap.Int64("product_id", event.ProductID),
			zap.Error(err))
		first = true
	}
	if !first {
		w.logger.Debug("Reminder already recorded inside dedupe window",
			zap.Int64("product_id", event.ProductID))
		return nil
	}

	if err := w.redis.RecordLowStock(ctx, event.ProductID, event.ProductName, event.Stock); err != nil {
		w.logger.Error("Failed to record low-stock reminder",
			zap.Int64("product_id", event.ProductID),
			zap.Error(err))
		return err
	}

	w.logger.Info("Low-stock reminder recorded",
		zap.String("product_name", event.ProductName),
		zap.Int("stock", event.Stock))
	return nil
}
