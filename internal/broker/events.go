package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"hospital-service/internal/models"

	"github.com/segmentio/kafka-go"
)

// EventPublisher publishes domain events to the reminder broadcast topic
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishLowStock publishes a low-stock reminder, keyed by product name
// so all reminders for one product land on the same partition.
func (ep *EventPublisher) PublishLowStock(ctx context.Context, event *models.LowStockEvent) error {
	return ep.producer.PublishEvent(ctx, event.ProductName, event)
}

// PublishPurchaseCommitted publishes a committed-purchase event for
// downstream reporting consumers.
func (ep *EventPublisher) PublishPurchaseCommitted(ctx context.Context, event *models.PurchaseCommittedEvent) error {
	key := fmt.Sprintf("bill-%d", event.BillID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// EventHandler routes incoming broker messages to registered handlers
type EventHandler struct {
	onLowStock func(context.Context, *models.LowStockEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnLowStock registers a handler for low-stock events
func (eh *EventHandler) OnLowStock(handler func(context.Context, *models.LowStockEvent) error) {
	eh.onLowStock = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	switch baseEvent.EventType {
	case models.EventTypeLowStock:
		if eh.onLowStock != nil {
			var event models.LowStockEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal LowStock event: %w", err)
			}
			return eh.onLowStock(ctx, &event)
		}

	default:
		log.Printf("Unhandled event type: %s", baseEvent.EventType)
	}

	return nil
}
