package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"hospital-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []*models.LowStockEvent
	fail   bool
}

func (p *capturePublisher) PublishLowStock(ctx context.Context, event *models.LowStockEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.fail {
		return errors.New("broker unavailable")
	}
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) published() []*models.LowStockEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*models.LowStockEvent, len(p.events))
	copy(out, p.events)
	return out
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestDispatcherPublishesInOrder(t *testing.T) {
	publisher := &capturePublisher{}
	dispatcher := NewDispatcher(publisher, 8)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go dispatcher.Start(ctx)

	dispatcher.Dispatch([]models.ThresholdCrossing{
		{ProductID: 1, ProductName: "Paracetamol", Stock: 4},
		{ProductID: 2, ProductName: "Ibuprofen", Stock: 2},
	})

	waitFor(t, func() bool { return len(publisher.published()) == 2 })

	events := publisher.published()
	require.Len(t, events, 2)
	assert.Equal(t, "Paracetamol", events[0].ProductName)
	assert.Equal(t, "Ibuprofen", events[1].ProductName)
	assert.Equal(t, models.EventTypeLowStock, events[0].EventType)
	assert.NotEmpty(t, events[0].EventID)
	assert.Equal(t, 4, events[0].Stock)
}

func TestDispatcherSwallowsPublishFailures(t *testing.T) {
	publisher := &capturePublisher{fail: true}
	dispatcher := NewDispatcher(publisher, 8)

	ctx, cancel := context.WithCancel(context.Background())
	go dispatcher.Start(ctx)

	// Must not panic or block the caller even though every publish fails.
	dispatcher.Dispatch([]models.ThresholdCrossing{
		{ProductID: 1, ProductName: "Paracetamol", Stock: 4},
	})

	time.Sleep(50 * time.Millisecond)
	cancel()
	dispatcher.Wait()

	assert.Empty(t, publisher.published())
}
