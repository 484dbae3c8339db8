package testutil

import (
	"context"
	"sync"

	"github.com/flexprice/billingcore/internal/publisher"
	"github.com/flexprice/billingcore/internal/types"
	"github.com/samber/lo"
)

// InMemoryEventPublisher records published billing events
type InMemoryEventPublisher struct {
	mu     sync.RWMutex
	events []*types.BillingEvent
	err    error
}

var _ publisher.EventPublisher = (*InMemoryEventPublisher)(nil)

func NewInMemoryEventPublisher() *InMemoryEventPublisher {
	return &InMemoryEventPublisher{}
}

func (p *InMemoryEventPublisher) Publish(ctx context.Context, event *types.BillingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}

// FailWith makes subsequent publishes return err
func (p *InMemoryEventPublisher) FailWith(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.err = err
}

// GetEvents returns published events, optionally filtered by name
func (p *InMemoryEventPublisher) GetEvents(names ...types.BillingEventName) []*types.BillingEvent {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return lo.Filter(p.events, func(e *types.BillingEvent, _ int) bool {
		return len(names) == 0 || lo.Contains(names, e.EventName)
	})
}

func (p *InMemoryEventPublisher) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = nil
	p.err = nil
}
