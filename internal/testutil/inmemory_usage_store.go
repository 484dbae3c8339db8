package testutil

import (
	"context"
	"sync"
	"time"
)

type usageRecord struct {
	subscriptionID string
	amountMinor    int64
	timestamp      time.Time
}

// InMemoryUsageStore implements usage.Repository over recorded usage
type InMemoryUsageStore struct {
	mu      sync.RWMutex
	records []usageRecord
}

func NewInMemoryUsageStore() *InMemoryUsageStore {
	return &InMemoryUsageStore{}
}

// Record adds metered usage for a subscription
func (s *InMemoryUsageStore) Record(subscriptionID string, amountMinor int64, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, usageRecord{subscriptionID: subscriptionID, amountMinor: amountMinor, timestamp: at})
}

func (s *InMemoryUsageStore) GetUsageAmount(ctx context.Context, subscriptionID string, periodStart, periodEnd time.Time) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total int64
	for _, r := range s.records {
		if r.subscriptionID != subscriptionID || r.timestamp.Before(periodStart) || !r.timestamp.Before(periodEnd) {
			continue
		}
		total += r.amountMinor
	}
	return total, nil
}

func (s *InMemoryUsageStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = nil
}
