package testutil

import (
	"context"
	"time"

	"github.com/flexprice/billingcore/internal/domain/usagethreshold"
	ierr "github.com/flexprice/billingcore/internal/errors"
	"github.com/flexprice/billingcore/internal/types"
)

// InMemoryUsageThresholdStore implements usagethreshold.Repository
type InMemoryUsageThresholdStore struct {
	*InMemoryStore[*usagethreshold.UsageThreshold]
}

func NewInMemoryUsageThresholdStore() *InMemoryUsageThresholdStore {
	return &InMemoryUsageThresholdStore{
		InMemoryStore: NewInMemoryStore[*usagethreshold.UsageThreshold](),
	}
}

func (s *InMemoryUsageThresholdStore) Create(ctx context.Context, t *usagethreshold.UsageThreshold) error {
	if t.EnvironmentID == "" {
		t.EnvironmentID = types.GetEnvironmentID(ctx)
	}
	return s.InMemoryStore.Create(ctx, t.ID, t)
}

func (s *InMemoryUsageThresholdStore) Get(ctx context.Context, id string) (*usagethreshold.UsageThreshold, error) {
	t, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || !CheckTenantFilter(ctx, t.TenantID) || t.Status != types.StatusActive {
		return nil, ierr.NewError("usage threshold not found").
			WithHintf("Usage threshold with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	copied := *t
	return &copied, nil
}

func (s *InMemoryUsageThresholdStore) ListBySubscription(ctx context.Context, subscriptionID string) ([]*usagethreshold.UsageThreshold, error) {
	items := s.List(ctx, func(ctx context.Context, t *usagethreshold.UsageThreshold) bool {
		return t.SubscriptionID == subscriptionID &&
			CheckTenantFilter(ctx, t.TenantID) &&
			t.Status == types.StatusActive
	}, func(i, j *usagethreshold.UsageThreshold) bool {
		if i.AmountMinor != j.AmountMinor {
			return i.AmountMinor < j.AmountMinor
		}
		return i.ID < j.ID
	})

	result := make([]*usagethreshold.UsageThreshold, len(items))
	for i, t := range items {
		copied := *t
		result[i] = &copied
	}
	return result, nil
}

func (s *InMemoryUsageThresholdStore) MarkTriggered(ctx context.Context, id string, previous *time.Time, triggeredAt time.Time) error {
	return s.Mutate(ctx, id, func(t *usagethreshold.UsageThreshold) error {
		if !sameTime(t.LastTriggeredAt, previous) {
			return ierr.NewError("usage threshold was modified concurrently").
				WithHint("Usage threshold was already triggered").
				Mark(ierr.ErrVersionConflict)
		}
		at := triggeredAt
		t.LastTriggeredAt = &at
		return nil
	})
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}
