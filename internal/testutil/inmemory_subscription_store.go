package testutil

import (
	"context"

	"github.com/flexprice/billingcore/internal/domain/subscription"
	ierr "github.com/flexprice/billingcore/internal/errors"
	"github.com/flexprice/billingcore/internal/types"
	"github.com/samber/lo"
)

// InMemorySubscriptionStore implements subscription.Repository. Thresholds
// are consulted to answer ListActiveWithThresholds.
type InMemorySubscriptionStore struct {
	*InMemoryStore[*subscription.Subscription]
	thresholds *InMemoryUsageThresholdStore
}

func NewInMemorySubscriptionStore(thresholds *InMemoryUsageThresholdStore) *InMemorySubscriptionStore {
	return &InMemorySubscriptionStore{
		InMemoryStore: NewInMemoryStore[*subscription.Subscription](),
		thresholds:    thresholds,
	}
}

func (s *InMemorySubscriptionStore) Create(ctx context.Context, sub *subscription.Subscription) error {
	if sub.EnvironmentID == "" {
		sub.EnvironmentID = types.GetEnvironmentID(ctx)
	}
	return s.InMemoryStore.Create(ctx, sub.ID, sub)
}

func (s *InMemorySubscriptionStore) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	sub, err := s.InMemoryStore.Get(ctx, id)
	if err != nil || !CheckTenantFilter(ctx, sub.TenantID) || sub.Status != types.StatusActive {
		return nil, ierr.NewError("subscription not found").
			WithHintf("Subscription with ID %s was not found", id).
			Mark(ierr.ErrNotFound)
	}
	return sub, nil
}

func (s *InMemorySubscriptionStore) ListActiveWithThresholds(ctx context.Context) ([]string, error) {
	subs := s.List(ctx, func(ctx context.Context, sub *subscription.Subscription) bool {
		return CheckTenantFilter(ctx, sub.TenantID) &&
			CheckEnvironmentFilter(ctx, sub.EnvironmentID) &&
			sub.Status == types.StatusActive &&
			sub.SubscriptionStatus == types.SubscriptionStatusActive
	}, func(i, j *subscription.Subscription) bool {
		return i.ID < j.ID
	})

	ids := lo.FilterMap(subs, func(sub *subscription.Subscription, _ int) (string, bool) {
		thresholds, _ := s.thresholds.ListBySubscription(ctx, sub.ID)
		return sub.ID, len(thresholds) > 0
	})
	return ids, nil
}
