package subscription

import (
	"context"
)

// Repository defines the subscription reads used by the billing services
type Repository interface {
	Get(ctx context.Context, id string) (*Subscription, error)
	// ListActiveWithThresholds returns ids of active subscriptions that have
	// at least one usage threshold configured
	ListActiveWithThresholds(ctx context.Context) ([]string, error)
}
