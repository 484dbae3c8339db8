package usagethreshold

import (
	"context"
	"time"
)

// Repository persists usage thresholds
type Repository interface {
	Get(ctx context.Context, id string) (*UsageThreshold, error)
	ListBySubscription(ctx context.Context, subscriptionID string) ([]*UsageThreshold, error)
	// MarkTriggered sets last_triggered_at. It only succeeds when the stored
	// value still equals previous, so concurrent evaluators fire once.
	MarkTriggered(ctx context.Context, id string, previous *time.Time, triggeredAt time.Time) error
}
