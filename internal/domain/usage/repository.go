package usage

import (
	"context"
	"time"
)

// Repository aggregates metered usage amounts
type Repository interface {
	// GetUsageAmount returns the summed usage amount in minor units for the
	// subscription over [periodStart, periodEnd)
	GetUsageAmount(ctx context.Context, subscriptionID string, periodStart, periodEnd time.Time) (int64, error)
}
