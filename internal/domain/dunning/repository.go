package dunning

import (
	"context"
	"time"
)

// Repository persists dunning campaigns and per customer attempt state
type Repository interface {
	Get(ctx context.Context, id string) (*Campaign, error)
	ListActive(ctx context.Context) ([]*Campaign, error)
	ListAttempts(ctx context.Context, campaignID string) ([]*Attempt, error)
	// RecordAttempt increments the attempt count of customerID and sets last_attempt_at
	RecordAttempt(ctx context.Context, campaignID, customerID string, at time.Time) error
}
