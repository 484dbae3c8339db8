package invoice

import (
	"context"
	"time"
)

// Repository reads invoices for dunning
type Repository interface {
	// ListOverdue returns unpaid invoices with a due date before now
	ListOverdue(ctx context.Context, now time.Time) ([]*Invoice, error)
}
