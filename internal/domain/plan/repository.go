package plan

import (
	"context"
)

// Repository defines the read access the billing engines need for plans
type Repository interface {
	Get(ctx context.Context, id string) (*Plan, error)
}
