package paymentrequest

import (
	"context"
)

// Repository persists payment requests
type Repository interface {
	Create(ctx context.Context, req *PaymentRequest) error
	// ListPending returns pending requests, optionally restricted to customers
	ListPending(ctx context.Context, customerIDs []string) ([]*PaymentRequest, error)
}
