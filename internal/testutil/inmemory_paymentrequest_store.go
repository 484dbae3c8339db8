package testutil

import (
	"context"

	"github.com/flexprice/billingcore/internal/domain/paymentrequest"
	ierr "github.com/flexprice/billingcore/internal/errors"
	"github.com/flexprice/billingcore/internal/types"
	"github.com/samber/lo"
)

// InMemoryPaymentRequestStore implements paymentrequest.Repository
type InMemoryPaymentRequestStore struct {
	*InMemoryStore[*paymentrequest.PaymentRequest]
}

func NewInMemoryPaymentRequestStore() *InMemoryPaymentRequestStore {
	return &InMemoryPaymentRequestStore{
		InMemoryStore: NewInMemoryStore[*paymentrequest.PaymentRequest](),
	}
}

func (s *InMemoryPaymentRequestStore) Create(ctx context.Context, req *paymentrequest.PaymentRequest) error {
	if req.EnvironmentID == "" {
		req.EnvironmentID = types.GetEnvironmentID(ctx)
	}
	if req.IdempotencyKey != "" {
		duplicates := s.List(ctx, func(ctx context.Context, existing *paymentrequest.PaymentRequest) bool {
			return existing.TenantID == req.TenantID && existing.IdempotencyKey == req.IdempotencyKey
		}, nil)
		if len(duplicates) > 0 {
			return ierr.NewError("payment request already exists").
				WithHint("Payment request already exists").
				WithReportableDetails(map[string]any{
					"idempotency_key": req.IdempotencyKey,
				}).
				Mark(ierr.ErrAlreadyExists)
		}
	}
	return s.InMemoryStore.Create(ctx, req.ID, req)
}

func (s *InMemoryPaymentRequestStore) ListPending(ctx context.Context, customerIDs []string) ([]*paymentrequest.PaymentRequest, error) {
	return s.List(ctx, func(ctx context.Context, req *paymentrequest.PaymentRequest) bool {
		if len(customerIDs) > 0 && !lo.Contains(customerIDs, req.CustomerID) {
			return false
		}
		return CheckTenantFilter(ctx, req.TenantID) &&
			req.Status == types.StatusActive &&
			req.IsPending()
	}, func(i, j *paymentrequest.PaymentRequest) bool {
		return i.ID < j.ID
	}), nil
}

// All returns every stored request ordered by id
func (s *InMemoryPaymentRequestStore) All(ctx context.Context) []*paymentrequest.PaymentRequest {
	return s.List(ctx, nil, func(i, j *paymentrequest.PaymentRequest) bool {
		return i.ID < j.ID
	})
}
