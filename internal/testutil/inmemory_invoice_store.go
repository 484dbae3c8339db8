package testutil

import (
	"context"
	"time"

	"github.com/flexprice/billingcore/internal/domain/invoice"
	"github.com/flexprice/billingcore/internal/types"
)

// InMemoryInvoiceStore implements invoice.Repository
type InMemoryInvoiceStore struct {
	*InMemoryStore[*invoice.Invoice]
}

func NewInMemoryInvoiceStore() *InMemoryInvoiceStore {
	return &InMemoryInvoiceStore{
		InMemoryStore: NewInMemoryStore[*invoice.Invoice](),
	}
}

func (s *InMemoryInvoiceStore) Create(ctx context.Context, inv *invoice.Invoice) error {
	if inv.EnvironmentID == "" {
		inv.EnvironmentID = types.GetEnvironmentID(ctx)
	}
	return s.InMemoryStore.Create(ctx, inv.ID, inv)
}

func (s *InMemoryInvoiceStore) ListOverdue(ctx context.Context, now time.Time) ([]*invoice.Invoice, error) {
	return s.List(ctx, func(ctx context.Context, inv *invoice.Invoice) bool {
		return CheckTenantFilter(ctx, inv.TenantID) &&
			CheckEnvironmentFilter(ctx, inv.EnvironmentID) &&
			inv.Status == types.StatusActive &&
			inv.IsOverdue(now)
	}, func(i, j *invoice.Invoice) bool {
		return i.ID < j.ID
	}), nil
}
