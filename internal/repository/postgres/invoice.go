package postgres

import (
	"context"
	"time"

	"github.com/flexprice/billingcore/internal/domain/invoice"
	ierr "github.com/flexprice/billingcore/internal/errors"
	"github.com/flexprice/billingcore/internal/logger"
	"github.com/flexprice/billingcore/internal/postgres"
	"github.com/flexprice/billingcore/internal/types"
)

type invoiceRepository struct {
	client postgres.IClient
	log    *logger.Logger
}

func NewInvoiceRepository(client postgres.IClient, log *logger.Logger) invoice.Repository {
	return &invoiceRepository{client: client, log: log}
}

func (r *invoiceRepository) ListOverdue(ctx context.Context, now time.Time) ([]*invoice.Invoice, error) {
	span := StartRepositorySpan(ctx, "invoice", "list_overdue", map[string]interface{}{
		"now": now,
	})
	defer FinishSpan(span)

	query := `
		SELECT id, customer_id, invoice_number, currency, total_minor, outstanding_minor, payment_status,
			due_date, environment_id, ` + baseColumns + `
		FROM invoices
		WHERE tenant_id = $1
		AND status = $2
		AND payment_status <> $3
		AND outstanding_minor > 0
		AND due_date < $4
		ORDER BY id`

	var invoices []*invoice.Invoice
	err := r.client.Querier(ctx).SelectContext(ctx, &invoices, query,
		types.GetTenantID(ctx),
		types.StatusActive,
		types.PaymentStatusSucceeded,
		now,
	)
	if err != nil {
		SetSpanError(span, err)
		return nil, ierr.WithError(err).
			WithHint("Failed to list overdue invoices").
			Mark(ierr.ErrDatabase)
	}

	r.log.Debugw("listed overdue invoices", "count", len(invoices))
	SetSpanSuccess(span)
	return invoices, nil
}
