package postgres

import (
	"context"

	"github.com/flexprice/billingcore/internal/domain/paymentrequest"
	ierr "github.com/flexprice/billingcore/internal/errors"
	"github.com/flexprice/billingcore/internal/logger"
	"github.com/flexprice/billingcore/internal/postgres"
	"github.com/flexprice/billingcore/internal/types"
	"github.com/lib/pq"
	"github.com/samber/lo"
)

type paymentRequestRepository struct {
	client postgres.IClient
	log    *logger.Logger
}

func NewPaymentRequestRepository(client postgres.IClient, log *logger.Logger) paymentrequest.Repository {
	return &paymentRequestRepository{client: client, log: log}
}

// Create inserts the request and its invoice links in one transaction
func (r *paymentRequestRepository) Create(ctx context.Context, req *paymentrequest.PaymentRequest) error {
	r.log.Debugw("creating payment request",
		"payment_request_id", req.ID,
		"customer_id", req.CustomerID,
		"currency", req.Currency,
		"amount_minor", req.AmountMinor,
	)

	span := StartRepositorySpan(ctx, "payment_request", "create", map[string]interface{}{
		"payment_request_id": req.ID,
	})
	defer FinishSpan(span)

	if req.EnvironmentID == "" {
		req.EnvironmentID = types.GetEnvironmentID(ctx)
	}

	err := r.client.WithTx(ctx, func(ctx context.Context) error {
		query := `
			INSERT INTO payment_requests (
				id, reference_number, idempotency_key, customer_id, dunning_campaign_id, currency, amount_minor,
				payment_status, environment_id, ` + baseColumns + `
			) VALUES (
				:id, :reference_number, :idempotency_key, :customer_id, :dunning_campaign_id, :currency, :amount_minor,
				:payment_status, :environment_id, :tenant_id, :status, :created_at, :updated_at, :created_by, :updated_by
			)`

		if _, err := r.client.Querier(ctx).NamedExecContext(ctx, query, req); err != nil {
			if pqErr, ok := lo.ErrorsAs[*pq.Error](err); ok && pqErr.Code == "23505" {
				return ierr.WithError(err).
					WithHint("Payment request already exists").
					WithReportableDetails(map[string]any{
						"payment_request_id": req.ID,
						"idempotency_key":    req.IdempotencyKey,
					}).
					Mark(ierr.ErrAlreadyExists)
			}
			return ierr.WithError(err).
				WithHint("Failed to create payment request").
				Mark(ierr.ErrDatabase)
		}

		linkQuery := `
			INSERT INTO payment_request_invoices (tenant_id, payment_request_id, invoice_id)
			SELECT $1, $2, UNNEST($3::text[])`
		if len(req.InvoiceIDs) > 0 {
			if _, err := r.client.Querier(ctx).ExecContext(ctx, linkQuery, req.TenantID, req.ID, pq.Array(req.InvoiceIDs)); err != nil {
				return ierr.WithError(err).
					WithHint("Failed to link invoices to payment request").
					Mark(ierr.ErrDatabase)
			}
		}
		return nil
	})
	if err != nil {
		SetSpanError(span, err)
		return err
	}

	SetSpanSuccess(span)
	return nil
}

func (r *paymentRequestRepository) ListPending(ctx context.Context, customerIDs []string) ([]*paymentrequest.PaymentRequest, error) {
	span := StartRepositorySpan(ctx, "payment_request", "list_pending", map[string]interface{}{
		"customer_count": len(customerIDs),
	})
	defer FinishSpan(span)

	if customerIDs == nil {
		customerIDs = []string{}
	}

	query := `
		SELECT id, reference_number, idempotency_key, customer_id, dunning_campaign_id, currency, amount_minor,
			payment_status, environment_id, ` + baseColumns + `
		FROM payment_requests
		WHERE tenant_id = $1
		AND status = $2
		AND payment_status = $3
		AND (cardinality($4::text[]) = 0 OR customer_id = ANY($4))
		ORDER BY id`

	var requests []*paymentrequest.PaymentRequest
	err := r.client.Querier(ctx).SelectContext(ctx, &requests, query,
		types.GetTenantID(ctx),
		types.StatusActive,
		types.PaymentRequestStatusPending,
		pq.Array(customerIDs),
	)
	if err != nil {
		SetSpanError(span, err)
		return nil, ierr.WithError(err).
			WithHint("Failed to list pending payment requests").
			Mark(ierr.ErrDatabase)
	}

	SetSpanSuccess(span)
	return requests, nil
}
