package paymentrequest

import (
	"github.com/flexprice/billingcore/internal/types"
)

// PaymentRequest asks a customer to settle a group of overdue invoices
type PaymentRequest struct {
	ID                string                     `db:"id" json:"id"`
	ReferenceNumber   string                     `db:"reference_number" json:"reference_number"`
	// IdempotencyKey is derived from the grouped receivables, unique per tenant
	IdempotencyKey    string                     `db:"idempotency_key" json:"idempotency_key"`
	CustomerID        string                     `db:"customer_id" json:"customer_id"`
	DunningCampaignID string                     `db:"dunning_campaign_id" json:"dunning_campaign_id"`
	Currency          string                     `db:"currency" json:"currency"`
	AmountMinor       int64                      `db:"amount_minor" json:"amount_minor"`
	InvoiceIDs        []string                   `db:"-" json:"invoice_ids"`
	PaymentStatus     types.PaymentRequestStatus `db:"payment_status" json:"payment_status"`
	EnvironmentID     string                     `db:"environment_id" json:"environment_id"`
	types.BaseModel
}

// IsPending reports whether the request still covers its amount
func (p *PaymentRequest) IsPending() bool {
	return p.PaymentStatus == types.PaymentRequestStatusPending
}
