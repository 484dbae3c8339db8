package invoice

import (
	"time"

	"github.com/flexprice/billingcore/internal/types"
)

// Invoice is an overdue invoice as seen by dunning. OutstandingMinor is the
// invoice total less settlements and credit notes, computed upstream.
type Invoice struct {
	ID               string              `db:"id" json:"id"`
	CustomerID       string              `db:"customer_id" json:"customer_id"`
	InvoiceNumber    *string             `db:"invoice_number" json:"invoice_number,omitempty"`
	Currency         string              `db:"currency" json:"currency"`
	TotalMinor       int64               `db:"total_minor" json:"total_minor"`
	OutstandingMinor int64               `db:"outstanding_minor" json:"outstanding_minor"`
	PaymentStatus    types.PaymentStatus `db:"payment_status" json:"payment_status"`
	DueDate          time.Time           `db:"due_date" json:"due_date"`
	EnvironmentID    string              `db:"environment_id" json:"environment_id"`
	types.BaseModel
}

// IsOverdue reports whether the invoice is unpaid past its due date at now
func (i *Invoice) IsOverdue(now time.Time) bool {
	return i.OutstandingMinor > 0 &&
		i.PaymentStatus != types.PaymentStatusSucceeded &&
		i.DueDate.Before(now)
}
