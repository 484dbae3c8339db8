package plan

import (
	ierr "github.com/flexprice/billingcore/internal/errors"
	"github.com/flexprice/billingcore/internal/types"
)

// Plan is the priced offering a subscription is billed against.
// AmountMinor is the full-period price in minor currency units.
type Plan struct {
	ID            string                `db:"id" json:"id"`
	Name          string                `db:"name" json:"name"`
	AmountMinor   int64                 `db:"amount_minor" json:"amount_minor"`
	Currency      string                `db:"currency" json:"currency"`
	Interval      types.BillingInterval `db:"billing_interval" json:"interval"`
	EnvironmentID string                `db:"environment_id" json:"environment_id"`
	types.BaseModel
}

// Price returns the full-period price as Money
func (p *Plan) Price() types.Money {
	return types.NewMoney(p.AmountMinor, p.Currency)
}

func (p *Plan) Validate() error {
	if p.AmountMinor < 0 {
		return ierr.NewError("plan amount cannot be negative").
			WithHint("Plan amount must be zero or positive").
			WithReportableDetails(map[string]any{
				"plan_id":      p.ID,
				"amount_minor": p.AmountMinor,
			}).
			Mark(ierr.ErrValidation)
	}
	if err := types.ValidateCurrencyCode(p.Currency); err != nil {
		return err
	}
	return p.Interval.Validate()
}
