package types

import (
	ierr "github.com/flexprice/billingcore/internal/errors"
	"github.com/samber/lo"
)

// BillingInterval is how often a plan is billed
type BillingInterval string

const (
	BillingIntervalWeekly  BillingInterval = "weekly"
	BillingIntervalMonthly BillingInterval = "monthly"
	BillingIntervalYearly  BillingInterval = "yearly"
)

var BillingIntervalValues = []BillingInterval{
	BillingIntervalWeekly,
	BillingIntervalMonthly,
	BillingIntervalYearly,
}

func (b BillingInterval) String() string {
	return string(b)
}

func (b BillingInterval) Validate() error {
	if !lo.Contains(BillingIntervalValues, b) {
		return ierr.NewError("invalid billing interval").
			WithHint("Billing interval must be weekly, monthly or yearly").
			WithReportableDetails(map[string]any{
				"allowed_values": BillingIntervalValues,
				"provided_value": b,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
