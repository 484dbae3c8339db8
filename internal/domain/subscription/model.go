package subscription

import (
	"time"

	ierr "github.com/flexprice/billingcore/internal/errors"
	"github.com/flexprice/billingcore/internal/types"
)

type Subscription struct {
	// ID is the unique identifier for the subscription
	ID string `db:"id" json:"id"`

	// PlanID is the plan the subscription is currently billed against
	PlanID string `db:"plan_id" json:"plan_id"`

	// CustomerID is the identifier for the customer in our system
	CustomerID string `db:"customer_id" json:"customer_id"`

	// SubscriptionStatus is the lifecycle status, see types.SubscriptionStatus
	SubscriptionStatus types.SubscriptionStatus `db:"subscription_status" json:"subscription_status"`

	// CurrentPeriodStart is the inclusive start of the current billing period
	CurrentPeriodStart time.Time `db:"current_period_start" json:"current_period_start"`

	// CurrentPeriodEnd is the exclusive end of the current billing period
	CurrentPeriodEnd time.Time `db:"current_period_end" json:"current_period_end"`

	// CustomerTimezone decides where calendar day boundaries fall, defaults to UTC
	CustomerTimezone string `db:"customer_timezone" json:"customer_timezone"`

	EnvironmentID string `db:"environment_id" json:"environment_id"`

	types.BaseModel
}

// Validate checks the period invariant billing_period_start < billing_period_end
func (s *Subscription) Validate() error {
	if !s.CurrentPeriodStart.Before(s.CurrentPeriodEnd) {
		return ierr.NewError("invalid billing period").
			WithHint("Billing period start must be before billing period end").
			WithReportableDetails(map[string]any{
				"subscription_id":      s.ID,
				"current_period_start": s.CurrentPeriodStart,
				"current_period_end":   s.CurrentPeriodEnd,
			}).
			Mark(ierr.ErrValidation)
	}
	return s.SubscriptionStatus.Validate()
}

// Location resolves the customer timezone, falling back to fallback and then UTC
func (s *Subscription) Location(fallback string) *time.Location {
	for _, name := range []string{s.CustomerTimezone, fallback} {
		if name == "" {
			continue
		}
		if loc, err := time.LoadLocation(name); err == nil {
			return loc
		}
	}
	return time.UTC
}

// InCurrentPeriod reports whether t falls in [CurrentPeriodStart, CurrentPeriodEnd)
func (s *Subscription) InCurrentPeriod(t time.Time) bool {
	return !t.Before(s.CurrentPeriodStart) && t.Before(s.CurrentPeriodEnd)
}
