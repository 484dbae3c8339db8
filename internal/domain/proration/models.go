package proration

import (
	"time"

	"github.com/flexprice/billingcore/internal/domain/plan"
	"github.com/flexprice/billingcore/internal/domain/subscription"
	"github.com/flexprice/billingcore/internal/types"
)

// ChangeRequest asks to move a subscription onto another plan.
// A nil EffectiveDate means "now".
type ChangeRequest struct {
	SubscriptionID string     `json:"subscription_id"`
	NewPlanID      string     `json:"new_plan_id"`
	EffectiveDate  *time.Time `json:"effective_date,omitempty"`
}

// PreviewParams holds a consistent snapshot of everything a preview needs.
type PreviewParams struct {
	Subscription *subscription.Subscription
	CurrentPlan  *plan.Plan
	NewPlan      *plan.Plan
	Request      ChangeRequest

	// Now is used when the request carries no effective date
	Now time.Time

	// CustomerTimezone decides calendar day boundaries, empty means UTC
	CustomerTimezone string
}

// LineItem is a single credit or charge of a plan change.
type LineItem struct {
	Description string    `json:"description"`
	AmountMinor int64     `json:"amount_minor"` // Positive for charge, negative for credit
	PlanID      string    `json:"plan_id"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	IsCredit    bool      `json:"is_credit"`
}

// Result is the monetary adjustment of a plan change.
// NetAmountMinor always equals NewPlanChargeMinor - CurrentPlanCreditMinor.
type Result struct {
	DaysRemaining          int                   `json:"days_remaining"`
	TotalDays              int                   `json:"total_days"`
	CurrentPlanCreditMinor int64                 `json:"current_plan_credit_minor"`
	NewPlanChargeMinor     int64                 `json:"new_plan_charge_minor"`
	NetAmountMinor         int64                 `json:"net_amount_minor"`
	Currency               string                `json:"currency"`
	Action                 types.ProrationAction `json:"action"`
	EffectiveDate          time.Time             `json:"effective_date"`
	CalculatorType         CalculatorType        `json:"calculator_type"`
	CreditItems            []LineItem            `json:"credit_items"`
	ChargeItems            []LineItem            `json:"charge_items"`
}

// NetAmount returns the net adjustment as Money
func (r *Result) NetAmount() types.Money {
	return types.NewMoney(r.NetAmountMinor, r.Currency)
}
