package dto

import (
	"time"

	"github.com/flexprice/billingcore/internal/domain/plan"
	"github.com/flexprice/billingcore/internal/domain/proration"
	"github.com/flexprice/billingcore/internal/types"
	"github.com/flexprice/billingcore/internal/validator"
)

// PreviewPlanChangeRequest asks what moving a subscription to another plan would cost
type PreviewPlanChangeRequest struct {
	// NewPlanID is the ID of the plan to change to
	NewPlanID string `json:"new_plan_id" validate:"required"`

	// EffectiveDate is when the change would take effect (optional, defaults to now)
	EffectiveDate *time.Time `json:"effective_date,omitempty"`
}

func (r *PreviewPlanChangeRequest) Validate() error {
	return validator.ValidateRequest(r)
}

// ToChangeRequest converts the request for the proration engine
func (r *PreviewPlanChangeRequest) ToChangeRequest(subscriptionID string) proration.ChangeRequest {
	return proration.ChangeRequest{
		SubscriptionID: subscriptionID,
		NewPlanID:      r.NewPlanID,
		EffectiveDate:  r.EffectiveDate,
	}
}

// PlanSummary is the part of a plan a preview shows
type PlanSummary struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	AmountMinor int64                 `json:"amount_minor"`
	Currency    string                `json:"currency"`
	Interval    types.BillingInterval `json:"interval"`
	// DisplayAmount is the formatted price, e.g. "$30.00"
	DisplayAmount string `json:"display_amount"`
}

func NewPlanSummary(p *plan.Plan) PlanSummary {
	return PlanSummary{
		ID:            p.ID,
		Name:          p.Name,
		AmountMinor:   p.AmountMinor,
		Currency:      types.NormalizeCurrency(p.Currency),
		Interval:      p.Interval,
		DisplayAmount: p.Price().String(),
	}
}

// PreviewPlanChangeResponse is the proration preview with both plans
type PreviewPlanChangeResponse struct {
	Proration   *proration.Result `json:"proration"`
	CurrentPlan PlanSummary       `json:"current_plan"`
	NewPlan     PlanSummary       `json:"new_plan"`
	// DisplayNetAmount is the formatted net adjustment
	DisplayNetAmount string `json:"display_net_amount"`
}
