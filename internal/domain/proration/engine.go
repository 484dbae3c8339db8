// Package proration computes the credit and charge of a mid-period plan change.
package proration

import (
	"time"

	ierr "github.com/flexprice/billingcore/internal/errors"
	"github.com/flexprice/billingcore/internal/types"
)

// Engine previews plan changes. It holds no state and is safe for
// concurrent use.
type Engine struct {
	calculator Calculator
}

func NewEngine(calculatorType CalculatorType) *Engine {
	return &Engine{calculator: NewCalculator(calculatorType)}
}

// Preview computes the proration of moving params.Subscription from
// params.CurrentPlan to params.NewPlan. Nothing is persisted.
func (e *Engine) Preview(params PreviewParams) (*Result, error) {
	if err := validateParams(params); err != nil {
		return nil, err
	}

	sub := params.Subscription
	current := params.CurrentPlan
	next := params.NewPlan

	loc, err := loadLocation(params.CustomerTimezone)
	if err != nil {
		return nil, err
	}

	effective, err := resolveEffectiveDate(params)
	if err != nil {
		return nil, err
	}

	totalDays := types.DaysBetween(sub.CurrentPeriodStart, sub.CurrentPeriodEnd, loc)
	if totalDays <= 0 {
		return nil, ierr.NewError("invalid billing period").
			WithHintf("Billing period must span at least one day (%v to %v)", sub.CurrentPeriodStart, sub.CurrentPeriodEnd).
			Mark(ierr.ErrValidation)
	}
	daysRemaining := types.DaysBetween(effective, sub.CurrentPeriodEnd, loc)
	if daysRemaining > totalDays {
		daysRemaining = totalDays
	}

	remaining, total := e.calculator.Coefficient(sub.CurrentPeriodStart, sub.CurrentPeriodEnd, effective, loc)

	// credit and charge are rounded independently, never the net
	credit := types.ProrateMinor(current.AmountMinor, remaining, total)
	charge := types.ProrateMinor(next.AmountMinor, remaining, total)
	net := charge - credit

	result := &Result{
		DaysRemaining:          daysRemaining,
		TotalDays:              totalDays,
		CurrentPlanCreditMinor: credit,
		NewPlanChargeMinor:     charge,
		NetAmountMinor:         net,
		Currency:               types.NormalizeCurrency(current.Currency),
		Action:                 actionFromNet(net),
		EffectiveDate:          effective,
		CalculatorType:         e.calculator.Type(),
		CreditItems:            []LineItem{},
		ChargeItems:            []LineItem{},
	}

	if credit > 0 {
		result.CreditItems = append(result.CreditItems, LineItem{
			Description: creditDescription(result.Action),
			AmountMinor: -credit,
			PlanID:      current.ID,
			StartDate:   effective,
			EndDate:     sub.CurrentPeriodEnd,
			IsCredit:    true,
		})
	}
	if charge > 0 {
		result.ChargeItems = append(result.ChargeItems, LineItem{
			Description: chargeDescription(result.Action),
			AmountMinor: charge,
			PlanID:      next.ID,
			StartDate:   effective,
			EndDate:     sub.CurrentPeriodEnd,
		})
	}

	return result, nil
}

func validateParams(params PreviewParams) error {
	if params.Subscription == nil || params.CurrentPlan == nil || params.NewPlan == nil {
		return ierr.NewError("subscription and both plans are required").
			WithHint("Subscription, current plan and new plan are required").
			Mark(ierr.ErrValidation)
	}

	sub := params.Subscription
	if err := sub.Validate(); err != nil {
		return err
	}

	if !sub.SubscriptionStatus.IsProrationEligible() {
		return ierr.NewError("subscription not eligible for plan change").
			WithHintf("Plan changes can only be previewed for active or pending subscriptions, got %s", sub.SubscriptionStatus).
			WithReportableDetails(map[string]any{
				"subscription_id": sub.ID,
				"status":          sub.SubscriptionStatus,
			}).
			Mark(ierr.ErrSubscriptionNotEligible)
	}

	if params.NewPlan.ID == params.CurrentPlan.ID {
		return ierr.NewError("new plan is the current plan").
			WithHint("Choose a plan different from the current one").
			WithReportableDetails(map[string]any{
				"plan_id": params.NewPlan.ID,
			}).
			Mark(ierr.ErrSamePlan)
	}

	if !types.IsMatchingCurrency(params.CurrentPlan.Currency, params.NewPlan.Currency) {
		return ierr.NewError("plan currencies do not match").
			WithHintf("Cannot change from a %s plan to a %s plan", params.CurrentPlan.Currency, params.NewPlan.Currency).
			WithReportableDetails(map[string]any{
				"current_plan_currency": params.CurrentPlan.Currency,
				"new_plan_currency":     params.NewPlan.Currency,
			}).
			Mark(ierr.ErrCurrencyMismatch)
	}

	if err := params.CurrentPlan.Validate(); err != nil {
		return err
	}
	return params.NewPlan.Validate()
}

// resolveEffectiveDate returns the requested date, or now clamped into the
// period. Only an explicit date outside the period is an error.
func resolveEffectiveDate(params PreviewParams) (time.Time, error) {
	sub := params.Subscription
	if params.Request.EffectiveDate == nil {
		now := params.Now
		if now.IsZero() {
			now = time.Now().UTC()
		}
		return types.ClampTime(now, sub.CurrentPeriodStart, sub.CurrentPeriodEnd), nil
	}

	effective := *params.Request.EffectiveDate
	if effective.Before(sub.CurrentPeriodStart) || effective.After(sub.CurrentPeriodEnd) {
		return time.Time{}, ierr.NewError("effective date outside billing period").
			WithHintf("Effective date must be between %s and %s",
				sub.CurrentPeriodStart.Format(time.RFC3339), sub.CurrentPeriodEnd.Format(time.RFC3339)).
			WithReportableDetails(map[string]any{
				"effective_date":       effective,
				"billing_period_start": sub.CurrentPeriodStart,
				"billing_period_end":   sub.CurrentPeriodEnd,
			}).
			Mark(ierr.ErrInvalidEffectiveDate)
	}
	return effective, nil
}

func loadLocation(name string) (*time.Location, error) {
	if name == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, ierr.WithError(err).
			WithHintf("Invalid customer timezone '%s'", name).
			Mark(ierr.ErrValidation)
	}
	return loc, nil
}

func actionFromNet(net int64) types.ProrationAction {
	switch {
	case net > 0:
		return types.ProrationActionUpgrade
	case net < 0:
		return types.ProrationActionDowngrade
	default:
		return types.ProrationActionNoChange
	}
}

func creditDescription(action types.ProrationAction) string {
	switch action {
	case types.ProrationActionUpgrade:
		return "Credit for unused time on previous plan before upgrade"
	case types.ProrationActionDowngrade:
		return "Credit for unused time on previous plan before downgrade"
	default:
		return "Credit for unused time"
	}
}

func chargeDescription(action types.ProrationAction) string {
	switch action {
	case types.ProrationActionUpgrade:
		return "Prorated charge for upgrade"
	case types.ProrationActionDowngrade:
		return "Prorated charge for downgrade"
	default:
		return "Prorated charge"
	}
}
