// Package usagethreshold decides when metered usage crosses a configured threshold.
package usagethreshold

import (
	"time"

	"github.com/flexprice/billingcore/internal/domain/subscription"
	ierr "github.com/flexprice/billingcore/internal/errors"
	"github.com/flexprice/billingcore/internal/types"
	"github.com/shopspring/decimal"
)

var displayCap = decimal.NewFromInt(100)

// Tracker computes threshold status from a usage snapshot. It is stateless:
// the caller supplies last_triggered_at and persists any trigger.
type Tracker struct{}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Status reports the threshold status for snapshot. The snapshot must cover
// the subscription's current billing period.
func (t *Tracker) Status(threshold *UsageThreshold, sub *subscription.Subscription, snapshot *UsageSnapshot) (*ThresholdStatus, error) {
	if threshold == nil || sub == nil || snapshot == nil {
		return nil, ierr.NewError("threshold, subscription and usage snapshot are required").
			WithHint("Threshold, subscription and usage snapshot are required").
			Mark(ierr.ErrValidation)
	}
	if err := threshold.Validate(); err != nil {
		return nil, err
	}
	if threshold.SubscriptionID != sub.ID || snapshot.SubscriptionID != sub.ID {
		return nil, ierr.NewError("usage snapshot belongs to another subscription").
			WithHint("Threshold, subscription and usage snapshot must refer to the same subscription").
			WithReportableDetails(map[string]any{
				"threshold_subscription_id": threshold.SubscriptionID,
				"snapshot_subscription_id":  snapshot.SubscriptionID,
				"subscription_id":           sub.ID,
			}).
			Mark(ierr.ErrValidation)
	}
	if !snapshot.BillingPeriodStart.Equal(sub.CurrentPeriodStart) || !snapshot.BillingPeriodEnd.Equal(sub.CurrentPeriodEnd) {
		return nil, ierr.NewError("usage snapshot period does not match current billing period").
			WithHint("Usage snapshot is stale, refetch usage for the current billing period").
			WithReportableDetails(map[string]any{
				"snapshot_period_start": snapshot.BillingPeriodStart,
				"snapshot_period_end":   snapshot.BillingPeriodEnd,
				"current_period_start":  sub.CurrentPeriodStart,
				"current_period_end":    sub.CurrentPeriodEnd,
			}).
			Mark(ierr.ErrPeriodMismatch)
	}

	usage := snapshot.CurrentUsageAmountMinor
	percentage := types.Percentage(usage, threshold.AmountMinor, types.PercentagePlaces)
	crossed := usage >= threshold.AmountMinor
	alreadyTriggered := IsSuppressed(threshold, sub.CurrentPeriodStart, sub.CurrentPeriodEnd)

	return &ThresholdStatus{
		ThresholdID:        threshold.ID,
		SubscriptionID:     sub.ID,
		CurrentUsage:       usage,
		ThresholdValue:     threshold.AmountMinor,
		Currency:           types.NormalizeCurrency(threshold.Currency),
		UsagePercentage:    percentage,
		DisplayPercentage:  decimal.Min(percentage, displayCap),
		Crossed:            crossed,
		AlreadyTriggered:   alreadyTriggered,
		WouldTrigger:       crossed && !alreadyTriggered,
		BillingPeriodStart: snapshot.BillingPeriodStart,
		BillingPeriodEnd:   snapshot.BillingPeriodEnd,
	}, nil
}

// IsSuppressed reports whether a previous trigger blocks firing again.
// Recurring thresholds re-arm at each period boundary, so only a trigger
// inside [periodStart, periodEnd) counts. Non-recurring thresholds fire once.
func IsSuppressed(threshold *UsageThreshold, periodStart, periodEnd time.Time) bool {
	if threshold.LastTriggeredAt == nil {
		return false
	}
	if !threshold.Recurring {
		return true
	}
	last := *threshold.LastTriggeredAt
	return !last.Before(periodStart) && last.Before(periodEnd)
}
