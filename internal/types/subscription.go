package types

import (
	ierr "github.com/flexprice/billingcore/internal/errors"
	"github.com/samber/lo"
)

// SubscriptionStatus is the lifecycle status of a subscription
type SubscriptionStatus string

const (
	SubscriptionStatusPending    SubscriptionStatus = "pending"
	SubscriptionStatusActive     SubscriptionStatus = "active"
	SubscriptionStatusPaused     SubscriptionStatus = "paused"
	SubscriptionStatusCanceled   SubscriptionStatus = "canceled"
	SubscriptionStatusTerminated SubscriptionStatus = "terminated"
)

var SubscriptionStatusValues = []SubscriptionStatus{
	SubscriptionStatusPending,
	SubscriptionStatusActive,
	SubscriptionStatusPaused,
	SubscriptionStatusCanceled,
	SubscriptionStatusTerminated,
}

// subscriptionTransitions is the subscription state machine. Transitions are
// monotonic except pause <-> resume; canceled and terminated are terminal.
var subscriptionTransitions = map[SubscriptionStatus][]SubscriptionStatus{
	SubscriptionStatusPending: {SubscriptionStatusActive},
	SubscriptionStatusActive: {
		SubscriptionStatusPaused,
		SubscriptionStatusCanceled,
		SubscriptionStatusTerminated,
	},
	SubscriptionStatusPaused: {
		SubscriptionStatusActive,
		SubscriptionStatusTerminated,
	},
}

func (s SubscriptionStatus) String() string {
	return string(s)
}

func (s SubscriptionStatus) Validate() error {
	if !lo.Contains(SubscriptionStatusValues, s) {
		return ierr.NewError("invalid subscription status").
			WithHint("Invalid subscription status").
			WithReportableDetails(map[string]any{
				"status":         s,
				"allowed_status": SubscriptionStatusValues,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// CanTransitionTo reports whether the state machine allows moving from s to next
func (s SubscriptionStatus) CanTransitionTo(next SubscriptionStatus) bool {
	return lo.Contains(subscriptionTransitions[s], next)
}

// IsTerminal reports whether no further transitions are possible
func (s SubscriptionStatus) IsTerminal() bool {
	return s == SubscriptionStatusCanceled || s == SubscriptionStatusTerminated
}

// IsProrationEligible reports whether plan change previews can be computed
func (s SubscriptionStatus) IsProrationEligible() bool {
	return s == SubscriptionStatusActive || s == SubscriptionStatusPending
}
