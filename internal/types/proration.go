package types

import (
	ierr "github.com/flexprice/billingcore/internal/errors"
	"github.com/samber/lo"
)

// ProrationAction describes the direction of a plan change
type ProrationAction string

const (
	ProrationActionUpgrade   ProrationAction = "upgrade"
	ProrationActionDowngrade ProrationAction = "downgrade"
	ProrationActionNoChange  ProrationAction = "no_change"
)

// ProrationStrategy defines how the proration coefficient is calculated.
type ProrationStrategy string

const (
	StrategyDayBased    ProrationStrategy = "day_based" // Default
	StrategySecondBased ProrationStrategy = "second_based"
)

var ProrationStrategyValues = []ProrationStrategy{
	StrategyDayBased,
	StrategySecondBased,
}

func (p ProrationStrategy) String() string {
	return string(p)
}

func (p ProrationStrategy) Validate() error {
	if !lo.Contains(ProrationStrategyValues, p) {
		return ierr.NewError("invalid proration strategy").
			WithHint("Proration strategy must be day_based or second_based").
			WithReportableDetails(map[string]any{
				"allowed_values": ProrationStrategyValues,
				"provided_value": p,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
