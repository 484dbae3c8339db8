package proration

import (
	"time"

	"github.com/flexprice/billingcore/internal/types"
)

// CalculatorType defines the granularity of the proration coefficient
type CalculatorType string

const (
	CalculatorTypeDay    CalculatorType = "day"
	CalculatorTypeSecond CalculatorType = "second"
)

// CalculatorTypeFromStrategy maps the configured strategy to a calculator type.
func CalculatorTypeFromStrategy(strategy types.ProrationStrategy) CalculatorType {
	if strategy == types.StrategySecondBased {
		return CalculatorTypeSecond
	}
	return CalculatorTypeDay
}

// Calculator returns the proration coefficient as an integer ratio
// remaining/total. Keeping the ratio integral lets every engine share the
// same round-half-up primitive.
type Calculator interface {
	Coefficient(periodStart, periodEnd, effective time.Time, loc *time.Location) (remaining, total int64)
	Type() CalculatorType
}

// NewCalculator creates a proration calculator of the specified type.
func NewCalculator(calculatorType CalculatorType) Calculator {
	switch calculatorType {
	case CalculatorTypeSecond:
		return &secondBasedCalculator{}
	default:
		return &dayBasedCalculator{}
	}
}

// dayBasedCalculator counts calendar days in the customer timezone
// (inclusive start, exclusive end).
type dayBasedCalculator struct{}

func (c *dayBasedCalculator) Coefficient(periodStart, periodEnd, effective time.Time, loc *time.Location) (int64, int64) {
	total := types.DaysBetween(periodStart, periodEnd, loc)
	remaining := types.DaysBetween(effective, periodEnd, loc)
	return int64(remaining), int64(total)
}

func (c *dayBasedCalculator) Type() CalculatorType {
	return CalculatorTypeDay
}

// secondBasedCalculator uses elapsed seconds, so a change at noon
// is billed for half of that day.
type secondBasedCalculator struct{}

func (c *secondBasedCalculator) Coefficient(periodStart, periodEnd, effective time.Time, _ *time.Location) (int64, int64) {
	total := int64(periodEnd.Sub(periodStart) / time.Second)
	remaining := int64(periodEnd.Sub(effective) / time.Second)
	if remaining < 0 {
		remaining = 0
	}
	return remaining, total
}

func (c *secondBasedCalculator) Type() CalculatorType {
	return CalculatorTypeSecond
}
