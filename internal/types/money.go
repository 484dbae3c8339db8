package types

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// PercentagePlaces is the number of decimal places kept on usage percentages
const PercentagePlaces int32 = 4

var hundred = decimal.NewFromInt(100)

// Money is an amount in minor currency units (cents) with its currency.
// Amounts are never represented as floating point.
type Money struct {
	Amount   int64  `json:"amount_minor"`
	Currency string `json:"currency"`
}

// NewMoney creates a Money value with a normalised currency code
func NewMoney(amount int64, currency string) Money {
	return Money{Amount: amount, Currency: NormalizeCurrency(currency)}
}

// Decimal returns the amount in major units, e.g. 1050 usd -> 10.50
func (m Money) Decimal() decimal.Decimal {
	return decimal.New(m.Amount, -GetCurrencyPrecision(m.Currency))
}

// String formats the amount for display, e.g. "$10.50"
func (m Money) String() string {
	return fmt.Sprintf("%s%s", GetCurrencySymbol(m.Currency), m.Decimal().StringFixed(GetCurrencyPrecision(m.Currency)))
}

// RoundHalfUp rounds a decimal to a whole number of minor units, halves away
// from zero. Billing amounts are non-negative so this is round-half-up.
func RoundHalfUp(d decimal.Decimal) int64 {
	return d.Round(0).IntPart()
}

// ProrateMinor returns round_half_up(amount * numerator / denominator).
// It is the single rounding primitive used by every engine so that prorated
// line items stay auditable. A non-positive denominator yields 0.
func ProrateMinor(amount, numerator, denominator int64) int64 {
	if denominator <= 0 || numerator <= 0 || amount == 0 {
		return 0
	}
	if numerator == denominator {
		return amount
	}
	d := decimal.NewFromInt(amount).
		Mul(decimal.NewFromInt(numerator)).
		Div(decimal.NewFromInt(denominator))
	return RoundHalfUp(d)
}

// Percentage returns 100 * value / of rounded half-up to places decimals.
// Exact decimal arithmetic keeps values near a boundary (99.99995...) stable.
func Percentage(value, of int64, places int32) decimal.Decimal {
	if of == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(value).Mul(hundred).DivRound(decimal.NewFromInt(of), places)
}

// SumMinor adds minor unit amounts. Integer addition is order independent.
func SumMinor(amounts ...int64) int64 {
	var total int64
	for _, a := range amounts {
		total += a
	}
	return total
}
