package usagethreshold

import (
	"time"

	ierr "github.com/flexprice/billingcore/internal/errors"
	"github.com/flexprice/billingcore/internal/types"
	"github.com/shopspring/decimal"
)

// UsageThreshold is a configured limit on a subscription's metered usage
type UsageThreshold struct {
	ID              string     `db:"id" json:"id"`
	SubscriptionID  string     `db:"subscription_id" json:"subscription_id"`
	AmountMinor     int64      `db:"amount_minor" json:"amount_minor"`
	Currency        string     `db:"currency" json:"currency"`
	Recurring       bool       `db:"recurring" json:"recurring"`
	DisplayName     *string    `db:"display_name" json:"display_name,omitempty"`
	LastTriggeredAt *time.Time `db:"last_triggered_at" json:"last_triggered_at,omitempty"`
	EnvironmentID   string     `db:"environment_id" json:"environment_id"`
	types.BaseModel
}

func (t *UsageThreshold) Validate() error {
	if t.AmountMinor <= 0 {
		return ierr.NewError("threshold amount must be positive").
			WithHint("Usage threshold amount must be greater than zero").
			WithReportableDetails(map[string]any{
				"amount_minor": t.AmountMinor,
			}).
			Mark(ierr.ErrValidation)
	}
	if t.SubscriptionID == "" {
		return ierr.NewError("subscription_id is required").
			WithHint("Usage threshold must belong to a subscription").
			Mark(ierr.ErrValidation)
	}
	return types.ValidateCurrencyCode(t.Currency)
}

// Name returns the display name or a generated one
func (t *UsageThreshold) Name() string {
	if t.DisplayName != nil && *t.DisplayName != "" {
		return *t.DisplayName
	}
	return types.NewMoney(t.AmountMinor, t.Currency).String() + " usage threshold"
}

// UsageSnapshot is the running usage of a subscription in one billing period
type UsageSnapshot struct {
	SubscriptionID          string    `json:"subscription_id"`
	CurrentUsageAmountMinor int64     `json:"current_usage_amount_minor"`
	BillingPeriodStart      time.Time `json:"billing_period_start"`
	BillingPeriodEnd        time.Time `json:"billing_period_end"`
}

// ThresholdStatus reports how close usage is to a threshold.
// UsagePercentage is unclamped, DisplayPercentage is capped at 100.
type ThresholdStatus struct {
	ThresholdID        string          `json:"threshold_id,omitempty"`
	SubscriptionID     string          `json:"subscription_id"`
	CurrentUsage       int64           `json:"current_usage"`
	ThresholdValue     int64           `json:"threshold_value"`
	Currency           string          `json:"currency"`
	UsagePercentage    decimal.Decimal `json:"usage_percentage"`
	DisplayPercentage  decimal.Decimal `json:"display_percentage"`
	Crossed            bool            `json:"crossed"`
	AlreadyTriggered   bool            `json:"already_triggered"`
	WouldTrigger       bool            `json:"would_trigger"`
	BillingPeriodStart time.Time       `json:"billing_period_start"`
	BillingPeriodEnd   time.Time       `json:"billing_period_end"`
}
