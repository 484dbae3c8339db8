package dto

import (
	"time"

	"github.com/flexprice/billingcore/internal/domain/usagethreshold"
	"github.com/flexprice/billingcore/internal/types"
	"github.com/flexprice/billingcore/internal/validator"
)

// TestUsageThresholdRequest evaluates a hypothetical threshold against the
// subscription's current usage. Nothing is persisted.
type TestUsageThresholdRequest struct {
	AmountMinor     int64      `json:"amount_minor" validate:"required,gt=0"`
	Currency        string     `json:"currency" validate:"required,len=3"`
	Recurring       bool       `json:"recurring"`
	LastTriggeredAt *time.Time `json:"last_triggered_at,omitempty"`
}

func (r *TestUsageThresholdRequest) Validate() error {
	if err := validator.ValidateRequest(r); err != nil {
		return err
	}
	return types.ValidateCurrencyCode(r.Currency)
}

// ToUsageThreshold builds the unsaved threshold the request describes
func (r *TestUsageThresholdRequest) ToUsageThreshold(subscriptionID string) *usagethreshold.UsageThreshold {
	return &usagethreshold.UsageThreshold{
		SubscriptionID:  subscriptionID,
		AmountMinor:     r.AmountMinor,
		Currency:        types.NormalizeCurrency(r.Currency),
		Recurring:       r.Recurring,
		LastTriggeredAt: r.LastTriggeredAt,
	}
}

// UsageThresholdStatusResponse reports how close usage is to a threshold
type UsageThresholdStatusResponse struct {
	*usagethreshold.ThresholdStatus
	Name string `json:"name"`
}

// EvaluateUsageThresholdsResponse lists the thresholds a subscription evaluation fired
type EvaluateUsageThresholdsResponse struct {
	SubscriptionID string                          `json:"subscription_id"`
	Evaluated      int                             `json:"evaluated"`
	Triggered      []*UsageThresholdStatusResponse `json:"triggered"`
}

// EvaluateAllUsageThresholdsResponse summarises a cron evaluation run
type EvaluateAllUsageThresholdsResponse struct {
	Subscriptions int      `json:"subscriptions"`
	Triggered     int      `json:"triggered"`
	Failed        []string `json:"failed,omitempty"`
}
