package types

import (
	"encoding/json"
	"time"
)

// BillingEventName names the domain events published by the billing services
type BillingEventName string

const (
	EventPaymentRequestCreated   BillingEventName = "payment_request.created"
	EventUsageThresholdTriggered BillingEventName = "usage_threshold.triggered"
)

// BillingEvent is the envelope published on the event topic
type BillingEvent struct {
	ID            string           `json:"id"`
	EventName     BillingEventName `json:"event_name"`
	TenantID      string           `json:"tenant_id"`
	EnvironmentID string           `json:"environment_id,omitempty"`
	Timestamp     time.Time        `json:"timestamp"`
	Payload       json.RawMessage  `json:"payload"`
}
