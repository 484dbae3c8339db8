package types

import (
	ierr "github.com/flexprice/billingcore/internal/errors"
	"github.com/samber/lo"
)

// DunningCampaignStatus is the status of a dunning campaign
type DunningCampaignStatus string

const (
	DunningCampaignStatusActive   DunningCampaignStatus = "active"
	DunningCampaignStatusInactive DunningCampaignStatus = "inactive"
)

var DunningCampaignStatusValues = []DunningCampaignStatus{
	DunningCampaignStatusActive,
	DunningCampaignStatusInactive,
}

func (s DunningCampaignStatus) String() string {
	return string(s)
}

func (s DunningCampaignStatus) Validate() error {
	if !lo.Contains(DunningCampaignStatusValues, s) {
		return ierr.NewError("invalid dunning campaign status").
			WithHint("Dunning campaign status must be active or inactive").
			WithReportableDetails(map[string]any{
				"allowed_values": DunningCampaignStatusValues,
				"provided_value": s,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}

// PaymentRequestStatus is the status of a payment request created by dunning
type PaymentRequestStatus string

const (
	PaymentRequestStatusPending   PaymentRequestStatus = "pending"
	PaymentRequestStatusSucceeded PaymentRequestStatus = "succeeded"
	PaymentRequestStatusFailed    PaymentRequestStatus = "failed"
)

var PaymentRequestStatusValues = []PaymentRequestStatus{
	PaymentRequestStatusPending,
	PaymentRequestStatusSucceeded,
	PaymentRequestStatusFailed,
}

func (s PaymentRequestStatus) String() string {
	return string(s)
}

func (s PaymentRequestStatus) Validate() error {
	if !lo.Contains(PaymentRequestStatusValues, s) {
		return ierr.NewError("invalid payment request status").
			WithHint("Please provide a valid payment request status").
			WithReportableDetails(map[string]any{
				"allowed_values": PaymentRequestStatusValues,
				"provided_value": s,
			}).
			Mark(ierr.ErrValidation)
	}
	return nil
}
