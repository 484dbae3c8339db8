package dto

import (
	"github.com/flexprice/billingcore/internal/domain/dunning"
	"github.com/flexprice/billingcore/internal/domain/paymentrequest"
)

// DunningPlanResponse is the preview of a campaign run
type DunningPlanResponse struct {
	*dunning.Plan
}

// ExecuteDunningCampaignResponse is the plan that was applied and the
// payment requests it created
type ExecuteDunningCampaignResponse struct {
	*dunning.Plan
	PaymentRequests []*paymentrequest.PaymentRequest `json:"payment_requests"`
}

// CampaignRunResult is the outcome of one campaign in a cron run
type CampaignRunResult struct {
	CampaignID             string `json:"campaign_id"`
	PaymentRequestsCreated int    `json:"payment_requests_created"`
	Error                  string `json:"error,omitempty"`
}

// RunDunningCampaignsResponse summarises a cron run over active campaigns
type RunDunningCampaignsResponse struct {
	Campaigns              int                  `json:"campaigns"`
	PaymentRequestsCreated int                  `json:"payment_requests_created"`
	Failed                 int                  `json:"failed"`
	Results                []*CampaignRunResult `json:"results"`
}
