package dunning

import (
	"time"

	"github.com/flexprice/billingcore/internal/domain/invoice"
	ierr "github.com/flexprice/billingcore/internal/errors"
	"github.com/flexprice/billingcore/internal/types"
	"github.com/samber/lo"
)

// Threshold is the minimum uncovered amount, per currency, that justifies
// a new payment request
type Threshold struct {
	Currency    string `db:"currency" json:"currency"`
	AmountMinor int64  `db:"amount_minor" json:"amount_minor"`
}

// Campaign configures how overdue invoices are chased
type Campaign struct {
	ID                  string                      `db:"id" json:"id"`
	Name                string                      `db:"name" json:"name"`
	CampaignStatus      types.DunningCampaignStatus `db:"campaign_status" json:"campaign_status"`
	MaxAttempts         int                         `db:"max_attempts" json:"max_attempts"`
	DaysBetweenAttempts int                         `db:"days_between_attempts" json:"days_between_attempts"`
	Thresholds          []Threshold                 `db:"-" json:"thresholds"`
	EnvironmentID       string                      `db:"environment_id" json:"environment_id"`
	types.BaseModel
}

func (c *Campaign) Validate() error {
	if err := c.CampaignStatus.Validate(); err != nil {
		return err
	}
	if c.MaxAttempts < 0 || c.DaysBetweenAttempts < 0 {
		return ierr.NewError("invalid dunning campaign attempts").
			WithHint("Max attempts and days between attempts cannot be negative").
			WithReportableDetails(map[string]any{
				"max_attempts":          c.MaxAttempts,
				"days_between_attempts": c.DaysBetweenAttempts,
			}).
			Mark(ierr.ErrValidation)
	}

	seen := make(map[string]bool, len(c.Thresholds))
	for _, t := range c.Thresholds {
		if err := types.ValidateCurrencyCode(t.Currency); err != nil {
			return err
		}
		currency := types.NormalizeCurrency(t.Currency)
		if seen[currency] {
			return ierr.NewError("duplicate dunning threshold currency").
				WithHintf("Only one threshold can be configured for %s", currency).
				Mark(ierr.ErrValidation)
		}
		seen[currency] = true
		if t.AmountMinor < 0 {
			return ierr.NewError("invalid dunning threshold amount").
				WithHint("Threshold amount cannot be negative").
				WithReportableDetails(map[string]any{
					"currency":     t.Currency,
					"amount_minor": t.AmountMinor,
				}).
				Mark(ierr.ErrValidation)
		}
	}
	return nil
}

// IsActive reports whether the campaign may create payment requests
func (c *Campaign) IsActive() bool {
	return c.CampaignStatus == types.DunningCampaignStatusActive
}

// ThresholdFor returns the configured threshold for currency. There is no
// default: an unconfigured currency is never eligible.
func (c *Campaign) ThresholdFor(currency string) (int64, bool) {
	t, ok := lo.Find(c.Thresholds, func(t Threshold) bool {
		return types.IsMatchingCurrency(t.Currency, currency)
	})
	return t.AmountMinor, ok
}

// Attempt tracks how often a campaign has chased a customer
type Attempt struct {
	CampaignID    string     `db:"dunning_campaign_id" json:"dunning_campaign_id"`
	CustomerID    string     `db:"customer_id" json:"customer_id"`
	AttemptCount  int        `db:"attempt_count" json:"attempt_count"`
	LastAttemptAt *time.Time `db:"last_attempt_at" json:"last_attempt_at,omitempty"`
}

// Group is a set of overdue invoices of one customer in one currency
type Group struct {
	CustomerID             string             `json:"customer_id"`
	Currency               string             `json:"currency"`
	Invoices               []*invoice.Invoice `json:"invoices"`
	TotalOutstandingMinor  int64              `json:"total_outstanding_minor"`
	MatchingThresholdMinor int64              `json:"matching_threshold_minor"`
	PendingRequestMinor    int64              `json:"pending_request_minor"`
	// UncoveredMinor is the amount the new payment request asks for
	UncoveredMinor int64 `json:"uncovered_minor"`
}

// InvoiceIDs returns the ids of the grouped invoices
func (g *Group) InvoiceIDs() []string {
	return lo.Map(g.Invoices, func(inv *invoice.Invoice, _ int) string {
		return inv.ID
	})
}

// SkipReason explains why a customer+currency partition got no request
type SkipReason string

const (
	SkipReasonNoThreshold        SkipReason = "no_threshold"
	SkipReasonBelowThreshold     SkipReason = "below_threshold"
	SkipReasonCoveredByPending   SkipReason = "covered_by_pending_request"
	SkipReasonMaxAttemptsReached SkipReason = "max_attempts_reached"
	SkipReasonAttemptTooRecent   SkipReason = "attempt_too_recent"
)

// SkippedGroup is a partition that was not eligible
type SkippedGroup struct {
	CustomerID            string     `json:"customer_id"`
	Currency              string     `json:"currency"`
	TotalOutstandingMinor int64      `json:"total_outstanding_minor"`
	UncoveredMinor        int64      `json:"uncovered_minor"`
	Reason                SkipReason `json:"reason"`
}

// Plan is the outcome of grouping overdue invoices for a campaign.
// Planning has no side effects; applying a plan is a separate step.
type Plan struct {
	CampaignID              string                      `json:"campaign_id"`
	TotalOverdueInvoices    int                         `json:"total_overdue_invoices"`
	TotalOverdueAmountMinor int64                       `json:"total_overdue_amount_minor"`
	TotalOverdueByCurrency  map[string]int64            `json:"total_overdue_by_currency"`
	PaymentRequestsToCreate int                         `json:"payment_requests_to_create"`
	ExistingPendingRequests int                         `json:"existing_pending_requests"`
	Groups                  []*Group                    `json:"groups"`
	Skipped                 []*SkippedGroup             `json:"skipped"`
	Status                  types.DunningCampaignStatus `json:"status"`
}
