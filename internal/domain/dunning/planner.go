// Package dunning groups overdue invoices and matches them against
// per-currency campaign thresholds.
package dunning

import (
	"sort"
	"time"

	"github.com/flexprice/billingcore/internal/domain/invoice"
	"github.com/flexprice/billingcore/internal/domain/paymentrequest"
	ierr "github.com/flexprice/billingcore/internal/errors"
	"github.com/flexprice/billingcore/internal/types"
	"github.com/samber/lo"
)

// PlanParams is a consistent snapshot of a campaign and the receivables it chases
type PlanParams struct {
	Campaign        *Campaign
	OverdueInvoices []*invoice.Invoice
	PendingRequests []*paymentrequest.PaymentRequest
	// Attempts is optional; without it max_attempts and
	// days_between_attempts are not enforced
	Attempts []*Attempt
	Now      time.Time
}

type partitionKey struct {
	customerID string
	currency   string
}

// Planner builds dunning plans. It holds no state.
type Planner struct{}

func NewPlanner() *Planner {
	return &Planner{}
}

// Plan groups params.OverdueInvoices by customer and currency and decides which
// groups need a new payment request. The result does not depend on input order.
func (p *Planner) Plan(params PlanParams) (*Plan, error) {
	campaign := params.Campaign
	if campaign == nil {
		return nil, ierr.NewError("dunning campaign is required").
			WithHint("Dunning campaign is required").
			Mark(ierr.ErrValidation)
	}
	if err := campaign.Validate(); err != nil {
		return nil, err
	}

	invoices, err := uniqueInvoices(params.OverdueInvoices)
	if err != nil {
		return nil, err
	}

	pending := lo.Filter(params.PendingRequests, func(req *paymentrequest.PaymentRequest, _ int) bool {
		return req != nil && req.IsPending()
	})
	pendingByKey := make(map[partitionKey]int64)
	for _, req := range pending {
		pendingByKey[keyOf(req.CustomerID, req.Currency)] += req.AmountMinor
	}

	attemptsByCustomer := lo.KeyBy(lo.Filter(params.Attempts, func(a *Attempt, _ int) bool {
		return a != nil && (a.CampaignID == "" || a.CampaignID == campaign.ID)
	}), func(a *Attempt) string {
		return a.CustomerID
	})

	plan := &Plan{
		CampaignID:              campaign.ID,
		TotalOverdueInvoices:    len(invoices),
		TotalOverdueByCurrency:  make(map[string]int64),
		ExistingPendingRequests: len(pending),
		Groups:                  []*Group{},
		Skipped:                 []*SkippedGroup{},
		Status:                  campaign.CampaignStatus,
	}

	partitions := lo.GroupBy(invoices, func(inv *invoice.Invoice) partitionKey {
		return keyOf(inv.CustomerID, inv.Currency)
	})

	for key, members := range partitions {
		sort.Slice(members, func(i, j int) bool { return members[i].ID < members[j].ID })

		total := types.SumMinor(lo.Map(members, func(inv *invoice.Invoice, _ int) int64 {
			return inv.OutstandingMinor
		})...)
		plan.TotalOverdueAmountMinor += total
		plan.TotalOverdueByCurrency[key.currency] += total

		covered := pendingByKey[key]
		uncovered := total - covered
		if uncovered < 0 {
			uncovered = 0
		}

		skip := func(reason SkipReason) {
			plan.Skipped = append(plan.Skipped, &SkippedGroup{
				CustomerID:            key.customerID,
				Currency:              key.currency,
				TotalOutstandingMinor: total,
				UncoveredMinor:        uncovered,
				Reason:                reason,
			})
		}

		threshold, ok := campaign.ThresholdFor(key.currency)
		switch {
		case !ok:
			skip(SkipReasonNoThreshold)
			continue
		case uncovered == 0 && covered > 0:
			skip(SkipReasonCoveredByPending)
			continue
		case uncovered < threshold:
			skip(SkipReasonBelowThreshold)
			continue
		}

		if reason, blocked := attemptBlocked(campaign, attemptsByCustomer[key.customerID], params.Now); blocked {
			skip(reason)
			continue
		}

		plan.Groups = append(plan.Groups, &Group{
			CustomerID:             key.customerID,
			Currency:               key.currency,
			Invoices:               members,
			TotalOutstandingMinor:  total,
			MatchingThresholdMinor: threshold,
			PendingRequestMinor:    covered,
			UncoveredMinor:         uncovered,
		})
	}

	sort.Slice(plan.Groups, func(i, j int) bool {
		return lessKey(plan.Groups[i].CustomerID, plan.Groups[i].Currency, plan.Groups[j].CustomerID, plan.Groups[j].Currency)
	})
	sort.Slice(plan.Skipped, func(i, j int) bool {
		return lessKey(plan.Skipped[i].CustomerID, plan.Skipped[i].Currency, plan.Skipped[j].CustomerID, plan.Skipped[j].Currency)
	})
	plan.PaymentRequestsToCreate = len(plan.Groups)

	return plan, nil
}

// uniqueInvoices drops settled invoices and collapses repeated ids. Copies of
// one id that disagree on customer, currency or outstanding amount come from
// inconsistent snapshots and are rejected.
func uniqueInvoices(in []*invoice.Invoice) ([]*invoice.Invoice, error) {
	byID := make(map[string]*invoice.Invoice, len(in))
	out := make([]*invoice.Invoice, 0, len(in))
	for _, inv := range in {
		if inv == nil || inv.OutstandingMinor <= 0 {
			continue
		}
		seen, ok := byID[inv.ID]
		if !ok {
			byID[inv.ID] = inv
			out = append(out, inv)
			continue
		}
		if seen.OutstandingMinor != inv.OutstandingMinor ||
			seen.CustomerID != inv.CustomerID ||
			types.NormalizeCurrency(seen.Currency) != types.NormalizeCurrency(inv.Currency) {
			return nil, ierr.NewError("conflicting copies of overdue invoice").
				WithHint("Overdue invoices must come from a single consistent snapshot").
				WithReportableDetails(map[string]interface{}{
					"invoice_id": inv.ID,
				}).
				Mark(ierr.ErrValidation)
		}
	}
	return out, nil
}

// attemptBlocked applies max_attempts and days_between_attempts. Zero values disable each gate.
func attemptBlocked(campaign *Campaign, attempt *Attempt, now time.Time) (SkipReason, bool) {
	if attempt == nil {
		return "", false
	}
	if campaign.MaxAttempts > 0 && attempt.AttemptCount >= campaign.MaxAttempts {
		return SkipReasonMaxAttemptsReached, true
	}
	if campaign.DaysBetweenAttempts > 0 && attempt.LastAttemptAt != nil && !now.IsZero() {
		next := attempt.LastAttemptAt.AddDate(0, 0, campaign.DaysBetweenAttempts)
		if now.Before(next) {
			return SkipReasonAttemptTooRecent, true
		}
	}
	return "", false
}

func keyOf(customerID, currency string) partitionKey {
	return partitionKey{customerID: customerID, currency: types.NormalizeCurrency(currency)}
}

func lessKey(customerA, currencyA, customerB, currencyB string) bool {
	if customerA != customerB {
		return customerA < customerB
	}
	return currencyA < currencyB
}
