package dunning

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/flexprice/billingcore/internal/domain/invoice"
	"github.com/flexprice/billingcore/internal/domain/paymentrequest"
	ierr "github.com/flexprice/billingcore/internal/errors"
	"github.com/flexprice/billingcore/internal/types"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func testCampaign(thresholds ...Threshold) *Campaign {
	return &Campaign{
		ID:             "dun_1",
		Name:           "Default",
		CampaignStatus: types.DunningCampaignStatusActive,
		Thresholds:     thresholds,
	}
}

func overdue(id, customerID, currency string, outstanding int64) *invoice.Invoice {
	return &invoice.Invoice{
		ID:               id,
		CustomerID:       customerID,
		Currency:         currency,
		TotalMinor:       outstanding,
		OutstandingMinor: outstanding,
		PaymentStatus:    types.PaymentStatusFailed,
		DueDate:          now.AddDate(0, 0, -10),
	}
}

func pendingRequest(customerID, currency string, amount int64) *paymentrequest.PaymentRequest {
	return &paymentrequest.PaymentRequest{
		ID:            types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT_REQUEST),
		CustomerID:    customerID,
		Currency:      currency,
		AmountMinor:   amount,
		PaymentStatus: types.PaymentRequestStatusPending,
	}
}

func TestPlanner_Plan_SingleCurrencyGroup(t *testing.T) {
	plan, err := NewPlanner().Plan(PlanParams{
		Campaign: testCampaign(Threshold{Currency: "USD", AmountMinor: 10000}),
		OverdueInvoices: []*invoice.Invoice{
			overdue("inv_2", "cust_1", "USD", 5000),
			overdue("inv_1", "cust_1", "usd", 6000),
		},
		Now: now,
	})
	require.NoError(t, err)

	require.Len(t, plan.Groups, 1)
	group := plan.Groups[0]
	assert.Equal(t, "cust_1", group.CustomerID)
	assert.Equal(t, "usd", group.Currency)
	assert.Equal(t, int64(11000), group.TotalOutstandingMinor)
	assert.Equal(t, int64(10000), group.MatchingThresholdMinor)
	assert.Equal(t, int64(11000), group.UncoveredMinor)
	assert.Equal(t, []string{"inv_1", "inv_2"}, group.InvoiceIDs())

	assert.Equal(t, 2, plan.TotalOverdueInvoices)
	assert.Equal(t, int64(11000), plan.TotalOverdueAmountMinor)
	assert.Equal(t, 1, plan.PaymentRequestsToCreate)
	assert.Equal(t, 0, plan.ExistingPendingRequests)
	assert.Equal(t, types.DunningCampaignStatusActive, plan.Status)
	assert.Empty(t, plan.Skipped)
}

func TestPlanner_Plan_Partitions(t *testing.T) {
	tests := []struct {
		name            string
		campaign        *Campaign
		invoices        []*invoice.Invoice
		pending         []*paymentrequest.PaymentRequest
		attempts        []*Attempt
		expectedGroups  []string // customer/currency/uncovered
		expectedSkipped map[string]SkipReason
	}{
		{
			name:     "below_threshold",
			campaign: testCampaign(Threshold{Currency: "usd", AmountMinor: 10000}),
			invoices: []*invoice.Invoice{
				overdue("inv_1", "cust_1", "usd", 4000),
				overdue("inv_2", "cust_1", "usd", 5999),
			},
			expectedSkipped: map[string]SkipReason{"cust_1/usd": SkipReasonBelowThreshold},
		},
		{
			name:     "currency_without_threshold_is_never_eligible",
			campaign: testCampaign(Threshold{Currency: "usd", AmountMinor: 100}),
			invoices: []*invoice.Invoice{
				overdue("inv_1", "cust_1", "eur", 900000),
				overdue("inv_2", "cust_1", "usd", 200),
			},
			expectedGroups:  []string{"cust_1/usd/200"},
			expectedSkipped: map[string]SkipReason{"cust_1/eur": SkipReasonNoThreshold},
		},
		{
			name:     "fully_covered_by_pending_request",
			campaign: testCampaign(Threshold{Currency: "usd", AmountMinor: 1000}),
			invoices: []*invoice.Invoice{
				overdue("inv_1", "cust_1", "usd", 6000),
			},
			pending:         []*paymentrequest.PaymentRequest{pendingRequest("cust_1", "usd", 6000)},
			expectedSkipped: map[string]SkipReason{"cust_1/usd": SkipReasonCoveredByPending},
		},
		{
			name:     "partial_coverage_leaves_eligible_remainder",
			campaign: testCampaign(Threshold{Currency: "usd", AmountMinor: 5000}),
			invoices: []*invoice.Invoice{
				overdue("inv_1", "cust_1", "usd", 6000),
				overdue("inv_2", "cust_1", "usd", 7000),
			},
			pending:        []*paymentrequest.PaymentRequest{pendingRequest("cust_1", "usd", 6000)},
			expectedGroups: []string{"cust_1/usd/7000"},
		},
		{
			name:     "partial_coverage_remainder_below_threshold",
			campaign: testCampaign(Threshold{Currency: "usd", AmountMinor: 5000}),
			invoices: []*invoice.Invoice{
				overdue("inv_1", "cust_1", "usd", 6000),
				overdue("inv_2", "cust_1", "usd", 3000),
			},
			pending:         []*paymentrequest.PaymentRequest{pendingRequest("cust_1", "usd", 6000)},
			expectedSkipped: map[string]SkipReason{"cust_1/usd": SkipReasonBelowThreshold},
		},
		{
			name:     "pending_request_in_other_currency_does_not_cover",
			campaign: testCampaign(Threshold{Currency: "usd", AmountMinor: 5000}),
			invoices: []*invoice.Invoice{
				overdue("inv_1", "cust_1", "usd", 6000),
			},
			pending:        []*paymentrequest.PaymentRequest{pendingRequest("cust_1", "eur", 6000)},
			expectedGroups: []string{"cust_1/usd/6000"},
		},
		{
			name:     "pending_request_over_covering_floors_at_zero",
			campaign: testCampaign(Threshold{Currency: "usd", AmountMinor: 0}),
			invoices: []*invoice.Invoice{
				overdue("inv_1", "cust_1", "usd", 6000),
			},
			pending:         []*paymentrequest.PaymentRequest{pendingRequest("cust_1", "usd", 9000)},
			expectedSkipped: map[string]SkipReason{"cust_1/usd": SkipReasonCoveredByPending},
		},
		{
			name: "multi_customer_multi_currency",
			campaign: testCampaign(
				Threshold{Currency: "usd", AmountMinor: 1000},
				Threshold{Currency: "eur", AmountMinor: 2000},
			),
			invoices: []*invoice.Invoice{
				overdue("inv_1", "cust_b", "usd", 1500),
				overdue("inv_2", "cust_a", "eur", 2500),
				overdue("inv_3", "cust_a", "usd", 1000),
				overdue("inv_4", "cust_b", "eur", 1999),
			},
			expectedGroups:  []string{"cust_a/eur/2500", "cust_a/usd/1000", "cust_b/usd/1500"},
			expectedSkipped: map[string]SkipReason{"cust_b/eur": SkipReasonBelowThreshold},
		},
		{
			name: "max_attempts_reached",
			campaign: &Campaign{
				ID:             "dun_1",
				CampaignStatus: types.DunningCampaignStatusActive,
				MaxAttempts:    3,
				Thresholds:     []Threshold{{Currency: "usd", AmountMinor: 100}},
			},
			invoices: []*invoice.Invoice{overdue("inv_1", "cust_1", "usd", 500)},
			attempts: []*Attempt{{
				CampaignID:    "dun_1",
				CustomerID:    "cust_1",
				AttemptCount:  3,
				LastAttemptAt: lo.ToPtr(now.AddDate(0, -1, 0)),
			}},
			expectedSkipped: map[string]SkipReason{"cust_1/usd": SkipReasonMaxAttemptsReached},
		},
		{
			name: "last_attempt_too_recent",
			campaign: &Campaign{
				ID:                  "dun_1",
				CampaignStatus:      types.DunningCampaignStatusActive,
				MaxAttempts:         3,
				DaysBetweenAttempts: 7,
				Thresholds:          []Threshold{{Currency: "usd", AmountMinor: 100}},
			},
			invoices: []*invoice.Invoice{overdue("inv_1", "cust_1", "usd", 500)},
			attempts: []*Attempt{{
				CampaignID:    "dun_1",
				CustomerID:    "cust_1",
				AttemptCount:  1,
				LastAttemptAt: lo.ToPtr(now.AddDate(0, 0, -3)),
			}},
			expectedSkipped: map[string]SkipReason{"cust_1/usd": SkipReasonAttemptTooRecent},
		},
		{
			name: "attempt_interval_elapsed",
			campaign: &Campaign{
				ID:                  "dun_1",
				CampaignStatus:      types.DunningCampaignStatusActive,
				MaxAttempts:         3,
				DaysBetweenAttempts: 7,
				Thresholds:          []Threshold{{Currency: "usd", AmountMinor: 100}},
			},
			invoices: []*invoice.Invoice{overdue("inv_1", "cust_1", "usd", 500)},
			attempts: []*Attempt{{
				CampaignID:    "dun_1",
				CustomerID:    "cust_1",
				AttemptCount:  2,
				LastAttemptAt: lo.ToPtr(now.AddDate(0, 0, -7)),
			}},
			expectedGroups: []string{"cust_1/usd/500"},
		},
		{
			name:     "settled_and_duplicate_invoices_ignored",
			campaign: testCampaign(Threshold{Currency: "usd", AmountMinor: 1000}),
			invoices: []*invoice.Invoice{
				overdue("inv_1", "cust_1", "usd", 800),
				overdue("inv_1", "cust_1", "usd", 800),
				overdue("inv_2", "cust_1", "usd", 0),
				nil,
			},
			expectedSkipped: map[string]SkipReason{"cust_1/usd": SkipReasonBelowThreshold},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan, err := NewPlanner().Plan(PlanParams{
				Campaign:        tt.campaign,
				OverdueInvoices: tt.invoices,
				PendingRequests: tt.pending,
				Attempts:        tt.attempts,
				Now:             now,
			})
			require.NoError(t, err)

			groups := lo.Map(plan.Groups, func(g *Group, _ int) string {
				return fmt.Sprintf("%s/%s/%d", g.CustomerID, g.Currency, g.UncoveredMinor)
			})
			if tt.expectedGroups == nil {
				assert.Empty(t, groups)
			} else {
				assert.Equal(t, tt.expectedGroups, groups)
			}
			assert.Equal(t, len(plan.Groups), plan.PaymentRequestsToCreate)

			skipped := lo.SliceToMap(plan.Skipped, func(s *SkippedGroup) (string, SkipReason) {
				return s.CustomerID + "/" + s.Currency, s.Reason
			})
			if tt.expectedSkipped == nil {
				assert.Empty(t, skipped)
			} else {
				assert.Equal(t, tt.expectedSkipped, skipped)
			}

			for _, g := range plan.Groups {
				assert.GreaterOrEqual(t, g.UncoveredMinor, g.MatchingThresholdMinor)
				assert.Equal(t, g.TotalOutstandingMinor-g.PendingRequestMinor, g.UncoveredMinor)
			}
		})
	}
}

func TestPlanner_Plan_OrderIndependent(t *testing.T) {
	invoices := []*invoice.Invoice{
		overdue("inv_1", "cust_1", "usd", 6000),
		overdue("inv_2", "cust_1", "usd", 5000),
		overdue("inv_3", "cust_2", "usd", 700),
		overdue("inv_4", "cust_2", "eur", 12000),
		overdue("inv_5", "cust_1", "eur", 3333),
		overdue("inv_6", "cust_2", "usd", 9400),
	}
	campaign := testCampaign(
		Threshold{Currency: "usd", AmountMinor: 10000},
		Threshold{Currency: "eur", AmountMinor: 5000},
	)
	pending := []*paymentrequest.PaymentRequest{pendingRequest("cust_2", "eur", 1000)}

	planner := NewPlanner()
	expected, err := planner.Plan(PlanParams{Campaign: campaign, OverdueInvoices: invoices, PendingRequests: pending, Now: now})
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		shuffled := make([]*invoice.Invoice, len(invoices))
		copy(shuffled, invoices)
		rng.Shuffle(len(shuffled), func(a, b int) { shuffled[a], shuffled[b] = shuffled[b], shuffled[a] })

		plan, err := planner.Plan(PlanParams{Campaign: campaign, OverdueInvoices: shuffled, PendingRequests: pending, Now: now})
		require.NoError(t, err)
		assert.Equal(t, expected, plan)
	}
}

func TestPlanner_Plan_ConflictingDuplicates(t *testing.T) {
	campaign := testCampaign(Threshold{Currency: "usd", AmountMinor: 10000})
	low := overdue("inv_1", "cust_1", "usd", 6000)
	high := overdue("inv_1", "cust_1", "usd", 12000)

	orders := map[string][]*invoice.Invoice{
		"low_first":  {low, high},
		"high_first": {high, low},
	}
	for name, invoices := range orders {
		t.Run(name, func(t *testing.T) {
			plan, err := NewPlanner().Plan(PlanParams{Campaign: campaign, OverdueInvoices: invoices, Now: now})
			require.Error(t, err)
			assert.Nil(t, plan)
			assert.True(t, ierr.IsValidation(err))
		})
	}

	t.Run("other_customer", func(t *testing.T) {
		moved := overdue("inv_1", "cust_2", "usd", 6000)
		_, err := NewPlanner().Plan(PlanParams{Campaign: campaign, OverdueInvoices: []*invoice.Invoice{low, moved}, Now: now})
		assert.True(t, ierr.IsValidation(err))
	})

	t.Run("identical_copies_collapse", func(t *testing.T) {
		plan, err := NewPlanner().Plan(PlanParams{
			Campaign:        campaign,
			OverdueInvoices: []*invoice.Invoice{high, overdue("inv_1", "cust_1", "USD", 12000)},
			Now:             now,
		})
		require.NoError(t, err)
		assert.Equal(t, 1, plan.TotalOverdueInvoices)
		assert.Equal(t, int64(12000), plan.TotalOverdueAmountMinor)
		require.Len(t, plan.Groups, 1)
	})
}

func TestPlanner_Plan_CountsAndStatus(t *testing.T) {
	campaign := testCampaign(Threshold{Currency: "usd", AmountMinor: 100})
	campaign.CampaignStatus = types.DunningCampaignStatusInactive

	failed := pendingRequest("cust_9", "usd", 100)
	failed.PaymentStatus = types.PaymentRequestStatusFailed

	plan, err := NewPlanner().Plan(PlanParams{
		Campaign: campaign,
		OverdueInvoices: []*invoice.Invoice{
			overdue("inv_1", "cust_1", "usd", 500),
			overdue("inv_2", "cust_2", "eur", 700),
		},
		PendingRequests: []*paymentrequest.PaymentRequest{
			pendingRequest("cust_3", "usd", 100),
			failed,
		},
		Now: now,
	})
	require.NoError(t, err)

	assert.Equal(t, types.DunningCampaignStatusInactive, plan.Status)
	assert.Equal(t, 2, plan.TotalOverdueInvoices)
	assert.Equal(t, int64(1200), plan.TotalOverdueAmountMinor)
	assert.Equal(t, map[string]int64{"usd": 500, "eur": 700}, plan.TotalOverdueByCurrency)
	assert.Equal(t, 1, plan.ExistingPendingRequests)
	assert.Equal(t, 1, plan.PaymentRequestsToCreate)
}

func TestPlanner_Plan_InvalidCampaign(t *testing.T) {
	_, err := NewPlanner().Plan(PlanParams{})
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))

	_, err = NewPlanner().Plan(PlanParams{
		Campaign: testCampaign(
			Threshold{Currency: "usd", AmountMinor: 100},
			Threshold{Currency: "USD", AmountMinor: 200},
		),
	})
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))
}

func TestCampaign_ThresholdFor(t *testing.T) {
	campaign := testCampaign(Threshold{Currency: "USD", AmountMinor: 10000})

	amount, ok := campaign.ThresholdFor("usd")
	assert.True(t, ok)
	assert.Equal(t, int64(10000), amount)

	_, ok = campaign.ThresholdFor("eur")
	assert.False(t, ok)
}
