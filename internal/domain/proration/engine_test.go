package proration

import (
	"testing"
	"time"

	"github.com/flexprice/billingcore/internal/domain/plan"
	"github.com/flexprice/billingcore/internal/domain/subscription"
	ierr "github.com/flexprice/billingcore/internal/errors"
	"github.com/flexprice/billingcore/internal/types"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	periodStart = time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	periodEnd   = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
)

func testSubscription(status types.SubscriptionStatus) *subscription.Subscription {
	return &subscription.Subscription{
		ID:                 "subs_1",
		PlanID:             "plan_a",
		CustomerID:         "cust_1",
		SubscriptionStatus: status,
		CurrentPeriodStart: periodStart,
		CurrentPeriodEnd:   periodEnd,
	}
}

func testPlan(id string, amount int64, currency string) *plan.Plan {
	return &plan.Plan{
		ID:          id,
		Name:        id,
		AmountMinor: amount,
		Currency:    currency,
		Interval:    types.BillingIntervalMonthly,
	}
}

func TestEngine_Preview(t *testing.T) {
	tests := []struct {
		name          string
		params        PreviewParams
		expected      *Result
		expectedError error
	}{
		{
			name: "upgrade_mid_period",
			params: PreviewParams{
				Subscription: testSubscription(types.SubscriptionStatusActive),
				CurrentPlan:  testPlan("plan_a", 3000, "usd"),
				NewPlan:      testPlan("plan_b", 5000, "usd"),
				Request:      ChangeRequest{EffectiveDate: lo.ToPtr(time.Date(2024, 4, 16, 0, 0, 0, 0, time.UTC))},
			},
			expected: &Result{
				DaysRemaining:          15,
				TotalDays:              30,
				CurrentPlanCreditMinor: 1500,
				NewPlanChargeMinor:     2500,
				NetAmountMinor:         1000,
				Action:                 types.ProrationActionUpgrade,
			},
		},
		{
			name: "downgrade_mid_period",
			params: PreviewParams{
				Subscription: testSubscription(types.SubscriptionStatusActive),
				CurrentPlan:  testPlan("plan_b", 5000, "usd"),
				NewPlan:      testPlan("plan_a", 3000, "usd"),
				Request:      ChangeRequest{EffectiveDate: lo.ToPtr(time.Date(2024, 4, 16, 0, 0, 0, 0, time.UTC))},
			},
			expected: &Result{
				DaysRemaining:          15,
				TotalDays:              30,
				CurrentPlanCreditMinor: 2500,
				NewPlanChargeMinor:     1500,
				NetAmountMinor:         -1000,
				Action:                 types.ProrationActionDowngrade,
			},
		},
		{
			name: "effective_at_period_start_bills_full_period",
			params: PreviewParams{
				Subscription: testSubscription(types.SubscriptionStatusPending),
				CurrentPlan:  testPlan("plan_a", 3000, "usd"),
				NewPlan:      testPlan("plan_b", 5000, "usd"),
				Request:      ChangeRequest{EffectiveDate: lo.ToPtr(periodStart)},
			},
			expected: &Result{
				DaysRemaining:          30,
				TotalDays:              30,
				CurrentPlanCreditMinor: 3000,
				NewPlanChargeMinor:     5000,
				NetAmountMinor:         2000,
				Action:                 types.ProrationActionUpgrade,
			},
		},
		{
			name: "identical_prices_at_period_start_net_zero",
			params: PreviewParams{
				Subscription: testSubscription(types.SubscriptionStatusActive),
				CurrentPlan:  testPlan("plan_a", 3000, "usd"),
				NewPlan:      testPlan("plan_a2", 3000, "USD"),
				Request:      ChangeRequest{EffectiveDate: lo.ToPtr(periodStart)},
			},
			expected: &Result{
				DaysRemaining:          30,
				TotalDays:              30,
				CurrentPlanCreditMinor: 3000,
				NewPlanChargeMinor:     3000,
				NetAmountMinor:         0,
				Action:                 types.ProrationActionNoChange,
			},
		},
		{
			name: "effective_at_period_end_is_zero",
			params: PreviewParams{
				Subscription: testSubscription(types.SubscriptionStatusActive),
				CurrentPlan:  testPlan("plan_a", 3000, "usd"),
				NewPlan:      testPlan("plan_b", 5000, "usd"),
				Request:      ChangeRequest{EffectiveDate: lo.ToPtr(periodEnd)},
			},
			expected: &Result{
				DaysRemaining:          0,
				TotalDays:              30,
				CurrentPlanCreditMinor: 0,
				NewPlanChargeMinor:     0,
				NetAmountMinor:         0,
				Action:                 types.ProrationActionNoChange,
			},
		},
		{
			name: "rounds_each_line_item_half_up",
			params: PreviewParams{
				Subscription: testSubscription(types.SubscriptionStatusActive),
				CurrentPlan:  testPlan("plan_a", 1001, "usd"),
				NewPlan:      testPlan("plan_b", 2001, "usd"),
				Request:      ChangeRequest{EffectiveDate: lo.ToPtr(time.Date(2024, 4, 16, 0, 0, 0, 0, time.UTC))},
			},
			expected: &Result{
				DaysRemaining:          15,
				TotalDays:              30,
				CurrentPlanCreditMinor: 501,  // 500.5
				NewPlanChargeMinor:     1001, // 1000.5
				NetAmountMinor:         500,
				Action:                 types.ProrationActionUpgrade,
			},
		},
		{
			name: "implicit_now_after_period_is_clamped",
			params: PreviewParams{
				Subscription: testSubscription(types.SubscriptionStatusActive),
				CurrentPlan:  testPlan("plan_a", 3000, "usd"),
				NewPlan:      testPlan("plan_b", 5000, "usd"),
				Now:          time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
			},
			expected: &Result{
				DaysRemaining: 0,
				TotalDays:     30,
				Action:        types.ProrationActionNoChange,
			},
		},
		{
			name: "implicit_now_inside_period",
			params: PreviewParams{
				Subscription: testSubscription(types.SubscriptionStatusActive),
				CurrentPlan:  testPlan("plan_a", 3000, "usd"),
				NewPlan:      testPlan("plan_b", 5000, "usd"),
				Now:          time.Date(2024, 4, 21, 9, 30, 0, 0, time.UTC),
			},
			expected: &Result{
				DaysRemaining:          10,
				TotalDays:              30,
				CurrentPlanCreditMinor: 1000,
				NewPlanChargeMinor:     1667,
				NetAmountMinor:         667,
				Action:                 types.ProrationActionUpgrade,
			},
		},
		{
			name: "same_plan_rejected",
			params: PreviewParams{
				Subscription: testSubscription(types.SubscriptionStatusActive),
				CurrentPlan:  testPlan("plan_a", 3000, "usd"),
				NewPlan:      testPlan("plan_a", 3000, "usd"),
			},
			expectedError: ierr.ErrSamePlan,
		},
		{
			name: "currency_mismatch_rejected",
			params: PreviewParams{
				Subscription: testSubscription(types.SubscriptionStatusActive),
				CurrentPlan:  testPlan("plan_a", 3000, "usd"),
				NewPlan:      testPlan("plan_b", 5000, "eur"),
			},
			expectedError: ierr.ErrCurrencyMismatch,
		},
		{
			name: "canceled_subscription_not_eligible",
			params: PreviewParams{
				Subscription: testSubscription(types.SubscriptionStatusCanceled),
				CurrentPlan:  testPlan("plan_a", 3000, "usd"),
				NewPlan:      testPlan("plan_b", 5000, "usd"),
			},
			expectedError: ierr.ErrSubscriptionNotEligible,
		},
		{
			name: "paused_subscription_not_eligible",
			params: PreviewParams{
				Subscription: testSubscription(types.SubscriptionStatusPaused),
				CurrentPlan:  testPlan("plan_a", 3000, "usd"),
				NewPlan:      testPlan("plan_b", 5000, "usd"),
			},
			expectedError: ierr.ErrSubscriptionNotEligible,
		},
		{
			name: "explicit_date_before_period_rejected",
			params: PreviewParams{
				Subscription: testSubscription(types.SubscriptionStatusActive),
				CurrentPlan:  testPlan("plan_a", 3000, "usd"),
				NewPlan:      testPlan("plan_b", 5000, "usd"),
				Request:      ChangeRequest{EffectiveDate: lo.ToPtr(periodStart.Add(-time.Second))},
			},
			expectedError: ierr.ErrInvalidEffectiveDate,
		},
		{
			name: "explicit_date_after_period_rejected",
			params: PreviewParams{
				Subscription: testSubscription(types.SubscriptionStatusActive),
				CurrentPlan:  testPlan("plan_a", 3000, "usd"),
				NewPlan:      testPlan("plan_b", 5000, "usd"),
				Request:      ChangeRequest{EffectiveDate: lo.ToPtr(periodEnd.AddDate(0, 0, 1))},
			},
			expectedError: ierr.ErrInvalidEffectiveDate,
		},
		{
			name: "negative_plan_amount_rejected",
			params: PreviewParams{
				Subscription: testSubscription(types.SubscriptionStatusActive),
				CurrentPlan:  testPlan("plan_a", -1, "usd"),
				NewPlan:      testPlan("plan_b", 5000, "usd"),
			},
			expectedError: ierr.ErrValidation,
		},
	}

	engine := NewEngine(CalculatorTypeDay)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := engine.Preview(tt.params)
			if tt.expectedError != nil {
				require.Error(t, err)
				assert.True(t, ierr.Is(err, tt.expectedError), "unexpected error: %v", err)
				assert.Nil(t, result)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, result)
			assert.Equal(t, tt.expected.DaysRemaining, result.DaysRemaining)
			assert.Equal(t, tt.expected.TotalDays, result.TotalDays)
			assert.Equal(t, tt.expected.CurrentPlanCreditMinor, result.CurrentPlanCreditMinor)
			assert.Equal(t, tt.expected.NewPlanChargeMinor, result.NewPlanChargeMinor)
			assert.Equal(t, tt.expected.NetAmountMinor, result.NetAmountMinor)
			assert.Equal(t, tt.expected.Action, result.Action)
			assert.Equal(t, result.NewPlanChargeMinor-result.CurrentPlanCreditMinor, result.NetAmountMinor)
			assert.GreaterOrEqual(t, result.DaysRemaining, 0)
			assert.LessOrEqual(t, result.DaysRemaining, result.TotalDays)
			assert.Equal(t, "usd", result.Currency)
		})
	}
}

func TestEngine_Preview_LineItems(t *testing.T) {
	effective := time.Date(2024, 4, 16, 0, 0, 0, 0, time.UTC)
	result, err := NewEngine(CalculatorTypeDay).Preview(PreviewParams{
		Subscription: testSubscription(types.SubscriptionStatusActive),
		CurrentPlan:  testPlan("plan_a", 3000, "usd"),
		NewPlan:      testPlan("plan_b", 5000, "usd"),
		Request:      ChangeRequest{EffectiveDate: &effective},
	})
	require.NoError(t, err)

	require.Len(t, result.CreditItems, 1)
	require.Len(t, result.ChargeItems, 1)

	credit := result.CreditItems[0]
	assert.Equal(t, int64(-1500), credit.AmountMinor)
	assert.Equal(t, "plan_a", credit.PlanID)
	assert.True(t, credit.IsCredit)
	assert.Equal(t, "Credit for unused time on previous plan before upgrade", credit.Description)
	assert.Equal(t, effective, credit.StartDate)
	assert.Equal(t, periodEnd, credit.EndDate)

	charge := result.ChargeItems[0]
	assert.Equal(t, int64(2500), charge.AmountMinor)
	assert.Equal(t, "plan_b", charge.PlanID)
	assert.False(t, charge.IsCredit)
	assert.Equal(t, "Prorated charge for upgrade", charge.Description)

	assert.Equal(t, "$10.00", result.NetAmount().String())
}

func TestEngine_Preview_DSTTimezone(t *testing.T) {
	loc, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)

	sub := testSubscription(types.SubscriptionStatusActive)
	sub.CurrentPeriodStart = time.Date(2024, 3, 1, 0, 0, 0, 0, loc)
	sub.CurrentPeriodEnd = time.Date(2024, 4, 1, 0, 0, 0, 0, loc)
	effective := time.Date(2024, 3, 11, 0, 0, 0, 0, loc) // day after DST starts

	result, err := NewEngine(CalculatorTypeDay).Preview(PreviewParams{
		Subscription:     sub,
		CurrentPlan:      testPlan("plan_a", 3100, "usd"),
		NewPlan:          testPlan("plan_b", 6200, "usd"),
		Request:          ChangeRequest{EffectiveDate: &effective},
		CustomerTimezone: "America/New_York",
	})
	require.NoError(t, err)
	assert.Equal(t, 31, result.TotalDays)
	assert.Equal(t, 21, result.DaysRemaining)
	assert.Equal(t, int64(2100), result.CurrentPlanCreditMinor)
	assert.Equal(t, int64(4200), result.NewPlanChargeMinor)
}

func TestEngine_Preview_InvalidTimezone(t *testing.T) {
	_, err := NewEngine(CalculatorTypeDay).Preview(PreviewParams{
		Subscription:     testSubscription(types.SubscriptionStatusActive),
		CurrentPlan:      testPlan("plan_a", 3000, "usd"),
		NewPlan:          testPlan("plan_b", 5000, "usd"),
		CustomerTimezone: "Mars/Olympus_Mons",
	})
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))
}

func TestEngine_Preview_SecondBased(t *testing.T) {
	effective := time.Date(2024, 4, 16, 12, 0, 0, 0, time.UTC)
	result, err := NewEngine(CalculatorTypeSecond).Preview(PreviewParams{
		Subscription: testSubscription(types.SubscriptionStatusActive),
		CurrentPlan:  testPlan("plan_a", 3000, "usd"),
		NewPlan:      testPlan("plan_b", 5000, "usd"),
		Request:      ChangeRequest{EffectiveDate: &effective},
	})
	require.NoError(t, err)

	// 14.5 of 30 days remain
	assert.Equal(t, CalculatorTypeSecond, result.CalculatorType)
	assert.Equal(t, int64(1450), result.CurrentPlanCreditMinor)
	assert.Equal(t, int64(2417), result.NewPlanChargeMinor)
	assert.Equal(t, int64(967), result.NetAmountMinor)
	assert.Equal(t, 15, result.DaysRemaining)
}

func TestProration_Additivity(t *testing.T) {
	engine := NewEngine(CalculatorTypeDay)
	amounts := []int64{3000, 2999, 4999, 12345}

	for _, amount := range amounts {
		for day := 0; day <= 30; day++ {
			effective := periodStart.AddDate(0, 0, day)
			result, err := engine.Preview(PreviewParams{
				Subscription: testSubscription(types.SubscriptionStatusActive),
				CurrentPlan:  testPlan("plan_a", amount, "usd"),
				NewPlan:      testPlan("plan_b", amount*2, "usd"),
				Request:      ChangeRequest{EffectiveDate: &effective},
			})
			require.NoError(t, err)

			used := types.ProrateMinor(amount, int64(result.TotalDays-result.DaysRemaining), int64(result.TotalDays))
			assert.InDelta(t, amount, result.CurrentPlanCreditMinor+used, 1,
				"amount=%d day=%d", amount, day)
			if amount%30 == 0 {
				assert.Equal(t, amount, result.CurrentPlanCreditMinor+used)
			}
		}
	}
}

func TestCalculatorTypeFromStrategy(t *testing.T) {
	assert.Equal(t, CalculatorTypeDay, CalculatorTypeFromStrategy(types.StrategyDayBased))
	assert.Equal(t, CalculatorTypeSecond, CalculatorTypeFromStrategy(types.StrategySecondBased))
	assert.Equal(t, CalculatorTypeDay, CalculatorTypeFromStrategy(""))
}
