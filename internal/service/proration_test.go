package service

import (
	"testing"
	"time"

	"github.com/flexprice/billingcore/internal/api/dto"
	"github.com/flexprice/billingcore/internal/domain/plan"
	"github.com/flexprice/billingcore/internal/domain/subscription"
	ierr "github.com/flexprice/billingcore/internal/errors"
	"github.com/flexprice/billingcore/internal/types"
	"github.com/samber/lo"
	"github.com/stretchr/testify/suite"
)

type ProrationServiceSuite struct {
	BaseServiceTestSuite
	service ProrationService
}

func TestProrationService(t *testing.T) {
	suite.Run(t, new(ProrationServiceSuite))
}

func (s *ProrationServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewProrationService(s.params())

	for _, p := range []*plan.Plan{
		{ID: "plan_basic", Name: "Basic", AmountMinor: 3000, Currency: "usd", Interval: types.BillingIntervalMonthly},
		{ID: "plan_pro", Name: "Pro", AmountMinor: 5000, Currency: "USD", Interval: types.BillingIntervalMonthly},
		{ID: "plan_eur", Name: "Euro", AmountMinor: 5000, Currency: "eur", Interval: types.BillingIntervalMonthly},
	} {
		p.BaseModel = s.baseModel()
		s.Require().NoError(s.planStore.Create(s.ctx, p))
	}

	s.Require().NoError(s.subStore.Create(s.ctx, &subscription.Subscription{
		ID:                 "subs_1",
		PlanID:             "plan_basic",
		CustomerID:         "cust_1",
		SubscriptionStatus: types.SubscriptionStatusActive,
		CurrentPeriodStart: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		CurrentPeriodEnd:   time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		BaseModel:          s.baseModel(),
	}))
}

func (s *ProrationServiceSuite) TestPreviewPlanChange_Upgrade() {
	resp, err := s.service.PreviewPlanChange(s.ctx, "subs_1", dto.PreviewPlanChangeRequest{
		NewPlanID:     "plan_pro",
		EffectiveDate: lo.ToPtr(time.Date(2024, 4, 16, 0, 0, 0, 0, time.UTC)),
	})
	s.Require().NoError(err)

	s.Equal(30, resp.Proration.TotalDays)
	s.Equal(15, resp.Proration.DaysRemaining)
	s.Equal(int64(1500), resp.Proration.CurrentPlanCreditMinor)
	s.Equal(int64(2500), resp.Proration.NewPlanChargeMinor)
	s.Equal(int64(1000), resp.Proration.NetAmountMinor)
	s.Equal(types.ProrationActionUpgrade, resp.Proration.Action)
	s.Equal("$10.00", resp.DisplayNetAmount)
	s.Equal("plan_basic", resp.CurrentPlan.ID)
	s.Equal("$30.00", resp.CurrentPlan.DisplayAmount)
	s.Equal("usd", resp.NewPlan.Currency)
}

func (s *ProrationServiceSuite) TestPreviewPlanChange_ImplicitNow() {
	resp, err := s.service.PreviewPlanChange(s.ctx, "subs_1", dto.PreviewPlanChangeRequest{NewPlanID: "plan_pro"})
	s.Require().NoError(err)

	// s.now is 2024-04-16 12:00 UTC
	s.Equal(15, resp.Proration.DaysRemaining)
	s.Equal(int64(1000), resp.Proration.NetAmountMinor)
}

func (s *ProrationServiceSuite) TestPreviewPlanChange_CachesPlans() {
	req := dto.PreviewPlanChangeRequest{NewPlanID: "plan_pro"}

	_, err := s.service.PreviewPlanChange(s.ctx, "subs_1", req)
	s.Require().NoError(err)
	s.Equal(2, s.planStore.Gets())

	_, err = s.service.PreviewPlanChange(s.ctx, "subs_1", req)
	s.Require().NoError(err)
	s.Equal(2, s.planStore.Gets())
}

func (s *ProrationServiceSuite) TestPreviewPlanChange_Errors() {
	tests := []struct {
		name           string
		subscriptionID string
		req            dto.PreviewPlanChangeRequest
		check          func(error) bool
	}{
		{
			name:           "missing new plan id",
			subscriptionID: "subs_1",
			req:            dto.PreviewPlanChangeRequest{},
			check:          ierr.IsValidation,
		},
		{
			name:           "unknown subscription",
			subscriptionID: "subs_missing",
			req:            dto.PreviewPlanChangeRequest{NewPlanID: "plan_pro"},
			check:          ierr.IsNotFound,
		},
		{
			name:           "unknown plan",
			subscriptionID: "subs_1",
			req:            dto.PreviewPlanChangeRequest{NewPlanID: "plan_missing"},
			check:          ierr.IsNotFound,
		},
		{
			name:           "same plan",
			subscriptionID: "subs_1",
			req:            dto.PreviewPlanChangeRequest{NewPlanID: "plan_basic"},
			check:          func(err error) bool { return ierr.Is(err, ierr.ErrSamePlan) },
		},
		{
			name:           "currency mismatch",
			subscriptionID: "subs_1",
			req:            dto.PreviewPlanChangeRequest{NewPlanID: "plan_eur"},
			check:          func(err error) bool { return ierr.Is(err, ierr.ErrCurrencyMismatch) },
		},
		{
			name:           "effective date outside period",
			subscriptionID: "subs_1",
			req: dto.PreviewPlanChangeRequest{
				NewPlanID:     "plan_pro",
				EffectiveDate: lo.ToPtr(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)),
			},
			check: func(err error) bool { return ierr.Is(err, ierr.ErrInvalidEffectiveDate) },
		},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			_, err := s.service.PreviewPlanChange(s.ctx, tt.subscriptionID, tt.req)
			s.Require().Error(err)
			s.True(tt.check(err), "unexpected error: %v", err)
		})
	}
}
