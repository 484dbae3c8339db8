package service

import (
	"context"

	"github.com/flexprice/billingcore/internal/api/dto"
	"github.com/flexprice/billingcore/internal/cache"
	"github.com/flexprice/billingcore/internal/domain/plan"
	"github.com/flexprice/billingcore/internal/domain/proration"
	"github.com/flexprice/billingcore/internal/sentry"
	"github.com/flexprice/billingcore/internal/types"
)

type ProrationService interface {
	// PreviewPlanChange computes the credit and charge of moving a
	// subscription to another plan. Nothing is persisted.
	PreviewPlanChange(ctx context.Context, subscriptionID string, req dto.PreviewPlanChangeRequest) (*dto.PreviewPlanChangeResponse, error)
}

type prorationService struct {
	ServiceParams
	engine *proration.Engine
}

func NewProrationService(params ServiceParams) ProrationService {
	return &prorationService{
		ServiceParams: params,
		engine:        proration.NewEngine(proration.CalculatorTypeFromStrategy(params.Config.Billing.ProrationStrategy)),
	}
}

func (s *prorationService) PreviewPlanChange(ctx context.Context, subscriptionID string, req dto.PreviewPlanChangeRequest) (*dto.PreviewPlanChangeResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sub, err := s.SubRepo.Get(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}

	currentPlan, err := s.getPlan(ctx, sub.PlanID)
	if err != nil {
		return nil, err
	}

	newPlan, err := s.getPlan(ctx, req.NewPlanID)
	if err != nil {
		return nil, err
	}

	timezone := sub.CustomerTimezone
	if timezone == "" {
		timezone = s.Config.Billing.DefaultTimezone
	}

	span, _ := s.startBillingSpan(ctx, "proration.preview", map[string]interface{}{
		"subscription_id": subscriptionID,
		"new_plan_id":     req.NewPlanID,
	})
	result, err := s.engine.Preview(proration.PreviewParams{
		Subscription:     sub,
		CurrentPlan:      currentPlan,
		NewPlan:          newPlan,
		Request:          req.ToChangeRequest(subscriptionID),
		Now:              s.now(),
		CustomerTimezone: timezone,
	})
	sentry.FinishSpan(span)
	if err != nil {
		s.Logger.Debugw("plan change preview rejected",
			"subscription_id", subscriptionID,
			"new_plan_id", req.NewPlanID,
			"error", err,
		)
		return nil, err
	}

	s.Logger.Infow("previewed plan change",
		"subscription_id", subscriptionID,
		"current_plan_id", currentPlan.ID,
		"new_plan_id", newPlan.ID,
		"action", result.Action,
		"net_amount_minor", result.NetAmountMinor,
		"days_remaining", result.DaysRemaining,
		"total_days", result.TotalDays,
	)

	return &dto.PreviewPlanChangeResponse{
		Proration:        result,
		CurrentPlan:      dto.NewPlanSummary(currentPlan),
		NewPlan:          dto.NewPlanSummary(newPlan),
		DisplayNetAmount: result.NetAmount().String(),
	}, nil
}

// getPlan reads through the plan cache when caching is enabled
func (s *prorationService) getPlan(ctx context.Context, id string) (*plan.Plan, error) {
	if s.Cache == nil || !s.Config.Cache.Enabled {
		return s.PlanRepo.Get(ctx, id)
	}

	key := cache.GenerateKey(cache.PrefixPlan, types.GetTenantID(ctx), types.GetEnvironmentID(ctx), id)
	if cached, found := s.Cache.Get(ctx, key); found {
		if p, ok := cached.(*plan.Plan); ok {
			return p, nil
		}
	}

	p, err := s.PlanRepo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Cache.Set(ctx, key, p, 0)
	return p, nil
}
