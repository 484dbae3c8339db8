package service

import (
	"context"
	"sync"
	"time"

	"github.com/flexprice/billingcore/internal/api/dto"
	"github.com/flexprice/billingcore/internal/domain/subscription"
	"github.com/flexprice/billingcore/internal/domain/usagethreshold"
	"github.com/flexprice/billingcore/internal/idempotency"
	ierr "github.com/flexprice/billingcore/internal/errors"
	"github.com/flexprice/billingcore/internal/publisher"
	"github.com/flexprice/billingcore/internal/sentry"
	"github.com/flexprice/billingcore/internal/types"
	"github.com/sourcegraph/conc/pool"
)

type UsageThresholdService interface {
	// GetStatus reports a stored threshold against current period usage
	GetStatus(ctx context.Context, thresholdID string) (*dto.UsageThresholdStatusResponse, error)
	// TestThreshold evaluates a hypothetical threshold without persisting anything
	TestThreshold(ctx context.Context, subscriptionID string, req dto.TestUsageThresholdRequest) (*dto.UsageThresholdStatusResponse, error)
	// EvaluateSubscription fires every crossed threshold of a subscription once
	EvaluateSubscription(ctx context.Context, subscriptionID string) (*dto.EvaluateUsageThresholdsResponse, error)
	// EvaluateAll evaluates every active subscription that has thresholds
	EvaluateAll(ctx context.Context) (*dto.EvaluateAllUsageThresholdsResponse, error)
}

type usageThresholdService struct {
	ServiceParams
	tracker     *usagethreshold.Tracker
	idempotency *idempotency.Generator
}

func NewUsageThresholdService(params ServiceParams) UsageThresholdService {
	return &usageThresholdService{
		ServiceParams: params,
		tracker:       usagethreshold.NewTracker(),
		idempotency:   idempotency.NewGenerator(),
	}
}

func (s *usageThresholdService) GetStatus(ctx context.Context, thresholdID string) (*dto.UsageThresholdStatusResponse, error) {
	threshold, err := s.UsageThresholdRepo.Get(ctx, thresholdID)
	if err != nil {
		return nil, err
	}

	sub, err := s.SubRepo.Get(ctx, threshold.SubscriptionID)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.snapshot(ctx, sub)
	if err != nil {
		return nil, err
	}

	return s.status(ctx, threshold, sub, snapshot)
}

func (s *usageThresholdService) TestThreshold(ctx context.Context, subscriptionID string, req dto.TestUsageThresholdRequest) (*dto.UsageThresholdStatusResponse, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	sub, err := s.SubRepo.Get(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}

	snapshot, err := s.snapshot(ctx, sub)
	if err != nil {
		return nil, err
	}

	return s.status(ctx, req.ToUsageThreshold(sub.ID), sub, snapshot)
}

func (s *usageThresholdService) EvaluateSubscription(ctx context.Context, subscriptionID string) (*dto.EvaluateUsageThresholdsResponse, error) {
	sub, err := s.SubRepo.Get(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}

	thresholds, err := s.UsageThresholdRepo.ListBySubscription(ctx, sub.ID)
	if err != nil {
		return nil, err
	}

	resp := &dto.EvaluateUsageThresholdsResponse{
		SubscriptionID: sub.ID,
		Evaluated:      len(thresholds),
		Triggered:      make([]*dto.UsageThresholdStatusResponse, 0),
	}
	if len(thresholds) == 0 {
		return resp, nil
	}

	snapshot, err := s.snapshot(ctx, sub)
	if err != nil {
		return nil, err
	}

	for _, threshold := range thresholds {
		status, err := s.status(ctx, threshold, sub, snapshot)
		if err != nil {
			return nil, err
		}
		if !status.WouldTrigger {
			continue
		}

		triggeredAt := s.now()
		err = s.UsageThresholdRepo.MarkTriggered(ctx, threshold.ID, threshold.LastTriggeredAt, triggeredAt)
		if ierr.Is(err, ierr.ErrVersionConflict) {
			// another evaluator fired it first
			s.Logger.Debugw("usage threshold already triggered concurrently",
				"threshold_id", threshold.ID,
				"subscription_id", sub.ID,
			)
			continue
		}
		if err != nil {
			return nil, err
		}

		status.AlreadyTriggered = true
		resp.Triggered = append(resp.Triggered, status)

		s.Logger.Infow("usage threshold triggered",
			"threshold_id", threshold.ID,
			"subscription_id", sub.ID,
			"current_usage", status.CurrentUsage,
			"threshold_value", status.ThresholdValue,
			"usage_percentage", status.UsagePercentage.String(),
		)
		s.publishTriggered(ctx, status)
	}

	return resp, nil
}

func (s *usageThresholdService) EvaluateAll(ctx context.Context) (*dto.EvaluateAllUsageThresholdsResponse, error) {
	subscriptionIDs, err := s.SubRepo.ListActiveWithThresholds(ctx)
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("evaluating usage thresholds", "subscriptions", len(subscriptionIDs))

	var mu sync.Mutex
	resp := &dto.EvaluateAllUsageThresholdsResponse{Subscriptions: len(subscriptionIDs)}

	p := pool.New().WithMaxGoroutines(s.maxConcurrency())
	for _, id := range subscriptionIDs {
		p.Go(func() {
			result, err := s.EvaluateSubscription(ctx, id)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				s.Logger.Errorw("failed to evaluate usage thresholds",
					"subscription_id", id,
					"error", err,
				)
				resp.Failed = append(resp.Failed, id)
				return
			}
			resp.Triggered += len(result.Triggered)
		})
	}
	p.Wait()

	return resp, nil
}

// snapshot reads usage for the subscription's current billing period
func (s *usageThresholdService) snapshot(ctx context.Context, sub *subscription.Subscription) (*usagethreshold.UsageSnapshot, error) {
	amount, err := s.UsageRepo.GetUsageAmount(ctx, sub.ID, sub.CurrentPeriodStart, sub.CurrentPeriodEnd)
	if err != nil {
		return nil, err
	}

	return &usagethreshold.UsageSnapshot{
		SubscriptionID:          sub.ID,
		CurrentUsageAmountMinor: amount,
		BillingPeriodStart:      sub.CurrentPeriodStart,
		BillingPeriodEnd:        sub.CurrentPeriodEnd,
	}, nil
}

func (s *usageThresholdService) status(ctx context.Context, threshold *usagethreshold.UsageThreshold, sub *subscription.Subscription, snapshot *usagethreshold.UsageSnapshot) (*dto.UsageThresholdStatusResponse, error) {
	span, _ := s.startBillingSpan(ctx, "usage_threshold.status", map[string]interface{}{
		"threshold_id":    threshold.ID,
		"subscription_id": sub.ID,
	})
	defer sentry.FinishSpan(span)

	status, err := s.tracker.Status(threshold, sub, snapshot)
	if err != nil {
		return nil, err
	}
	return &dto.UsageThresholdStatusResponse{
		ThresholdStatus: status,
		Name:            threshold.Name(),
	}, nil
}

// publishTriggered reports a trigger. The trigger is already persisted, so a
// publish failure is logged rather than returned.
func (s *usageThresholdService) publishTriggered(ctx context.Context, status *dto.UsageThresholdStatusResponse) {
	if s.EventPublisher == nil {
		return
	}

	event, err := publisher.NewEvent(ctx, types.EventUsageThresholdTriggered, status)
	if err == nil {
		// one trigger per threshold and period, consumers dedupe on the event id
		event.ID = s.idempotency.GenerateKey(idempotency.ScopeThresholdTrigger, map[string]interface{}{
			"threshold_id":         status.ThresholdID,
			"billing_period_start": status.BillingPeriodStart.UTC().Format(time.RFC3339),
		})
		err = s.EventPublisher.Publish(ctx, event)
	}
	if err != nil {
		s.Logger.Errorw("failed to publish usage threshold event",
			"threshold_id", status.ThresholdID,
			"subscription_id", status.SubscriptionID,
			"error", err,
		)
	}
}
