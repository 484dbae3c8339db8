package postgres

import (
	"context"

	"github.com/flexprice/billingcore/internal/domain/subscription"
	ierr "github.com/flexprice/billingcore/internal/errors"
	"github.com/flexprice/billingcore/internal/logger"
	"github.com/flexprice/billingcore/internal/postgres"
	"github.com/flexprice/billingcore/internal/types"
)

type subscriptionRepository struct {
	client postgres.IClient
	log    *logger.Logger
}

func NewSubscriptionRepository(client postgres.IClient, log *logger.Logger) subscription.Repository {
	return &subscriptionRepository{client: client, log: log}
}

func (r *subscriptionRepository) Get(ctx context.Context, id string) (*subscription.Subscription, error) {
	r.log.Debugw("getting subscription", "subscription_id", id)

	span := StartRepositorySpan(ctx, "subscription", "get", map[string]interface{}{
		"subscription_id": id,
	})
	defer FinishSpan(span)

	query := `
		SELECT id, plan_id, customer_id, subscription_status, current_period_start, current_period_end,
			customer_timezone, environment_id, ` + baseColumns + `
		FROM subscriptions
		WHERE id = $1
		AND tenant_id = $2
		AND status = $3`

	var s subscription.Subscription
	err := r.client.Querier(ctx).GetContext(ctx, &s, query, id, types.GetTenantID(ctx), types.StatusActive)
	if err != nil {
		SetSpanError(span, err)
		return nil, wrapGetError(err, "Subscription", id)
	}

	SetSpanSuccess(span)
	return &s, nil
}

func (r *subscriptionRepository) ListActiveWithThresholds(ctx context.Context) ([]string, error) {
	span := StartRepositorySpan(ctx, "subscription", "list_active_with_thresholds", nil)
	defer FinishSpan(span)

	query := `
		SELECT DISTINCT s.id
		FROM subscriptions s
		JOIN usage_thresholds t ON t.subscription_id = s.id AND t.status = $3
		WHERE s.tenant_id = $1
		AND s.subscription_status = $2
		AND s.status = $3
		ORDER BY s.id`

	var ids []string
	err := r.client.Querier(ctx).SelectContext(ctx, &ids, query,
		types.GetTenantID(ctx),
		types.SubscriptionStatusActive,
		types.StatusActive,
	)
	if err != nil {
		SetSpanError(span, err)
		return nil, ierr.WithError(err).
			WithHint("Failed to list subscriptions with usage thresholds").
			Mark(ierr.ErrDatabase)
	}

	SetSpanSuccess(span)
	return ids, nil
}
