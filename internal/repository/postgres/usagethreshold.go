package postgres

import (
	"context"
	"time"

	"github.com/flexprice/billingcore/internal/domain/usagethreshold"
	ierr "github.com/flexprice/billingcore/internal/errors"
	"github.com/flexprice/billingcore/internal/logger"
	"github.com/flexprice/billingcore/internal/postgres"
	"github.com/flexprice/billingcore/internal/types"
)

const usageThresholdColumns = `id, subscription_id, amount_minor, currency, recurring, display_name,
	last_triggered_at, environment_id, ` + baseColumns

type usageThresholdRepository struct {
	client postgres.IClient
	log    *logger.Logger
}

func NewUsageThresholdRepository(client postgres.IClient, log *logger.Logger) usagethreshold.Repository {
	return &usageThresholdRepository{client: client, log: log}
}

func (r *usageThresholdRepository) Get(ctx context.Context, id string) (*usagethreshold.UsageThreshold, error) {
	span := StartRepositorySpan(ctx, "usage_threshold", "get", map[string]interface{}{
		"usage_threshold_id": id,
	})
	defer FinishSpan(span)

	query := `SELECT ` + usageThresholdColumns + `
		FROM usage_thresholds
		WHERE id = $1
		AND tenant_id = $2
		AND status = $3`

	var t usagethreshold.UsageThreshold
	err := r.client.Querier(ctx).GetContext(ctx, &t, query, id, types.GetTenantID(ctx), types.StatusActive)
	if err != nil {
		SetSpanError(span, err)
		return nil, wrapGetError(err, "Usage threshold", id)
	}

	SetSpanSuccess(span)
	return &t, nil
}

func (r *usageThresholdRepository) ListBySubscription(ctx context.Context, subscriptionID string) ([]*usagethreshold.UsageThreshold, error) {
	span := StartRepositorySpan(ctx, "usage_threshold", "list_by_subscription", map[string]interface{}{
		"subscription_id": subscriptionID,
	})
	defer FinishSpan(span)

	query := `SELECT ` + usageThresholdColumns + `
		FROM usage_thresholds
		WHERE subscription_id = $1
		AND tenant_id = $2
		AND status = $3
		ORDER BY amount_minor, id`

	var thresholds []*usagethreshold.UsageThreshold
	err := r.client.Querier(ctx).SelectContext(ctx, &thresholds, query, subscriptionID, types.GetTenantID(ctx), types.StatusActive)
	if err != nil {
		SetSpanError(span, err)
		return nil, ierr.WithError(err).
			WithHint("Failed to list usage thresholds").
			WithReportableDetails(map[string]any{
				"subscription_id": subscriptionID,
			}).
			Mark(ierr.ErrDatabase)
	}

	SetSpanSuccess(span)
	return thresholds, nil
}

func (r *usageThresholdRepository) MarkTriggered(ctx context.Context, id string, previous *time.Time, triggeredAt time.Time) error {
	r.log.Debugw("marking usage threshold triggered",
		"usage_threshold_id", id,
		"triggered_at", triggeredAt,
	)

	span := StartRepositorySpan(ctx, "usage_threshold", "mark_triggered", map[string]interface{}{
		"usage_threshold_id": id,
	})
	defer FinishSpan(span)

	query := `
		UPDATE usage_thresholds
		SET last_triggered_at = $1, updated_at = $2, updated_by = $3
		WHERE id = $4
		AND tenant_id = $5
		AND last_triggered_at IS NOT DISTINCT FROM $6`

	result, err := r.client.Querier(ctx).ExecContext(ctx, query,
		triggeredAt,
		time.Now().UTC(),
		types.GetUserID(ctx),
		id,
		types.GetTenantID(ctx),
		previous,
	)
	if err != nil {
		SetSpanError(span, err)
		return ierr.WithError(err).
			WithHint("Failed to update usage threshold").
			Mark(ierr.ErrDatabase)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		SetSpanError(span, err)
		return ierr.WithError(err).
			WithHint("Failed to update usage threshold").
			Mark(ierr.ErrDatabase)
	}
	if affected == 0 {
		return ierr.NewError("usage threshold was triggered concurrently").
			WithHintf("Usage threshold %s changed since it was read", id).
			Mark(ierr.ErrVersionConflict)
	}

	SetSpanSuccess(span)
	return nil
}
