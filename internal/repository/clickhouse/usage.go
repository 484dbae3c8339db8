package clickhouse

import (
	"context"
	"time"

	"github.com/flexprice/billingcore/internal/clickhouse"
	"github.com/flexprice/billingcore/internal/domain/usage"
	ierr "github.com/flexprice/billingcore/internal/errors"
	"github.com/flexprice/billingcore/internal/logger"
	"github.com/flexprice/billingcore/internal/types"
)

type UsageRepository struct {
	store  clickhouse.Querier
	logger *logger.Logger
}

func NewUsageRepository(store clickhouse.Querier, logger *logger.Logger) usage.Repository {
	return &UsageRepository{store: store, logger: logger}
}

func (r *UsageRepository) GetUsageAmount(ctx context.Context, subscriptionID string, periodStart, periodEnd time.Time) (int64, error) {
	span := StartRepositorySpan(ctx, "usage", "get_usage_amount", map[string]interface{}{
		"subscription_id": subscriptionID,
		"period_start":    periodStart,
		"period_end":      periodEnd,
	})
	defer FinishSpan(span)

	if !periodStart.Before(periodEnd) {
		err := ierr.NewError("invalid usage period").
			WithHint("Usage period start must be before its end").
			WithReportableDetails(map[string]interface{}{
				"period_start": periodStart,
				"period_end":   periodEnd,
			}).
			Mark(ierr.ErrValidation)
		SetSpanError(span, err)
		return 0, err
	}

	query := `
		SELECT toInt64(sum(amount_minor))
		FROM usage_records
		WHERE tenant_id = ?
		AND environment_id = ?
		AND subscription_id = ?
		AND timestamp >= ?
		AND timestamp < ?`

	var total int64
	err := r.store.QueryRow(ctx, query,
		types.GetTenantID(ctx),
		types.GetEnvironmentID(ctx),
		subscriptionID,
		periodStart,
		periodEnd,
	).Scan(&total)
	if err != nil {
		SetSpanError(span, err)
		return 0, ierr.WithError(err).
			WithHint("Failed to aggregate usage").
			WithReportableDetails(map[string]interface{}{
				"subscription_id": subscriptionID,
			}).
			Mark(ierr.ErrDatabase)
	}

	r.logger.Debugw("aggregated usage",
		"subscription_id", subscriptionID,
		"period_start", periodStart,
		"period_end", periodEnd,
		"amount_minor", total,
	)

	SetSpanSuccess(span)
	return total, nil
}
