package postgres

import (
	"context"

	"github.com/flexprice/billingcore/internal/domain/plan"
	"github.com/flexprice/billingcore/internal/logger"
	"github.com/flexprice/billingcore/internal/postgres"
	"github.com/flexprice/billingcore/internal/types"
)

type planRepository struct {
	client postgres.IClient
	log    *logger.Logger
}

func NewPlanRepository(client postgres.IClient, log *logger.Logger) plan.Repository {
	return &planRepository{client: client, log: log}
}

func (r *planRepository) Get(ctx context.Context, id string) (*plan.Plan, error) {
	r.log.Debugw("getting plan", "plan_id", id)

	span := StartRepositorySpan(ctx, "plan", "get", map[string]interface{}{
		"plan_id": id,
	})
	defer FinishSpan(span)

	query := `
		SELECT id, name, amount_minor, currency, billing_interval, environment_id, ` + baseColumns + `
		FROM plans
		WHERE id = $1
		AND tenant_id = $2
		AND status = $3`

	var p plan.Plan
	err := r.client.Querier(ctx).GetContext(ctx, &p, query, id, types.GetTenantID(ctx), types.StatusActive)
	if err != nil {
		SetSpanError(span, err)
		return nil, wrapGetError(err, "Plan", id)
	}

	SetSpanSuccess(span)
	return &p, nil
}
