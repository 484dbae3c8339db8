package postgres

import (
	"context"
	"time"

	"github.com/flexprice/billingcore/internal/domain/dunning"
	ierr "github.com/flexprice/billingcore/internal/errors"
	"github.com/flexprice/billingcore/internal/logger"
	"github.com/flexprice/billingcore/internal/postgres"
	"github.com/flexprice/billingcore/internal/types"
	"github.com/lib/pq"
	"github.com/samber/lo"
)

const dunningCampaignColumns = `id, name, campaign_status, max_attempts, days_between_attempts,
	environment_id, ` + baseColumns

type dunningRepository struct {
	client postgres.IClient
	log    *logger.Logger
}

func NewDunningRepository(client postgres.IClient, log *logger.Logger) dunning.Repository {
	return &dunningRepository{client: client, log: log}
}

// campaignThreshold is a row of dunning_campaign_thresholds
type campaignThreshold struct {
	CampaignID  string `db:"dunning_campaign_id"`
	Currency    string `db:"currency"`
	AmountMinor int64  `db:"amount_minor"`
}

func (r *dunningRepository) Get(ctx context.Context, id string) (*dunning.Campaign, error) {
	r.log.Debugw("getting dunning campaign", "dunning_campaign_id", id)

	span := StartRepositorySpan(ctx, "dunning_campaign", "get", map[string]interface{}{
		"dunning_campaign_id": id,
	})
	defer FinishSpan(span)

	query := `SELECT ` + dunningCampaignColumns + `
		FROM dunning_campaigns
		WHERE id = $1
		AND tenant_id = $2
		AND status = $3`

	var c dunning.Campaign
	if err := r.client.Querier(ctx).GetContext(ctx, &c, query, id, types.GetTenantID(ctx), types.StatusActive); err != nil {
		SetSpanError(span, err)
		return nil, wrapGetError(err, "Dunning campaign", id)
	}

	if err := r.attachThresholds(ctx, []*dunning.Campaign{&c}); err != nil {
		SetSpanError(span, err)
		return nil, err
	}

	SetSpanSuccess(span)
	return &c, nil
}

func (r *dunningRepository) ListActive(ctx context.Context) ([]*dunning.Campaign, error) {
	span := StartRepositorySpan(ctx, "dunning_campaign", "list_active", nil)
	defer FinishSpan(span)

	query := `SELECT ` + dunningCampaignColumns + `
		FROM dunning_campaigns
		WHERE tenant_id = $1
		AND campaign_status = $2
		AND status = $3
		ORDER BY id`

	var campaigns []*dunning.Campaign
	err := r.client.Querier(ctx).SelectContext(ctx, &campaigns, query,
		types.GetTenantID(ctx),
		types.DunningCampaignStatusActive,
		types.StatusActive,
	)
	if err != nil {
		SetSpanError(span, err)
		return nil, ierr.WithError(err).
			WithHint("Failed to list dunning campaigns").
			Mark(ierr.ErrDatabase)
	}

	if err := r.attachThresholds(ctx, campaigns); err != nil {
		SetSpanError(span, err)
		return nil, err
	}

	SetSpanSuccess(span)
	return campaigns, nil
}

func (r *dunningRepository) attachThresholds(ctx context.Context, campaigns []*dunning.Campaign) error {
	if len(campaigns) == 0 {
		return nil
	}

	ids := lo.Map(campaigns, func(c *dunning.Campaign, _ int) string { return c.ID })
	query := `
		SELECT dunning_campaign_id, currency, amount_minor
		FROM dunning_campaign_thresholds
		WHERE dunning_campaign_id = ANY($1)
		AND tenant_id = $2
		ORDER BY dunning_campaign_id, currency`

	var rows []campaignThreshold
	if err := r.client.Querier(ctx).SelectContext(ctx, &rows, query, pq.Array(ids), types.GetTenantID(ctx)); err != nil {
		return ierr.WithError(err).
			WithHint("Failed to load dunning campaign thresholds").
			Mark(ierr.ErrDatabase)
	}

	byCampaign := lo.GroupBy(rows, func(t campaignThreshold) string { return t.CampaignID })
	for _, c := range campaigns {
		c.Thresholds = lo.Map(byCampaign[c.ID], func(t campaignThreshold, _ int) dunning.Threshold {
			return dunning.Threshold{Currency: t.Currency, AmountMinor: t.AmountMinor}
		})
	}
	return nil
}

func (r *dunningRepository) ListAttempts(ctx context.Context, campaignID string) ([]*dunning.Attempt, error) {
	span := StartRepositorySpan(ctx, "dunning_campaign", "list_attempts", map[string]interface{}{
		"dunning_campaign_id": campaignID,
	})
	defer FinishSpan(span)

	query := `
		SELECT dunning_campaign_id, customer_id, attempt_count, last_attempt_at
		FROM customer_dunning_attempts
		WHERE dunning_campaign_id = $1
		AND tenant_id = $2`

	var attempts []*dunning.Attempt
	if err := r.client.Querier(ctx).SelectContext(ctx, &attempts, query, campaignID, types.GetTenantID(ctx)); err != nil {
		SetSpanError(span, err)
		return nil, ierr.WithError(err).
			WithHint("Failed to list dunning attempts").
			Mark(ierr.ErrDatabase)
	}

	SetSpanSuccess(span)
	return attempts, nil
}

func (r *dunningRepository) RecordAttempt(ctx context.Context, campaignID, customerID string, at time.Time) error {
	span := StartRepositorySpan(ctx, "dunning_campaign", "record_attempt", map[string]interface{}{
		"dunning_campaign_id": campaignID,
		"customer_id":         customerID,
	})
	defer FinishSpan(span)

	query := `
		INSERT INTO customer_dunning_attempts (tenant_id, dunning_campaign_id, customer_id, attempt_count, last_attempt_at)
		VALUES ($1, $2, $3, 1, $4)
		ON CONFLICT (tenant_id, dunning_campaign_id, customer_id)
		DO UPDATE SET attempt_count = customer_dunning_attempts.attempt_count + 1,
			last_attempt_at = EXCLUDED.last_attempt_at`

	if _, err := r.client.Querier(ctx).ExecContext(ctx, query, types.GetTenantID(ctx), campaignID, customerID, at); err != nil {
		SetSpanError(span, err)
		return ierr.WithError(err).
			WithHint("Failed to record dunning attempt").
			WithReportableDetails(map[string]any{
				"dunning_campaign_id": campaignID,
				"customer_id":         customerID,
			}).
			Mark(ierr.ErrDatabase)
	}

	SetSpanSuccess(span)
	return nil
}
