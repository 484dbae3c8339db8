package service

import (
	"context"
	"sync"
	"time"

	"github.com/flexprice/billingcore/internal/api/dto"
	"github.com/flexprice/billingcore/internal/domain/dunning"
	"github.com/flexprice/billingcore/internal/domain/invoice"
	"github.com/flexprice/billingcore/internal/domain/paymentrequest"
	"github.com/flexprice/billingcore/internal/idempotency"
	ierr "github.com/flexprice/billingcore/internal/errors"
	"github.com/flexprice/billingcore/internal/publisher"
	"github.com/flexprice/billingcore/internal/sentry"
	"github.com/flexprice/billingcore/internal/types"
	"github.com/samber/lo"
	"github.com/sourcegraph/conc/pool"
)

type DunningService interface {
	// PreviewCampaign plans a campaign run without side effects
	PreviewCampaign(ctx context.Context, campaignID string) (*dto.DunningPlanResponse, error)
	// ExecuteCampaign applies a fresh plan: one payment request per eligible group
	ExecuteCampaign(ctx context.Context, campaignID string) (*dto.ExecuteDunningCampaignResponse, error)
	// RunActiveCampaigns executes every active campaign of the tenant
	RunActiveCampaigns(ctx context.Context) (*dto.RunDunningCampaignsResponse, error)
}

type dunningService struct {
	ServiceParams
	planner     *dunning.Planner
	idempotency *idempotency.Generator
}

func NewDunningService(params ServiceParams) DunningService {
	return &dunningService{
		ServiceParams: params,
		planner:       dunning.NewPlanner(),
		idempotency:   idempotency.NewGenerator(),
	}
}

func (s *dunningService) PreviewCampaign(ctx context.Context, campaignID string) (*dto.DunningPlanResponse, error) {
	campaign, err := s.DunningRepo.Get(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	plan, err := s.plan(ctx, campaign)
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("previewed dunning campaign",
		"dunning_campaign_id", campaign.ID,
		"total_overdue_invoices", plan.TotalOverdueInvoices,
		"payment_requests_to_create", plan.PaymentRequestsToCreate,
	)

	return &dto.DunningPlanResponse{Plan: plan}, nil
}

func (s *dunningService) ExecuteCampaign(ctx context.Context, campaignID string) (*dto.ExecuteDunningCampaignResponse, error) {
	campaign, err := s.DunningRepo.Get(ctx, campaignID)
	if err != nil {
		return nil, err
	}

	if !campaign.IsActive() {
		return nil, ierr.NewError("dunning campaign is not active").
			WithHintf("Dunning campaign %s is %s and cannot be executed", campaign.ID, campaign.CampaignStatus).
			WithReportableDetails(map[string]any{
				"dunning_campaign_id": campaign.ID,
				"campaign_status":     campaign.CampaignStatus,
			}).
			Mark(ierr.ErrInvalidOperation)
	}

	var (
		plan    *dunning.Plan
		created []*paymentrequest.PaymentRequest
	)

	// Planning inside the transaction keeps the pending-request snapshot and
	// the new requests consistent.
	err = s.DB.WithTx(ctx, func(txCtx context.Context) error {
		var err error
		plan, err = s.plan(txCtx, campaign)
		if err != nil {
			return err
		}

		now := s.now()
		created = make([]*paymentrequest.PaymentRequest, 0, len(plan.Groups))
		for _, group := range plan.Groups {
			req := newPaymentRequest(txCtx, campaign, group)
			req.IdempotencyKey = s.paymentRequestKey(campaign, group, now)
			if err := s.PaymentRequestRepo.Create(txCtx, req); err != nil {
				return err
			}
			created = append(created, req)
		}

		// One run is one attempt per customer, however many currencies it chased.
		customerIDs := lo.Uniq(lo.Map(plan.Groups, func(group *dunning.Group, _ int) string {
			return group.CustomerID
		}))
		for _, customerID := range customerIDs {
			if err := s.DunningRepo.RecordAttempt(txCtx, campaign.ID, customerID, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		s.Logger.Errorw("failed to execute dunning campaign",
			"dunning_campaign_id", campaign.ID,
			"error", err,
		)
		return nil, err
	}

	s.Logger.Infow("executed dunning campaign",
		"dunning_campaign_id", campaign.ID,
		"payment_requests_created", len(created),
		"skipped", len(plan.Skipped),
	)

	for _, req := range created {
		s.publishCreated(ctx, req)
	}

	return &dto.ExecuteDunningCampaignResponse{
		Plan:            plan,
		PaymentRequests: created,
	}, nil
}

func (s *dunningService) RunActiveCampaigns(ctx context.Context) (*dto.RunDunningCampaignsResponse, error) {
	campaigns, err := s.DunningRepo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	s.Logger.Infow("running active dunning campaigns", "campaigns", len(campaigns))

	results := make([]*dto.CampaignRunResult, len(campaigns))
	var mu sync.Mutex
	resp := &dto.RunDunningCampaignsResponse{Campaigns: len(campaigns)}

	p := pool.New().WithMaxGoroutines(s.maxConcurrency())
	for i, campaign := range campaigns {
		p.Go(func() {
			s.tagProfile(ctx, map[string]string{"dunning_campaign_id": campaign.ID}, func(ctx context.Context) {
				result := &dto.CampaignRunResult{CampaignID: campaign.ID}
				executed, err := s.ExecuteCampaign(ctx, campaign.ID)

				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					result.Error = err.Error()
					resp.Failed++
				} else {
					result.PaymentRequestsCreated = len(executed.PaymentRequests)
					resp.PaymentRequestsCreated += result.PaymentRequestsCreated
				}
				results[i] = result
			})
		})
	}
	p.Wait()

	resp.Results = results
	return resp, nil
}

// plan loads a consistent snapshot of the campaign's receivables and plans it
func (s *dunningService) plan(ctx context.Context, campaign *dunning.Campaign) (*dunning.Plan, error) {
	now := s.now()

	overdue, err := s.InvoiceRepo.ListOverdue(ctx, now)
	if err != nil {
		return nil, err
	}

	customerIDs := lo.Uniq(lo.Map(overdue, func(inv *invoice.Invoice, _ int) string {
		return inv.CustomerID
	}))

	var pending []*paymentrequest.PaymentRequest
	if len(customerIDs) > 0 {
		pending, err = s.PaymentRequestRepo.ListPending(ctx, customerIDs)
		if err != nil {
			return nil, err
		}
	}

	attempts, err := s.DunningRepo.ListAttempts(ctx, campaign.ID)
	if err != nil {
		return nil, err
	}

	span, _ := s.startBillingSpan(ctx, "dunning.plan", map[string]interface{}{
		"dunning_campaign_id": campaign.ID,
		"overdue_invoices":    len(overdue),
	})
	defer sentry.FinishSpan(span)

	return s.planner.Plan(dunning.PlanParams{
		Campaign:        campaign,
		OverdueInvoices: overdue,
		PendingRequests: pending,
		Attempts:        attempts,
		Now:             now,
	})
}

func newPaymentRequest(ctx context.Context, campaign *dunning.Campaign, group *dunning.Group) *paymentrequest.PaymentRequest {
	return &paymentrequest.PaymentRequest{
		ID:                types.GenerateUUIDWithPrefix(types.UUID_PREFIX_PAYMENT_REQUEST),
		ReferenceNumber:   types.GenerateShortIDWithPrefix(types.SHORT_ID_PREFIX_PAYMENT_REQUEST),
		CustomerID:        group.CustomerID,
		DunningCampaignID: campaign.ID,
		Currency:          group.Currency,
		AmountMinor:       group.UncoveredMinor,
		InvoiceIDs:        group.InvoiceIDs(),
		PaymentStatus:     types.PaymentRequestStatusPending,
		EnvironmentID:     types.GetEnvironmentID(ctx),
		BaseModel:         types.GetDefaultBaseModel(ctx),
	}
}

// paymentRequestKey allows one request per group and day, so concurrent
// executions of the same campaign cannot chase the same invoices twice
func (s *dunningService) paymentRequestKey(campaign *dunning.Campaign, group *dunning.Group, now time.Time) string {
	return s.idempotency.GenerateKey(idempotency.ScopePaymentRequest, map[string]interface{}{
		"dunning_campaign_id": campaign.ID,
		"customer_id":         group.CustomerID,
		"currency":            group.Currency,
		"invoice_ids":         group.InvoiceIDs(),
		"amount_minor":        group.UncoveredMinor,
		"date":                now.UTC().Format(time.DateOnly),
	})
}

// publishCreated reports a committed payment request; failures are logged
func (s *dunningService) publishCreated(ctx context.Context, req *paymentrequest.PaymentRequest) {
	if s.EventPublisher == nil {
		return
	}

	event, err := publisher.NewEvent(ctx, types.EventPaymentRequestCreated, req)
	if err == nil {
		err = s.EventPublisher.Publish(ctx, event)
	}
	if err != nil {
		s.Logger.Errorw("failed to publish payment request event",
			"payment_request_id", req.ID,
			"customer_id", req.CustomerID,
			"error", err,
		)
	}
}
