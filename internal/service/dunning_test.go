package service

import (
	"testing"
	"time"

	"github.com/flexprice/billingcore/internal/domain/dunning"
	"github.com/flexprice/billingcore/internal/domain/invoice"
	ierr "github.com/flexprice/billingcore/internal/errors"
	"github.com/flexprice/billingcore/internal/types"
	"github.com/stretchr/testify/suite"
)

type DunningServiceSuite struct {
	BaseServiceTestSuite
	service DunningService
}

func TestDunningService(t *testing.T) {
	suite.Run(t, new(DunningServiceSuite))
}

func (s *DunningServiceSuite) SetupTest() {
	s.BaseServiceTestSuite.SetupTest()
	s.service = NewDunningService(s.params())

	s.createCampaign("dcmp_usd", types.DunningCampaignStatusActive, dunning.Threshold{Currency: "usd", AmountMinor: 10000})

	overdue := s.now.AddDate(0, 0, -10)
	s.createInvoice("inv_1", "cust_a", "USD", 6000, overdue)
	s.createInvoice("inv_2", "cust_a", "usd", 5000, overdue)
	s.createInvoice("inv_3", "cust_b", "usd", 4000, overdue)
	s.createInvoice("inv_4", "cust_b", "eur", 90000, overdue)
	// not yet due
	s.createInvoice("inv_5", "cust_c", "usd", 50000, s.now.AddDate(0, 0, 5))
}

func (s *DunningServiceSuite) createCampaign(id string, status types.DunningCampaignStatus, thresholds ...dunning.Threshold) {
	s.Require().NoError(s.dunningStore.Create(s.ctx, &dunning.Campaign{
		ID:             id,
		Name:           id,
		CampaignStatus: status,
		Thresholds:     thresholds,
		BaseModel:      s.baseModel(),
	}))
}

func (s *DunningServiceSuite) createInvoice(id, customerID, currency string, outstanding int64, due time.Time) {
	s.Require().NoError(s.invoiceStore.Create(s.ctx, &invoice.Invoice{
		ID:               id,
		CustomerID:       customerID,
		Currency:         currency,
		TotalMinor:       outstanding,
		OutstandingMinor: outstanding,
		PaymentStatus:    types.PaymentStatusPending,
		DueDate:          due,
		BaseModel:        s.baseModel(),
	}))
}

func (s *DunningServiceSuite) TestPreviewCampaign() {
	resp, err := s.service.PreviewCampaign(s.ctx, "dcmp_usd")
	s.Require().NoError(err)

	s.Equal(4, resp.TotalOverdueInvoices)
	s.Equal(int64(105000), resp.TotalOverdueAmountMinor)
	s.Equal(1, resp.PaymentRequestsToCreate)
	s.Equal(0, resp.ExistingPendingRequests)
	s.Equal(types.DunningCampaignStatusActive, resp.Status)

	s.Require().Len(resp.Groups, 1)
	group := resp.Groups[0]
	s.Equal("cust_a", group.CustomerID)
	s.Equal("usd", group.Currency)
	s.Equal(int64(11000), group.TotalOutstandingMinor)
	s.Equal([]string{"inv_1", "inv_2"}, group.InvoiceIDs())

	s.Require().Len(resp.Skipped, 2)
	s.Equal(dunning.SkipReasonNoThreshold, resp.Skipped[0].Reason)
	s.Equal("eur", resp.Skipped[0].Currency)
	s.Equal(dunning.SkipReasonBelowThreshold, resp.Skipped[1].Reason)
	s.Equal("usd", resp.Skipped[1].Currency)

	s.Empty(s.paymentRequestStore.All(s.ctx))
	s.Empty(s.publisher.GetEvents())
	s.Equal(0, s.db.Transactions())
}

func (s *DunningServiceSuite) TestPreviewCampaign_NotFound() {
	_, err := s.service.PreviewCampaign(s.ctx, "dcmp_missing")
	s.Require().Error(err)
	s.True(ierr.IsNotFound(err))
}

func (s *DunningServiceSuite) TestExecuteCampaign() {
	resp, err := s.service.ExecuteCampaign(s.ctx, "dcmp_usd")
	s.Require().NoError(err)
	s.Equal(1, s.db.Transactions())

	s.Require().Len(resp.PaymentRequests, 1)
	req := resp.PaymentRequests[0]
	s.Equal("cust_a", req.CustomerID)
	s.Equal("usd", req.Currency)
	s.Equal(int64(11000), req.AmountMinor)
	s.Equal([]string{"inv_1", "inv_2"}, req.InvoiceIDs)
	s.Equal(types.PaymentRequestStatusPending, req.PaymentStatus)
	s.NotEmpty(req.ReferenceNumber)
	s.Contains(req.IdempotencyKey, "payment_request-")

	s.Len(s.paymentRequestStore.All(s.ctx), 1)
	s.Len(s.publisher.GetEvents(types.EventPaymentRequestCreated), 1)

	attempts, err := s.dunningStore.ListAttempts(s.ctx, "dcmp_usd")
	s.Require().NoError(err)
	s.Require().Len(attempts, 1)
	s.Equal("cust_a", attempts[0].CustomerID)
	s.Equal(1, attempts[0].AttemptCount)

	s.Run("rerun is covered by the pending request", func() {
		resp, err := s.service.ExecuteCampaign(s.ctx, "dcmp_usd")
		s.Require().NoError(err)
		s.Empty(resp.PaymentRequests)
		s.Equal(1, resp.ExistingPendingRequests)

		reasons := make(map[string]dunning.SkipReason)
		for _, skipped := range resp.Skipped {
			reasons[skipped.CustomerID+"/"+skipped.Currency] = skipped.Reason
		}
		s.Equal(dunning.SkipReasonCoveredByPending, reasons["cust_a/usd"])
		s.Len(s.paymentRequestStore.All(s.ctx), 1)
	})
}

func (s *DunningServiceSuite) TestExecuteCampaign_OneAttemptPerCustomer() {
	s.createCampaign("dcmp_multi", types.DunningCampaignStatusActive,
		dunning.Threshold{Currency: "usd", AmountMinor: 100},
		dunning.Threshold{Currency: "eur", AmountMinor: 100},
	)

	resp, err := s.service.ExecuteCampaign(s.ctx, "dcmp_multi")
	s.Require().NoError(err)
	// cust_a/usd, cust_b/eur, cust_b/usd
	s.Len(resp.PaymentRequests, 3)

	attempts, err := s.dunningStore.ListAttempts(s.ctx, "dcmp_multi")
	s.Require().NoError(err)
	counts := make(map[string]int)
	for _, attempt := range attempts {
		counts[attempt.CustomerID] = attempt.AttemptCount
	}
	s.Equal(map[string]int{"cust_a": 1, "cust_b": 1}, counts)
}

func (s *DunningServiceSuite) TestExecuteCampaign_InactiveCampaign() {
	s.createCampaign("dcmp_off", types.DunningCampaignStatusInactive, dunning.Threshold{Currency: "usd", AmountMinor: 1})

	preview, err := s.service.PreviewCampaign(s.ctx, "dcmp_off")
	s.Require().NoError(err)
	s.Equal(types.DunningCampaignStatusInactive, preview.Status)

	_, err = s.service.ExecuteCampaign(s.ctx, "dcmp_off")
	s.Require().Error(err)
	s.True(ierr.Is(err, ierr.ErrInvalidOperation))
	s.Empty(s.paymentRequestStore.All(s.ctx))
	s.Equal(0, s.db.Transactions())
}

func (s *DunningServiceSuite) TestExecuteCampaign_MaxAttempts() {
	s.createCampaign("dcmp_once", types.DunningCampaignStatusActive, dunning.Threshold{Currency: "eur", AmountMinor: 100})
	campaign, err := s.dunningStore.Get(s.ctx, "dcmp_once")
	s.Require().NoError(err)
	campaign.MaxAttempts = 1
	s.Require().NoError(s.dunningStore.RecordAttempt(s.ctx, "dcmp_once", "cust_b", s.now.AddDate(0, -1, 0)))

	resp, err := s.service.ExecuteCampaign(s.ctx, "dcmp_once")
	s.Require().NoError(err)
	s.Empty(resp.PaymentRequests)

	var reasons []dunning.SkipReason
	for _, skipped := range resp.Skipped {
		if skipped.CustomerID == "cust_b" && skipped.Currency == "eur" {
			reasons = append(reasons, skipped.Reason)
		}
	}
	s.Equal([]dunning.SkipReason{dunning.SkipReasonMaxAttemptsReached}, reasons)
}

func (s *DunningServiceSuite) TestRunActiveCampaigns() {
	s.createCampaign("dcmp_eur", types.DunningCampaignStatusActive, dunning.Threshold{Currency: "EUR", AmountMinor: 50000})
	s.createCampaign("dcmp_off", types.DunningCampaignStatusInactive, dunning.Threshold{Currency: "usd", AmountMinor: 1})

	resp, err := s.service.RunActiveCampaigns(s.ctx)
	s.Require().NoError(err)

	s.Equal(2, resp.Campaigns)
	s.Equal(0, resp.Failed)
	s.Equal(2, resp.PaymentRequestsCreated)
	s.Require().Len(resp.Results, 2)
	s.Equal("dcmp_eur", resp.Results[0].CampaignID)
	s.Equal("dcmp_usd", resp.Results[1].CampaignID)
	s.Len(s.publisher.GetEvents(types.EventPaymentRequestCreated), 2)
}
