package cron

import (
	"net/http"
	"time"

	"github.com/flexprice/billingcore/internal/logger"
	"github.com/flexprice/billingcore/internal/sentry"
	"github.com/flexprice/billingcore/internal/service"
	"github.com/gin-gonic/gin"
)

// DunningHandler handles dunning related cron jobs
type DunningHandler struct {
	dunningService service.DunningService
	sentryService  *sentry.Service
	logger         *logger.Logger
}

// NewDunningHandler creates a new dunning cron handler
func NewDunningHandler(
	dunningService service.DunningService,
	sentryService *sentry.Service,
	logger *logger.Logger,
) *DunningHandler {
	return &DunningHandler{
		dunningService: dunningService,
		sentryService:  sentryService,
		logger:         logger,
	}
}

// RunCampaigns executes every active dunning campaign of the tenant
func (h *DunningHandler) RunCampaigns(c *gin.Context) {
	h.logger.Infow("starting dunning cron job", "time", time.Now().UTC().Format(time.RFC3339))

	transaction, ctx := h.sentryService.StartTransaction(c.Request.Context(), "cron.dunning.run")
	defer sentry.FinishSpan(transaction)

	resp, err := h.dunningService.RunActiveCampaigns(ctx)
	if err != nil {
		h.logger.Errorw("failed to run dunning campaigns", "error", err)
		c.Error(err)
		return
	}

	h.logger.Infow("completed dunning cron job",
		"campaigns", resp.Campaigns,
		"payment_requests_created", resp.PaymentRequestsCreated,
		"failed", resp.Failed,
	)
	c.JSON(http.StatusOK, resp)
}
