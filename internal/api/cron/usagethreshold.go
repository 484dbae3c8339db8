package cron

import (
	"net/http"
	"time"

	"github.com/flexprice/billingcore/internal/logger"
	"github.com/flexprice/billingcore/internal/sentry"
	"github.com/flexprice/billingcore/internal/service"
	"github.com/gin-gonic/gin"
)

// UsageThresholdHandler handles usage threshold cron jobs
type UsageThresholdHandler struct {
	usageThresholdService service.UsageThresholdService
	sentryService         *sentry.Service
	logger                *logger.Logger
}

// NewUsageThresholdHandler creates a new usage threshold cron handler
func NewUsageThresholdHandler(
	usageThresholdService service.UsageThresholdService,
	sentryService *sentry.Service,
	logger *logger.Logger,
) *UsageThresholdHandler {
	return &UsageThresholdHandler{
		usageThresholdService: usageThresholdService,
		sentryService:         sentryService,
		logger:                logger,
	}
}

// EvaluateThresholds fires crossed thresholds of every active subscription
func (h *UsageThresholdHandler) EvaluateThresholds(c *gin.Context) {
	h.logger.Infow("starting usage threshold cron job", "time", time.Now().UTC().Format(time.RFC3339))

	transaction, ctx := h.sentryService.StartTransaction(c.Request.Context(), "cron.usage_thresholds.evaluate")
	defer sentry.FinishSpan(transaction)

	resp, err := h.usageThresholdService.EvaluateAll(ctx)
	if err != nil {
		h.logger.Errorw("failed to evaluate usage thresholds", "error", err)
		c.Error(err)
		return
	}

	h.logger.Infow("completed usage threshold cron job",
		"subscriptions", resp.Subscriptions,
		"triggered", resp.Triggered,
		"failed", len(resp.Failed),
	)
	c.JSON(http.StatusOK, resp)
}
