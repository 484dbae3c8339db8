package v1

import (
	"net/http"

	"github.com/flexprice/billingcore/internal/api/dto"
	ierr "github.com/flexprice/billingcore/internal/errors"
	"github.com/flexprice/billingcore/internal/logger"
	"github.com/flexprice/billingcore/internal/service"
	"github.com/gin-gonic/gin"
)

type UsageThresholdHandler struct {
	service service.UsageThresholdService
	logger  *logger.Logger
}

func NewUsageThresholdHandler(service service.UsageThresholdService, logger *logger.Logger) *UsageThresholdHandler {
	return &UsageThresholdHandler{
		service: service,
		logger:  logger,
	}
}

// @Summary Get usage threshold status
// @Description Reports current period usage against a stored threshold
// @Tags Usage Thresholds
// @Produce json
// @Param id path string true "Usage threshold ID"
// @Success 200 {object} dto.UsageThresholdStatusResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /usage-thresholds/{id}/status [get]
func (h *UsageThresholdHandler) GetStatus(c *gin.Context) {
	resp, err := h.service.GetStatus(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Test a usage threshold
// @Description Evaluates a hypothetical threshold against the subscription's current usage. Nothing is saved.
// @Tags Usage Thresholds
// @Accept json
// @Produce json
// @Param id path string true "Subscription ID"
// @Param request body dto.TestUsageThresholdRequest true "Threshold to test"
// @Success 200 {object} dto.UsageThresholdStatusResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /subscriptions/{id}/usage-thresholds/test [post]
func (h *UsageThresholdHandler) TestThreshold(c *gin.Context) {
	var req dto.TestUsageThresholdRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.TestThreshold(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Evaluate usage thresholds
// @Description Fires every crossed usage threshold of a subscription that has not fired in the current period
// @Tags Usage Thresholds
// @Produce json
// @Param id path string true "Subscription ID"
// @Success 200 {object} dto.EvaluateUsageThresholdsResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /subscriptions/{id}/usage-thresholds/evaluate [post]
func (h *UsageThresholdHandler) EvaluateSubscription(c *gin.Context) {
	resp, err := h.service.EvaluateSubscription(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
