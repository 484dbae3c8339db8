package v1

import (
	"net/http"

	"github.com/flexprice/billingcore/internal/api/dto"
	ierr "github.com/flexprice/billingcore/internal/errors"
	"github.com/flexprice/billingcore/internal/logger"
	"github.com/flexprice/billingcore/internal/service"
	"github.com/gin-gonic/gin"
)

type ProrationHandler struct {
	service service.ProrationService
	logger  *logger.Logger
}

func NewProrationHandler(service service.ProrationService, logger *logger.Logger) *ProrationHandler {
	return &ProrationHandler{
		service: service,
		logger:  logger,
	}
}

// @Summary Preview a plan change
// @Description Computes the prorated credit for the current plan and charge for the new plan without changing the subscription
// @Tags Subscriptions
// @Accept json
// @Produce json
// @Param id path string true "Subscription ID"
// @Param request body dto.PreviewPlanChangeRequest true "Plan change"
// @Success 200 {object} dto.PreviewPlanChangeResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 422 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /subscriptions/{id}/change-plan/preview [post]
func (h *ProrationHandler) PreviewPlanChange(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.Error(ierr.NewError("subscription ID is required").
			WithHint("Subscription ID is required").
			Mark(ierr.ErrValidation))
		return
	}

	var req dto.PreviewPlanChangeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.Error(ierr.WithError(err).
			WithHint("Invalid request format").
			Mark(ierr.ErrValidation))
		return
	}

	resp, err := h.service.PreviewPlanChange(c.Request.Context(), id, req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
