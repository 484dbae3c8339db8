package v1

import (
	"net/http"

	"github.com/flexprice/billingcore/internal/logger"
	"github.com/flexprice/billingcore/internal/service"
	"github.com/gin-gonic/gin"
)

type DunningHandler struct {
	service service.DunningService
	logger  *logger.Logger
}

func NewDunningHandler(service service.DunningService, logger *logger.Logger) *DunningHandler {
	return &DunningHandler{
		service: service,
		logger:  logger,
	}
}

// @Summary Preview a dunning campaign
// @Description Groups overdue invoices by customer and currency and reports which groups would get a payment request
// @Tags Dunning
// @Produce json
// @Param id path string true "Dunning campaign ID"
// @Success 200 {object} dto.DunningPlanResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /dunning-campaigns/{id}/preview [post]
func (h *DunningHandler) PreviewCampaign(c *gin.Context) {
	resp, err := h.service.PreviewCampaign(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, resp)
}

// @Summary Execute a dunning campaign
// @Description Creates one payment request per eligible customer and currency group
// @Tags Dunning
// @Produce json
// @Param id path string true "Dunning campaign ID"
// @Success 200 {object} dto.ExecuteDunningCampaignResponse
// @Failure 400 {object} ierr.ErrorResponse
// @Failure 404 {object} ierr.ErrorResponse
// @Failure 500 {object} ierr.ErrorResponse
// @Router /dunning-campaigns/{id}/execute [post]
func (h *DunningHandler) ExecuteCampaign(c *gin.Context) {
	id := c.Param("id")

	resp, err := h.service.ExecuteCampaign(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	h.logger.Infow("dunning campaign executed via api",
		"dunning_campaign_id", id,
		"payment_requests_created", len(resp.PaymentRequests),
	)
	c.JSON(http.StatusOK, resp)
}
