package handlers

import (
	"net/http"
	"time"

	"kitchen_inventory_backend/internal/models"
	"kitchen_inventory_backend/internal/services"
	"kitchen_inventory_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// ReportHandler serves the dashboard, reports and per-user stats.
type ReportHandler struct {
	reportService services.ReportService
	loc           *time.Location
}

// NewReportHandler creates a new ReportHandler. Query dates are read in loc.
func NewReportHandler(rs services.ReportService, loc *time.Location) *ReportHandler {
	return &ReportHandler{reportService: rs, loc: loc}
}

// parseReportRequestParams reads the required startDate and endDate query parameters.
func (h *ReportHandler) parseReportRequestParams(c *gin.Context) (models.ReportRequestParams, bool) {
	var params models.ReportRequestParams
	start, err := utils.ParseOptionalDate(c.Query("startDate"), h.loc)
	if err != nil {
		utils.RespondValidationFailed(c, "startDate: "+err.Error())
		return params, false
	}
	end, err := utils.ParseOptionalDate(c.Query("endDate"), h.loc)
	if err != nil {
		utils.RespondValidationFailed(c, "endDate: "+err.Error())
		return params, false
	}
	if start == nil || end == nil {
		utils.RespondValidationFailed(c, "startDate and endDate are required")
		return params, false
	}
	params.StartDate = *start
	params.EndDate = *end
	return params, true
}

// GetDashboardSummary provides a summary of key metrics for the dashboard.
func (h *ReportHandler) GetDashboardSummary(c *gin.Context) {
	summary, err := h.reportService.GetDashboardSummary(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "Failed to build dashboard.")
		return
	}
	c.JSON(http.StatusOK, summary)
}

// GetUsageTrends returns the deducted quantity per day.
func (h *ReportHandler) GetUsageTrends(c *gin.Context) {
	params, ok := h.parseReportRequestParams(c)
	if !ok {
		return
	}
	trends, err := h.reportService.GetUsageTrends(c.Request.Context(), params)
	if err != nil {
		respondServiceError(c, err, "Failed to fetch usage trends.")
		return
	}
	c.JSON(http.StatusOK, trends)
}

// GetCostSummary returns the deducted cost per ingredient.
func (h *ReportHandler) GetCostSummary(c *gin.Context) {
	params, ok := h.parseReportRequestParams(c)
	if !ok {
		return
	}
	items, err := h.reportService.GetCostSummary(c.Request.Context(), params)
	if err != nil {
		respondServiceError(c, err, "Failed to fetch cost summary.")
		return
	}
	c.JSON(http.StatusOK, items)
}

// GetUserStats handles GET /users/stats/:id.
func (h *ReportHandler) GetUserStats(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	stats, err := h.reportService.GetUserStats(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Failed to fetch user stats.")
		return
	}
	c.JSON(http.StatusOK, stats)
}
