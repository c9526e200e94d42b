package handlers

import (
	"net/http"
	"strconv"
	"time"

	"kitchen_inventory_backend/internal/models"
	"kitchen_inventory_backend/internal/services"
	"kitchen_inventory_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// StockLogHandler serves the stock ledger listing.
type StockLogHandler struct {
	ingredientService services.IngredientService
	loc               *time.Location
}

// NewStockLogHandler creates a new StockLogHandler. Date filters are read in loc.
func NewStockLogHandler(is services.IngredientService, loc *time.Location) *StockLogHandler {
	return &StockLogHandler{ingredientService: is, loc: loc}
}

// GetStockLogs handles GET /stock-logs with ingredient_id, change_type, start_date, end_date, page, page_size.
func (h *StockLogHandler) GetStockLogs(c *gin.Context) {
	var filters models.StockLogFilters

	if raw := c.Query("ingredient_id"); raw != "" {
		id, err := utils.StrToPositiveInt64(raw)
		if err != nil {
			utils.RespondValidationFailed(c, "ingredient_id: "+err.Error())
			return
		}
		filters.IngredientID = &id
	}
	filters.ChangeType = utils.NewNullString(c.Query("change_type"))

	var err error
	if filters.StartDate, err = utils.ParseOptionalDate(c.Query("start_date"), h.loc); err != nil {
		utils.RespondValidationFailed(c, "start_date: "+err.Error())
		return
	}
	if filters.EndDate, err = utils.ParseOptionalDate(c.Query("end_date"), h.loc); err != nil {
		utils.RespondValidationFailed(c, "end_date: "+err.Error())
		return
	}
	filters.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filters.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if filters.Page <= 0 {
		filters.Page = 1
	}
	if filters.PageSize <= 0 || filters.PageSize > 100 {
		filters.PageSize = 20
	}

	logs, total, err := h.ingredientService.GetStockLogs(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err, "Failed to fetch stock logs.")
		return
	}
	if logs == nil {
		logs = []models.StockLog{}
	}

	c.JSON(http.StatusOK, gin.H{
		"data":      logs,
		"total":     total,
		"page":      filters.Page,
		"page_size": filters.PageSize,
	})
}
