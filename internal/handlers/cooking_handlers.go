package handlers

import (
	"net/http"
	"time"

	"kitchen_inventory_backend/internal/middleware"
	"kitchen_inventory_backend/internal/models"
	"kitchen_inventory_backend/internal/services"
	"kitchen_inventory_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// CookingHandler exposes the cooking coordinator and the cooking history.
type CookingHandler struct {
	cookingService services.CookingService
	loc            *time.Location
}

// NewCookingHandler creates a new CookingHandler. History date filters are read in loc.
func NewCookingHandler(cs services.CookingService, loc *time.Location) *CookingHandler {
	return &CookingHandler{cookingService: cs, loc: loc}
}

// Cook handles POST /cook. The actor is always the token's user.
func (h *CookingHandler) Cook(c *gin.Context) {
	var req services.CookRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "Cook")
		return
	}

	event, err := h.cookingService.Cook(c.Request.Context(), req.MenuID, req.Quantity, c.GetInt64(middleware.ContextUserID))
	if err != nil {
		respondServiceError(c, err, "Failed to cook menu.")
		return
	}
	c.JSON(http.StatusCreated, event)
}

func (h *CookingHandler) historyFilters(c *gin.Context) (models.CookingHistoryFilters, bool) {
	var filters models.CookingHistoryFilters
	var err error
	if filters.StartDate, err = utils.ParseOptionalDate(c.Query("startDate"), h.loc); err != nil {
		utils.RespondValidationFailed(c, "startDate: "+err.Error())
		return filters, false
	}
	if filters.EndDate, err = utils.ParseOptionalDate(c.Query("endDate"), h.loc); err != nil {
		utils.RespondValidationFailed(c, "endDate: "+err.Error())
		return filters, false
	}
	return filters, true
}

// GetHistory lists every cooking event, newest first.
func (h *CookingHandler) GetHistory(c *gin.Context) {
	filters, ok := h.historyFilters(c)
	if !ok {
		return
	}
	h.respondHistory(c, filters)
}

// GetMyHistory lists the caller's own cooking events.
func (h *CookingHandler) GetMyHistory(c *gin.Context) {
	filters, ok := h.historyFilters(c)
	if !ok {
		return
	}
	userID := c.GetInt64(middleware.ContextUserID)
	filters.UserID = &userID
	h.respondHistory(c, filters)
}

func (h *CookingHandler) respondHistory(c *gin.Context, filters models.CookingHistoryFilters) {
	history, err := h.cookingService.GetHistory(c.Request.Context(), filters)
	if err != nil {
		respondServiceError(c, err, "Failed to fetch cooking history.")
		return
	}
	if history == nil {
		history = []models.CookingHistoryEntry{}
	}
	c.JSON(http.StatusOK, history)
}
