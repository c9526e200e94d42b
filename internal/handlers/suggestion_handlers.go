package handlers

import (
	"net/http"

	"kitchen_inventory_backend/internal/services"

	"github.com/gin-gonic/gin"
)

// SuggestionHandler serves purchase order suggestions.
type SuggestionHandler struct {
	suggestionService services.SuggestionService
}

// NewSuggestionHandler creates a new SuggestionHandler.
func NewSuggestionHandler(ss services.SuggestionService) *SuggestionHandler {
	return &SuggestionHandler{suggestionService: ss}
}

func (h *SuggestionHandler) GetPurchaseOrder(c *gin.Context) {
	suggestions, err := h.suggestionService.GetPurchaseSuggestions(c.Request.Context())
	if err != nil {
		respondServiceError(c, err, "Failed to build purchase suggestions.")
		return
	}
	c.JSON(http.StatusOK, suggestions)
}
