package handlers

import (
	"net/http"
	"strconv"

	"kitchen_inventory_backend/internal/middleware"
	"kitchen_inventory_backend/internal/services"
	"kitchen_inventory_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// IngredientHandler serves the ingredient catalogue and manual stock changes.
type IngredientHandler struct {
	ingredientService services.IngredientService
}

// NewIngredientHandler creates a new IngredientHandler.
func NewIngredientHandler(is services.IngredientService) *IngredientHandler {
	return &IngredientHandler{ingredientService: is}
}

// CreateIngredient handles the creation of a new ingredient.
func (h *IngredientHandler) CreateIngredient(c *gin.Context) {
	var req services.IngredientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "CreateIngredient")
		return
	}

	ingredient, err := h.ingredientService.CreateIngredient(c.Request.Context(), req, c.GetInt64(middleware.ContextUserID))
	if err != nil {
		respondServiceError(c, err, "Failed to create ingredient.")
		return
	}
	c.JSON(http.StatusCreated, ingredient)
}

// GetIngredients lists ingredients, optionally narrowed by ?category= ("all" means no filter).
func (h *IngredientHandler) GetIngredients(c *gin.Context) {
	ingredients, err := h.ingredientService.GetIngredients(c.Request.Context(), c.Query("category"))
	if err != nil {
		respondServiceError(c, err, "Failed to fetch ingredients.")
		return
	}
	c.JSON(http.StatusOK, ingredients)
}

func (h *IngredientHandler) GetIngredientByID(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	ingredient, err := h.ingredientService.GetIngredientByID(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err, "Failed to fetch ingredient.")
		return
	}
	c.JSON(http.StatusOK, ingredient)
}

// UpdateIngredient replaces an ingredient. A changed quantity is booked in the stock log.
func (h *IngredientHandler) UpdateIngredient(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.IngredientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "UpdateIngredient")
		return
	}

	ingredient, err := h.ingredientService.UpdateIngredient(c.Request.Context(), id, req, c.GetInt64(middleware.ContextUserID))
	if err != nil {
		respondServiceError(c, err, "Failed to update ingredient.")
		return
	}
	c.JSON(http.StatusOK, ingredient)
}

func (h *IngredientHandler) DeleteIngredient(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.ingredientService.DeleteIngredient(c.Request.Context(), id); err != nil {
		respondServiceError(c, err, "Failed to delete ingredient.")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Ingredient deleted successfully"})
}

// GetLowStock lists ingredients at or below threshold, lowest first. ?limit=0 or absent means all.
func (h *IngredientHandler) GetLowStock(c *gin.Context) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			utils.RespondValidationFailed(c, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	ingredients, err := h.ingredientService.ListLowStock(c.Request.Context(), limit)
	if err != nil {
		respondServiceError(c, err, "Failed to fetch low stock ingredients.")
		return
	}
	c.JSON(http.StatusOK, ingredients)
}

// AdjustStock applies a manual restock or correction.
func (h *IngredientHandler) AdjustStock(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}
	var req services.StockAdjustmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "AdjustStock")
		return
	}

	ingredient, err := h.ingredientService.AdjustStock(c.Request.Context(), id, req, c.GetInt64(middleware.ContextUserID))
	if err != nil {
		respondServiceError(c, err, "Failed to adjust stock.")
		return
	}
	c.JSON(http.StatusOK, ingredient)
}
