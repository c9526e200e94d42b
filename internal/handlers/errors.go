package handlers

import (
	"errors"
	"net/http"

	"kitchen_inventory_backend/internal/services"
	"kitchen_inventory_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// respondServiceError maps a service error to its HTTP response. Unknown errors become 500
// with failMessage and no internal detail.
func respondServiceError(c *gin.Context, err error, failMessage string) {
	apiErr := apiErrorFor(err, failMessage)
	if apiErr.StatusCode >= http.StatusInternalServerError {
		utils.LogError(err, failMessage)
	} else {
		utils.LogWarn(err, failMessage)
	}
	_ = c.Error(err)
	utils.RespondWithError(c, apiErr)
}

func apiErrorFor(err error, failMessage string) *utils.APIError {
	var stockErr *services.InsufficientStockError
	switch {
	case errors.As(err, &stockErr):
		return utils.NewAPIError(http.StatusConflict, utils.ErrCodeInsufficientStock, "Insufficient stock.", stockErr.Error()).
			WithFields(map[string]interface{}{
				"ingredient_id": stockErr.IngredientID,
				"name":          stockErr.Name,
				"unit":          stockErr.Unit,
				"required":      stockErr.Required,
				"available":     stockErr.Available,
			})
	case errors.Is(err, services.ErrInsufficientStock):
		return utils.NewAPIError(http.StatusConflict, utils.ErrCodeInsufficientStock, "Insufficient stock.", err.Error())
	case errors.Is(err, services.ErrConcurrencyConflict):
		return utils.NewAPIError(http.StatusConflict, utils.ErrCodeConcurrencyConflict, "The request conflicted with a concurrent update. Please retry.", "").
			WithFields(map[string]interface{}{"retryable": true})
	case errors.Is(err, services.ErrValidation), errors.Is(err, services.ErrRoleNotFound):
		return utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Validation failed.", err.Error())
	case errors.Is(err, services.ErrRecipeNotFound):
		return utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Menu or recipe not found.", err.Error())
	case errors.Is(err, services.ErrMenuNotFound):
		return utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Menu not found.", err.Error())
	case errors.Is(err, services.ErrIngredientNotFound):
		return utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "Ingredient not found.", err.Error())
	case errors.Is(err, services.ErrUserNotFound):
		return utils.NewAPIError(http.StatusNotFound, utils.ErrCodeNotFound, "User not found.", err.Error())
	case errors.Is(err, services.ErrIngredientNameExists):
		return utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Ingredient name already exists.", err.Error())
	case errors.Is(err, services.ErrUsernameExists):
		return utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Username already exists.", err.Error())
	case errors.Is(err, services.ErrIngredientInUse):
		return utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Ingredient is used by a recipe or has stock history.", err.Error())
	case errors.Is(err, services.ErrMenuInUse):
		return utils.NewAPIError(http.StatusConflict, utils.ErrCodeConflict, "Menu has cooking history and cannot be deleted.", err.Error())
	case errors.Is(err, services.ErrInvalidCredentials):
		return utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid username or password.", "")
	case errors.Is(err, services.ErrAdminRequired):
		return utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, "Only an admin can register another admin.", "")
	case errors.Is(err, services.ErrNotificationsDisabled):
		return utils.NewAPIError(http.StatusServiceUnavailable, utils.ErrCodeServiceUnavailable, "Chat notifications are not configured.", "")
	default:
		return utils.NewAPIError(http.StatusInternalServerError, utils.ErrCodeInternalServerError, failMessage, "Internal error")
	}
}

// parseIDParam reads a positive integer path parameter, responding 400 when it is malformed.
func parseIDParam(c *gin.Context, name string) (int64, bool) {
	id, err := utils.StrToPositiveInt64(c.Param(name))
	if err != nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid "+name+" format.", err.Error()))
		return 0, false
	}
	return id, true
}

func respondBindError(c *gin.Context, err error, where string) {
	utils.LogWarn(err, where+": Failed to bind request")
	utils.RespondWithError(c, utils.NewAPIError(http.StatusBadRequest, utils.ErrCodeValidationFailed, "Invalid request payload: "+err.Error(), err.Error()))
}
