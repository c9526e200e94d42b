package handlers

import (
	"net/http"

	"kitchen_inventory_backend/internal/middleware"
	"kitchen_inventory_backend/internal/models"
	"kitchen_inventory_backend/internal/services"
	"kitchen_inventory_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// AuthHandler holds the authentication service.
type AuthHandler struct {
	authService services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(as services.AuthService) *AuthHandler {
	return &AuthHandler{authService: as}
}

// RegisterUser handles user registration. The caller, if authenticated, decides whether an admin may be created.
func (h *AuthHandler) RegisterUser(c *gin.Context) {
	var req models.RegistrationPayload
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "RegisterUser")
		return
	}

	user, err := h.authService.RegisterUser(c.Request.Context(), req, middleware.ActorFromContext(c))
	if err != nil {
		respondServiceError(c, err, "Failed to register user.")
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "User registered successfully", "user": user})
}

// LoginUser handles user login.
func (h *AuthHandler) LoginUser(c *gin.Context) {
	var req models.Credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err, "LoginUser")
		return
	}

	authResp, err := h.authService.LoginUser(c.Request.Context(), req)
	if err != nil {
		respondServiceError(c, err, "Failed to login.")
		return
	}
	c.JSON(http.StatusOK, authResp)
}

// GetCurrentUser returns the identity carried by the caller's token.
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	actor := middleware.ActorFromContext(c)
	if actor == nil {
		utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "User not authenticated.", "Missing user ID in context"))
		return
	}
	c.JSON(http.StatusOK, actor)
}
