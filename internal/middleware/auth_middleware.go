package middleware

import (
	"net/http"
	"strings"

	"kitchen_inventory_backend/internal/models"
	"kitchen_inventory_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Context keys set by the auth middlewares.
const (
	ContextUserID   = "userID"
	ContextUsername = "username"
	ContextUserRole = "userRole"
)

// TokenValidator parses bearer tokens into claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*utils.Claims, error)
}

func bearerToken(c *gin.Context) (string, *utils.APIError) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Authorization header required", "")
	}

	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid authorization header format. Use Bearer <token>", "")
	}
	return parts[1], nil
}

func setClaims(c *gin.Context, claims *utils.Claims) {
	c.Set(ContextUserID, claims.UserID)
	c.Set(ContextUsername, claims.Username)
	c.Set(ContextUserRole, claims.Role)
}

// AuthMiddleware creates a Gin middleware for JWT authentication.
func AuthMiddleware(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, apiErr := bearerToken(c)
		if apiErr != nil {
			utils.RespondWithError(c, apiErr)
			return
		}

		claims, err := tokens.ValidateToken(tokenString)
		if err != nil || claims.UserID <= 0 {
			utils.LogWarn(err, "AuthMiddleware: rejected token")
			utils.RespondWithError(c, utils.NewAPIError(http.StatusUnauthorized, utils.ErrCodeUnauthorized, "Invalid or expired token", ""))
			return
		}

		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuthMiddleware sets the caller identity when a valid token is sent and
// lets anonymous requests through. A malformed or invalid token is still rejected.
func OptionalAuthMiddleware(tokens TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetHeader("Authorization") == "" {
			c.Next()
			return
		}
		AuthMiddleware(tokens)(c)
	}
}

// RoleAuthMiddleware creates a Gin middleware for role-based authorization.
// It checks if the user role (from JWT claims) is one of the allowed roles.
func RoleAuthMiddleware(allowedRoles ...models.Role) gin.HandlerFunc {
	names := make([]string, 0, len(allowedRoles))
	for _, r := range allowedRoles {
		names = append(names, string(r))
	}

	return func(c *gin.Context) {
		roleStr := c.GetString(ContextUserRole)
		if roleStr == "" {
			utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden, "User role not found in token claims", ""))
			return
		}

		for _, r := range names {
			if strings.EqualFold(roleStr, r) {
				c.Next()
				return
			}
		}

		utils.RespondWithError(c, utils.NewAPIError(http.StatusForbidden, utils.ErrCodeForbidden,
			"You do not have permission to access this resource. Required roles: "+strings.Join(names, ", "), ""))
	}
}

// ActorFromContext returns the authenticated caller, or nil for anonymous requests.
func ActorFromContext(c *gin.Context) *models.Actor {
	userID := c.GetInt64(ContextUserID)
	if userID <= 0 {
		return nil
	}
	return &models.Actor{
		ID:       userID,
		Username: c.GetString(ContextUsername),
		Role:     models.Role(strings.ToLower(c.GetString(ContextUserRole))),
	}
}
