package router

import (
	"kitchen_inventory_backend/internal/handlers"
	"kitchen_inventory_backend/internal/middleware"
	"kitchen_inventory_backend/internal/models"

	"github.com/gin-gonic/gin"
)

func managers() gin.HandlerFunc {
	return middleware.RoleAuthMiddleware(models.RoleAdmin, models.RoleManager)
}

// SetupPublicUserRoutes sets up registration and login. Registration reads an optional token
// so an admin can create another admin.
func SetupPublicUserRoutes(apiGroup *gin.RouterGroup, authHandler *handlers.AuthHandler, tokens middleware.TokenValidator) {
	userRoutes := apiGroup.Group("/users")
	{
		userRoutes.POST("/register", middleware.OptionalAuthMiddleware(tokens), authHandler.RegisterUser)
		userRoutes.POST("/login", authHandler.LoginUser)
	}
}

// SetupAuthenticatedUserRoutes sets up the caller profile and per-user stats.
func SetupAuthenticatedUserRoutes(authenticatedGroup *gin.RouterGroup, authHandler *handlers.AuthHandler, reportHandler *handlers.ReportHandler) {
	userRoutes := authenticatedGroup.Group("/users")
	{
		userRoutes.GET("/me", authHandler.GetCurrentUser)
		userRoutes.GET("/stats/:id", reportHandler.GetUserStats)
	}
}

// SetupIngredientRoutes sets up the ingredient routes. Reads are open to every role.
func SetupIngredientRoutes(authenticatedGroup *gin.RouterGroup, ingredientHandler *handlers.IngredientHandler) {
	ingredientRoutes := authenticatedGroup.Group("/ingredients")
	{
		ingredientRoutes.GET("", ingredientHandler.GetIngredients)
		ingredientRoutes.GET("/low-stock", ingredientHandler.GetLowStock)
		ingredientRoutes.GET("/:id", ingredientHandler.GetIngredientByID)

		ingredientRoutes.POST("", managers(), ingredientHandler.CreateIngredient)
		ingredientRoutes.PUT("/:id", managers(), ingredientHandler.UpdateIngredient)
		ingredientRoutes.DELETE("/:id", managers(), ingredientHandler.DeleteIngredient)
		ingredientRoutes.POST("/:id/adjust", managers(), ingredientHandler.AdjustStock)
	}
}

// SetupStockLogRoutes sets up the stock ledger listing.
func SetupStockLogRoutes(authenticatedGroup *gin.RouterGroup, stockLogHandler *handlers.StockLogHandler) {
	stockLogRoutes := authenticatedGroup.Group("/stock-logs")
	stockLogRoutes.Use(managers())
	{
		stockLogRoutes.GET("", stockLogHandler.GetStockLogs)
	}
}

// SetupMenuRoutes sets up the menu routes.
func SetupMenuRoutes(authenticatedGroup *gin.RouterGroup, menuHandler *handlers.MenuHandler) {
	menuRoutes := authenticatedGroup.Group("/menus")
	{
		menuRoutes.GET("", menuHandler.GetMenus)
		menuRoutes.GET("/:id", menuHandler.GetMenuByID)

		menuRoutes.POST("", managers(), menuHandler.CreateMenu)
		menuRoutes.PUT("/:id", managers(), menuHandler.UpdateMenu)
		menuRoutes.DELETE("/:id", managers(), menuHandler.DeleteMenu)
	}
}

// SetupCookingRoutes sets up cooking and the cooking history.
func SetupCookingRoutes(authenticatedGroup *gin.RouterGroup, cookingHandler *handlers.CookingHandler) {
	authenticatedGroup.POST("/cook", cookingHandler.Cook)

	historyRoutes := authenticatedGroup.Group("/history")
	{
		historyRoutes.GET("", managers(), cookingHandler.GetHistory)
		historyRoutes.GET("/me", cookingHandler.GetMyHistory)
	}
}

// SetupDashboardRoutes sets up the dashboard route.
func SetupDashboardRoutes(authenticatedGroup *gin.RouterGroup, reportHandler *handlers.ReportHandler) {
	authenticatedGroup.GET("/dashboard", reportHandler.GetDashboardSummary)
}

// SetupReportRoutes sets up the report routes.
func SetupReportRoutes(authenticatedGroup *gin.RouterGroup, reportHandler *handlers.ReportHandler) {
	reportRoutes := authenticatedGroup.Group("/reports")
	reportRoutes.Use(managers())
	{
		reportRoutes.GET("/usage-trends", reportHandler.GetUsageTrends)
		reportRoutes.GET("/cost-summary", reportHandler.GetCostSummary)
	}
}

// SetupSuggestionRoutes sets up the purchase suggestion route.
func SetupSuggestionRoutes(authenticatedGroup *gin.RouterGroup, suggestionHandler *handlers.SuggestionHandler) {
	suggestionRoutes := authenticatedGroup.Group("/suggestions")
	suggestionRoutes.Use(managers())
	{
		suggestionRoutes.GET("/purchase-order", suggestionHandler.GetPurchaseOrder)
	}
}

// SetupNotificationRoutes sets up the manual low-stock push.
func SetupNotificationRoutes(authenticatedGroup *gin.RouterGroup, notificationHandler *handlers.NotificationHandler) {
	notificationRoutes := authenticatedGroup.Group("/notifications")
	notificationRoutes.Use(managers())
	{
		notificationRoutes.POST("/low-stock", notificationHandler.SendLowStock)
	}
}

// SetupWebhookRoutes sets up the chat webhook. It is authenticated by signature, not by token.
func SetupWebhookRoutes(apiGroup *gin.RouterGroup, notificationHandler *handlers.NotificationHandler) {
	apiGroup.POST("/webhook/line", notificationHandler.LineWebhook)
}
