package router

import (
	"database/sql"
	"net/http"
	"time"

	"kitchen_inventory_backend/internal/events"
	"kitchen_inventory_backend/internal/handlers"
	"kitchen_inventory_backend/internal/middleware"
	"kitchen_inventory_backend/internal/repositories"
	"kitchen_inventory_backend/internal/services"
	"kitchen_inventory_backend/pkg/utils"

	"github.com/gin-gonic/gin"
)

// Dependencies are the process-wide resources the routes are built from.
// Publisher, Chat and Archive may be nil when the integration is not configured.
type Dependencies struct {
	DB            *sql.DB
	Tokens        *utils.JWTManager
	Publisher     events.Publisher
	Chat          services.ChatClient
	ChatTarget    string
	ChannelSecret string
	Archive       services.NotificationArchive
	UploadsDir    string
	Location      *time.Location
}

// Setup initializes the routing for the application and returns the notification
// service so the scheduler can share it.
func Setup(engine *gin.Engine, deps Dependencies) services.NotificationService {
	db := deps.DB
	loc := deps.Location

	// Initialize Repositories
	txRunner := repositories.NewTxRunner(db)
	authRepo := repositories.NewAuthRepository(db)
	ingredientRepo := repositories.NewIngredientRepository(db)
	menuRepo := repositories.NewMenuRepository(db)
	ledger := repositories.NewStockLedger(db)
	cookingRepo := repositories.NewCookingRepository(db)
	reportRepo := repositories.NewReportRepository(db)

	// Initialize Services
	authService := services.NewAuthService(authRepo, txRunner, deps.Tokens)
	ingredientService := services.NewIngredientService(ingredientRepo, ledger, txRunner)
	menuService := services.NewMenuService(menuRepo, txRunner)
	cookingService := services.NewCookingService(txRunner, menuRepo, ledger, cookingRepo, deps.Publisher)
	reportService := services.NewReportService(reportRepo, ingredientRepo, loc)
	suggestionService := services.NewSuggestionService(ingredientRepo, services.TwiceThreshold)
	notificationService := services.NewNotificationService(ingredientRepo, deps.Chat, deps.ChatTarget, deps.Archive)

	// Initialize Handlers
	authHandler := handlers.NewAuthHandler(authService)
	ingredientHandler := handlers.NewIngredientHandler(ingredientService)
	stockLogHandler := handlers.NewStockLogHandler(ingredientService, loc)
	menuHandler := handlers.NewMenuHandler(menuService, deps.UploadsDir)
	cookingHandler := handlers.NewCookingHandler(cookingService, loc)
	reportHandler := handlers.NewReportHandler(reportService, loc)
	suggestionHandler := handlers.NewSuggestionHandler(suggestionService)
	notificationHandler := handlers.NewNotificationHandler(notificationService, deps.ChannelSecret)

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	if deps.UploadsDir != "" {
		engine.Static("/"+handlers.ImageURLPrefix, deps.UploadsDir)
	}

	api := engine.Group("/api")

	SetupPublicUserRoutes(api, authHandler, deps.Tokens)
	SetupWebhookRoutes(api, notificationHandler)

	authenticated := api.Group("")
	authenticated.Use(middleware.AuthMiddleware(deps.Tokens))
	{
		SetupAuthenticatedUserRoutes(authenticated, authHandler, reportHandler)
		SetupIngredientRoutes(authenticated, ingredientHandler)
		SetupStockLogRoutes(authenticated, stockLogHandler)
		SetupMenuRoutes(authenticated, menuHandler)
		SetupCookingRoutes(authenticated, cookingHandler)
		SetupDashboardRoutes(authenticated, reportHandler)
		SetupReportRoutes(authenticated, reportHandler)
		SetupSuggestionRoutes(authenticated, suggestionHandler)
		SetupNotificationRoutes(authenticated, notificationHandler)
	}

	return notificationService
}
