package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"kitchen_inventory_backend/internal/config"
	"kitchen_inventory_backend/internal/database"
	"kitchen_inventory_backend/internal/events"
	"kitchen_inventory_backend/internal/repositories/mongodb"
	"kitchen_inventory_backend/internal/router"
	"kitchen_inventory_backend/internal/scheduler"
	"kitchen_inventory_backend/internal/services"
	"kitchen_inventory_backend/pkg/clients/line"
	"kitchen_inventory_backend/pkg/utils"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

func main() {
	cfg, err := config.Load(".env")
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Initialize Logger
	utils.InitLogger(cfg.LogLevel, cfg.LogPretty)
	decimal.MarshalJSONWithoutQuotes = true

	if err := run(cfg); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

// run owns every resource it opens, so returning unwinds their deferred closes.
func run(cfg *config.Config) error {
	startupCtx, cancelStartup := context.WithTimeout(context.Background(), time.Minute)
	defer cancelStartup()

	// Initialize Database
	db, err := database.Open(startupCtx, cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			utils.LogError(err, "failed to close database")
		}
	}()
	if err := database.ApplySchema(startupCtx, db, cfg.Database.SchemaPath); err != nil {
		return fmt.Errorf("failed to apply database schema: %w", err)
	}
	utils.LogInfo("Database initialized", map[string]interface{}{"driver": cfg.Database.Driver})

	tokens, err := utils.NewJWTManager(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	if err != nil {
		return fmt.Errorf("failed to init token manager: %w", err)
	}

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.RabbitMQ.URL != "" {
		rabbit, err := events.DialRabbit(cfg.RabbitMQ.URL)
		if err != nil {
			return fmt.Errorf("failed to connect to rabbitmq: %w", err)
		}
		publisher = rabbit
		utils.LogInfo("cooking event publisher enabled")
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			utils.LogError(err, "failed to close event publisher")
		}
	}()

	var archive services.NotificationArchive
	if cfg.MongoDB.URI != "" {
		mongoRepo, err := mongodb.NewNotificationRepository(startupCtx, cfg.MongoDB.URI, cfg.MongoDB.DBName)
		if err != nil {
			return fmt.Errorf("failed to init mongodb repository: %w", err)
		}
		defer func() {
			if err := mongoRepo.Close(context.Background()); err != nil {
				utils.LogError(err, "failed to close mongodb connection")
			}
		}()
		archive = mongoRepo
	}

	var chat services.ChatClient
	if cfg.Line.Enabled() {
		chat = line.NewClient(cfg.Line)
		utils.LogInfo("line notifications enabled")
	} else {
		log.Warn().Msg("line credentials missing, low stock notifications disabled")
	}

	if err := os.MkdirAll(cfg.Uploads.Dir, 0o755); err != nil {
		return fmt.Errorf("failed to create uploads directory %s: %w", cfg.Uploads.Dir, err)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(utils.GinLogger())

	// CORS configuration
	corsConfig := cors.DefaultConfig()
	corsConfig.AllowOrigins = cfg.CORS.AllowedOrigins
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", utils.RequestIDHeader}
	corsConfig.AllowCredentials = true
	engine.Use(cors.New(corsConfig))

	notificationService := router.Setup(engine, router.Dependencies{
		DB:            db,
		Tokens:        tokens,
		Publisher:     publisher,
		Chat:          chat,
		ChatTarget:    cfg.Line.TargetID,
		ChannelSecret: cfg.Line.ChannelSecret,
		Archive:       archive,
		UploadsDir:    cfg.Uploads.Dir,
		Location:      cfg.Location(),
	})

	if cfg.Scheduler.Enabled {
		sched := scheduler.NewScheduler(cfg.Scheduler.CronSchedule, cfg.Location(), notificationService)
		if err := sched.Start(); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		defer sched.Stop()
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		utils.LogInfo("Server starting", map[string]interface{}{"port": cfg.Server.Port})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		utils.LogInfo("shutdown signal received")
	case err := <-serverErr:
		runErr = fmt.Errorf("http server crashed: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		utils.LogError(err, "graceful shutdown failed")
	}
	return runErr
}
