package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"kitchen_inventory_backend/pkg/utils"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	Auth      AuthConfig
	Line      LineConfig
	Scheduler SchedulerConfig
	RabbitMQ  RabbitMQConfig
	MongoDB   MongoDBConfig
	Uploads   UploadsConfig
	CORS      CORSConfig
	LogLevel  string
	LogPretty bool
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port            string
	ShutdownTimeout time.Duration
}

// DatabaseConfig selects the PostgreSQL driver and connection settings.
type DatabaseConfig struct {
	Driver      string // postgres (lib/pq) or pgx
	Host        string
	Port        string
	User        string
	Password    string
	Name        string
	SSLMode     string
	SchemaPath  string
	MaxOpen     int
	PingRetries int
}

// DSN builds a key/value connection string understood by both drivers.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// AuthConfig holds JWT settings.
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

// LineConfig contains credentials for the LINE Messaging API.
type LineConfig struct {
	BaseURL            string
	ChannelAccessToken string
	ChannelSecret      string
	TargetID           string
}

// Enabled reports whether pushes can be sent.
func (l LineConfig) Enabled() bool {
	return l.ChannelAccessToken != "" && l.TargetID != ""
}

// SchedulerConfig holds the daily low-stock job settings.
type SchedulerConfig struct {
	Enabled      bool
	CronSchedule string
	Timezone     string
}

// RabbitMQConfig enables cooking event fan-out when URL is set.
type RabbitMQConfig struct {
	URL string
}

// MongoDBConfig enables the notification archive when URI is set.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// UploadsConfig is where menu images are stored.
type UploadsConfig struct {
	Dir string
}

// CORSConfig lists allowed browser origins.
type CORSConfig struct {
	AllowedOrigins []string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		_ = godotenv.Load()
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            utils.Getenv("PORT", "8080"),
			ShutdownTimeout: utils.GetenvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		},
		Database: DatabaseConfig{
			Driver:      utils.Getenv("DB_DRIVER", "postgres"),
			Host:        utils.Getenv("DB_HOST", "localhost"),
			Port:        utils.Getenv("DB_PORT", "5432"),
			User:        utils.Getenv("DB_USER", "kitchen"),
			Password:    utils.Getenv("DB_PASSWORD", "kitchen"),
			Name:        utils.Getenv("DB_NAME", "kitchen_inventory"),
			SSLMode:     utils.Getenv("DB_SSLMODE", "disable"),
			SchemaPath:  os.Getenv("DB_SCHEMA_PATH"),
			MaxOpen:     utils.GetenvInt("DB_MAX_OPEN_CONNS", 10),
			PingRetries: utils.GetenvInt("DB_PING_RETRIES", 5),
		},
		Auth: AuthConfig{
			JWTSecret: os.Getenv("JWT_SECRET"),
			TokenTTL:  utils.GetenvDuration("JWT_TTL", utils.DefaultTokenTTL),
		},
		Line: LineConfig{
			BaseURL:            utils.Getenv("LINE_BASE_URL", "https://api.line.me"),
			ChannelAccessToken: os.Getenv("LINE_CHANNEL_ACCESS_TOKEN"),
			ChannelSecret:      os.Getenv("LINE_CHANNEL_SECRET"),
			TargetID:           os.Getenv("LINE_TARGET_ID"),
		},
		Scheduler: SchedulerConfig{
			Enabled:      utils.GetenvBool("LOW_STOCK_CRON_ENABLED", true),
			CronSchedule: utils.Getenv("LOW_STOCK_CRON_SCHEDULE", "0 8 * * *"),
			Timezone:     utils.Getenv("TIMEZONE", "Asia/Bangkok"),
		},
		RabbitMQ: RabbitMQConfig{
			URL: os.Getenv("RABBITMQ_URL"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: utils.Getenv("MONGODB_DB_NAME", "kitchen_inventory"),
		},
		Uploads: UploadsConfig{
			Dir: utils.Getenv("UPLOADS_DIR", "uploads"),
		},
		CORS: CORSConfig{
			AllowedOrigins: utils.GetenvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
		},
		LogLevel:  utils.Getenv("LOG_LEVEL", "info"),
		LogPretty: utils.GetenvBool("LOG_PRETTY", true),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("PORT must be provided")
	}

	switch c.Database.Driver {
	case "postgres", "pgx":
	default:
		return fmt.Errorf("DB_DRIVER must be postgres or pgx, got %q", c.Database.Driver)
	}

	if c.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET must be provided")
	}

	if c.Scheduler.Enabled {
		if _, err := cron.ParseStandard(c.Scheduler.CronSchedule); err != nil {
			return fmt.Errorf("LOW_STOCK_CRON_SCHEDULE is invalid: %w", err)
		}
	}

	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE is invalid: %w", err)
	}

	if c.Uploads.Dir == "" {
		return errors.New("UPLOADS_DIR must not be empty")
	}

	return nil
}

// Location returns the configured timezone. Validate has already checked it.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Scheduler.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
