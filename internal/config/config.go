package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Storage backends accepted by STORAGE_BACKEND.
const (
	StorageFile  = "file"
	StorageMongo = "mongo"
)

// Config represents the full application configuration surface.
type Config struct {
	Server        ServerConfig
	Log           LogConfig
	Storage       StorageConfig
	Sheets        SheetsConfig
	Scheduler     SchedulerConfig
	Stock         StockConfig
	Nutrition     NutritionConfig
	OpenFoodFacts OpenFoodFactsConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// LogConfig holds logger options.
type LogConfig struct {
	Level string
}

// StorageConfig selects and configures the table store.
type StorageConfig struct {
	Backend string
	DataDir string
	MongoDB MongoDBConfig
}

// MongoDBConfig holds settings for MongoDB.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// SheetsConfig contains configuration required to export to Google Sheets.
// Export is disabled when both fields are empty.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	StockRange      string
}

// Enabled reports whether the Sheets export is configured.
func (c SheetsConfig) Enabled() bool {
	return c.CredentialsPath != "" && c.SpreadsheetID != ""
}

// SchedulerConfig holds cron expressions for background jobs.
type SchedulerConfig struct {
	RecomputeCron   string
	StockReportCron string
	Timezone        string
}

// StockConfig tunes the stock lifecycle tracker.
type StockConfig struct {
	EnforceExpiry bool
}

// NutritionConfig tunes dish composition resolution.
type NutritionConfig struct {
	ScaleSubDishes bool
}

// OpenFoodFactsConfig configures the nutriment lookup client.
type OpenFoodFactsConfig struct {
	BaseURL string
	Timeout time.Duration
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
		// Missing .env files are fine when configuration comes from the environment.
		_ = godotenv.Load()
	}

	enforceExpiry, err := getenvBool("STOCK_ENFORCE_EXPIRY", false)
	if err != nil {
		return nil, err
	}
	scaleSubDishes, err := getenvBool("NUTRITION_SCALE_SUB_DISHES", false)
	if err != nil {
		return nil, err
	}
	offTimeout, err := getenvDuration("OFF_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
		},
		Log: LogConfig{
			Level: getenvWithDefault("LOG_LEVEL", "info"),
		},
		Storage: StorageConfig{
			Backend: getenvWithDefault("STORAGE_BACKEND", StorageFile),
			DataDir: getenvWithDefault("DATA_DIR", "data"),
			MongoDB: MongoDBConfig{
				URI:    os.Getenv("MONGODB_URI"),
				DBName: getenvWithDefault("MONGODB_DB_NAME", "pantry"),
			},
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
			StockRange:      getenvWithDefault("STOCK_SHEET_RANGE", "Stock!A:G"),
		},
		Scheduler: SchedulerConfig{
			RecomputeCron:   getenvWithDefault("RECOMPUTE_CRON_SCHEDULE", "0 3 * * *"),
			StockReportCron: getenvWithDefault("STOCK_REPORT_CRON_SCHEDULE", "0 20 * * *"),
			Timezone:        getenvWithDefault("TIMEZONE", "UTC"),
		},
		Stock: StockConfig{
			EnforceExpiry: enforceExpiry,
		},
		Nutrition: NutritionConfig{
			ScaleSubDishes: scaleSubDishes,
		},
		OpenFoodFacts: OpenFoodFactsConfig{
			BaseURL: getenvWithDefault("OFF_BASE_URL", "https://world.openfoodfacts.org"),
			Timeout: offTimeout,
		},
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
		return errors.New("APP_PORT must be provided")
	}

	switch c.Storage.Backend {
	case StorageFile:
		if c.Storage.DataDir == "" {
			return errors.New("DATA_DIR must be provided for the file backend")
		}
	case StorageMongo:
		if c.Storage.MongoDB.URI == "" {
			return errors.New("MONGODB_URI must be provided for the mongo backend")
		}
		if c.Storage.MongoDB.DBName == "" {
			return errors.New("MONGODB_DB_NAME must not be empty")
		}
	default:
		return fmt.Errorf("unsupported STORAGE_BACKEND %q", c.Storage.Backend)
	}

	if (c.Sheets.CredentialsPath == "") != (c.Sheets.SpreadsheetID == "") {
		return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH and GOOGLE_SHEET_DATABASE_ID must be provided together")
	}
	if c.Sheets.Enabled() && c.Sheets.StockRange == "" {
		return errors.New("STOCK_SHEET_RANGE must not be empty")
	}

	if c.Scheduler.RecomputeCron == "" {
		return errors.New("RECOMPUTE_CRON_SCHEDULE must be provided")
	}
	if c.Scheduler.StockReportCron == "" {
		return errors.New("STOCK_REPORT_CRON_SCHEDULE must be provided")
	}
	if _, err := time.LoadLocation(c.Scheduler.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Scheduler.Timezone, err)
	}

	if c.OpenFoodFacts.BaseURL == "" {
		return errors.New("OFF_BASE_URL must not be empty")
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvBool(key string, fallback bool) (bool, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return false, fmt.Errorf("%s must be a boolean: %w", key, err)
	}
	return parsed, nil
}

func getenvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration: %w", key, err)
	}
	return parsed, nil
}
