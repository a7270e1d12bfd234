package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config holds all application configuration
type Config struct {
	// ESPN site API
	ESPNBaseURL         string        `envconfig:"ESPN_BASE_URL" default:"https://site.api.espn.com/apis/site/v2/sports/basketball/nba"`
	ESPNTimeout         time.Duration `envconfig:"ESPN_TIMEOUT" default:"30s"`
	ESPNRequestInterval time.Duration `envconfig:"ESPN_REQUEST_INTERVAL" default:"250ms"`
	ESPNUserAgent       string        `envconfig:"ESPN_USER_AGENT" default:"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/115.0.0.0 Safari/537.36"`

	// Scrape window
	SeasonID string `envconfig:"SEASON_ID" default:"2024-25"`
	DaysBack int    `envconfig:"DAYS_BACK" default:"90"`

	// Data files
	RawGamesPath     string `envconfig:"RAW_GAMES_PATH" default:"data/raw/raw_games.csv"`
	CleanedGamesPath string `envconfig:"CLEANED_GAMES_PATH" default:"data/processed/games_cleaned.csv"`
	FeaturesPath     string `envconfig:"FEATURES_PATH" default:"data/processed/features.csv"`
	ModelPath        string `envconfig:"MODEL_PATH" default:"models/over_under_model.json"`
	InjuriesPath     string `envconfig:"INJURIES_PATH" default:"data/raw/injuries.csv"`

	// Features and model
	RollingWindow      int     `envconfig:"ROLLING_WINDOW" default:"5"`
	OverUnderThreshold float64 `envconfig:"OVER_UNDER_THRESHOLD" default:"220"`
	TestSplit          float64 `envconfig:"TEST_SPLIT" default:"0.2"`
	RandomSeed         int64   `envconfig:"RANDOM_SEED" default:"42"`

	// Redis response cache (disabled when REDIS_HOST is empty)
	RedisHost     string        `envconfig:"REDIS_HOST" default:""`
	RedisPort     int           `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string        `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int           `envconfig:"REDIS_DB" default:"0"`
	CacheTTL      time.Duration `envconfig:"CACHE_TTL" default:"720h"`

	// Postgres mirror of the feature table (disabled when empty)
	ExportDatabaseURL string `envconfig:"EXPORT_DATABASE_URL" default:""`

	// Application
	AppEnv   string `envconfig:"APP_ENV" default:"development"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// Scheduler
	DailyCron  string `envconfig:"DAILY_CRON" default:"0 9 * * *"`
	InjuryCron string `envconfig:"INJURY_CRON" default:"0 */6 * * *"`

	// Monitoring
	MetricsPort     int    `envconfig:"METRICS_PORT" default:"9090"`
	MetricsTextfile string `envconfig:"METRICS_TEXTFILE" default:""`
}

// Load loads configuration from environment variables
// It first attempts to load from .env file if present
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process environment config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.ESPNBaseURL == "" {
		return fmt.Errorf("ESPN_BASE_URL is required")
	}

	if c.DaysBack < 1 {
		return fmt.Errorf("DAYS_BACK must be at least 1, got %d", c.DaysBack)
	}

	if c.RollingWindow < 1 {
		return fmt.Errorf("ROLLING_WINDOW must be at least 1, got %d", c.RollingWindow)
	}

	if c.TestSplit < 0 || c.TestSplit >= 1 {
		return fmt.Errorf("TEST_SPLIT must be in [0, 1), got %v", c.TestSplit)
	}

	for name, path := range map[string]string{
		"RAW_GAMES_PATH":     c.RawGamesPath,
		"CLEANED_GAMES_PATH": c.CleanedGamesPath,
		"FEATURES_PATH":      c.FeaturesPath,
		"MODEL_PATH":         c.ModelPath,
		"INJURIES_PATH":      c.InjuriesPath,
	} {
		if path == "" {
			return fmt.Errorf("%s must not be empty", name)
		}
	}

	return nil
}

// RedisAddr returns the Redis address
func (c *Config) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// CacheEnabled reports whether a Redis host was configured
func (c *Config) CacheEnabled() bool {
	return c.RedisHost != ""
}

// ExportEnabled reports whether the Postgres feature mirror is configured
func (c *Config) ExportEnabled() bool {
	return c.ExportDatabaseURL != ""
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

// MustLoad loads configuration or exits on error
// Use this in main() where we want to fail fast
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	return cfg
}
