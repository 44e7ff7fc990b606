package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config represents the application configuration
type Config struct {
	Database  DatabaseConfig  `mapstructure:"database"`
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Media     MediaConfig     `mapstructure:"media"`
	Sources   SourcesConfig   `mapstructure:"sources"`
	Scheduler SchedulerConfig `mapstructure:"scheduler"`
	Server    ServerConfig    `mapstructure:"server"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Logging   LoggingConfig   `mapstructure:"logging"`
}

// DatabaseConfig holds storage backend settings
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // sqlite or firestore
	DSN    string `mapstructure:"dsn"`    // SQLite file path
	// Firestore settings, used when driver is "firestore"
	ProjectID       string `mapstructure:"project_id"`
	CredentialsFile string `mapstructure:"credentials_file"`
}

// AnthropicConfig holds Claude API settings
type AnthropicConfig struct {
	APIKey      string  `mapstructure:"api_key"`
	Model       string  `mapstructure:"model"`
	MaxTokens   int     `mapstructure:"max_tokens"`
	Temperature float64 `mapstructure:"temperature"`
}

// MediaConfig holds image enrichment settings
type MediaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	UnsplashAPIKey string `mapstructure:"unsplash_api_key"`
}

// SourcesConfig holds topic importer configurations
type SourcesConfig struct {
	RSS RSSConfig `mapstructure:"rss"`
}

// RSSConfig holds RSS importer settings
type RSSConfig struct {
	Feeds []RSSFeed `mapstructure:"feeds"`
}

// RSSFeed represents a single RSS feed mapped onto a lesson
type RSSFeed struct {
	Name     string `mapstructure:"name"`
	URL      string `mapstructure:"url"`
	LessonID string `mapstructure:"lesson_id"`
}

// SchedulerConfig holds cron settings
type SchedulerConfig struct {
	RotateCron      string `mapstructure:"rotate_cron"`
	GenerateCron    string `mapstructure:"generate_cron"`
	GenerateEnabled bool   `mapstructure:"generate_enabled"`
}

// ServerConfig holds the HTTP trigger surface settings
type ServerConfig struct {
	Addr      string `mapstructure:"addr"`
	JWTSecret string `mapstructure:"jwt_secret"`
}

// RateLimitConfig holds rate limiting settings
type RateLimitConfig struct {
	AnthropicRequestsPerMinute int `mapstructure:"anthropic_requests_per_minute"`
	UnsplashRequestsPerHour    int `mapstructure:"unsplash_requests_per_hour"`
}

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json or console
	Output string `mapstructure:"output"` // stdout or file path
}

// Load loads configuration from file and environment variables
func Load(configPath string) (*Config, error) {
	// Load .env file if present (ignore errors if not found)
	_ = godotenv.Load()
	_ = godotenv.Load(".env.local")

	v := viper.New()

	setDefaults(v)

	// Config file
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")

		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".ai-daily-feed"))
		}
	}

	// Environment variables
	v.SetEnvPrefix("FEED")
	v.AutomaticEnv()

	// Explicit bindings for nested keys (Viper doesn't auto-bind underscored nested keys)
	v.BindEnv("anthropic.api_key", "FEED_ANTHROPIC_API_KEY")
	v.BindEnv("database.driver", "FEED_DATABASE_DRIVER")
	v.BindEnv("database.dsn", "FEED_DATABASE_DSN")
	v.BindEnv("database.project_id", "FEED_DATABASE_PROJECT_ID")
	v.BindEnv("database.credentials_file", "FEED_DATABASE_CREDENTIALS_FILE")
	v.BindEnv("server.addr", "FEED_SERVER_ADDR")
	v.BindEnv("server.jwt_secret", "FEED_SERVER_JWT_SECRET")
	v.BindEnv("media.enabled", "FEED_MEDIA_ENABLED")
	v.BindEnv("media.unsplash_api_key", "FEED_MEDIA_UNSPLASH_API_KEY")

	// Read config file (ignore if not found)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Database defaults
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./data/feed.db")

	// Anthropic defaults
	v.SetDefault("anthropic.model", "claude-sonnet-4-20250514")
	v.SetDefault("anthropic.max_tokens", 1024)
	v.SetDefault("anthropic.temperature", 0.7)

	// Media defaults
	v.SetDefault("media.enabled", false)

	// Scheduler defaults
	v.SetDefault("scheduler.rotate_cron", "0 6 * * *") // 6am daily rotation
	v.SetDefault("scheduler.generate_cron", "0 5 * * *")
	v.SetDefault("scheduler.generate_enabled", false)

	// Server defaults
	v.SetDefault("server.addr", ":8080")

	// Rate limit defaults
	v.SetDefault("rate_limit.anthropic_requests_per_minute", 10)
	v.SetDefault("rate_limit.unsplash_requests_per_hour", 50)

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")
	v.SetDefault("logging.output", "stdout")
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Anthropic.APIKey == "" {
		return fmt.Errorf("anthropic.api_key is required")
	}
	if c.Server.JWTSecret == "" {
		return fmt.Errorf("server.jwt_secret is required")
	}
	if c.Database.Driver == "firestore" && c.Database.ProjectID == "" {
		return fmt.Errorf("database.project_id is required for the firestore driver")
	}
	if c.Media.Enabled && c.Media.UnsplashAPIKey == "" {
		return fmt.Errorf("media.unsplash_api_key is required when media is enabled")
	}
	return nil
}
