package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Log       LogConfig       `mapstructure:"log"`
	Curation  CurationConfig  `mapstructure:"curation"`
	Inventory InventoryConfig `mapstructure:"inventory"`
	Cache     CacheConfig     `mapstructure:"cache"`
	Store     StoreConfig     `mapstructure:"store"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Anthropic AnthropicConfig `mapstructure:"anthropic"`
	Etsy      EtsyConfig      `mapstructure:"etsy"`
	Ebay      EbayConfig      `mapstructure:"ebay"`
	Amazon    AmazonConfig    `mapstructure:"amazon"`
	LinkCheck LinkCheckConfig `mapstructure:"linkcheck"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LogConfig controls the global zerolog logger
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // "json" or "console"
}

// CurationConfig holds the diversity caps and list sizes
type CurationConfig struct {
	MaxPerInterest int     `mapstructure:"max_per_interest"`
	SourceShare    float64 `mapstructure:"source_share"`
	MinSourceCap   int     `mapstructure:"min_source_cap"`
	DefaultCount   int     `mapstructure:"default_count"`
	MaxCount       int     `mapstructure:"max_count"`
}

// InventoryConfig controls retailer fan-out
type InventoryConfig struct {
	Concurrency   int `mapstructure:"concurrency"`
	PerQueryLimit int `mapstructure:"per_query_limit"`
}

// CacheConfig holds cache-related configuration
type CacheConfig struct {
	Type     string        `mapstructure:"type"` // "memory" or "redis"
	RedisURL string        `mapstructure:"redis_url"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// StoreConfig holds the SQLite location. An empty path disables persistence.
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	PerIP         int     `mapstructure:"per_ip"`   // requests per minute
	Retailer      float64 `mapstructure:"retailer"` // requests per second, per retailer
	RetailerBurst int     `mapstructure:"retailer_burst"`
}

// AnthropicConfig holds curator API configuration
type AnthropicConfig struct {
	APIKey    string        `mapstructure:"api_key"`
	BaseURL   string        `mapstructure:"base_url"`
	Model     string        `mapstructure:"model"`
	MaxTokens int           `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// EtsyConfig holds Etsy Open API configuration
type EtsyConfig struct {
	APIKey  string `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
}

// EbayConfig holds eBay Browse API configuration
type EbayConfig struct {
	ClientID     string `mapstructure:"client_id"`
	ClientSecret string `mapstructure:"client_secret"`
	TokenURL     string `mapstructure:"token_url"`
	BaseURL      string `mapstructure:"base_url"`
	Marketplace  string `mapstructure:"marketplace"`
}

// AmazonConfig holds RapidAPI Amazon search configuration
type AmazonConfig struct {
	RapidAPIKey  string `mapstructure:"rapidapi_key"`
	RapidAPIHost string `mapstructure:"rapidapi_host"`
	BaseURL      string `mapstructure:"base_url"`
	AssociateTag string `mapstructure:"associate_tag"`
	Country      string `mapstructure:"country"`
}

// LinkCheckConfig controls material link probing
type LinkCheckConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Timeout time.Duration `mapstructure:"timeout"`
	TTL     time.Duration `mapstructure:"ttl"`
}

// IsProduction reports whether the server runs in production mode
func (c *Config) IsProduction() bool {
	return c.Server.Environment == "production"
}

// EtsyEnabled reports whether Etsy credentials are present
func (c *Config) EtsyEnabled() bool {
	return c.Etsy.APIKey != ""
}

// EbayEnabled reports whether eBay credentials are present
func (c *Config) EbayEnabled() bool {
	return c.Ebay.ClientID != "" && c.Ebay.ClientSecret != ""
}

// AmazonEnabled reports whether RapidAPI credentials are present
func (c *Config) AmazonEnabled() bool {
	return c.Amazon.RapidAPIKey != ""
}

// Load loads configuration from a .env file, environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/giftlens/")

	// GIFTLENS_SERVER_PORT -> server.port
	v.SetEnvPrefix("GIFTLENS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads .env from the working directory without overriding
// variables that are already set. A missing file is not an error.
func loadEnvFile() error {
	err := godotenv.Load()
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// setDefaults sets default configuration values. Every key gets a default
// so AutomaticEnv can resolve it during Unmarshal.
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")

	// Curation caps
	v.SetDefault("curation.max_per_interest", 2)
	v.SetDefault("curation.source_share", 0.6)
	v.SetDefault("curation.min_source_cap", 2)
	v.SetDefault("curation.default_count", 8)
	v.SetDefault("curation.max_count", 20)

	v.SetDefault("inventory.concurrency", 4)
	v.SetDefault("inventory.per_query_limit", 10)

	// Cache defaults
	v.SetDefault("cache.type", "memory")
	v.SetDefault("cache.redis_url", "")
	v.SetDefault("cache.prefix", "giftlens:")
	v.SetDefault("cache.ttl", "24h")

	v.SetDefault("store.path", "giftlens.db")

	// Rate limit defaults
	v.SetDefault("ratelimit.per_ip", 60)
	v.SetDefault("ratelimit.retailer", 5)
	v.SetDefault("ratelimit.retailer_burst", 10)

	v.SetDefault("anthropic.api_key", "")
	v.SetDefault("anthropic.base_url", "https://api.anthropic.com")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5")
	v.SetDefault("anthropic.max_tokens", 4096)
	v.SetDefault("anthropic.timeout", "90s")

	v.SetDefault("etsy.api_key", "")
	v.SetDefault("etsy.base_url", "https://openapi.etsy.com")

	v.SetDefault("ebay.client_id", "")
	v.SetDefault("ebay.client_secret", "")
	v.SetDefault("ebay.token_url", "https://api.ebay.com/identity/v1/oauth2/token")
	v.SetDefault("ebay.base_url", "https://api.ebay.com")
	v.SetDefault("ebay.marketplace", "EBAY_US")

	v.SetDefault("amazon.rapidapi_key", "")
	v.SetDefault("amazon.rapidapi_host", "real-time-amazon-data.p.rapidapi.com")
	v.SetDefault("amazon.base_url", "")
	v.SetDefault("amazon.associate_tag", "")
	v.SetDefault("amazon.country", "US")

	v.SetDefault("linkcheck.enabled", true)
	v.SetDefault("linkcheck.timeout", "5s")
	v.SetDefault("linkcheck.ttl", "6h")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Anthropic.APIKey == "" {
		return fmt.Errorf("Anthropic API key is required (set GIFTLENS_ANTHROPIC_API_KEY)")
	}

	if !config.EtsyEnabled() && !config.EbayEnabled() && !config.AmazonEnabled() {
		return fmt.Errorf("at least one retailer must be configured (etsy, ebay or amazon)")
	}

	if config.Cache.Type != "memory" && config.Cache.Type != "redis" {
		return fmt.Errorf("cache type must be 'memory' or 'redis', got: %s", config.Cache.Type)
	}

	if config.Cache.Type == "redis" && config.Cache.RedisURL == "" {
		return fmt.Errorf("Redis URL is required when cache type is 'redis'")
	}

	if config.Curation.SourceShare <= 0 || config.Curation.SourceShare > 1 {
		return fmt.Errorf("curation source_share must be in (0, 1], got: %v", config.Curation.SourceShare)
	}

	if config.Curation.MaxPerInterest < 1 {
		return fmt.Errorf("curation max_per_interest must be at least 1, got: %d", config.Curation.MaxPerInterest)
	}

	if config.Log.Format != "json" && config.Log.Format != "console" {
		return fmt.Errorf("log format must be 'json' or 'console', got: %s", config.Log.Format)
	}

	return nil
}
