package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

var configEnvVars = []string{
	"GIFTLENS_SERVER_PORT",
	"GIFTLENS_SERVER_ENVIRONMENT",
	"GIFTLENS_SERVER_ALLOWED_ORIGINS",
	"GIFTLENS_LOG_LEVEL",
	"GIFTLENS_LOG_FORMAT",
	"GIFTLENS_CURATION_MAX_PER_INTEREST",
	"GIFTLENS_CURATION_SOURCE_SHARE",
	"GIFTLENS_CACHE_TYPE",
	"GIFTLENS_CACHE_REDIS_URL",
	"GIFTLENS_CACHE_TTL",
	"GIFTLENS_RATELIMIT_PER_IP",
	"GIFTLENS_ANTHROPIC_API_KEY",
	"GIFTLENS_ANTHROPIC_MODEL",
	"GIFTLENS_ETSY_API_KEY",
	"GIFTLENS_EBAY_CLIENT_ID",
	"GIFTLENS_EBAY_CLIENT_SECRET",
	"GIFTLENS_AMAZON_RAPIDAPI_KEY",
	"GIFTLENS_AMAZON_ASSOCIATE_TAG",
	"GIFTLENS_LINKCHECK_TIMEOUT",
}

func TestLoad(t *testing.T) {
	cleanupEnv := func() {
		for _, name := range configEnvVars {
			os.Unsetenv(name)
		}
	}

	t.Run("loads with defaults when only credentials are set", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("GIFTLENS_ANTHROPIC_API_KEY", "test-key")
		os.Setenv("GIFTLENS_ETSY_API_KEY", "etsy-key")
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "8080" {
			t.Errorf("Server.Port = %s, want 8080", cfg.Server.Port)
		}
		if cfg.Server.Environment != "development" {
			t.Errorf("Server.Environment = %s, want development", cfg.Server.Environment)
		}
		if cfg.Curation.MaxPerInterest != 2 {
			t.Errorf("Curation.MaxPerInterest = %d, want 2", cfg.Curation.MaxPerInterest)
		}
		if cfg.Curation.SourceShare != 0.6 {
			t.Errorf("Curation.SourceShare = %v, want 0.6", cfg.Curation.SourceShare)
		}
		if cfg.Curation.MinSourceCap != 2 {
			t.Errorf("Curation.MinSourceCap = %d, want 2", cfg.Curation.MinSourceCap)
		}
		if cfg.Curation.DefaultCount != 8 {
			t.Errorf("Curation.DefaultCount = %d, want 8", cfg.Curation.DefaultCount)
		}
		if cfg.Cache.Type != "memory" {
			t.Errorf("Cache.Type = %s, want memory", cfg.Cache.Type)
		}
		if cfg.Cache.TTL != 24*time.Hour {
			t.Errorf("Cache.TTL = %v, want 24h", cfg.Cache.TTL)
		}
		if cfg.Anthropic.Timeout != 90*time.Second {
			t.Errorf("Anthropic.Timeout = %v, want 90s", cfg.Anthropic.Timeout)
		}
		if cfg.Ebay.Marketplace != "EBAY_US" {
			t.Errorf("Ebay.Marketplace = %s, want EBAY_US", cfg.Ebay.Marketplace)
		}
		if !cfg.LinkCheck.Enabled {
			t.Error("LinkCheck.Enabled = false, want true")
		}
		if !cfg.EtsyEnabled() || cfg.EbayEnabled() || cfg.AmazonEnabled() {
			t.Errorf("retailers enabled = etsy:%v ebay:%v amazon:%v, want only etsy",
				cfg.EtsyEnabled(), cfg.EbayEnabled(), cfg.AmazonEnabled())
		}
	})

	t.Run("loads custom values from environment variables", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("GIFTLENS_SERVER_PORT", "9090")
		os.Setenv("GIFTLENS_SERVER_ENVIRONMENT", "production")
		os.Setenv("GIFTLENS_SERVER_ALLOWED_ORIGINS", "https://giftlens.app,https://*.giftlens.app")
		os.Setenv("GIFTLENS_LOG_FORMAT", "json")
		os.Setenv("GIFTLENS_CURATION_SOURCE_SHARE", "0.5")
		os.Setenv("GIFTLENS_CACHE_TYPE", "redis")
		os.Setenv("GIFTLENS_CACHE_REDIS_URL", "redis://localhost:6379")
		os.Setenv("GIFTLENS_CACHE_TTL", "1h")
		os.Setenv("GIFTLENS_RATELIMIT_PER_IP", "200")
		os.Setenv("GIFTLENS_ANTHROPIC_API_KEY", "custom-api-key")
		os.Setenv("GIFTLENS_ANTHROPIC_MODEL", "claude-haiku-4-5")
		os.Setenv("GIFTLENS_EBAY_CLIENT_ID", "id")
		os.Setenv("GIFTLENS_EBAY_CLIENT_SECRET", "secret")
		os.Setenv("GIFTLENS_AMAZON_RAPIDAPI_KEY", "rapid")
		os.Setenv("GIFTLENS_AMAZON_ASSOCIATE_TAG", "giftlens-20")
		os.Setenv("GIFTLENS_LINKCHECK_TIMEOUT", "2s")
		defer cleanupEnv()

		cfg, err := Load()
		if err != nil {
			t.Fatalf("Load() error = %v, want nil", err)
		}

		if cfg.Server.Port != "9090" {
			t.Errorf("Server.Port = %s, want 9090", cfg.Server.Port)
		}
		if !cfg.IsProduction() {
			t.Errorf("Server.Environment = %s, want production", cfg.Server.Environment)
		}
		if len(cfg.Server.AllowedOrigins) != 2 || cfg.Server.AllowedOrigins[1] != "https://*.giftlens.app" {
			t.Errorf("Server.AllowedOrigins = %v, want two origins", cfg.Server.AllowedOrigins)
		}
		if cfg.Log.Format != "json" {
			t.Errorf("Log.Format = %s, want json", cfg.Log.Format)
		}
		if cfg.Curation.SourceShare != 0.5 {
			t.Errorf("Curation.SourceShare = %v, want 0.5", cfg.Curation.SourceShare)
		}
		if cfg.Cache.Type != "redis" {
			t.Errorf("Cache.Type = %s, want redis", cfg.Cache.Type)
		}
		if cfg.Cache.RedisURL != "redis://localhost:6379" {
			t.Errorf("Cache.RedisURL = %s, want redis://localhost:6379", cfg.Cache.RedisURL)
		}
		if cfg.Cache.TTL != time.Hour {
			t.Errorf("Cache.TTL = %v, want 1h", cfg.Cache.TTL)
		}
		if cfg.RateLimit.PerIP != 200 {
			t.Errorf("RateLimit.PerIP = %d, want 200", cfg.RateLimit.PerIP)
		}
		if cfg.Anthropic.Model != "claude-haiku-4-5" {
			t.Errorf("Anthropic.Model = %s, want claude-haiku-4-5", cfg.Anthropic.Model)
		}
		if !cfg.EbayEnabled() || !cfg.AmazonEnabled() || cfg.EtsyEnabled() {
			t.Errorf("retailers enabled = etsy:%v ebay:%v amazon:%v, want ebay and amazon",
				cfg.EtsyEnabled(), cfg.EbayEnabled(), cfg.AmazonEnabled())
		}
		if cfg.Amazon.AssociateTag != "giftlens-20" {
			t.Errorf("Amazon.AssociateTag = %s, want giftlens-20", cfg.Amazon.AssociateTag)
		}
		if cfg.LinkCheck.Timeout != 2*time.Second {
			t.Errorf("LinkCheck.Timeout = %v, want 2s", cfg.LinkCheck.Timeout)
		}
	})

	t.Run("fails validation when API key is missing", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("GIFTLENS_ETSY_API_KEY", "etsy-key")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Fatal("Load() error = nil, want error for missing API key")
		}
		if err.Error() != "invalid configuration: Anthropic API key is required (set GIFTLENS_ANTHROPIC_API_KEY)" {
			t.Errorf("Load() error = %v, want 'Anthropic API key is required'", err)
		}
	})

	t.Run("fails validation when no retailer is configured", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("GIFTLENS_ANTHROPIC_API_KEY", "test-key")
		defer cleanupEnv()

		_, err := Load()
		if err == nil || !strings.Contains(err.Error(), "at least one retailer") {
			t.Errorf("Load() error = %v, want retailer error", err)
		}
	})

	t.Run("fails validation for invalid cache type", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("GIFTLENS_ANTHROPIC_API_KEY", "test-key")
		os.Setenv("GIFTLENS_ETSY_API_KEY", "etsy-key")
		os.Setenv("GIFTLENS_CACHE_TYPE", "invalid")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for invalid cache type")
		}
	})

	t.Run("fails validation when redis URL missing for redis cache", func(t *testing.T) {
		cleanupEnv()
		os.Setenv("GIFTLENS_ANTHROPIC_API_KEY", "test-key")
		os.Setenv("GIFTLENS_ETSY_API_KEY", "etsy-key")
		os.Setenv("GIFTLENS_CACHE_TYPE", "redis")
		defer cleanupEnv()

		_, err := Load()
		if err == nil {
			t.Error("Load() error = nil, want error for missing Redis URL")
		}
	})
}

func TestLoadEnvFile(t *testing.T) {
	t.Run("returns nil when .env file doesn't exist", func(t *testing.T) {
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)

		os.Chdir(t.TempDir())

		if err := loadEnvFile(); err != nil {
			t.Errorf("loadEnvFile() error = %v, want nil when file doesn't exist", err)
		}
	})

	t.Run("loads variables and skips comments", func(t *testing.T) {
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)

		os.Chdir(t.TempDir())

		envContent := `
# Comment line
TEST_VAR_1=value1

TEST_VAR_2=value2
# TEST_COMMENTED=should_not_load
`
		if err := os.WriteFile(".env", []byte(envContent), 0644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}

		os.Unsetenv("TEST_VAR_1")
		os.Unsetenv("TEST_VAR_2")
		os.Unsetenv("TEST_COMMENTED")
		defer func() {
			os.Unsetenv("TEST_VAR_1")
			os.Unsetenv("TEST_VAR_2")
		}()

		if err := loadEnvFile(); err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if os.Getenv("TEST_VAR_1") != "value1" {
			t.Errorf("TEST_VAR_1 = %s, want value1", os.Getenv("TEST_VAR_1"))
		}
		if os.Getenv("TEST_VAR_2") != "value2" {
			t.Errorf("TEST_VAR_2 = %s, want value2", os.Getenv("TEST_VAR_2"))
		}
		if os.Getenv("TEST_COMMENTED") != "" {
			t.Errorf("TEST_COMMENTED should not be loaded from comment")
		}
	})

	t.Run("doesn't override existing environment variables", func(t *testing.T) {
		originalDir, _ := os.Getwd()
		defer os.Chdir(originalDir)

		os.Chdir(t.TempDir())

		os.Setenv("TEST_OVERRIDE", "existing-value")
		defer os.Unsetenv("TEST_OVERRIDE")

		if err := os.WriteFile(".env", []byte("TEST_OVERRIDE=new-value"), 0644); err != nil {
			t.Fatalf("Failed to create test .env file: %v", err)
		}

		if err := loadEnvFile(); err != nil {
			t.Fatalf("loadEnvFile() error = %v, want nil", err)
		}

		if os.Getenv("TEST_OVERRIDE") != "existing-value" {
			t.Errorf("TEST_OVERRIDE = %s, want existing-value (should not override)", os.Getenv("TEST_OVERRIDE"))
		}
	})
}

func validConfig() *Config {
	return &Config{
		Log:       LogConfig{Format: "console"},
		Curation:  CurationConfig{MaxPerInterest: 2, SourceShare: 0.6, MinSourceCap: 2},
		Cache:     CacheConfig{Type: "memory"},
		Anthropic: AnthropicConfig{APIKey: "test-key"},
		Etsy:      EtsyConfig{APIKey: "etsy-key"},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid memory config", func(c *Config) {}, false},
		{"valid redis config", func(c *Config) { c.Cache = CacheConfig{Type: "redis", RedisURL: "redis://localhost:6379"} }, false},
		{"ebay alone is enough", func(c *Config) {
			c.Etsy.APIKey = ""
			c.Ebay = EbayConfig{ClientID: "id", ClientSecret: "secret"}
		}, false},
		{"ebay without secret is not configured", func(c *Config) {
			c.Etsy.APIKey = ""
			c.Ebay = EbayConfig{ClientID: "id"}
		}, true},
		{"empty API key", func(c *Config) { c.Anthropic.APIKey = "" }, true},
		{"invalid cache type", func(c *Config) { c.Cache.Type = "invalid-type" }, true},
		{"redis without URL", func(c *Config) { c.Cache.Type = "redis" }, true},
		{"zero source share", func(c *Config) { c.Curation.SourceShare = 0 }, true},
		{"source share above one", func(c *Config) { c.Curation.SourceShare = 1.5 }, true},
		{"source share of one", func(c *Config) { c.Curation.SourceShare = 1 }, false},
		{"zero max per interest", func(c *Config) { c.Curation.MaxPerInterest = 0 }, true},
		{"unknown log format", func(c *Config) { c.Log.Format = "xml" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)

			err := validate(cfg)
			if (err != nil) != tt.wantErr {
				t.Errorf("validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
