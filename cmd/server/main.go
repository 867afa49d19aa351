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

	"github.com/giftlens/backend/config"
	httpDelivery "github.com/giftlens/backend/internal/delivery/http"
	"github.com/giftlens/backend/internal/domain"
	"github.com/giftlens/backend/internal/infrastructure/anthropic"
	"github.com/giftlens/backend/internal/infrastructure/cache"
	"github.com/giftlens/backend/internal/infrastructure/linkcheck"
	"github.com/giftlens/backend/internal/infrastructure/retailer"
	"github.com/giftlens/backend/internal/infrastructure/store"
	"github.com/giftlens/backend/internal/usecase"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const shutdownTimeout = 15 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	setupLogger(cfg)

	log.Info().
		Str("environment", cfg.Server.Environment).
		Str("port", cfg.Server.Port).
		Str("cache", cfg.Cache.Type).
		Msg("starting GiftLens backend v1.0.0")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Infrastructure
	resultCache, closeCache, err := newCache(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize cache")
	}
	defer closeCache()

	var recStore domain.RecommendationRepository
	if cfg.Store.Path != "" {
		sqliteStore, err := store.Open(ctx, cfg.Store.Path)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.Store.Path).Msg("failed to open recommendation store")
		}
		defer sqliteStore.Close()
		recStore = sqliteStore
		log.Info().Str("path", cfg.Store.Path).Msg("recommendation store ready")
	} else {
		log.Warn().Msg("store path empty, recommendations will not be persisted")
	}

	retailers := newRetailers(cfg)
	log.Info().Int("retailers", len(retailers)).Msg("retailer adapters configured")

	curator := anthropic.NewClient(anthropic.Config{
		APIKey:    cfg.Anthropic.APIKey,
		BaseURL:   cfg.Anthropic.BaseURL,
		Model:     cfg.Anthropic.Model,
		MaxTokens: cfg.Anthropic.MaxTokens,
		Timeout:   cfg.Anthropic.Timeout,
	})

	var links domain.LinkChecker
	if cfg.LinkCheck.Enabled {
		links = linkcheck.NewChecker(linkcheck.Config{
			Timeout: cfg.LinkCheck.Timeout,
			TTL:     cfg.LinkCheck.TTL,
		}, resultCache)
	}

	// Usecase layer
	collector := usecase.NewInventoryCollector(retailers, usecase.CollectorConfig{
		Concurrency:   cfg.Inventory.Concurrency,
		PerQueryLimit: cfg.Inventory.PerQueryLimit,
	})

	service := usecase.NewRecommendationService(collector, curator, links, recStore, resultCache, usecase.RecommendationConfig{
		DefaultCount: cfg.Curation.DefaultCount,
		MaxCount:     cfg.Curation.MaxCount,
		CacheTTL:     cfg.Cache.TTL,
		Curation: usecase.CurationConfig{
			MaxPerInterest: cfg.Curation.MaxPerInterest,
			SourceShare:    cfg.Curation.SourceShare,
			MinSourceCap:   cfg.Curation.MinSourceCap,
		},
		Materials: usecase.MaterialsConfig{
			AmazonAssociateTag: cfg.Amazon.AssociateTag,
			EnableDebugLogging: !cfg.IsProduction(),
		},
	})

	// HTTP layer
	handler := httpDelivery.NewHandler(service)
	router := httpDelivery.SetupRouter(cfg, handler)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}
}

// setupLogger configures the global zerolog logger
func setupLogger(cfg *config.Config) {
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if cfg.Log.Format == "console" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: "15:04:05"})
	} else {
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}

// newCache builds the configured cache and its close function
func newCache(ctx context.Context, cfg *config.Config) (domain.CacheRepository, func(), error) {
	if cfg.Cache.Type == "redis" {
		redisCache, err := cache.NewRedisCache(ctx, cfg.Cache.RedisURL, cfg.Cache.Prefix)
		if err != nil {
			return nil, nil, err
		}
		log.Info().Msg("using redis cache")
		return redisCache, func() { redisCache.Close() }, nil
	}

	memoryCache := cache.NewMemoryCache(10 * time.Minute)
	log.Info().Dur("ttl", cfg.Cache.TTL).Msg("using in-memory cache")
	return memoryCache, func() { memoryCache.Close() }, nil
}

// newRetailers returns an adapter for every retailer with credentials
func newRetailers(cfg *config.Config) []domain.RetailerSearcher {
	opts := []retailer.Option{
		retailer.WithRateLimit(cfg.RateLimit.Retailer, cfg.RateLimit.RetailerBurst),
	}

	var retailers []domain.RetailerSearcher
	if cfg.EtsyEnabled() {
		retailers = append(retailers, retailer.NewEtsyClient(cfg.Etsy.APIKey, cfg.Etsy.BaseURL, opts...))
	}
	if cfg.EbayEnabled() {
		retailers = append(retailers, retailer.NewEbayClient(retailer.EbayConfig{
			ClientID:     cfg.Ebay.ClientID,
			ClientSecret: cfg.Ebay.ClientSecret,
			TokenURL:     cfg.Ebay.TokenURL,
			BaseURL:      cfg.Ebay.BaseURL,
			Marketplace:  cfg.Ebay.Marketplace,
		}, opts...))
	}
	if cfg.AmazonEnabled() {
		retailers = append(retailers, retailer.NewAmazonClient(retailer.AmazonConfig{
			RapidAPIKey:  cfg.Amazon.RapidAPIKey,
			RapidAPIHost: cfg.Amazon.RapidAPIHost,
			BaseURL:      cfg.Amazon.BaseURL,
			AssociateTag: cfg.Amazon.AssociateTag,
			Country:      cfg.Amazon.Country,
		}, opts...))
	}
	return retailers
}
