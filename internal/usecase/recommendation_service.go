package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/giftlens/backend/internal/domain"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const (
	defaultRecommendationCount = 8
	defaultMaxRecommendations  = 20
	sourceCurator              = "Curator"
	sourceCache                = "Cache"
)

var nonAlphanumericRegex = regexp.MustCompile(`[^a-z0-9\s]`)

// InventorySource produces the inventory pool for a profile
type InventorySource interface {
	Collect(ctx context.Context, profile *domain.Profile) ([]domain.Product, error)
}

// RecommendationConfig holds configuration for the recommendation service
type RecommendationConfig struct {
	DefaultCount int
	MaxCount     int
	CacheTTL     time.Duration
	Curation     CurationConfig
	Materials    MaterialsConfig
}

// RecommendationService runs the end-to-end recommendation flow
type RecommendationService struct {
	inventory InventorySource
	curator   domain.Curator
	links     domain.LinkChecker
	store     domain.RecommendationRepository
	cache     domain.CacheRepository
	enforcer  *DiversityEnforcer
	resolver  *MaterialsResolver
	config    RecommendationConfig
	now       func() time.Time
}

// NewRecommendationService wires the service. links, store and cache may be nil.
func NewRecommendationService(
	inventory InventorySource,
	curator domain.Curator,
	links domain.LinkChecker,
	store domain.RecommendationRepository,
	cache domain.CacheRepository,
	config RecommendationConfig,
) *RecommendationService {
	if config.DefaultCount <= 0 {
		config.DefaultCount = defaultRecommendationCount
	}
	if config.MaxCount <= 0 {
		config.MaxCount = defaultMaxRecommendations
	}
	if config.CacheTTL == 0 {
		config.CacheTTL = 24 * time.Hour
	}

	taxonomy := DefaultTaxonomy()
	return &RecommendationService{
		inventory: inventory,
		curator:   curator,
		links:     links,
		store:     store,
		cache:     cache,
		enforcer:  NewDiversityEnforcer(taxonomy, config.Curation),
		resolver:  NewMaterialsResolver(taxonomy, config.Materials),
		config:    config,
		now:       time.Now,
	}
}

// Recommend builds a recommendation for profile.
// Flow: validate -> cache -> collect -> curate -> cleanup -> materials -> persist -> cache
func (s *RecommendationService) Recommend(ctx context.Context, profile *domain.Profile) (*domain.Recommendation, error) {
	count, err := s.validate(profile)
	if err != nil {
		return nil, err
	}

	key := ProfileKey(profile, count)

	if cached, err := s.getFromCache(ctx, key); err == nil {
		cached.Source = sourceCache
		return cached, nil
	}

	inventory, err := s.inventory.Collect(ctx, profile)
	if err != nil {
		return nil, err
	}

	curated, err := s.curator.Curate(ctx, profile, inventory)
	if err != nil {
		return nil, err
	}

	result := s.enforcer.Enforce(curated.ProductGifts, inventory, count)
	logDecisions(result)

	isBad := s.linkPredicate(ctx)
	experiences := make([]domain.ExperienceGift, len(curated.ExperienceGifts))
	for i, exp := range curated.ExperienceGifts {
		exp.MaterialsNeeded = s.resolver.Resolve(exp.MaterialsNeeded, inventory, isBad)
		experiences[i] = exp
	}

	rec := &domain.Recommendation{
		ID:              uuid.NewString(),
		ProfileKey:      key,
		Gifts:           result.Gifts,
		ExperienceGifts: experiences,
		InventorySize:   len(inventory),
		Requested:       count,
		Source:          sourceCurator,
		CreatedAt:       s.now().UTC(),
	}

	if len(rec.Gifts) < count {
		log.Info().Int("requested", count).Int("returned", len(rec.Gifts)).Msg("short recommendation list")
	}

	if s.store != nil {
		if err := s.store.Save(ctx, rec); err != nil {
			log.Error().Err(err).Str("id", rec.ID).Msg("failed to persist recommendation")
		}
	}
	if err := s.setInCache(ctx, key, rec); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("failed to cache recommendation")
	}

	return rec, nil
}

// Get loads a persisted recommendation
func (s *RecommendationService) Get(ctx context.Context, id string) (*domain.Recommendation, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.ErrInvalidRequest
	}
	if s.store == nil {
		return nil, domain.ErrNotFound
	}
	return s.store.Get(ctx, id)
}

// Recent lists the latest persisted recommendations
func (s *RecommendationService) Recent(ctx context.Context, limit int) ([]*domain.Recommendation, error) {
	if s.store == nil {
		return []*domain.Recommendation{}, nil
	}
	return s.store.ListRecent(ctx, limit)
}

// Cleanup runs the diversity enforcer with the configured caps
func (s *RecommendationService) Cleanup(gifts []domain.Gift, inventory []domain.Product, count int) *CurationResult {
	return s.enforcer.Enforce(gifts, inventory, count)
}

// ResolveMaterials runs the materials resolver with the configured associate tag
func (s *RecommendationService) ResolveMaterials(materials []domain.MaterialItem, inventory []domain.Product, isBadURL func(string) bool) []domain.MaterialItem {
	return s.resolver.Resolve(materials, inventory, isBadURL)
}

func (s *RecommendationService) validate(profile *domain.Profile) (int, error) {
	if profile == nil {
		return 0, domain.ErrInvalidRequest
	}

	hasInterest := false
	for _, in := range profile.Interests {
		if strings.TrimSpace(in.Name) != "" {
			hasInterest = true
			break
		}
	}
	if !hasInterest && strings.TrimSpace(profile.RecipientName) == "" {
		return 0, fmt.Errorf("%w: recipient name or at least one interest is required", domain.ErrInvalidRequest)
	}

	count := profile.Count
	if count == 0 {
		count = s.config.DefaultCount
	}
	if count < 0 || count > s.config.MaxCount {
		return 0, fmt.Errorf("%w: count must be between 1 and %d", domain.ErrInvalidRequest, s.config.MaxCount)
	}
	return count, nil
}

func (s *RecommendationService) linkPredicate(ctx context.Context) func(string) bool {
	if s.links == nil {
		return nil
	}
	return func(u string) bool {
		return s.links.IsBad(ctx, u)
	}
}

// getFromCache retrieves a recommendation from cache
func (s *RecommendationService) getFromCache(ctx context.Context, key string) (*domain.Recommendation, error) {
	if s.cache == nil {
		return nil, domain.ErrCacheMiss
	}
	raw, err := s.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			log.Warn().Err(err).Str("key", key).Msg("cache read failed")
		}
		return nil, err
	}

	var rec domain.Recommendation
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, domain.ErrCacheMiss
	}
	return &rec, nil
}

// setInCache stores a recommendation in cache
func (s *RecommendationService) setInCache(ctx context.Context, key string, rec *domain.Recommendation) error {
	if s.cache == nil {
		return nil
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, key, raw, s.config.CacheTTL)
}

// ProfileKey creates a normalized cache key for a profile and count.
// Format: "recommendation:{interest@priority,...}:{recipient}:{relationship}:{occasion}:{budget}:{location}:{count}"
func ProfileKey(profile *domain.Profile, count int) string {
	interests := make([]string, 0, len(profile.Interests))
	for _, in := range profile.Interests {
		name := normalizeForCacheKey(in.Name)
		if name == "" {
			continue
		}
		priority := normalizeForCacheKey(in.Priority)
		if priority == "" {
			priority = priorityMedium
		}
		interests = append(interests, name+"@"+priority)
	}

	parts := []string{
		"recommendation",
		strings.Join(interests, ","),
		normalizeForCacheKey(profile.RecipientName),
		normalizeForCacheKey(profile.Relationship),
		normalizeForCacheKey(profile.Occasion),
		normalizeForCacheKey(profile.Budget),
		normalizeForCacheKey(profile.Location),
		strconv.Itoa(count),
	}
	return strings.Join(parts, ":")
}

// normalizeForCacheKey lower-cases, strips punctuation and collapses spaces
func normalizeForCacheKey(s string) string {
	if s == "" {
		return ""
	}
	result := strings.ToLower(s)
	result = nonAlphanumericRegex.ReplaceAllString(result, "")
	result = multiSpaceRegex.ReplaceAllString(result, " ")
	return strings.TrimSpace(result)
}

func logDecisions(result *CurationResult) {
	counts := make(map[Verdict]int)
	for _, d := range result.Decisions {
		counts[d.Verdict]++
	}
	log.Info().
		Int("accepted", counts[VerdictAccepted]).
		Int("deferred", counts[VerdictDeferred]).
		Int("rejected", counts[VerdictRejected]).
		Int("backfilled", counts[VerdictBackfilled]).
		Int("final", len(result.Gifts)).
		Msg("curation complete")
}
