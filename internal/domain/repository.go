package domain

import (
	"context"
	"time"
)

// CacheRepository defines the interface for caching operations.
// Values are opaque bytes; callers own the encoding.
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// RetailerSearcher is one affiliate catalog adapter
type RetailerSearcher interface {
	Name() string
	Search(ctx context.Context, query string, limit int) ([]Product, error)
}

// Curator selects gifts from an inventory pool
type Curator interface {
	Curate(ctx context.Context, profile *Profile, inventory []Product) (*CuratorResponse, error)
}

// LinkChecker reports whether a URL should never be shown to a user
type LinkChecker interface {
	IsBad(ctx context.Context, url string) bool
}

// RecommendationRepository persists finalized recommendations
type RecommendationRepository interface {
	Save(ctx context.Context, rec *Recommendation) error
	Get(ctx context.Context, id string) (*Recommendation, error)
	ListRecent(ctx context.Context, limit int) ([]*Recommendation, error)
}
