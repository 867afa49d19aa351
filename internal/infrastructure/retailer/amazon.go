package retailer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/giftlens/backend/internal/domain"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultAmazonHost is the RapidAPI product search host
	DefaultAmazonHost = "real-time-amazon-data.p.rapidapi.com"
)

// AmazonConfig holds RapidAPI credentials and the associate tag
type AmazonConfig struct {
	RapidAPIKey  string
	RapidAPIHost string
	BaseURL      string
	AssociateTag string
	Country      string
}

// AmazonClient searches Amazon through RapidAPI
type AmazonClient struct {
	core *httpCore
	cfg  AmazonConfig
}

// NewAmazonClient creates a RapidAPI Amazon search client
func NewAmazonClient(cfg AmazonConfig, opts ...Option) *AmazonClient {
	if cfg.RapidAPIHost == "" {
		cfg.RapidAPIHost = DefaultAmazonHost
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://" + cfg.RapidAPIHost
	}
	if cfg.Country == "" {
		cfg.Country = "US"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	return &AmazonClient{
		core: newHTTPCore("amazon", opts...),
		cfg:  cfg,
	}
}

// Name identifies the retailer
func (c *AmazonClient) Name() string { return "amazon" }

// Search returns up to limit products matching query. The API pages at a
// fixed size, so results are truncated locally.
func (c *AmazonClient) Search(ctx context.Context, query string, limit int) ([]domain.Product, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("country", c.cfg.Country)
	params.Set("page", "1")
	reqURL := fmt.Sprintf("%s/search?%s", c.cfg.BaseURL, params.Encode())

	header := http.Header{}
	header.Set("X-RapidAPI-Key", c.cfg.RapidAPIKey)
	header.Set("X-RapidAPI-Host", c.cfg.RapidAPIHost)

	var resp amazonSearchResponse
	if err := c.core.getJSON(ctx, reqURL, header, &resp); err != nil {
		if errors.Is(err, errNoResults) {
			return nil, nil
		}
		return nil, err
	}

	limit = clampLimit(limit, 48)
	products := make([]domain.Product, 0, limit)
	for _, ap := range resp.Data.Products {
		if len(products) >= limit {
			break
		}
		p := mapAmazonProduct(ap, c.cfg.AssociateTag)
		if p.Link == "" || p.Title == "" {
			continue
		}
		products = append(products, p)
	}

	log.Debug().Str("retailer", "amazon").Str("query", query).Int("count", len(products)).Msg("search complete")
	return products, nil
}
