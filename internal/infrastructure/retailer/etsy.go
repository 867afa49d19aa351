package retailer

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/giftlens/backend/internal/domain"
	"github.com/rs/zerolog/log"
)

// DefaultEtsyBaseURL is the Etsy Open API v3 root
const DefaultEtsyBaseURL = "https://openapi.etsy.com"

// EtsyClient searches active Etsy listings
type EtsyClient struct {
	core    *httpCore
	apiKey  string
	baseURL string
}

// NewEtsyClient creates a new Etsy Open API v3 client
func NewEtsyClient(apiKey, baseURL string, opts ...Option) *EtsyClient {
	if baseURL == "" {
		baseURL = DefaultEtsyBaseURL
	}
	return &EtsyClient{
		core:    newHTTPCore("etsy", opts...),
		apiKey:  apiKey,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// Name identifies the retailer
func (c *EtsyClient) Name() string { return "etsy" }

// Search returns up to limit active listings matching query
func (c *EtsyClient) Search(ctx context.Context, query string, limit int) ([]domain.Product, error) {
	params := url.Values{}
	params.Set("keywords", query)
	params.Set("limit", strconv.Itoa(clampLimit(limit, 100)))
	params.Set("includes", "Images")
	reqURL := fmt.Sprintf("%s/v3/application/listings/active?%s", c.baseURL, params.Encode())

	header := http.Header{}
	header.Set("x-api-key", c.apiKey)

	var resp etsySearchResponse
	if err := c.core.getJSON(ctx, reqURL, header, &resp); err != nil {
		if errors.Is(err, errNoResults) {
			return nil, nil
		}
		return nil, err
	}

	products := make([]domain.Product, 0, len(resp.Results))
	for _, listing := range resp.Results {
		p := mapEtsyListing(listing)
		if p.Link == "" || p.Title == "" {
			continue
		}
		products = append(products, p)
	}

	log.Debug().Str("retailer", "etsy").Str("query", query).Int("count", len(products)).Msg("search complete")
	return products, nil
}
