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
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
)

const (
	// DefaultEbayBaseURL is the production Browse API root
	DefaultEbayBaseURL = "https://api.ebay.com"
	// DefaultEbayTokenURL issues application access tokens
	DefaultEbayTokenURL = "https://api.ebay.com/identity/v1/oauth2/token"
	// DefaultEbayMarketplace is used when no marketplace is configured
	DefaultEbayMarketplace = "EBAY_US"

	ebayScope = "https://api.ebay.com/oauth/api_scope"
)

// EbayConfig holds eBay Browse API credentials
type EbayConfig struct {
	ClientID     string
	ClientSecret string
	TokenURL     string
	BaseURL      string
	Marketplace  string
}

// EbayClient searches eBay item summaries with an application token
type EbayClient struct {
	core        *httpCore
	baseURL     string
	marketplace string
}

// NewEbayClient creates a Browse API client. The OAuth2 client-credentials
// token is fetched lazily and refreshed by the transport.
func NewEbayClient(cfg EbayConfig, opts ...Option) *EbayClient {
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultEbayTokenURL
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultEbayBaseURL
	}
	if cfg.Marketplace == "" {
		cfg.Marketplace = DefaultEbayMarketplace
	}

	core := newHTTPCore("ebay", opts...)

	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		Scopes:       []string{ebayScope},
		AuthStyle:    oauth2.AuthStyleInHeader,
	}
	// Token requests reuse the base client so tests and timeouts apply to both.
	tokenCtx := context.WithValue(context.Background(), oauth2.HTTPClient, core.httpClient)
	authed := oauth2.NewClient(tokenCtx, bearerTokenSource{src: cc.TokenSource(tokenCtx)})
	authed.Timeout = core.httpClient.Timeout
	core.httpClient = authed

	return &EbayClient{
		core:        core,
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		marketplace: cfg.Marketplace,
	}
}

// bearerTokenSource forces the Bearer scheme. eBay reports token_type as
// "Application Access Token", which oauth2 would otherwise send verbatim.
type bearerTokenSource struct {
	src oauth2.TokenSource
}

func (b bearerTokenSource) Token() (*oauth2.Token, error) {
	tok, err := b.src.Token()
	if err != nil {
		return nil, fmt.Errorf("%w: ebay token: %v", domain.ErrRetailerFailure, err)
	}
	out := *tok
	out.TokenType = "Bearer"
	return &out, nil
}

// Name identifies the retailer
func (c *EbayClient) Name() string { return "ebay" }

// Search returns up to limit item summaries matching query
func (c *EbayClient) Search(ctx context.Context, query string, limit int) ([]domain.Product, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(clampLimit(limit, 200)))
	reqURL := fmt.Sprintf("%s/buy/browse/v1/item_summary/search?%s", c.baseURL, params.Encode())

	header := http.Header{}
	header.Set("X-EBAY-C-MARKETPLACE-ID", c.marketplace)

	var resp ebaySearchResponse
	if err := c.core.getJSON(ctx, reqURL, header, &resp); err != nil {
		if errors.Is(err, errNoResults) {
			return nil, nil
		}
		return nil, err
	}

	products := make([]domain.Product, 0, len(resp.ItemSummaries))
	for _, item := range resp.ItemSummaries {
		p := mapEbayItem(item)
		if p.Link == "" || p.Title == "" {
			continue
		}
		products = append(products, p)
	}

	log.Debug().Str("retailer", "ebay").Str("query", query).Int("count", len(products)).Msg("search complete")
	return products, nil
}
