package usecase

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/giftlens/backend/internal/domain"
	"github.com/rs/zerolog/log"
)

// Package-level compiled regex patterns
var (
	punctuationRegex = regexp.MustCompile(`[^\w\s]`)

	// Product paths whose query string never changes product identity
	stableProductPathRegex = regexp.MustCompile(`(?i)(?:amazon\.[a-z.]+/(?:.*/)?dp/|etsy\.com/(?:[a-z]{2}/)?listing/|ebay\.[a-z.]+/itm/)`)
)

// Minimum overlapping words for a material to match an inventory product
const (
	minOverlapMultiWord  = 2
	minOverlapSingleWord = 1
)

// Search fallback retailers
const (
	retailerAmazon = "Amazon"
	retailerEtsy   = "Etsy"
	retailerEBay   = "eBay"
)

// MaterialsConfig holds configuration for the materials resolver
type MaterialsConfig struct {
	AmazonAssociateTag string
	EnableDebugLogging bool
}

// MaterialsResolver turns free-text "things to buy" into inventory links or
// retailer search links
type MaterialsResolver struct {
	taxonomy           *Taxonomy
	amazonAssociateTag string
	enableDebugLogging bool
}

// NewMaterialsResolver creates a resolver; a nil taxonomy uses the default one
func NewMaterialsResolver(taxonomy *Taxonomy, config MaterialsConfig) *MaterialsResolver {
	if taxonomy == nil {
		taxonomy = DefaultTaxonomy()
	}
	return &MaterialsResolver{
		taxonomy:           taxonomy,
		amazonAssociateTag: config.AmazonAssociateTag,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// Resolve returns a copy of materials, same length and order, where every item
// carries either a verified inventory link or a retailer search link.
// isBadURL reports links that must never be used; nil accepts everything.
func (r *MaterialsResolver) Resolve(materials []domain.MaterialItem, inventory []domain.Product, isBadURL func(string) bool) []domain.MaterialItem {
	if isBadURL == nil {
		isBadURL = func(string) bool { return false }
	}

	index := make(map[string]int, len(inventory))
	for i, p := range inventory {
		key := NormalizeProductURL(p.Link)
		if _, exists := index[key]; key != "" && !exists {
			index[key] = i
		}
	}

	resolved := make([]domain.MaterialItem, len(materials))
	for i, item := range materials {
		resolved[i] = r.resolveOne(item, inventory, index, isBadURL)
	}
	return resolved
}

func (r *MaterialsResolver) resolveOne(
	item domain.MaterialItem,
	inventory []domain.Product,
	index map[string]int,
	isBadURL func(string) bool,
) domain.MaterialItem {
	// Non-purchasable items never trust or search inventory
	if r.IsNonPurchasable(item.Item) {
		if r.enableDebugLogging {
			log.Debug().Str("item", item.Item).Msg("material is not purchasable, using search link")
		}
		return r.searchFallback(item)
	}

	if supplied := NormalizeProductURL(item.ProductURL); supplied != "" {
		if pos, ok := index[supplied]; ok {
			link := inventory[pos].Link
			if !isBadURL(link) {
				item.ProductURL = link
				item.IsSearchLink = false
				return item
			}
			log.Info().Str("item", item.Item).Str("url", item.ProductURL).Msg("inventory link rejected for material")
			return r.searchFallback(item)
		}
	}

	if product, score := r.bestInventoryMatch(item.Item, inventory, isBadURL); product != nil {
		if r.enableDebugLogging {
			log.Debug().Str("item", item.Item).Str("title", product.Title).Int("overlap", score).Msg("material matched inventory")
		}
		item.ProductURL = product.Link
		item.IsSearchLink = false
		return item
	}

	return r.searchFallback(item)
}

// IsNonPurchasable reports items such as playlists or handwritten letters
func (r *MaterialsResolver) IsNonPurchasable(item string) bool {
	return r.taxonomy.nonPurchasable != nil && r.taxonomy.nonPurchasable.MatchString(strings.ToLower(item))
}

// bestInventoryMatch returns the product with the largest word overlap above
// threshold. The first product wins ties. Bad links are skipped.
func (r *MaterialsResolver) bestInventoryMatch(item string, inventory []domain.Product, isBadURL func(string) bool) (*domain.Product, int) {
	itemTokens := r.tokenize(item)
	if len(itemTokens) == 0 {
		return nil, 0
	}

	threshold := minOverlapSingleWord
	if len(itemTokens) > 1 {
		threshold = minOverlapMultiWord
	}

	var best *domain.Product
	bestScore := threshold - 1
	for i := range inventory {
		p := &inventory[i]
		if p.Link == "" {
			continue
		}
		overlap, _ := findIntersection(itemTokens, r.tokenize(p.Title))
		if overlap > bestScore && !isBadURL(p.Link) {
			best, bestScore = p, overlap
		}
	}

	if best == nil {
		return nil, 0
	}
	return best, bestScore
}

// searchFallback points the item at a retailer keyword search
func (r *MaterialsResolver) searchFallback(item domain.MaterialItem) domain.MaterialItem {
	retailer := searchRetailerFor(item.WhereToBuy)
	item.ProductURL = r.BuildSearchURL(retailer, item.Item)
	item.IsSearchLink = true
	item.WhereToBuy = "Search " + retailer
	return item
}

// searchRetailerFor picks the search retailer from a free-text where_to_buy
func searchRetailerFor(whereToBuy string) string {
	lower := strings.ToLower(whereToBuy)
	switch {
	case strings.Contains(lower, "etsy"):
		return retailerEtsy
	case strings.Contains(lower, "ebay"):
		return retailerEBay
	default:
		return retailerAmazon
	}
}

// BuildSearchURL returns a keyword search URL on the given retailer
func (r *MaterialsResolver) BuildSearchURL(retailer, query string) string {
	query = strings.Join(strings.Fields(query), " ")
	if query == "" {
		query = "gift"
	}

	params := url.Values{}
	switch retailer {
	case retailerEtsy:
		params.Set("q", query)
		return "https://www.etsy.com/search?" + params.Encode()
	case retailerEBay:
		params.Set("_nkw", query)
		return "https://www.ebay.com/sch/i.html?" + params.Encode()
	default:
		params.Set("k", query)
		if r.amazonAssociateTag != "" {
			params.Set("tag", r.amazonAssociateTag)
		}
		return "https://www.amazon.com/s?" + params.Encode()
	}
}

// NormalizeProductURL trims whitespace and trailing slashes, and drops the
// query string from Amazon /dp/, Etsy /listing/ and eBay /itm/ links.
func NormalizeProductURL(raw string) string {
	link := strings.TrimSpace(raw)
	if link == "" {
		return ""
	}
	if stableProductPathRegex.MatchString(link) {
		if idx := strings.IndexAny(link, "?#"); idx >= 0 {
			link = link[:idx]
		}
	}
	return strings.TrimRight(link, "/")
}

// tokenize splits a string into lowercase meaningful words.
// Removes punctuation, stop words, one-letter and purely numeric tokens.
func (r *MaterialsResolver) tokenize(s string) []string {
	cleaned := punctuationRegex.ReplaceAllString(strings.ToLower(s), " ")

	var tokens []string
	for _, word := range strings.Fields(cleaned) {
		if len(word) <= 1 || isNumeric(word) || r.taxonomy.materialStopWords[word] {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

// findIntersection returns the count of distinct common tokens and the tokens themselves
func findIntersection(tokens1, tokens2 []string) (int, []string) {
	set := make(map[string]bool, len(tokens2))
	for _, t := range tokens2 {
		set[t] = true
	}

	var matched []string
	seen := make(map[string]bool)
	for _, t := range tokens1 {
		if set[t] && !seen[t] {
			matched = append(matched, t)
			seen[t] = true
		}
	}

	return len(matched), matched
}

// BackfillMaterialsLinks runs the resolver with the default taxonomy
func BackfillMaterialsLinks(materials []domain.MaterialItem, inventory []domain.Product, isBadURL func(string) bool) []domain.MaterialItem {
	return NewMaterialsResolver(nil, MaterialsConfig{}).Resolve(materials, inventory, isBadURL)
}
