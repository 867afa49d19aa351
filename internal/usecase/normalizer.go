package usecase

import (
	"regexp"
	"sort"
	"strings"
)

// CategoryRule maps a detection pattern to a category label.
// Rules are evaluated in order; the first match wins.
type CategoryRule struct {
	Name    string
	Pattern *regexp.Regexp
}

// Taxonomy holds the lookup tables used to derive brand and category keys
// from noisy marketplace titles, and the word lists used by the materials resolver.
type Taxonomy struct {
	brands            []string // normalized, see normalizeBrandText
	brandStopWords    map[string]bool
	categories        []CategoryRule
	nonPurchasable    *regexp.Regexp
	materialStopWords map[string]bool
}

// TaxonomyTables is the raw data a Taxonomy is built from
type TaxonomyTables struct {
	Brands              []string
	BrandStopWords      []string
	Categories          []CategoryRule
	NonPurchasableTerms []string
	MaterialStopWords   []string
}

// NewTaxonomy builds a Taxonomy from raw tables
func NewTaxonomy(tables TaxonomyTables) *Taxonomy {
	t := &Taxonomy{
		brandStopWords:    toSet(tables.BrandStopWords),
		categories:        tables.Categories,
		materialStopWords: toSet(tables.MaterialStopWords),
	}

	seen := make(map[string]bool, len(tables.Brands))
	for _, b := range tables.Brands {
		nb := normalizeBrandText(b)
		if nb == "" || seen[nb] {
			continue
		}
		seen[nb] = true
		t.brands = append(t.brands, nb)
	}

	if len(tables.NonPurchasableTerms) > 0 {
		quoted := make([]string, len(tables.NonPurchasableTerms))
		for i, term := range tables.NonPurchasableTerms {
			quoted[i] = regexp.QuoteMeta(strings.ToLower(term))
		}
		// Longest first so "hand-written" wins over "hand"
		sort.SliceStable(quoted, func(i, j int) bool { return len(quoted[i]) > len(quoted[j]) })
		t.nonPurchasable = regexp.MustCompile(`\b(?:` + strings.Join(quoted, "|") + `)\b`)
	}

	return t
}

var defaultTaxonomy = NewTaxonomy(DefaultTaxonomyTables())

// DefaultTaxonomy returns the shared built-in taxonomy. It is read-only.
func DefaultTaxonomy() *Taxonomy {
	return defaultTaxonomy
}

var (
	brandTextRegex  = regexp.MustCompile(`[^a-z0-9&'+]+`)
	brandTrimChars  = "&'+"
	multiSpaceRegex = regexp.MustCompile(`\s+`)
)

// normalizeBrandText lower-cases and reduces text to space separated tokens,
// keeping the punctuation that appears inside brand names.
func normalizeBrandText(s string) string {
	s = brandTextRegex.ReplaceAllString(strings.ToLower(s), " ")
	return strings.TrimSpace(multiSpaceRegex.ReplaceAllString(s, " "))
}

// ExtractBrand derives a brand key from a product title.
// Known brands win (longest match first); otherwise the first word is used
// unless it is a generic opener. Returns "" when nothing confident is found.
func (t *Taxonomy) ExtractBrand(title string) string {
	text := normalizeBrandText(title)
	if text == "" {
		return ""
	}

	padded := " " + text + " "
	best := ""
	for _, brand := range t.brands {
		if len(brand) > len(best) && strings.Contains(padded, " "+brand+" ") {
			best = brand
		}
	}
	if best != "" {
		return best
	}

	first := strings.Trim(strings.Fields(text)[0], brandTrimChars)
	if len(first) <= 1 || isNumeric(first) || t.brandStopWords[first] {
		return ""
	}
	return first
}

// DetectCategory returns the first category whose pattern matches the
// combined title and description, or "".
func (t *Taxonomy) DetectCategory(title, description string) string {
	text := strings.ToLower(title + " " + description)
	if strings.TrimSpace(text) == "" {
		return ""
	}
	for _, rule := range t.categories {
		if rule.Pattern != nil && rule.Pattern.MatchString(text) {
			return rule.Name
		}
	}
	return ""
}

// Compiled title cleanup patterns
var (
	// "(Pack of 6)", "(12 oz)", "[Model 2024]"
	parenSizePattern = regexp.MustCompile(`(?i)\s*[(\[][^)\]]*\b(?:pack|packs|count|ct|pcs|pieces?|sizes?|oz|ounces?|inch|inches|in|cm|mm|ml|lbs?|model|set of|qty|quantity)\b[^)\]]*[)\]]`)

	// "8x10", "16 x 20 inches", `12" x 18"`
	dimensionPattern = regexp.MustCompile(`(?i)\b\d+(?:\.\d+)?\s*(?:"|in|inch|inches|cm|mm|ft)?\s*[x×]\s*\d+(?:\.\d+)?(?:\s*[x×]\s*\d+(?:\.\d+)?)?(?:\s*"|\s*(?:inches|inch|in|cm|mm|ft)\b)?`)

	// "- Perfect Gift for Dad", "| Free Shipping"
	marketingTailPattern = regexp.MustCompile(`(?i)\s*[-–—|:,]\s*(?:perfect gifts?|great gifts?|gifts? for|gift ideas?|free shipping|fast shipping|best ?sellers?|ships free|ready to ship)\b.*$`)
	shippingTailPattern  = regexp.MustCompile(`(?i)\s*\b(?:free|fast) shipping\s*$`)

	// "BES870XL", "DCD771C2", "B08N5WRWNW"
	modelNumberPattern = regexp.MustCompile(`\b[A-Z]{1,6}\d{2,}[A-Z0-9]*\b`)

	skuPattern         = regexp.MustCompile(`\b\d{5,}\b`)
	emptyParensPattern = regexp.MustCompile(`[(\[]\s*[)\]]`)
	edgeSepPattern     = regexp.MustCompile(`^[\s\-–—|,;:/]+|[\s\-–—|,;:/]+$`)
)

const (
	minCleanTitleLen    = 5
	maxTitleWords       = 10
	truncatedTitleWords = 8
	minWordsBeforeComma = 3
	maxCleanPasses      = 5
)

// CleanTitle strips size and pack noise, model numbers, SKUs and marketing
// tails from a marketplace title. Passes repeat until the title is stable, so
// CleanTitle(CleanTitle(x)) == CleanTitle(x). If cleanup destroys the title,
// the original is returned.
func (t *Taxonomy) CleanTitle(title string) string {
	if strings.TrimSpace(title) == "" {
		return ""
	}

	cleaned := title
	for i := 0; i < maxCleanPasses; i++ {
		next := cleanTitlePass(cleaned)
		if next == cleaned {
			break
		}
		cleaned = next
	}

	if cleaned == "" || (len(cleaned) < minCleanTitleLen && len(title) > minCleanTitleLen) {
		return strings.TrimSpace(title)
	}
	return cleaned
}

// cleanTitlePass runs every strip step once. Model numbers and SKUs go first
// so a marketing tail behind them is reachable in the same pass.
func cleanTitlePass(title string) string {
	cleaned := parenSizePattern.ReplaceAllString(title, " ")
	cleaned = dimensionPattern.ReplaceAllString(cleaned, " ")
	cleaned = modelNumberPattern.ReplaceAllString(cleaned, " ")
	cleaned = skuPattern.ReplaceAllString(cleaned, " ")
	cleaned = emptyParensPattern.ReplaceAllString(cleaned, " ")
	cleaned = marketingTailPattern.ReplaceAllString(cleaned, "")
	cleaned = shippingTailPattern.ReplaceAllString(cleaned, "")

	// Trailing comma segments are usually material/color descriptors
	if idx := strings.Index(cleaned, ","); idx > 0 && len(strings.Fields(cleaned[:idx])) >= minWordsBeforeComma {
		cleaned = cleaned[:idx]
	}

	cleaned = tidyTitle(cleaned)

	if words := strings.Fields(cleaned); len(words) > maxTitleWords {
		cleaned = tidyTitle(strings.Join(words[:truncatedTitleWords], " "))
	}
	return cleaned
}

func tidyTitle(s string) string {
	s = multiSpaceRegex.ReplaceAllString(s, " ")
	s = edgeSepPattern.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// ExtractBrand uses the default taxonomy
func ExtractBrand(title string) string { return defaultTaxonomy.ExtractBrand(title) }

// DetectCategory uses the default taxonomy
func DetectCategory(title, description string) string {
	return defaultTaxonomy.DetectCategory(title, description)
}

// CleanTitle uses the default taxonomy
func CleanTitle(title string) string { return defaultTaxonomy.CleanTitle(title) }

func toSet(words []string) map[string]bool {
	set := make(map[string]bool, len(words))
	for _, w := range words {
		set[strings.ToLower(w)] = true
	}
	return set
}

// isNumeric checks if a string contains only digits
func isNumeric(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return len(s) > 0
}
