package usecase

import (
	"net/url"
	"strings"

	"github.com/giftlens/backend/internal/domain"
	"github.com/rs/zerolog/log"
)

// Default diversity caps
const (
	defaultMaxPerInterest = 2
	defaultSourceShare    = 0.6
	defaultMinSourceCap   = 2
)

// CurationConfig holds the diversity caps applied to a curated gift list
type CurationConfig struct {
	MaxPerInterest int
	SourceShare    float64
	MinSourceCap   int
}

// withDefaults fills zero values with the default caps
func (c CurationConfig) withDefaults() CurationConfig {
	if c.MaxPerInterest <= 0 {
		c.MaxPerInterest = defaultMaxPerInterest
	}
	if c.SourceShare <= 0 || c.SourceShare > 1 {
		c.SourceShare = defaultSourceShare
	}
	if c.MinSourceCap <= 0 {
		c.MinSourceCap = defaultMinSourceCap
	}
	return c
}

// Caps are the per-run limits derived from a CurationConfig and a target count
type Caps struct {
	PerInterest int
	PerSource   int
}

// CapsFor computes the caps for a list of count gifts
func (c CurationConfig) CapsFor(count int) Caps {
	c = c.withDefaults()
	perSource := int(float64(count) * c.SourceShare)
	if perSource < c.MinSourceCap {
		perSource = c.MinSourceCap
	}
	return Caps{PerInterest: c.MaxPerInterest, PerSource: perSource}
}

// Verdict is the outcome for a single candidate gift
type Verdict string

const (
	VerdictAccepted   Verdict = "accepted"
	VerdictDeferred   Verdict = "deferred"
	VerdictRejected   Verdict = "rejected"
	VerdictBackfilled Verdict = "backfilled"
)

// Reason explains a deferral or rejection
type Reason string

const (
	ReasonNone           Reason = ""
	ReasonNotInInventory Reason = "not_in_inventory"
	ReasonDuplicateURL   Reason = "duplicate_url"
	ReasonBrandCap       Reason = "brand_cap"
	ReasonCategoryCap    Reason = "category_cap"
	ReasonInterestCap    Reason = "interest_cap"
	ReasonSourceCap      Reason = "source_cap"
	ReasonListFull       Reason = "list_full"
	ReasonDiversity      Reason = "diversity_backfill"
	ReasonRelaxed        Reason = "relaxed_backfill"
)

// Decision records what happened to one candidate. Index is the position in
// the curator's list, or -1 for backfilled inventory items.
type Decision struct {
	Index    int         `json:"index"`
	URL      string      `json:"url"`
	Verdict  Verdict     `json:"verdict"`
	Reason   Reason      `json:"reason,omitempty"`
	Brand    string      `json:"brand,omitempty"`
	Category string      `json:"category,omitempty"`
	Source   string      `json:"source,omitempty"`
	Gift     domain.Gift `json:"gift"`
}

// CurationResult is the finalized gift list plus the per-candidate decisions
type CurationResult struct {
	Gifts     []domain.Gift `json:"gifts"`
	Decisions []Decision    `json:"decisions"`
}

// Candidate is the set of grouping keys diversity rules look at
type Candidate struct {
	URL      string
	Brand    string
	Category string
	Interest string
	Source   string
}

// Usage tracks what the accepted list already covers.
// Each run owns its own Usage; nothing is shared between runs.
type Usage struct {
	URLs       map[string]bool
	Brands     map[string]bool
	Categories map[string]bool
	Interests  map[string]int
	Sources    map[string]int
}

// NewUsage creates empty bookkeeping
func NewUsage() *Usage {
	return &Usage{
		URLs:       make(map[string]bool),
		Brands:     make(map[string]bool),
		Categories: make(map[string]bool),
		Interests:  make(map[string]int),
		Sources:    make(map[string]int),
	}
}

// Record marks a candidate as part of the list
func (u *Usage) Record(c Candidate) {
	u.URLs[c.URL] = true
	if c.Brand != "" {
		u.Brands[c.Brand] = true
	}
	if c.Category != "" {
		u.Categories[c.Category] = true
	}
	if c.Interest != "" {
		u.Interests[c.Interest]++
	}
	u.Sources[c.Source]++
}

// Violation returns the first cap the candidate would break, or ReasonNone.
// Checked in gate order: brand, category, interest, source.
func (u *Usage) Violation(c Candidate, caps Caps) Reason {
	switch {
	case c.Brand != "" && u.Brands[c.Brand]:
		return ReasonBrandCap
	case c.Category != "" && u.Categories[c.Category]:
		return ReasonCategoryCap
	case c.Interest != "" && u.Interests[c.Interest] >= caps.PerInterest:
		return ReasonInterestCap
	case u.Sources[c.Source] >= caps.PerSource:
		return ReasonSourceCap
	}
	return ReasonNone
}

// DiversityEnforcer applies inventory closure and diversity caps to curator output
type DiversityEnforcer struct {
	taxonomy *Taxonomy
	config   CurationConfig
	selector *ReplacementSelector
}

// NewDiversityEnforcer creates an enforcer; a nil taxonomy uses the default one
func NewDiversityEnforcer(taxonomy *Taxonomy, config CurationConfig) *DiversityEnforcer {
	if taxonomy == nil {
		taxonomy = DefaultTaxonomy()
	}
	return &DiversityEnforcer{
		taxonomy: taxonomy,
		config:   config.withDefaults(),
		selector: NewReplacementSelector(taxonomy),
	}
}

// Enforce walks the curator's gifts in order and keeps at most count of them,
// backfilling from unused inventory when the list comes up short.
func (e *DiversityEnforcer) Enforce(gifts []domain.Gift, inventory []domain.Product, count int) *CurationResult {
	result := &CurationResult{Gifts: []domain.Gift{}}
	if count <= 0 {
		return result
	}

	caps := e.config.CapsFor(count)
	index := indexInventory(inventory)
	usage := NewUsage()

	for i, gift := range gifts {
		decision := Decision{Index: i, URL: gift.ProductURL}
		key := NormalizeLink(gift.ProductURL)

		pos, ok := index[key]
		if key == "" || !ok {
			decision.Verdict, decision.Reason = VerdictRejected, ReasonNotInInventory
			log.Info().Str("url", gift.ProductURL).Str("name", gift.Name).Msg("dropping curated gift not found in inventory")
			result.Decisions = append(result.Decisions, decision)
			continue
		}
		if usage.URLs[key] {
			decision.Verdict, decision.Reason = VerdictRejected, ReasonDuplicateURL
			result.Decisions = append(result.Decisions, decision)
			continue
		}

		product := inventory[pos]
		gift = e.finalizeGift(gift, product)
		cand := e.candidateFor(key, gift, product)
		decision.Gift = gift
		decision.Brand, decision.Category, decision.Source = cand.Brand, cand.Category, cand.Source

		if len(result.Gifts) >= count {
			decision.Verdict, decision.Reason = VerdictDeferred, ReasonListFull
			result.Decisions = append(result.Decisions, decision)
			continue
		}

		if reason := usage.Violation(cand, caps); reason != ReasonNone {
			decision.Verdict, decision.Reason = VerdictDeferred, reason
			log.Debug().Str("url", key).Str("reason", string(reason)).Str("brand", cand.Brand).
				Str("category", cand.Category).Msg("deferring curated gift")
			result.Decisions = append(result.Decisions, decision)
			continue
		}

		usage.Record(cand)
		decision.Verdict = VerdictAccepted
		result.Gifts = append(result.Gifts, gift)
		result.Decisions = append(result.Decisions, decision)
	}

	if needed := count - len(result.Gifts); needed > 0 {
		picks := e.selector.Select(needed, usage, inventory, caps)
		for _, pick := range picks {
			result.Gifts = append(result.Gifts, pick.Gift)
			result.Decisions = append(result.Decisions, Decision{
				Index:    -1,
				URL:      pick.Gift.ProductURL,
				Verdict:  VerdictBackfilled,
				Reason:   pick.Reason,
				Brand:    pick.Candidate.Brand,
				Category: pick.Candidate.Category,
				Source:   pick.Candidate.Source,
				Gift:     pick.Gift,
			})
		}
		if len(picks) > 0 {
			log.Info().Int("needed", needed).Int("backfilled", len(picks)).Msg("backfilled gift list from inventory")
		}
	}

	if len(result.Gifts) > count {
		result.Gifts = result.Gifts[:count]
	}
	return result
}

// finalizeGift cleans the title, pins the link to the inventory row and fills blanks from it
func (e *DiversityEnforcer) finalizeGift(gift domain.Gift, product domain.Product) domain.Gift {
	gift.ProductURL = product.Link
	name := gift.Name
	if strings.TrimSpace(name) == "" {
		name = product.Title
	}
	gift.Name = e.taxonomy.CleanTitle(name)

	if gift.SourceDomain == "" {
		gift.SourceDomain = product.SourceDomain
	}
	if gift.WhereToBuy == "" {
		gift.WhereToBuy = product.SourceDomain
	}
	if gift.Price == "" {
		gift.Price = product.Price
	}
	if gift.InterestMatch == "" {
		gift.InterestMatch = product.InterestMatch
	}
	if gift.ImageURL == "" {
		gift.ImageURL = product.BestImage()
	}
	if gift.GiftType == "" {
		gift.GiftType = "physical"
	}
	return gift
}

// candidateFor derives grouping keys, preferring the inventory row over curator text.
// The source always comes from the inventory row so it matches backfill scoring.
func (e *DiversityEnforcer) candidateFor(key string, gift domain.Gift, product domain.Product) Candidate {
	brand := e.taxonomy.ExtractBrand(product.Title)
	if brand == "" {
		brand = e.taxonomy.ExtractBrand(gift.Name)
	}
	category := e.taxonomy.DetectCategory(product.Title, product.Text())
	if category == "" {
		category = e.taxonomy.DetectCategory(gift.Name, gift.Description)
	}
	interest := product.InterestMatch
	if interest == "" {
		interest = gift.InterestMatch
	}
	return Candidate{
		URL:      key,
		Brand:    brand,
		Category: category,
		Interest: normalizeKey(interest),
		Source:   sourceKey(product.SourceDomain, product.Link),
	}
}

// CleanupCuratedGifts runs the enforcer with the default taxonomy and caps
func CleanupCuratedGifts(productGifts []domain.Gift, inventory []domain.Product, recCount int) []domain.Gift {
	return NewDiversityEnforcer(nil, CurationConfig{}).Enforce(productGifts, inventory, recCount).Gifts
}

// NormalizeLink trims whitespace and trailing slashes so links compare equal
func NormalizeLink(link string) string {
	return strings.TrimRight(strings.TrimSpace(link), "/")
}

// indexInventory maps normalized links to their first position in the pool
func indexInventory(inventory []domain.Product) map[string]int {
	index := make(map[string]int, len(inventory))
	for i, p := range inventory {
		key := NormalizeLink(p.Link)
		if key == "" {
			continue
		}
		if _, exists := index[key]; !exists {
			index[key] = i
		}
	}
	return index
}

func normalizeKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// sourceKey returns the first usable retailer identity, falling back to the link host
func sourceKey(candidates ...string) string {
	for i, c := range candidates {
		c = normalizeKey(c)
		if c == "" {
			continue
		}
		if i == len(candidates)-1 || strings.Contains(c, "://") {
			if u, err := url.Parse(c); err == nil && u.Host != "" {
				c = u.Host
			}
		}
		return strings.TrimPrefix(c, "www.")
	}
	return ""
}
