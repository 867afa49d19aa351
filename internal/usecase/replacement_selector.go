package usecase

import (
	"fmt"

	"github.com/giftlens/backend/internal/domain"
)

// Diversity score weights
const (
	scoreNewBrand       = 2
	scoreNewCategory    = 2
	scoreInterestRoom   = 1
	scoreUnseenSource   = 3
	scoreSourceHeadroom = 1
)

// DiversityScore rates how much variety a candidate would add to a list
// described by usage. It reads usage and never modifies it.
func DiversityScore(c Candidate, usage *Usage, caps Caps) int {
	score := 0
	if !usage.Brands[c.Brand] {
		score += scoreNewBrand
	}
	if !usage.Categories[c.Category] {
		score += scoreNewCategory
	}
	if usage.Interests[c.Interest] < caps.PerInterest {
		score += scoreInterestRoom
	}
	switch n := usage.Sources[c.Source]; {
	case n == 0:
		score += scoreUnseenSource
	case n < caps.PerSource:
		score += scoreSourceHeadroom
	}
	return score
}

// Replacement is one backfilled gift and the keys it was scored on
type Replacement struct {
	Gift      domain.Gift
	Candidate Candidate
	Score     int
	Reason    Reason
}

// ReplacementSelector fills gaps in a curated list from unused inventory
type ReplacementSelector struct {
	taxonomy *Taxonomy
}

// NewReplacementSelector creates a selector; a nil taxonomy uses the default one
func NewReplacementSelector(taxonomy *Taxonomy) *ReplacementSelector {
	if taxonomy == nil {
		taxonomy = DefaultTaxonomy()
	}
	return &ReplacementSelector{taxonomy: taxonomy}
}

type pooledProduct struct {
	product   domain.Product
	candidate Candidate
	taken     bool
}

// Select picks up to needed products whose links are not in usage, one slot at
// a time. Candidates that respect every cap are preferred; caps are relaxed
// only when no such candidate is left. Ties go to the earlier inventory row.
// usage is updated with every pick.
func (s *ReplacementSelector) Select(needed int, usage *Usage, inventory []domain.Product, caps Caps) []Replacement {
	if needed <= 0 {
		return nil
	}

	pool := make([]*pooledProduct, 0, len(inventory))
	seen := make(map[string]bool, len(inventory))
	for _, p := range inventory {
		key := NormalizeLink(p.Link)
		if key == "" || usage.URLs[key] || seen[key] {
			continue
		}
		seen[key] = true
		pool = append(pool, &pooledProduct{product: p, candidate: s.candidateFor(key, p)})
	}

	var picks []Replacement
	for len(picks) < needed {
		best, bestScore, relaxed := -1, -1, false
		for pass := 0; pass < 2 && best < 0; pass++ {
			for i, item := range pool {
				if item.taken {
					continue
				}
				if pass == 0 && usage.Violation(item.candidate, caps) != ReasonNone {
					continue
				}
				if score := DiversityScore(item.candidate, usage, caps); score > bestScore {
					best, bestScore = i, score
				}
			}
			relaxed = pass == 1
		}
		if best < 0 {
			break
		}

		item := pool[best]
		item.taken = true
		usage.Record(item.candidate)

		reason := ReasonDiversity
		if relaxed {
			reason = ReasonRelaxed
		}
		picks = append(picks, Replacement{
			Gift:      s.giftFromProduct(item.product),
			Candidate: item.candidate,
			Score:     bestScore,
			Reason:    reason,
		})
	}

	return picks
}

func (s *ReplacementSelector) candidateFor(key string, p domain.Product) Candidate {
	return Candidate{
		URL:      key,
		Brand:    s.taxonomy.ExtractBrand(p.Title),
		Category: s.taxonomy.DetectCategory(p.Title, p.Text()),
		Interest: normalizeKey(p.InterestMatch),
		Source:   sourceKey(p.SourceDomain, p.Link),
	}
}

// giftFromProduct synthesizes a gift record from a raw inventory row
func (s *ReplacementSelector) giftFromProduct(p domain.Product) domain.Gift {
	why := "A well-reviewed pick that adds variety to the list."
	if p.InterestMatch != "" {
		why = fmt.Sprintf("A well-reviewed %s pick that adds variety to the list.", p.InterestMatch)
	}
	return domain.Gift{
		Name:            s.taxonomy.CleanTitle(p.Title),
		ProductURL:      p.Link,
		InterestMatch:   p.InterestMatch,
		WhereToBuy:      p.SourceDomain,
		SourceDomain:    p.SourceDomain,
		Price:           p.Price,
		Description:     p.Text(),
		WhyPerfect:      why,
		ConfidenceLevel: "safe_bet",
		GiftType:        "physical",
		ImageURL:        p.BestImage(),
	}
}
