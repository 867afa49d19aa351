package anthropic

import (
	"fmt"
	"strings"

	"github.com/giftlens/backend/internal/domain"
)

const systemPrompt = `You are an expert gift curator. You only recommend products that appear in the inventory you are given, and you answer with a single JSON object and nothing else.`

// BuildPrompt renders the recipient profile and a numbered inventory list
func BuildPrompt(profile *domain.Profile, inventory []domain.Product) string {
	var sb strings.Builder

	sb.WriteString("RECIPIENT\n")
	writeField(&sb, "Name", profile.RecipientName)
	writeField(&sb, "Relationship", profile.Relationship)
	writeField(&sb, "Occasion", profile.Occasion)
	writeField(&sb, "Location", profile.Location)
	writeField(&sb, "Budget", profile.Budget)

	if len(profile.Interests) > 0 {
		sb.WriteString("Interests:\n")
		for _, in := range profile.Interests {
			if in.Priority != "" {
				fmt.Fprintf(&sb, "- %s (%s priority)\n", in.Name, in.Priority)
			} else {
				fmt.Fprintf(&sb, "- %s\n", in.Name)
			}
		}
	}

	count := profile.Count
	if count <= 0 {
		count = 8
	}

	sb.WriteString("\nINVENTORY\n")
	for i, p := range inventory {
		fmt.Fprintf(&sb, "%d. %s\n   link: %s\n", i+1, p.Title, p.Link)
		if p.Price != "" {
			fmt.Fprintf(&sb, "   price: %s\n", p.Price)
		}
		if p.SourceDomain != "" {
			fmt.Fprintf(&sb, "   source: %s\n", p.SourceDomain)
		}
		if p.InterestMatch != "" {
			fmt.Fprintf(&sb, "   interest: %s\n", p.InterestMatch)
		}
	}

	fmt.Fprintf(&sb, `
TASK
Pick %d product gifts from the inventory above. Copy each product_url exactly from an inventory link. Spread picks across different interests, brands, product types and stores; do not pick two of the same kind of item.
Also suggest 2 or 3 experience gifts. For each, list the materials to buy in advance; use an inventory link for a material when one fits, otherwise leave product_url empty.

Respond with JSON only:
{
  "product_gifts": [
    {"name": "", "product_url": "", "interest_match": "", "where_to_buy": "", "price": "", "description": "", "why_perfect": "", "confidence_level": "safe_bet|adventurous"}
  ],
  "experience_gifts": [
    {"name": "", "description": "", "how_to_make_it_special": "", "location": "", "interest_match": "",
     "materials_needed": [{"item": "", "product_url": "", "estimated_price": "", "where_to_buy": ""}]}
  ]
}
`, count)

	return sb.String()
}

func writeField(sb *strings.Builder, label, value string) {
	if value == "" {
		return
	}
	fmt.Fprintf(sb, "%s: %s\n", label, value)
}
