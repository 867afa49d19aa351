package domain

// Product is one inventory row returned by a retailer search.
// Link is the identity key within an inventory pool.
type Product struct {
	Title         string `json:"title"`
	Link          string `json:"link"`
	Snippet       string `json:"snippet,omitempty"`
	Description   string `json:"description,omitempty"`
	Price         string `json:"price,omitempty"`
	SourceDomain  string `json:"source_domain,omitempty"`
	InterestMatch string `json:"interest_match,omitempty"`
	Priority      string `json:"priority,omitempty"` // "high" or "medium"
	Image         string `json:"image,omitempty"`
	Thumbnail     string `json:"thumbnail,omitempty"`
	ImageURL      string `json:"image_url,omitempty"`
}

// BestImage returns the first non-empty image candidate
func (p Product) BestImage() string {
	for _, img := range []string{p.Image, p.Thumbnail, p.ImageURL} {
		if img != "" {
			return img
		}
	}
	return ""
}

// Text returns the free-text body of the product (snippet, else description)
func (p Product) Text() string {
	if p.Snippet != "" {
		return p.Snippet
	}
	return p.Description
}

// Gift is a curated or finalized physical gift recommendation.
// ProductURL must resolve to a Product.Link of the originating inventory.
type Gift struct {
	Name            string `json:"name"`
	ProductURL      string `json:"product_url"`
	InterestMatch   string `json:"interest_match,omitempty"`
	WhereToBuy      string `json:"where_to_buy,omitempty"`
	SourceDomain    string `json:"source_domain,omitempty"`
	Price           string `json:"price,omitempty"`
	Description     string `json:"description,omitempty"`
	WhyPerfect      string `json:"why_perfect,omitempty"`
	ConfidenceLevel string `json:"confidence_level,omitempty"`
	GiftType        string `json:"gift_type,omitempty"`
	ImageURL        string `json:"image_url,omitempty"`
}

// MaterialItem is a thing to buy in advance for an experience gift
type MaterialItem struct {
	Item           string `json:"item"`
	ProductURL     string `json:"product_url"`
	EstimatedPrice string `json:"estimated_price,omitempty"`
	WhereToBuy     string `json:"where_to_buy,omitempty"`
	IsSearchLink   bool   `json:"is_search_link"`
}

// ExperienceGift is an experience suggestion from the curator
type ExperienceGift struct {
	Name               string         `json:"name"`
	Description        string         `json:"description,omitempty"`
	HowToMakeItSpecial string         `json:"how_to_make_it_special,omitempty"`
	Location           string         `json:"location,omitempty"`
	InterestMatch      string         `json:"interest_match,omitempty"`
	MaterialsNeeded    []MaterialItem `json:"materials_needed,omitempty"`
	ConfidenceLevel    string         `json:"confidence_level,omitempty"`
}

// CuratorResponse is the JSON object returned by the LLM curator
type CuratorResponse struct {
	ProductGifts    []Gift           `json:"product_gifts"`
	ExperienceGifts []ExperienceGift `json:"experience_gifts,omitempty"`
}
