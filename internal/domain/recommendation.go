package domain

import "time"

// Interest is one thing the recipient cares about
type Interest struct {
	Name     string `json:"name" binding:"required"`
	Priority string `json:"priority,omitempty"` // "high" or "medium"
}

// Profile describes the gift recipient for a recommendation run
type Profile struct {
	RecipientName string     `json:"recipientName,omitempty"`
	Relationship  string     `json:"relationship,omitempty"`
	Occasion      string     `json:"occasion,omitempty"`
	Location      string     `json:"location,omitempty"`
	Budget        string     `json:"budget,omitempty"`
	Interests     []Interest `json:"interests"`
	Count         int        `json:"count,omitempty"`
}

// Recommendation is the finalized output of one run
type Recommendation struct {
	ID              string           `json:"id"`
	ProfileKey      string           `json:"profileKey"`
	Gifts           []Gift           `json:"gifts"`
	ExperienceGifts []ExperienceGift `json:"experienceGifts,omitempty"`
	InventorySize   int              `json:"inventorySize"`
	Requested       int              `json:"requested"`
	Source          string           `json:"source"` // "Curator" or "Cache"
	CreatedAt       time.Time        `json:"createdAt"`
}
