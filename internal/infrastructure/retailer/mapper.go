package retailer

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/giftlens/backend/internal/domain"
)

const (
	etsyDomain   = "etsy.com"
	ebayDomain   = "ebay.com"
	amazonDomain = "amazon.com"
)

// etsyListing is the subset of an Etsy v3 listing we read
type etsyListing struct {
	ListingID   int64  `json:"listing_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	URL         string `json:"url"`
	Price       struct {
		Amount       int64  `json:"amount"`
		Divisor      int64  `json:"divisor"`
		CurrencyCode string `json:"currency_code"`
	} `json:"price"`
	Images []struct {
		URL570xN     string `json:"url_570xN"`
		URL170x135   string `json:"url_170x135"`
		URLFullxFull string `json:"url_fullxfull"`
	} `json:"images"`
}

type etsySearchResponse struct {
	Count   int           `json:"count"`
	Results []etsyListing `json:"results"`
}

type ebayItemSummary struct {
	ItemID           string `json:"itemId"`
	Title            string `json:"title"`
	ShortDescription string `json:"shortDescription"`
	ItemWebURL       string `json:"itemWebUrl"`
	Price            struct {
		Value    string `json:"value"`
		Currency string `json:"currency"`
	} `json:"price"`
	Image struct {
		ImageURL string `json:"imageUrl"`
	} `json:"image"`
	ThumbnailImages []struct {
		ImageURL string `json:"imageUrl"`
	} `json:"thumbnailImages"`
}

type ebaySearchResponse struct {
	Total         int               `json:"total"`
	ItemSummaries []ebayItemSummary `json:"itemSummaries"`
}

type amazonProduct struct {
	ASIN         string `json:"asin"`
	ProductTitle string `json:"product_title"`
	ProductPrice string `json:"product_price"`
	ProductURL   string `json:"product_url"`
	ProductPhoto string `json:"product_photo"`
}

type amazonSearchResponse struct {
	Status string `json:"status"`
	Data   struct {
		Products []amazonProduct `json:"products"`
	} `json:"data"`
}

// mapEtsyListing converts an Etsy listing to a domain product
func mapEtsyListing(l etsyListing) domain.Product {
	p := domain.Product{
		Title:        strings.TrimSpace(l.Title),
		Link:         l.URL,
		Description:  strings.TrimSpace(l.Description),
		SourceDomain: etsyDomain,
	}
	if p.Link == "" && l.ListingID != 0 {
		p.Link = fmt.Sprintf("https://www.etsy.com/listing/%d", l.ListingID)
	}
	if l.Price.Divisor > 0 {
		p.Price = formatPrice(float64(l.Price.Amount)/float64(l.Price.Divisor), l.Price.CurrencyCode)
	}
	if len(l.Images) > 0 {
		p.ImageURL = l.Images[0].URL570xN
		if p.ImageURL == "" {
			p.ImageURL = l.Images[0].URLFullxFull
		}
		p.Thumbnail = l.Images[0].URL170x135
	}
	return p
}

// mapEbayItem converts an eBay item summary to a domain product
func mapEbayItem(item ebayItemSummary) domain.Product {
	p := domain.Product{
		Title:        strings.TrimSpace(item.Title),
		Link:         item.ItemWebURL,
		Snippet:      strings.TrimSpace(item.ShortDescription),
		SourceDomain: ebayDomain,
		ImageURL:     item.Image.ImageURL,
	}
	if item.Price.Value != "" {
		if v, err := strconv.ParseFloat(item.Price.Value, 64); err == nil {
			p.Price = formatPrice(v, item.Price.Currency)
		} else {
			p.Price = strings.TrimSpace(item.Price.Value + " " + item.Price.Currency)
		}
	}
	if len(item.ThumbnailImages) > 0 {
		p.Thumbnail = item.ThumbnailImages[0].ImageURL
	}
	return p
}

// mapAmazonProduct converts a RapidAPI Amazon search result to a domain
// product, tagging the product link with the associate tag when set.
func mapAmazonProduct(ap amazonProduct, associateTag string) domain.Product {
	link := ap.ProductURL
	if link == "" && ap.ASIN != "" {
		link = "https://www.amazon.com/dp/" + ap.ASIN
	}
	return domain.Product{
		Title:        strings.TrimSpace(ap.ProductTitle),
		Link:         withAssociateTag(link, associateTag),
		Price:        strings.TrimSpace(ap.ProductPrice),
		SourceDomain: amazonDomain,
		ImageURL:     ap.ProductPhoto,
	}
}

func withAssociateTag(link, tag string) string {
	if link == "" || tag == "" {
		return link
	}
	u, err := url.Parse(link)
	if err != nil {
		return link
	}
	q := u.Query()
	q.Set("tag", tag)
	u.RawQuery = q.Encode()
	return u.String()
}

func formatPrice(value float64, currency string) string {
	switch strings.ToUpper(currency) {
	case "", "USD":
		return fmt.Sprintf("$%.2f", value)
	default:
		return fmt.Sprintf("%.2f %s", value, strings.ToUpper(currency))
	}
}
