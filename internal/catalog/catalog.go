// Package catalog holds the canonical, site-agnostic product record.
package catalog

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ColorsKey is the site key under which the shared colour vocabulary is stored.
const ColorsKey = "colors"

// Product is one sellable item of a site, with every source quirk resolved.
type Product struct {
	Handle   string    `json:"handle"`
	Title    string    `json:"title"`
	BodyHTML string    `json:"body_html"`
	Vendor   string    `json:"vendor"`
	Category string    `json:"category"`
	Type     string    `json:"type"`
	Tags     []string  `json:"tags"`
	Variants []Variant `json:"variants"`
}

// Variant is one purchasable size/colour/SKU combination.
// Prices are in the major unit of the destination currency.
type Variant struct {
	SKU            string          `json:"sku"`
	Size           string          `json:"size"`
	Color          string          `json:"color"`
	Price          decimal.Decimal `json:"price"`
	CompareAtPrice decimal.Decimal `json:"compare_at_price"`
	Images         []string        `json:"images"`
}

// ColorEntry is one row of the colour vocabulary. Mapped is filled in later
// by the colour enrichment job.
type ColorEntry struct {
	Original string `json:"original" bson:"original"`
	Mapped   string `json:"mapped" bson:"mapped"`
}

// Colors returns the distinct non-empty variant colours of products in
// first-seen order. Colours differing only in case are the same colour.
func Colors(products []Product) []string {
	seen := make(map[string]bool)
	var out []string
	for _, p := range products {
		for _, v := range p.Variants {
			c := strings.TrimSpace(v.Color)
			if c == "" {
				continue
			}
			key := strings.ToLower(c)
			if seen[key] {
				continue
			}
			seen[key] = true
			out = append(out, c)
		}
	}
	return out
}

// Clone returns a deep copy so callers can hand the product off without
// sharing slices.
func (p Product) Clone() Product {
	out := p
	out.Tags = append([]string(nil), p.Tags...)
	out.Variants = make([]Variant, len(p.Variants))
	for i, v := range p.Variants {
		v.Images = append([]string(nil), v.Images...)
		out.Variants[i] = v
	}
	return out
}
