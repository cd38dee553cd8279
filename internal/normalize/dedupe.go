package normalize

import (
	"strings"

	"shopify-catalog/internal/catalog"
)

type variantKey struct {
	size, sku, color string
}

// DedupeVariants removes later variants that repeat the (size, sku) pair of
// an earlier one, or (size, sku, color) when withColor is set. The first
// occurrence wins even if a later one has other prices or images, so the
// caller must order candidates best-first.
func DedupeVariants(variants []catalog.Variant, withColor bool) []catalog.Variant {
	seen := make(map[variantKey]bool, len(variants))
	out := make([]catalog.Variant, 0, len(variants))
	for _, v := range variants {
		k := variantKey{size: strings.ToLower(v.Size), sku: v.SKU}
		if withColor {
			k.color = strings.ToLower(v.Color)
		}
		if seen[k] {
			continue
		}
		seen[k] = true
		out = append(out, v)
	}
	return out
}

// DedupeImages drops blank and exactly repeated URLs, keeping order.
func DedupeImages(urls []string) []string {
	seen := make(map[string]bool, len(urls))
	out := make([]string, 0, len(urls))
	for _, u := range urls {
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}
