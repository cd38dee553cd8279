package adapters

import (
	"context"
	"fmt"
	"time"

	"github.com/tidwall/gjson"

	"shopify-catalog/internal/normalize"
	"shopify-catalog/internal/payload"
	"shopify-catalog/internal/types"
)

const shopifyPageSize = 250

// ShopifyAdapter reads a Shopify storefront's public products.json feed
type ShopifyAdapter struct {
	*BaseAdapter
}

// NewShopifyAdapter creates a new Shopify adapter
func NewShopifyAdapter(store types.StoreConfig, config *types.Config, logger types.Logger) *ShopifyAdapter {
	return &ShopifyAdapter{
		BaseAdapter: NewBaseAdapter(store, config, logger),
	}
}

// Schema describes the products.json layout. Shopify prices are decimal
// strings in the shop currency.
func (s *ShopifyAdapter) Schema() normalize.Schema {
	return normalize.Schema{
		Source:         s.store.ID,
		BaseURL:        s.store.BaseURL,
		PriceUnit:      normalize.Major,
		URL:            []string{"handle"},
		ID:             []string{"id"},
		Title:          []string{"title"},
		Body:           []string{"body_html"},
		Vendor:         []string{"vendor"},
		Type:           []string{"product_type"},
		Tags:           []string{"tags"},
		OptionNames:    "options.#.name",
		Variants:       "variants",
		Images:         []string{"images"},
		ImageSrc:       []string{"src"},
		CompareAtPrice: []string{"compare_at_price"},
		Variant: normalize.VariantSchema{
			ID:             []string{"id"},
			SKU:            []string{"sku"},
			ListPrice:      []string{"price"},
			CompareAtPrice: []string{"compare_at_price"},
			Available:      []string{"available"},
			OptionSlots:    []string{"option1", "option2", "option3"},
			Title:          []string{"title"},
			Images:         []string{"featured_image.src"},
		},
		DefaultVendor: s.store.Vendor,
	}
}

// FetchProducts pages through products.json until an empty page or the
// page cap. A failing page after the first ends paging with what was read.
func (s *ShopifyAdapter) FetchProducts(ctx context.Context) ([]payload.Payload, error) {
	startTime := time.Now()
	s.logger.Infof("Starting product feed download for %s", s.store.ID)

	var products []payload.Payload
	maxPages := s.pageLimit(100)
	for page := 1; page <= maxPages; page++ {
		pageURL := s.storeURL(fmt.Sprintf("products.json?limit=%d&page=%d", shopifyPageSize, page))
		s.logger.Debugf("Fetching page %d: %s", page, pageURL)

		body, err := s.httpClient.Get(ctx, pageURL)
		if err != nil {
			if page == 1 {
				return nil, fmt.Errorf("failed to get products feed: %w", err)
			}
			s.logger.Warnf("Stopping at page %d of %s: %v", page, s.store.ID, err)
			break
		}

		items := gjson.GetBytes(body, "products").Array()
		if len(items) == 0 {
			break
		}
		for _, item := range items {
			products = append(products, payload.FromResult(item))
		}
		s.logger.Debugf("Page %d returned %d products (total so far: %d)", page, len(items), len(products))

		if len(items) < shopifyPageSize {
			break
		}
	}

	s.logger.Infof("Downloaded %d raw products from %s in %v", len(products), s.store.ID, time.Since(startTime))
	return products, nil
}
