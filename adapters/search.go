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

const searchPageSize = 100

// SearchAdapter reads products from a hosted search index (Algolia or
// Meilisearch style). Hits carry prices in cents, sizes and colours in an
// options array, and images grouped by colour.
type SearchAdapter struct {
	*BaseAdapter
}

// NewSearchAdapter creates a new search index adapter
func NewSearchAdapter(store types.StoreConfig, config *types.Config, logger types.Logger) *SearchAdapter {
	return &SearchAdapter{
		BaseAdapter: NewBaseAdapter(store, config, logger),
	}
}

// Schema describes a search hit.
func (s *SearchAdapter) Schema() normalize.Schema {
	return normalize.Schema{
		Source:      s.store.ID,
		BaseURL:     s.store.BaseURL,
		PriceUnit:   normalize.Minor,
		URL:         []string{"url", "slug"},
		ID:          []string{"objectID", "id"},
		Title:       []string{"name", "title"},
		Body:        []string{"description"},
		Vendor:      []string{"brand"},
		Category:    []string{"category"},
		Type:        []string{"type"},
		Tags:        []string{"tags"},
		Collections: []string{"collections"},
		Price:       []string{"price"},
		Images:      []string{"images"},
		Variants:    "skus",
		ColorImages: normalize.ColorImageSchema{Path: "colors", Color: "name", Images: "images"},
		Variant: normalize.VariantSchema{
			SKU:         []string{"sku"},
			SalePrice:   []string{"sale_price"},
			ListPrice:   []string{"list_price", "price"},
			Available:   []string{"in_stock"},
			Options:     "options",
			OptionName:  "name",
			OptionValue: "value",
		},
		SharedSKUAcrossColors: true,
		DefaultVendor:         s.store.Vendor,
	}
}

type searchRequest struct {
	IndexName   string `json:"indexName,omitempty"`
	Query       string `json:"query"`
	Page        int    `json:"page"`
	HitsPerPage int    `json:"hitsPerPage"`
}

// FetchProducts pages through the index until the reported page count,
// an empty page, or the page cap.
func (s *SearchAdapter) FetchProducts(ctx context.Context) ([]payload.Payload, error) {
	startTime := time.Now()
	s.logger.Infof("Starting index download for %s", s.store.ID)

	headers := map[string]string{}
	if s.store.APIKey != "" {
		headers["X-Algolia-API-Key"] = s.store.APIKey
		headers["Authorization"] = "Bearer " + s.store.APIKey
	}

	var products []payload.Payload
	maxPages := s.pageLimit(50)
	for page := 0; page < maxPages; page++ {
		req := searchRequest{IndexName: s.store.Index, Page: page, HitsPerPage: searchPageSize}
		body, err := s.httpClient.PostJSON(ctx, s.store.Endpoint, headers, req)
		if err != nil {
			if page == 0 {
				return nil, fmt.Errorf("failed to query search index: %w", err)
			}
			s.logger.Warnf("Stopping at page %d of %s: %v", page, s.store.ID, err)
			break
		}

		result := gjson.ParseBytes(body)
		hits := result.Get("hits").Array()
		for _, hit := range hits {
			products = append(products, payload.FromResult(hit))
		}
		s.logger.Debugf("Page %d returned %d hits (total so far: %d)", page, len(hits), len(products))

		if len(hits) == 0 {
			break
		}
		if pages := result.Get("nbPages"); pages.Exists() && page+1 >= int(pages.Int()) {
			break
		}
		if pages := result.Get("totalPages"); pages.Exists() && page+1 >= int(pages.Int()) {
			break
		}
	}

	s.logger.Infof("Downloaded %d raw products from %s in %v", len(products), s.store.ID, time.Since(startTime))
	return products, nil
}
