package adapters

import (
	"context"
	"fmt"

	"shopify-catalog/internal/normalize"
	"shopify-catalog/internal/payload"
	"shopify-catalog/internal/types"
)

// Adapter kinds accepted in the stores file.
const (
	KindShopify = "shopify"
	KindSearch  = "search"
	KindHTML    = "html"
)

// Adapter fetches raw product payloads from one source and describes their
// layout. Adapters never normalise; the Builder does that from Schema.
type Adapter interface {
	Name() string
	Schema() normalize.Schema
	FetchProducts(ctx context.Context) ([]payload.Payload, error)
	Close()
}

// New creates the adapter for store. Each adapter gets its own copy of
// config so per-source tweaks do not leak between stores.
func New(store types.StoreConfig, config *types.Config, logger types.Logger) (Adapter, error) {
	if err := requireField(store, "id", store.ID); err != nil {
		return nil, err
	}
	if err := requireField(store, "base_url", store.BaseURL); err != nil {
		return nil, err
	}

	cfg := *config
	switch store.Kind {
	case KindShopify, "":
		return NewShopifyAdapter(store, &cfg, logger), nil
	case KindSearch:
		if err := requireField(store, "endpoint", store.Endpoint); err != nil {
			return nil, err
		}
		return NewSearchAdapter(store, &cfg, logger), nil
	case KindHTML:
		if len(store.Collections) == 0 {
			return nil, fmt.Errorf("store %s: collections are required for html adapters", store.ID)
		}
		return NewHTMLAdapter(store, &cfg, logger), nil
	default:
		return nil, fmt.Errorf("store %s: unsupported adapter kind %q", store.ID, store.Kind)
	}
}
