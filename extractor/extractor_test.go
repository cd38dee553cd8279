package extractor

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopify-catalog/adapters"
	"shopify-catalog/internal/catalog"
	"shopify-catalog/internal/normalize"
	"shopify-catalog/internal/payload"
	"shopify-catalog/internal/store"
	"shopify-catalog/internal/types"
)

type fakeAdapter struct {
	name   string
	raw    []payload.Payload
	err    error
	closed bool
}

func (f *fakeAdapter) Name() string { return f.name }

func (f *fakeAdapter) Schema() normalize.Schema {
	return normalize.Schema{
		Source:      f.name,
		BaseURL:     "https://" + f.name,
		URL:         []string{"handle"},
		Title:       []string{"title"},
		Tags:        []string{"tags"},
		OptionNames: "options.#.name",
		Variants:    "variants",
		Variant: normalize.VariantSchema{
			SKU:         []string{"sku"},
			ListPrice:   []string{"price"},
			Available:   []string{"available"},
			OptionSlots: []string{"option1", "option2"},
		},
	}
}

func (f *fakeAdapter) FetchProducts(ctx context.Context) ([]payload.Payload, error) {
	return f.raw, f.err
}

func (f *fakeAdapter) Close() { f.closed = true }

func factoryFor(fakes map[string]*fakeAdapter) AdapterFactory {
	return func(s types.StoreConfig, _ *types.Config, _ types.Logger) (adapters.Adapter, error) {
		f, ok := fakes[s.ID]
		if !ok {
			return nil, errors.New("no fake")
		}
		return f, nil
	}
}

func rawProducts() []payload.Payload {
	return []payload.Payload{
		payload.FromString(`{"handle": "dress-red", "title": "Summer Dress - Red", "tags": ["Dresses"],
			"options": [{"name": "Size"}, {"name": "Color"}],
			"variants": [{"sku": "D-R-S", "option1": "S", "option2": "Red", "price": "40"}]}`),
		payload.FromString(`{"handle": "dress-blue", "title": "Summer Dress - Blue",
			"options": [{"name": "Size"}, {"name": "Color"}],
			"variants": [{"sku": "D-B-S", "option1": "S", "option2": "Blue", "price": "40"}]}`),
		payload.FromString(`{"handle": "no-title"}`),
		payload.FromString(`{"handle": "sold-out", "title": "Sold Out",
			"variants": [{"sku": "X", "price": "10", "available": false}]}`),
	}
}

func TestNewExtractor(t *testing.T) {
	config := types.DefaultConfig()
	logger := logrus.New()

	extractor := NewExtractor(config, logger, []types.StoreConfig{{ID: "a"}, {ID: "b"}, {ID: "a"}})

	assert.NotNil(t, extractor)
	assert.Equal(t, config, extractor.config)
	assert.Equal(t, logger, extractor.logger)
	assert.Equal(t, []string{"a", "b"}, extractor.StoreIDs())
	assert.True(t, extractor.HasStore("b"))
	assert.False(t, extractor.HasStore("c"))
}

func TestExtractAll_EmptyStores(t *testing.T) {
	extractor := NewExtractor(types.DefaultConfig(), logrus.New(), nil)

	results, err := extractor.ExtractAll(context.Background(), []string{})

	require.NoError(t, err)
	assert.NotNil(t, results)
	assert.Empty(t, results.Stores)
}

func TestExtractAll_UnsupportedStore(t *testing.T) {
	extractor := NewExtractor(types.DefaultConfig(), logrus.New(), nil)

	results, err := extractor.ExtractAll(context.Background(), []string{"unsupported-store.com"})

	require.NoError(t, err)
	require.Len(t, results.Stores, 1)
	assert.Equal(t, "unsupported-store.com", results.Stores[0].StoreName)
	assert.Contains(t, results.Stores[0].Error, "no adapter found")
	assert.Equal(t, 1, results.FailedStores)
}

func TestExtractStore_PipelineBuildsMergesAndPersists(t *testing.T) {
	fake := &fakeAdapter{name: "shop.example.com", raw: rawProducts()}
	mem := store.NewMemoryStore()
	extractor := NewExtractor(types.DefaultConfig(), logrus.New(),
		[]types.StoreConfig{{ID: "shop.example.com", Gender: "women"}},
		WithAdapterFactory(factoryFor(map[string]*fakeAdapter{"shop.example.com": fake})),
		WithStore(mem),
	)

	result, err := extractor.ExtractStore(context.Background(), "shop.example.com")

	require.NoError(t, err)
	assert.True(t, fake.closed)
	assert.Equal(t, types.Report{
		Fetched: 4,
		Built:   2,
		Skipped: map[string]int{
			normalize.ErrMissingTitle.Error():      1,
			normalize.ErrNoSellableVariant.Error(): 1,
		},
		Merged: 1,
		Saved:  1,
	}, result.Report)

	require.Len(t, result.Products, 1)
	dress := result.Products[0]
	assert.Equal(t, "dress", dress.Handle)
	assert.Equal(t, "Summer Dress", dress.Title)
	require.Len(t, dress.Variants, 2)
	assert.Equal(t, "D-R-S", dress.Variants[0].SKU)
	assert.Equal(t, "D-B-S", dress.Variants[1].SKU)
	assert.Contains(t, dress.Tags, "women")

	saved, err := mem.LoadSite(context.Background(), "shop.example.com")
	require.NoError(t, err)
	assert.Len(t, saved, 1)

	colors, err := mem.Colors(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []catalog.ColorEntry{{Original: "Red"}, {Original: "Blue"}}, colors)
}

func TestExtractAll_FailingStoreDoesNotHaltBatch(t *testing.T) {
	fakes := map[string]*fakeAdapter{
		"broken": {name: "broken", err: errors.New("unexpected status code: 503")},
		"good":   {name: "good", raw: rawProducts()[:1]},
	}
	extractor := NewExtractor(types.DefaultConfig(), logrus.New(),
		[]types.StoreConfig{{ID: "broken"}, {ID: "good"}},
		WithAdapterFactory(factoryFor(fakes)),
	)

	results, err := extractor.ExtractAll(context.Background(), []string{"broken", "good"})

	require.NoError(t, err)
	require.Len(t, results.Stores, 2)
	assert.Contains(t, results.Stores[0].Error, "failed to fetch products")
	assert.Empty(t, results.Stores[1].Error)
	assert.Equal(t, 1, results.TotalProducts)
	assert.Equal(t, 1, results.FailedStores)
	assert.True(t, fakes["broken"].closed)
}

func TestExtractStore_EmptyFeedYieldsNoProducts(t *testing.T) {
	fake := &fakeAdapter{name: "empty"}
	extractor := NewExtractor(types.DefaultConfig(), logrus.New(),
		[]types.StoreConfig{{ID: "empty"}},
		WithAdapterFactory(factoryFor(map[string]*fakeAdapter{"empty": fake})),
	)

	result, err := extractor.ExtractStore(context.Background(), "empty")

	require.NoError(t, err)
	assert.Empty(t, result.Products)
	assert.Equal(t, 0, result.Report.Fetched)
}

func TestExtractAll_StopsWhenCancelled(t *testing.T) {
	extractor := NewExtractor(types.DefaultConfig(), logrus.New(), []types.StoreConfig{{ID: "a"}})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := extractor.ExtractAll(ctx, []string{"a"})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results.Stores)
}
