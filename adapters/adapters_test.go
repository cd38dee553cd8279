package adapters

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopify-catalog/internal/normalize"
	"shopify-catalog/internal/types"
)

func testConfig() *types.Config {
	config := types.DefaultConfig()
	config.RequestDelay = 5 * time.Millisecond
	config.MaxRetries = 0
	config.Timeout = 5 * time.Second
	return config
}

func TestNew_SelectsAdapterByKind(t *testing.T) {
	logger := logrus.New()
	config := testConfig()

	cases := []struct {
		store types.StoreConfig
		want  interface{}
	}{
		{types.StoreConfig{ID: "a", BaseURL: "https://a.example.com"}, &ShopifyAdapter{}},
		{types.StoreConfig{ID: "b", Kind: KindSearch, BaseURL: "https://b.example.com", Endpoint: "https://search.example.com"}, &SearchAdapter{}},
		{types.StoreConfig{ID: "c", Kind: KindHTML, BaseURL: "https://c.example.com", Collections: []string{"/collections/all"}}, &HTMLAdapter{}},
	}
	for _, tc := range cases {
		adapter, err := New(tc.store, config, logger)
		require.NoError(t, err)
		assert.IsType(t, tc.want, adapter)
		assert.Equal(t, tc.store.ID, adapter.Name())
		adapter.Close()
	}
}

func TestNew_RejectsIncompleteStores(t *testing.T) {
	logger := logrus.New()
	config := testConfig()

	_, err := New(types.StoreConfig{Kind: KindShopify, BaseURL: "https://a.example.com"}, config, logger)
	assert.Error(t, err)

	_, err = New(types.StoreConfig{ID: "b", Kind: KindSearch, BaseURL: "https://b.example.com"}, config, logger)
	assert.ErrorContains(t, err, "endpoint")

	_, err = New(types.StoreConfig{ID: "c", Kind: KindHTML, BaseURL: "https://c.example.com"}, config, logger)
	assert.ErrorContains(t, err, "collections")

	_, err = New(types.StoreConfig{ID: "d", Kind: "graphql", BaseURL: "https://d.example.com"}, config, logger)
	assert.ErrorContains(t, err, "unsupported adapter kind")
}

func TestNew_CopiesConfig(t *testing.T) {
	config := testConfig()
	adapter, err := New(types.StoreConfig{ID: "a", BaseURL: "https://a.example.com"}, config, logrus.New())
	require.NoError(t, err)
	defer adapter.Close()

	adapter.(*ShopifyAdapter).Config().UseHeadlessBrowser = true
	assert.False(t, config.UseHeadlessBrowser)
}

func TestShopifyAdapter_FetchProductsPaginates(t *testing.T) {
	var pages []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products.json", r.URL.Path)
		assert.Equal(t, "250", r.URL.Query().Get("limit"))
		page := r.URL.Query().Get("page")
		pages = append(pages, page)

		w.Header().Set("Content-Type", "application/json")
		switch page {
		case "1":
			items := make([]string, shopifyPageSize)
			for i := range items {
				items[i] = fmt.Sprintf(`{"id": %d, "handle": "p-%d", "title": "P %d"}`, i, i, i)
			}
			fmt.Fprintf(w, `{"products": [%s]}`, strings.Join(items, ","))
		case "2":
			fmt.Fprint(w, `{"products": [{"id": 999, "handle": "last", "title": "Last"}]}`)
		default:
			t.Errorf("unexpected page %s", page)
		}
	}))
	defer server.Close()

	adapter := NewShopifyAdapter(types.StoreConfig{ID: "shop", BaseURL: server.URL}, testConfig(), logrus.New())
	defer adapter.Close()

	products, err := adapter.FetchProducts(context.Background())

	require.NoError(t, err)
	assert.Len(t, products, shopifyPageSize+1)
	assert.Equal(t, []string{"1", "2"}, pages)
	assert.Equal(t, "last", products[shopifyPageSize].String("handle"))
}

func TestShopifyAdapter_FirstPageFailureIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	adapter := NewShopifyAdapter(types.StoreConfig{ID: "shop", BaseURL: server.URL}, testConfig(), logrus.New())
	defer adapter.Close()

	_, err := adapter.FetchProducts(context.Background())
	assert.ErrorContains(t, err, "unexpected status code: 403")
}

func TestShopifyAdapter_SchemaBuildsFeedProducts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"products": [{
			"id": 7, "handle": "linen-shirt", "title": "Linen Shirt", "vendor": "Acme",
			"product_type": "Men's Shirts", "tags": ["Summer"],
			"options": [{"name": "Size"}, {"name": "Color"}],
			"images": [{"src": "//cdn.example.com/a.jpg"}],
			"variants": [
				{"id": 1, "sku": "LS-M", "option1": "M", "option2": "Olive", "price": "45.00", "available": true},
				{"id": 2, "sku": "LS-L", "option1": "L", "option2": "Olive", "price": "45.00", "available": false}
			]
		}]}`)
	}))
	defer server.Close()

	adapter := NewShopifyAdapter(types.StoreConfig{ID: "shop", BaseURL: server.URL, Gender: "men"}, testConfig(), logrus.New())
	defer adapter.Close()

	raw, err := adapter.FetchProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, raw, 1)

	product, err := normalize.NewBuilder(adapter.Schema()).Build(raw[0], "men")
	require.NoError(t, err)
	assert.Equal(t, "linen-shirt", product.Handle)
	assert.Equal(t, "Shirts", product.Type)
	require.Len(t, product.Variants, 1)
	assert.Equal(t, "M", product.Variants[0].Size)
	assert.Equal(t, "Olive", product.Variants[0].Color)
	assert.Equal(t, []string{"http://cdn.example.com/a.jpg"}, product.Variants[0].Images)
}

func TestSearchAdapter_FetchProductsStopsAtPageCount(t *testing.T) {
	var calls int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "key", r.Header.Get("X-Algolia-API-Key"))
		fmt.Fprintf(w, `{"hits": [{"objectID": "h%d", "name": "Hit"}], "nbPages": 2}`, calls)
	}))
	defer server.Close()

	store := types.StoreConfig{ID: "idx", Kind: KindSearch, BaseURL: "https://shop.example.com", Endpoint: server.URL, APIKey: "key", Index: "products"}
	adapter := NewSearchAdapter(store, testConfig(), logrus.New())
	defer adapter.Close()

	hits, err := adapter.FetchProducts(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
	require.Len(t, hits, 2)
	assert.Equal(t, "h2", hits[1].String("objectID"))
	assert.Equal(t, normalize.Minor, adapter.Schema().PriceUnit)
}

func TestSearchAdapter_EmptyPageEndsPaging(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"hits": []}`)
	}))
	defer server.Close()

	store := types.StoreConfig{ID: "idx", Kind: KindSearch, BaseURL: "https://shop.example.com", Endpoint: server.URL}
	adapter := NewSearchAdapter(store, testConfig(), logrus.New())
	defer adapter.Close()

	hits, err := adapter.FetchProducts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, hits)
}

const collectionPage = `<html><body>
<a href="/products/summer-dress?variant=1">Summer Dress</a>
<a href="/products/summer-dress">Summer Dress</a>
<a href="https://elsewhere.example.com/products/other">Other</a>
<a rel="next" href="/collections/dresses?page=2">Next</a>
</body></html>`

const collectionPage2 = `<html><body><a href="/products/broken">Broken</a></body></html>`

const productPage = `<html><head>
<script type="application/ld+json">{"@context": "https://schema.org", "@type": "BreadcrumbList"}</script>
<script type="application/ld+json">{
	"@context": "https://schema.org",
	"@graph": [{
		"@type": "ProductGroup", "productGroupID": "SD1", "name": "Summer Dress",
		"description": "<p>Light &amp; airy</p>", "brand": {"@type": "Brand", "name": "Acme"},
		"image": ["/img/dress.jpg"], "keywords": "Women Dresses, Summer",
		"hasVariant": [
			{"@type": "Product", "sku": "SD1-S", "size": "S", "color": "Red", "image": "/img/red.jpg",
			 "offers": {"@type": "Offer", "price": "59.90", "availability": "https://schema.org/InStock"}},
			{"@type": "Product", "sku": "SD1-M", "size": "M", "color": "Red",
			 "offers": {"@type": "Offer", "price": "59.90", "availability": "https://schema.org/OutOfStock"}}
		]
	}]
}</script></head><body></body></html>`

func TestHTMLAdapter_FetchProductsFromJSONLD(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/collections/dresses", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "2" {
			fmt.Fprint(w, collectionPage2)
			return
		}
		fmt.Fprint(w, collectionPage)
	})
	mux.HandleFunc("/products/summer-dress", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, productPage)
	})
	mux.HandleFunc("/products/broken", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body>no data</body></html>`)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	store := types.StoreConfig{ID: "html", Kind: KindHTML, BaseURL: server.URL, Collections: []string{"collections/dresses"}}
	adapter := NewHTMLAdapter(store, testConfig(), logrus.New())
	defer adapter.Close()

	urls, err := adapter.GetProductURLs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{server.URL + "/products/summer-dress", server.URL + "/products/broken"}, urls)

	raw, err := adapter.FetchProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, raw, 1)
	assert.Equal(t, "Acme", raw[0].String("brand"))

	product, err := normalize.NewBuilder(adapter.Schema()).Build(raw[0], "women")
	require.NoError(t, err)
	assert.Equal(t, "summer-dress", product.Handle)
	assert.Equal(t, "<p>Light &amp; airy</p>", product.BodyHTML)
	assert.Equal(t, "Dresses", product.Type)
	require.Len(t, product.Variants, 1)
	v := product.Variants[0]
	assert.Equal(t, "SD1-S", v.SKU)
	assert.Equal(t, "59.9", v.Price.String())
	assert.Equal(t, []string{server.URL + "/img/red.jpg"}, v.Images)
}

func TestBaseAdapter_AbsoluteURL(t *testing.T) {
	b := &BaseAdapter{}
	assert.Equal(t, "https://a.example.com/products/x", b.AbsoluteURL("https://a.example.com/collections/all", "/products/x?variant=2#top"))
	assert.Equal(t, "https://a.example.com/collections/products/y", b.AbsoluteURL("https://a.example.com/collections/all", "products/y"))
	assert.Equal(t, "", b.AbsoluteURL("https://a.example.com", "  "))
}

func TestBaseAdapter_RemoveDuplicateURLs(t *testing.T) {
	b := &BaseAdapter{}
	assert.Equal(t, []string{"a", "b"}, b.RemoveDuplicateURLs([]string{"a", "b", "a"}))
}
