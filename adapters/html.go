package adapters

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/tidwall/gjson"

	"shopify-catalog/internal/normalize"
	"shopify-catalog/internal/payload"
	"shopify-catalog/internal/types"
)

const (
	productLinkSelector = "a[href*='/products/']"
	jsonLDSelector      = `script[type="application/ld+json"]`
)

// HTMLAdapter crawls collection pages for product links and reads each
// product page's schema.org JSON-LD. It covers storefronts that expose no
// JSON feed.
type HTMLAdapter struct {
	*BaseAdapter
}

// NewHTMLAdapter creates a new HTML storefront adapter
func NewHTMLAdapter(store types.StoreConfig, config *types.Config, logger types.Logger) *HTMLAdapter {
	return &HTMLAdapter{
		BaseAdapter: NewBaseAdapter(store, config, logger),
	}
}

// Schema describes the payload FetchProducts assembles from JSON-LD.
func (h *HTMLAdapter) Schema() normalize.Schema {
	return normalize.Schema{
		Source:    h.store.ID,
		BaseURL:   h.store.BaseURL,
		PriceUnit: normalize.Major,
		URL:       []string{"url"},
		ID:        []string{"id"},
		Title:     []string{"name"},
		Body:      []string{"description"},
		Vendor:    []string{"brand"},
		Category:  []string{"category"},
		Tags:      []string{"keywords"},
		Price:     []string{"price"},
		Images:    []string{"images"},
		Variants:  "variants",
		Variant: normalize.VariantSchema{
			SKU:       []string{"sku"},
			Size:      []string{"size"},
			Color:     []string{"color"},
			ListPrice: []string{"price"},
			Available: []string{"availability"},
			Title:     []string{"name"},
			Images:    []string{"image"},
		},
		DefaultVendor: h.store.Vendor,
	}
}

// FetchProducts discovers product URLs from the configured collections and
// turns every product page with a JSON-LD Product into a payload. Pages
// that fail to load or carry no product data are logged and skipped.
func (h *HTMLAdapter) FetchProducts(ctx context.Context) ([]payload.Payload, error) {
	startTime := time.Now()
	h.logger.Infof("Starting product discovery for %s", h.store.ID)

	productURLs, err := h.GetProductURLs(ctx)
	if err != nil {
		return nil, err
	}
	h.logger.Infof("Found %d product URLs for %s", len(productURLs), h.store.ID)

	var products []payload.Payload
	for i, productURL := range productURLs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		h.logger.Debugf("Processing product %d/%d: %s", i+1, len(productURLs), productURL)

		html, err := h.GetPageContent(ctx, productURL, jsonLDSelector)
		if err != nil {
			h.logger.Warnf("Failed to get product page %s: %v", productURL, err)
			continue
		}
		doc, err := h.ParseHTML(html)
		if err != nil {
			h.logger.Warnf("Failed to parse product page %s: %v", productURL, err)
			continue
		}
		p, ok := productFromJSONLD(doc, productURL)
		if !ok {
			h.logger.Warnf("No product data found on %s", productURL)
			continue
		}
		products = append(products, p)
	}

	h.logger.Infof("Extracted %d raw products from %s in %v", len(products), h.store.ID, time.Since(startTime))
	return products, nil
}

// GetProductURLs returns the de-duplicated product URLs linked from the
// store's collections. Static pages are crawled with colly, following
// rel=next pagination up to the page cap; with a headless browser only the
// first page of each collection is rendered.
func (h *HTMLAdapter) GetProductURLs(ctx context.Context) ([]string, error) {
	var collectionURLs []string
	for _, c := range h.store.Collections {
		collectionURLs = append(collectionURLs, h.AbsoluteURL(h.store.BaseURL+"/", c))
	}

	var productURLs []string
	if h.config.UseHeadlessBrowser {
		for _, collectionURL := range collectionURLs {
			html, err := h.GetPageContent(ctx, collectionURL, productLinkSelector)
			if err != nil {
				h.logger.Warnf("Failed to extract products from collection %s: %v", collectionURL, err)
				continue
			}
			doc, err := h.ParseHTML(html)
			if err != nil {
				h.logger.Warnf("Failed to parse collection %s: %v", collectionURL, err)
				continue
			}
			urls, _ := h.ExtractProductURLsFromCollection(doc, collectionURL)
			productURLs = append(productURLs, urls...)
		}
	} else {
		productURLs = h.crawlCollections(ctx, collectionURLs)
	}

	productURLs = h.sameHost(h.RemoveDuplicateURLs(productURLs))
	if len(productURLs) == 0 {
		return nil, fmt.Errorf("no product URLs found for %s", h.store.ID)
	}
	return productURLs, nil
}

func (h *HTMLAdapter) crawlCollections(ctx context.Context, collectionURLs []string) []string {
	c := colly.NewCollector(
		colly.UserAgent(h.config.UserAgent),
		colly.MaxDepth(h.pageLimit(20)),
	)
	c.SetRequestTimeout(h.config.Timeout)
	c.Limit(&colly.LimitRule{
		DomainGlob: "*",
		Delay:      h.config.RequestDelay,
	})

	var productURLs []string
	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
			return
		}
		h.logger.Debugf("Visiting %s", r.URL.String())
	})
	c.OnHTML(productLinkSelector, func(e *colly.HTMLElement) {
		if abs := h.AbsoluteURL(e.Request.URL.String(), e.Attr("href")); abs != "" {
			productURLs = append(productURLs, abs)
		}
	})
	c.OnHTML("a[rel=next], link[rel=next]", func(e *colly.HTMLElement) {
		next := e.Request.AbsoluteURL(e.Attr("href"))
		if next != "" {
			e.Request.Visit(next)
		}
	})
	c.OnError(func(r *colly.Response, err error) {
		h.logger.Warnf("Failed to crawl %s [%d]: %v", r.Request.URL.String(), r.StatusCode, err)
	})

	for _, collectionURL := range collectionURLs {
		if ctx.Err() != nil {
			break
		}
		if err := c.Visit(collectionURL); err != nil {
			h.logger.Debugf("Collection %s not crawled: %v", collectionURL, err)
		}
	}
	c.Wait()
	return productURLs
}

// sameHost keeps only links on the store's own host.
func (h *HTMLAdapter) sameHost(urls []string) []string {
	base, err := url.Parse(h.store.BaseURL)
	if err != nil {
		return urls
	}
	var kept []string
	for _, u := range urls {
		parsed, err := url.Parse(u)
		if err == nil && strings.EqualFold(parsed.Host, base.Host) {
			kept = append(kept, u)
		}
	}
	return kept
}

// productFromJSONLD finds the first schema.org Product or ProductGroup in
// the page and flattens it into {url,name,...,variants:[...]}.
func productFromJSONLD(doc *goquery.Document, pageURL string) (payload.Payload, bool) {
	var node gjson.Result
	doc.Find(jsonLDSelector).EachWithBreak(func(i int, s *goquery.Selection) bool {
		node = findProductNode(gjson.Parse(strings.TrimSpace(s.Text())))
		return !node.Exists()
	})
	if !node.Exists() {
		return payload.Payload{}, false
	}

	raw := map[string]interface{}{
		"url":         pageURL,
		"id":          firstOf(node, "productGroupID", "productID", "sku", "@id"),
		"name":        node.Get("name").String(),
		"description": node.Get("description").String(),
		"brand":       firstOf(node, "brand.name", "brand"),
		"category":    node.Get("category").String(),
		"keywords":    node.Get("keywords").Value(),
		"images":      imageList(node.Get("image")),
	}

	var variants []map[string]interface{}
	if members := node.Get("hasVariant"); members.IsArray() {
		for _, v := range members.Array() {
			variants = append(variants, offerVariants(v, v.Get("offers"))...)
		}
	} else {
		variants = offerVariants(node, node.Get("offers"))
	}
	raw["variants"] = variants
	if len(variants) > 0 {
		raw["price"] = variants[0]["price"]
	}
	return payload.FromValue(raw), true
}

// findProductNode searches a JSON-LD document, an array of them, or an
// @graph for the first Product/ProductGroup node.
func findProductNode(doc gjson.Result) gjson.Result {
	switch {
	case doc.IsArray():
		for _, item := range doc.Array() {
			if n := findProductNode(item); n.Exists() {
				return n
			}
		}
	case doc.IsObject():
		if t := doc.Get("@type"); t.String() == "Product" || t.String() == "ProductGroup" {
			return doc
		}
		if g := doc.Get("@graph"); g.Exists() {
			return findProductNode(g)
		}
	}
	return gjson.Result{}
}

// offerVariants makes one variant per offer of item; size and colour come
// from the item itself.
func offerVariants(item, offers gjson.Result) []map[string]interface{} {
	list := offers.Array()
	if offers.IsObject() {
		if inner := offers.Get("offers"); inner.IsArray() {
			list = inner.Array()
		} else {
			list = []gjson.Result{offers}
		}
	}

	var out []map[string]interface{}
	for _, offer := range list {
		sku := firstOf(offer, "sku")
		if sku == "" {
			sku = firstOf(item, "sku")
		}
		v := map[string]interface{}{
			"sku":   sku,
			"name":  firstOf(offer, "name"),
			"size":  item.Get("size").String(),
			"color": item.Get("color").String(),
			"price": firstOf(offer, "price", "lowPrice"),
			"image": imageList(item.Get("image")),
		}
		if a := offer.Get("availability"); a.Exists() {
			v["availability"] = a.String()
		}
		out = append(out, v)
	}
	return out
}

func firstOf(r gjson.Result, paths ...string) string {
	for _, p := range paths {
		v := r.Get(p)
		if v.Exists() && v.Type != gjson.JSON && strings.TrimSpace(v.String()) != "" {
			return strings.TrimSpace(v.String())
		}
	}
	return ""
}

// imageList accepts a URL, an ImageObject, or an array of either.
func imageList(r gjson.Result) []string {
	var urls []string
	items := []gjson.Result{r}
	if r.IsArray() {
		items = r.Array()
	}
	for _, item := range items {
		if item.IsObject() {
			item = item.Get("url")
		}
		if s := strings.TrimSpace(item.String()); s != "" {
			urls = append(urls, s)
		}
	}
	return urls
}
