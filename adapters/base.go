package adapters

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"shopify-catalog/internal/types"
	"shopify-catalog/utils"

	"github.com/PuerkitoBio/goquery"
)

// BaseAdapter provides common functionality for store adapters.
// It implements the Template Method pattern: concrete adapters embed it
// and only describe how their source is paged and laid out.
type BaseAdapter struct {
	store         types.StoreConfig
	config        *types.Config        // Configuration settings (timeouts, browser settings, etc.)
	logger        types.Logger         // Structured logging interface
	httpClient    *utils.HTTPClient    // HTTP client for standard requests
	browserClient *utils.BrowserClient // Headless browser client for dynamic content
}

// NewBaseAdapter creates a new base adapter with initialized HTTP and browser clients.
func NewBaseAdapter(store types.StoreConfig, config *types.Config, logger types.Logger) *BaseAdapter {
	return &BaseAdapter{
		store:         store,
		config:        config,
		logger:        logger,
		httpClient:    utils.NewHTTPClient(config, logger),
		browserClient: utils.NewBrowserClient(config, logger),
	}
}

// Name returns the store id the adapter was configured with
func (b *BaseAdapter) Name() string {
	return b.store.ID
}

// GetPageContent retrieves the HTML content of a page using either HTTP client or headless browser.
// The choice between HTTP and browser is determined by the UseHeadlessBrowser configuration;
// waitSelector only applies to the browser.
func (b *BaseAdapter) GetPageContent(ctx context.Context, url, waitSelector string) (string, error) {
	// Use headless browser for JavaScript-heavy sites
	if b.config.UseHeadlessBrowser {
		return b.browserClient.GetPageContent(ctx, url, waitSelector)
	}

	// Use standard HTTP client for static content (faster and more efficient)
	body, err := b.httpClient.Get(ctx, url)
	if err != nil {
		return "", err
	}

	return string(body), nil
}

// ParseHTML parses HTML content into a goquery document
func (b *BaseAdapter) ParseHTML(html string) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(html))
}

// RemoveDuplicateURLs removes duplicate URLs from the slice
func (b *BaseAdapter) RemoveDuplicateURLs(urls []string) []string {
	seen := make(map[string]bool)
	var uniqueURLs []string

	for _, url := range urls {
		if !seen[url] {
			seen[url] = true
			uniqueURLs = append(uniqueURLs, url)
		}
	}

	return uniqueURLs
}

// ExtractProductURLsFromCollection extracts product URLs from a collection page
func (b *BaseAdapter) ExtractProductURLsFromCollection(doc *goquery.Document, baseURL string) ([]string, error) {
	var productURLs []string

	// Find all <a> tags that contain "/products/" in their href
	doc.Find("a[href*='/products/']").Each(func(i int, s *goquery.Selection) {
		href, exists := s.Attr("href")
		if !exists {
			return
		}

		if abs := b.AbsoluteURL(baseURL, href); abs != "" {
			productURLs = append(productURLs, abs)
		}
	})

	return productURLs, nil
}

// AbsoluteURL resolves href against baseURL and drops the query and
// fragment, so variant links of one product collapse to one URL. It
// returns "" for hrefs that cannot be parsed.
func (b *BaseAdapter) AbsoluteURL(baseURL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	base, err := url.Parse(baseURL)
	if err != nil {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	abs := base.ResolveReference(ref)
	abs.RawQuery = ""
	abs.Fragment = ""
	return abs.String()
}

// storeURL joins a path onto the store's base URL.
func (b *BaseAdapter) storeURL(path string) string {
	return strings.TrimRight(b.store.BaseURL, "/") + "/" + strings.TrimLeft(path, "/")
}

// pageLimit is the configured page cap, or fallback when none is set.
func (b *BaseAdapter) pageLimit(fallback int) int {
	if b.store.MaxPages > 0 {
		return b.store.MaxPages
	}
	return fallback
}

// Close cleans up resources
func (b *BaseAdapter) Close() {
	if b.httpClient != nil {
		b.httpClient.Close()
	}
}

// Config returns the config field of the BaseAdapter
func (b *BaseAdapter) Config() *types.Config {
	return b.config
}

func requireField(store types.StoreConfig, field, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("store %s: %s is required for %s adapters", store.ID, field, store.Kind)
	}
	return nil
}
