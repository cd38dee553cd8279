package types

import (
	"time"

	"shopify-catalog/internal/catalog"
)

// StoreConfig describes one source site the scrapers can pull from
type StoreConfig struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"` // shopify, search or html
	BaseURL  string `json:"base_url"`
	Gender   string `json:"gender,omitempty"`
	Vendor   string `json:"vendor,omitempty"`
	Endpoint string `json:"endpoint,omitempty"` // search API endpoint
	APIKey   string `json:"api_key,omitempty"`
	Index    string `json:"index,omitempty"`

	// Collections are the listing pages the html adapter crawls.
	Collections []string `json:"collections,omitempty"`
	MaxPages    int      `json:"max_pages,omitempty"`
}

// StoresFile is the on-disk list of configured stores
type StoresFile struct {
	Stores []StoreConfig `json:"stores"`
}

// Report counts what happened to one store's records
type Report struct {
	Fetched int            `json:"fetched"`
	Built   int            `json:"built"`
	Skipped map[string]int `json:"skipped,omitempty"` // by skip reason
	Merged  int            `json:"merged"`           // records folded into a sibling
	Saved   int            `json:"saved"`
}

// StoreResult represents the extraction results for a single store
type StoreResult struct {
	StoreName string            `json:"store_name"`
	Products  []catalog.Product `json:"products,omitempty"`
	Report    Report            `json:"report"`
	Error     string            `json:"error,omitempty"`
	Duration  string            `json:"duration,omitempty"`
}

// ExtractionResult represents the complete extraction results
type ExtractionResult struct {
	Stores        []StoreResult `json:"stores"`
	TotalProducts int           `json:"total_products"`
	FailedStores  int           `json:"failed_stores"`
	ExtractedAt   time.Time     `json:"extracted_at"`
}

// Config holds the configuration for the scrapers
type Config struct {
	RequestDelay          time.Duration
	MaxRetries            int
	Timeout               time.Duration
	MaxConcurrentRequests int
	UseHeadlessBrowser    bool
	UserAgent             string
}

// DefaultConfig returns the default configuration
func DefaultConfig() *Config {
	return &Config{
		RequestDelay:          1 * time.Second,
		MaxRetries:            3,
		Timeout:               30 * time.Second,
		MaxConcurrentRequests: 5,
		UseHeadlessBrowser:    false,
		UserAgent:             "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	}
}

// Logger defines the logging interface
type Logger interface {
	Debug(args ...interface{})
	Info(args ...interface{})
	Warn(args ...interface{})
	Error(args ...interface{})
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}
