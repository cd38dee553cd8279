// Package store persists finished product lists per site and keeps the
// shared colour vocabulary.
package store

import (
	"context"
	"errors"
	"strings"

	"shopify-catalog/internal/catalog"
	"shopify-catalog/internal/types"
)

// ErrSiteNotFound is returned by LoadSite for a site never saved.
var ErrSiteNotFound = errors.New("site not found")

// Store is the persistence gateway. Writes are scoped to one site key, so
// a failed save never touches other sites' data.
type Store interface {
	// SaveSite replaces the product list stored for site.
	SaveSite(ctx context.Context, site string, products []catalog.Product) error
	LoadSite(ctx context.Context, site string) ([]catalog.Product, error)
	// Sites lists saved site keys in ascending order, without the colour row.
	Sites(ctx context.Context) ([]string, error)
	// MergeColors adds unseen colours to the vocabulary. Existing entries,
	// including their mapped value, are kept.
	MergeColors(ctx context.Context, colors []string) error
	Colors(ctx context.Context) ([]catalog.ColorEntry, error)
	Close(ctx context.Context) error
}

// mergeColorEntries appends colours not yet present (case-insensitively)
// to existing and reports whether anything was added.
func mergeColorEntries(existing []catalog.ColorEntry, colors []string) ([]catalog.ColorEntry, bool) {
	seen := make(map[string]bool, len(existing))
	for _, e := range existing {
		seen[strings.ToLower(e.Original)] = true
	}
	added := false
	for _, c := range colors {
		c = strings.TrimSpace(c)
		key := strings.ToLower(c)
		if c == "" || seen[key] {
			continue
		}
		seen[key] = true
		existing = append(existing, catalog.ColorEntry{Original: c})
		added = true
	}
	return existing, added
}

// Open returns a MongoStore for uri, or a MemoryStore when uri is empty.
func Open(ctx context.Context, uri, database string, logger types.Logger) (Store, error) {
	if uri == "" {
		logger.Warn("MONGO_URI not set, results are kept in memory only")
		return NewMemoryStore(), nil
	}
	if database == "" {
		database = "catalog"
	}
	m, err := NewMongoStore(ctx, uri, database, logger)
	if err != nil {
		return nil, err
	}
	return m, nil
}
