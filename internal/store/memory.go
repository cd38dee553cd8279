package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"shopify-catalog/internal/catalog"
)

// MemoryStore keeps everything in process. It backs dry runs and tests.
type MemoryStore struct {
	mu     sync.RWMutex
	sites  map[string][]catalog.Product
	colors []catalog.ColorEntry
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sites: make(map[string][]catalog.Product)}
}

func (m *MemoryStore) SaveSite(ctx context.Context, site string, products []catalog.Product) error {
	if site == "" || site == catalog.ColorsKey {
		return fmt.Errorf("invalid site key %q", site)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sites[site] = cloneAll(products)
	return nil
}

func (m *MemoryStore) LoadSite(ctx context.Context, site string) ([]catalog.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	products, ok := m.sites[site]
	if !ok {
		return nil, ErrSiteNotFound
	}
	return cloneAll(products), nil
}

func (m *MemoryStore) Sites(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sites := make([]string, 0, len(m.sites))
	for site := range m.sites {
		sites = append(sites, site)
	}
	sort.Strings(sites)
	return sites, nil
}

func (m *MemoryStore) MergeColors(ctx context.Context, colors []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.colors, _ = mergeColorEntries(m.colors, colors)
	return nil
}

func (m *MemoryStore) Colors(ctx context.Context) ([]catalog.ColorEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]catalog.ColorEntry(nil), m.colors...), nil
}

func (m *MemoryStore) Close(ctx context.Context) error {
	return nil
}

func cloneAll(products []catalog.Product) []catalog.Product {
	out := make([]catalog.Product, len(products))
	for i, p := range products {
		out[i] = p.Clone()
	}
	return out
}
