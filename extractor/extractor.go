package extractor

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"shopify-catalog/adapters"
	"shopify-catalog/internal/catalog"
	"shopify-catalog/internal/normalize"
	"shopify-catalog/internal/payload"
	"shopify-catalog/internal/store"
	"shopify-catalog/internal/types"
)

// AdapterFactory creates the adapter for one configured store
type AdapterFactory func(types.StoreConfig, *types.Config, types.Logger) (adapters.Adapter, error)

// Extractor runs the per-store pipeline:
// fetch -> build -> dedupe -> merge -> persist.
type Extractor struct {
	config     *types.Config
	logger     types.Logger
	stores     map[string]types.StoreConfig
	order      []string
	store      store.Store
	newAdapter AdapterFactory
}

// Option configures an Extractor
type Option func(*Extractor)

// WithStore persists every successful store run to s
func WithStore(s store.Store) Option {
	return func(e *Extractor) { e.store = s }
}

// WithAdapterFactory replaces adapters.New
func WithAdapterFactory(f AdapterFactory) Option {
	return func(e *Extractor) { e.newAdapter = f }
}

// NewExtractor creates a new extractor for the configured stores
func NewExtractor(config *types.Config, logger types.Logger, stores []types.StoreConfig, opts ...Option) *Extractor {
	e := &Extractor{
		config:     config,
		logger:     logger,
		stores:     make(map[string]types.StoreConfig, len(stores)),
		newAdapter: adapters.New,
	}
	for _, s := range stores {
		if _, dup := e.stores[s.ID]; dup {
			logger.Warnf("Store %s configured twice, keeping the first entry", s.ID)
			continue
		}
		e.stores[s.ID] = s
		e.order = append(e.order, s.ID)
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// StoreIDs returns the configured store ids in configuration order
func (e *Extractor) StoreIDs() []string {
	return append([]string(nil), e.order...)
}

// HasStore reports whether id is configured
func (e *Extractor) HasStore(id string) bool {
	_, ok := e.stores[id]
	return ok
}

// ExtractAll runs the given stores one after another. A failing store is
// recorded in its StoreResult and does not stop the batch; only context
// cancellation ends the batch early.
func (e *Extractor) ExtractAll(ctx context.Context, ids []string) (*types.ExtractionResult, error) {
	results := &types.ExtractionResult{
		Stores:      []types.StoreResult{},
		ExtractedAt: time.Now().UTC(),
	}

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		result, err := e.ExtractStore(ctx, id)
		if err != nil {
			e.logger.Warnf("Failed to extract from %s: %v", id, err)
			result.Error = err.Error()
			results.FailedStores++
		}
		results.TotalProducts += len(result.Products)
		results.Stores = append(results.Stores, *result)
	}
	return results, nil
}

// ExtractStore runs the pipeline for one store. The returned result is
// never nil; on error it carries whatever was counted before the failure.
func (e *Extractor) ExtractStore(ctx context.Context, id string) (*types.StoreResult, error) {
	startTime := time.Now()
	result := &types.StoreResult{StoreName: id}
	defer func() { result.Duration = time.Since(startTime).Round(time.Millisecond).String() }()

	cfg, ok := e.stores[id]
	if !ok {
		return result, fmt.Errorf("no adapter found for store %s", id)
	}

	adapter, err := e.newAdapter(cfg, e.config, e.logger)
	if err != nil {
		return result, fmt.Errorf("failed to create adapter: %w", err)
	}
	defer adapter.Close()

	e.logger.Infof("Step 1: Fetching raw products from %s...", id)
	raw, err := adapter.FetchProducts(ctx)
	if err != nil {
		return result, fmt.Errorf("failed to fetch products: %w", err)
	}
	result.Report.Fetched = len(raw)

	e.logger.Infof("Step 2: Building %d products...", len(raw))
	built, skipped, err := e.build(ctx, normalize.NewBuilder(adapter.Schema()), raw, cfg.Gender)
	if err != nil {
		return result, err
	}
	result.Report.Built = len(built)
	result.Report.Skipped = skipped

	merged := normalize.Merge(built)
	result.Report.Merged = len(built) - len(merged)
	result.Products = merged
	e.logger.Infof("Built %d products for %s (%d skipped, %d merged)", len(merged), id, len(raw)-len(built), result.Report.Merged)

	if e.store != nil {
		e.logger.Infof("Step 3: Saving %d products for %s...", len(merged), id)
		if err := e.store.SaveSite(ctx, id, merged); err != nil {
			return result, fmt.Errorf("failed to persist products: %w", err)
		}
		if err := e.store.MergeColors(ctx, catalog.Colors(merged)); err != nil {
			return result, fmt.Errorf("failed to persist colors: %w", err)
		}
		result.Report.Saved = len(merged)
	}
	return result, nil
}

// build runs the Builder over raw with at most MaxConcurrentRequests
// goroutines. Output keeps input order so Merge stays deterministic.
func (e *Extractor) build(ctx context.Context, builder *normalize.Builder, raw []payload.Payload, gender string) ([]catalog.Product, map[string]int, error) {
	products := make([]*catalog.Product, len(raw))
	reasons := make([]error, len(raw))

	g, gctx := errgroup.WithContext(ctx)
	if e.config.MaxConcurrentRequests > 0 {
		g.SetLimit(e.config.MaxConcurrentRequests)
	}
	for i := range raw {
		i := i
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			p, err := builder.Build(raw[i], gender)
			products[i], reasons[i] = p, err
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	var built []catalog.Product
	skipped := make(map[string]int)
	for i, p := range products {
		if p == nil {
			reason := "unknown"
			if reasons[i] != nil {
				reason = reasons[i].Error()
			}
			skipped[reason]++
			e.logger.Debugf("Skipping record %d: %s", i, reason)
			continue
		}
		built = append(built, *p)
	}
	return built, skipped, nil
}
