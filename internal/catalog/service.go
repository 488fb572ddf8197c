package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/bookhaven/backend-store/internal/pricing"
)

// Service orchestrates catalog lookups, caching, and bulk replacement.
type Service struct {
	store Store
	cache *Cache
}

// NewService constructs a Service instance.
func NewService(store Store, cache *Cache) (*Service, error) {
	if store == nil {
		return nil, errors.New("catalog: store is required")
	}
	return &Service{store: store, cache: cache}, nil
}

// Get returns a single product, consulting the cache first.
func (s *Service) Get(ctx context.Context, id string) (Product, error) {
	var cached Product
	if ok, err := s.cache.GetJSON(ctx, "product:"+id, &cached); err == nil && ok {
		return cached, nil
	}
	p, err := s.store.Get(ctx, id)
	if err != nil {
		return Product{}, err
	}
	_ = s.cache.SetJSON(ctx, "product:"+id, p)
	return p, nil
}

// List returns the full catalog, consulting the cache first.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	var cached []Product
	if ok, err := s.cache.GetJSON(ctx, "list", &cached); err == nil && ok {
		return cached, nil
	}
	products, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	_ = s.cache.SetJSON(ctx, "list", products)
	return products, nil
}

// ReplaceAll validates and swaps the whole catalog, then invalidates the cache.
func (s *Service) ReplaceAll(ctx context.Context, products []Product) error {
	seen := make(map[string]struct{}, len(products))
	for _, p := range products {
		if err := p.Validate(); err != nil {
			return err
		}
		if _, dup := seen[p.ID]; dup {
			return fmt.Errorf("duplicate product id %s", p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	if err := s.store.ReplaceAll(ctx, products); err != nil {
		return err
	}
	return s.cache.Invalidate(ctx)
}

// Lookup resolves the given product ids into a pricing catalog snapshot.
// Unknown ids are absent from the snapshot; callers decide whether that is an
// error.
func (s *Service) Lookup(ctx context.Context, ids []string) (pricing.StaticCatalog, error) {
	products, err := s.store.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	snapshot := make(pricing.StaticCatalog, len(products))
	for _, p := range products {
		snapshot[p.ID] = p.Pricing()
	}
	return snapshot, nil
}
