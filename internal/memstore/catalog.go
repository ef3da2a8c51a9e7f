package memstore

import (
	"context"

	"github.com/joao-fontenele/storefront-checkout/internal/domain"
)

type Catalog struct {
	s *Store
}

func (c *Catalog) Get(_ context.Context, id string) (*domain.Product, error) {
	slot := c.s.slot(id)
	if slot == nil {
		return nil, nil
	}
	slot.mu.Lock()
	defer slot.mu.Unlock()
	p := slot.product
	return &p, nil
}

func (c *Catalog) List(_ context.Context) ([]domain.Product, error) {
	return c.s.snapshotProducts(), nil
}

func (c *Catalog) GetMany(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	found := make(map[string]domain.Product, len(ids))
	for _, id := range ids {
		p, err := c.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if p != nil {
			found[id] = *p
		}
	}
	return found, nil
}

func (c *Catalog) FindByNames(_ context.Context, names []string) (map[string]domain.Product, error) {
	wanted := make(map[string]bool, len(names))
	for _, name := range names {
		wanted[name] = true
	}

	found := make(map[string]domain.Product)
	for _, p := range c.s.snapshotProducts() {
		if wanted[p.Name] {
			if _, dup := found[p.Name]; !dup {
				found[p.Name] = p
			}
		}
	}
	return found, nil
}
