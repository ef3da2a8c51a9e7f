package memstore

import (
	"context"
	"fmt"

	"github.com/joao-fontenele/storefront-checkout/internal/domain"
)

type Ledger struct {
	s *Store
}

func (l *Ledger) ListAll(_ context.Context) ([]domain.StockLevel, error) {
	products := l.s.snapshotProducts()
	levels := make([]domain.StockLevel, 0, len(products))
	for _, p := range products {
		levels = append(levels, domain.StockLevel{ProductID: p.ID, Stock: p.Stock})
	}
	return levels, nil
}

func (l *Ledger) GetStock(_ context.Context, productID string) (*domain.StockLevel, error) {
	slot := l.s.slot(productID)
	if slot == nil {
		return nil, nil
	}
	slot.mu.Lock()
	defer slot.mu.Unlock()
	return &domain.StockLevel{ProductID: productID, Stock: slot.product.Stock}, nil
}

func (l *Ledger) Reserve(_ context.Context, productID string, quantity int) (int, error) {
	if quantity < 1 {
		return 0, domain.ErrInvalidQuantity
	}
	slot := l.s.slot(productID)
	if slot == nil {
		return 0, fmt.Errorf("product %s: %w", productID, domain.ErrNotFound)
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()

	if slot.product.Stock < quantity {
		return slot.product.Stock, fmt.Errorf("product %s has %d, requested %d: %w", productID, slot.product.Stock, quantity, domain.ErrInsufficientStock)
	}
	slot.product.Stock -= quantity
	return slot.product.Stock, nil
}

func (l *Ledger) Release(_ context.Context, productID string, quantity int) (int, error) {
	if quantity < 1 {
		return 0, domain.ErrInvalidQuantity
	}
	slot := l.s.slot(productID)
	if slot == nil {
		return 0, fmt.Errorf("product %s: %w", productID, domain.ErrNotFound)
	}

	slot.mu.Lock()
	defer slot.mu.Unlock()

	slot.product.Stock += quantity
	return slot.product.Stock, nil
}
