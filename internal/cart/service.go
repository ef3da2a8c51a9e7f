// Package cart keeps each user's pending line items and joins them with the
// live catalog on read.
package cart

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront-checkout/internal/domain"
)

type Store interface {
	AddOrIncrement(ctx context.Context, userID, productID string) (*domain.CartItem, error)
	SetQuantity(ctx context.Context, userID, itemID string, quantity int) (*domain.CartItem, error)
	Remove(ctx context.Context, userID, itemID string) error
	List(ctx context.Context, userID string) ([]domain.CartItem, error)
	Clear(ctx context.Context, userID string) error
}

type Catalog interface {
	Get(ctx context.Context, id string) (*domain.Product, error)
	GetMany(ctx context.Context, ids []string) (map[string]domain.Product, error)
}

// Snapshot is a cart read at one point in time, priced at current catalog prices.
type Snapshot struct {
	UserID string            `json:"user_id"`
	Lines  []domain.CartLine `json:"lines"`
	Total  decimal.Decimal   `json:"total"`
}

func (s *Snapshot) Empty() bool {
	return len(s.Lines) == 0
}

type Service struct {
	store   Store
	catalog Catalog
}

func NewService(store Store, catalog Catalog) *Service {
	return &Service{store: store, catalog: catalog}
}

func requireUser(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return domain.ErrUnauthenticated
	}
	return nil
}

func (s *Service) Add(ctx context.Context, userID, productID string) (*domain.CartItem, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	product, err := s.catalog.Get(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("look up product %s: %w", productID, err)
	}
	if product == nil {
		return nil, fmt.Errorf("product %s: %w", productID, domain.ErrNotFound)
	}

	return s.store.AddOrIncrement(ctx, userID, productID)
}

func (s *Service) SetQuantity(ctx context.Context, userID, itemID string, quantity int) (*domain.CartItem, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return s.store.SetQuantity(ctx, userID, itemID, quantity)
}

func (s *Service) Remove(ctx context.Context, userID, itemID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	return s.store.Remove(ctx, userID, itemID)
}

func (s *Service) Clear(ctx context.Context, userID string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	return s.store.Clear(ctx, userID)
}

// Snapshot lists the user's cart joined with the catalog. Lines whose product
// has been deleted keep a nil Product and contribute nothing to the total.
func (s *Service) Snapshot(ctx context.Context, userID string) (*Snapshot, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	items, err := s.store.List(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list cart: %w", err)
	}

	ids := make([]string, 0, len(items))
	for _, item := range items {
		ids = append(ids, item.ProductID)
	}

	products, err := s.catalog.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("load cart products: %w", err)
	}

	lines := make([]domain.CartLine, 0, len(items))
	for _, item := range items {
		line := domain.CartLine{Item: item}
		if p, ok := products[item.ProductID]; ok {
			line.Product = &p
		}
		lines = append(lines, line)
	}

	return &Snapshot{
		UserID: userID,
		Lines:  lines,
		Total:  domain.CartTotal(lines),
	}, nil
}
