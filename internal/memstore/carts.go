package memstore

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/joao-fontenele/storefront-checkout/internal/domain"
)

type Carts struct {
	s *Store
}

func (c *Carts) AddOrIncrement(_ context.Context, userID, productID string) (*domain.CartItem, error) {
	c.s.cartMu.Lock()
	defer c.s.cartMu.Unlock()

	items := c.s.carts[userID]
	for i := range items {
		if items[i].ProductID == productID {
			items[i].Quantity++
			item := items[i]
			return &item, nil
		}
	}

	item := domain.CartItem{
		ID:        uuid.New().String(),
		UserID:    userID,
		ProductID: productID,
		Quantity:  1,
		CreatedAt: c.s.now(),
	}
	c.s.carts[userID] = append(items, item)
	return &item, nil
}

func (c *Carts) SetQuantity(_ context.Context, userID, itemID string, quantity int) (*domain.CartItem, error) {
	if quantity < 1 {
		return nil, domain.ErrInvalidQuantity
	}

	c.s.cartMu.Lock()
	defer c.s.cartMu.Unlock()

	items := c.s.carts[userID]
	for i := range items {
		if items[i].ID == itemID {
			items[i].Quantity = quantity
			item := items[i]
			return &item, nil
		}
	}
	return nil, fmt.Errorf("cart item %s: %w", itemID, domain.ErrNotFound)
}

func (c *Carts) Remove(_ context.Context, userID, itemID string) error {
	c.s.cartMu.Lock()
	defer c.s.cartMu.Unlock()

	items := c.s.carts[userID]
	for i := range items {
		if items[i].ID == itemID {
			c.s.carts[userID] = append(items[:i:i], items[i+1:]...)
			return nil
		}
	}
	return nil
}

func (c *Carts) List(_ context.Context, userID string) ([]domain.CartItem, error) {
	c.s.cartMu.Lock()
	defer c.s.cartMu.Unlock()
	return append([]domain.CartItem(nil), c.s.carts[userID]...), nil
}

func (c *Carts) Clear(_ context.Context, userID string) error {
	c.s.cartMu.Lock()
	defer c.s.cartMu.Unlock()
	delete(c.s.carts, userID)
	return nil
}
