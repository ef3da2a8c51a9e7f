package memstore

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront-checkout/internal/domain"
)

type Orders struct {
	s *Store
}

func (o *Orders) Create(_ context.Context, order *domain.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}

	o.s.orderMu.Lock()
	defer o.s.orderMu.Unlock()
	o.s.orders = append(o.s.orders, copyOrder(*order))
	return nil
}

func (o *Orders) GetByID(_ context.Context, id string) (*domain.Order, error) {
	o.s.orderMu.RLock()
	defer o.s.orderMu.RUnlock()

	for _, order := range o.s.orders {
		if order.ID == id {
			found := copyOrder(order)
			return &found, nil
		}
	}
	return nil, nil
}

func (o *Orders) ListByUser(_ context.Context, userID string) ([]domain.Order, error) {
	return o.list(func(order domain.Order) bool { return order.UserID == userID }), nil
}

func (o *Orders) ListAll(_ context.Context) ([]domain.Order, error) {
	return o.list(func(domain.Order) bool { return true }), nil
}

// list returns matching orders newest first; orders created at the same
// instant come back in reverse insertion order.
func (o *Orders) list(keep func(domain.Order) bool) []domain.Order {
	o.s.orderMu.RLock()
	defer o.s.orderMu.RUnlock()

	orders := []domain.Order{}
	for i := len(o.s.orders) - 1; i >= 0; i-- {
		if keep(o.s.orders[i]) {
			orders = append(orders, copyOrder(o.s.orders[i]))
		}
	}
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
	return orders
}

func (o *Orders) UpdateStatus(_ context.Context, id string, from, to domain.OrderStatus) (*domain.Order, error) {
	o.s.orderMu.Lock()
	defer o.s.orderMu.Unlock()

	for i := range o.s.orders {
		if o.s.orders[i].ID == id {
			if o.s.orders[i].Status != from {
				return nil, nil
			}
			o.s.orders[i].Status = to
			updated := copyOrder(o.s.orders[i])
			return &updated, nil
		}
	}
	return nil, nil
}

func (o *Orders) Summary(_ context.Context) (domain.SalesSummary, error) {
	o.s.orderMu.RLock()
	defer o.s.orderMu.RUnlock()

	summary := domain.SalesSummary{TotalSales: decimal.Zero}
	for _, order := range o.s.orders {
		summary.OrderCount++
		summary.TotalSales = summary.TotalSales.Add(order.Total)
	}
	summary.TotalSales = summary.TotalSales.Round(2)
	return summary, nil
}

type Profiles struct {
	s *Store
}

func (p *Profiles) Get(_ context.Context, userID string) (*domain.Profile, error) {
	p.s.profileMu.RLock()
	defer p.s.profileMu.RUnlock()

	profile, ok := p.s.profiles[userID]
	if !ok {
		return nil, nil
	}
	return &profile, nil
}

func (p *Profiles) Upsert(_ context.Context, profile domain.Profile) error {
	p.s.profileMu.Lock()
	defer p.s.profileMu.Unlock()
	p.s.profiles[profile.UserID] = profile
	return nil
}
