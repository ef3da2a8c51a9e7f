// Package orders stores placed orders and serves the order history.
package orders

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/joao-fontenele/storefront-checkout/internal/catalog"
	"github.com/joao-fontenele/storefront-checkout/internal/domain"
)

type Store interface {
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	ListByUser(ctx context.Context, userID string) ([]domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
	UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) (*domain.Order, error)
	Summary(ctx context.Context) (domain.SalesSummary, error)
}

type ProductFinder interface {
	FindByNames(ctx context.Context, names []string) (map[string]domain.Product, error)
}

// HistoryView reads a user's orders and decorates each line with an image
// looked up by product name in the current catalog.
type HistoryView struct {
	orders   Store
	products ProductFinder
	images   *catalog.ImageResolver
	logger   *slog.Logger
}

func NewHistoryView(orders Store, products ProductFinder, images *catalog.ImageResolver, logger *slog.Logger) *HistoryView {
	return &HistoryView{
		orders:   orders,
		products: products,
		images:   images,
		logger:   logger,
	}
}

// ListOrders returns the user's orders newest first, keeping only those whose
// status matches filter.
func (v *HistoryView) ListOrders(ctx context.Context, userID string, filter domain.StatusFilter) ([]domain.OrderView, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.ErrUnauthenticated
	}

	orders, err := v.orders.ListByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	matching := make([]domain.Order, 0, len(orders))
	for _, order := range orders {
		if filter.Matches(order.Status) {
			matching = append(matching, order)
		}
	}

	return v.render(ctx, matching), nil
}

// GetOrder returns one of the user's orders. Orders owned by someone else are
// reported as not found.
func (v *HistoryView) GetOrder(ctx context.Context, userID, orderID string) (*domain.OrderView, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, domain.ErrUnauthenticated
	}

	order, err := v.orders.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil || order.UserID != userID {
		return nil, fmt.Errorf("order %s: %w", orderID, domain.ErrNotFound)
	}

	views := v.render(ctx, []domain.Order{*order})
	return &views[0], nil
}

func (v *HistoryView) render(ctx context.Context, orders []domain.Order) []domain.OrderView {
	products := v.lookupProducts(ctx, orders)

	views := make([]domain.OrderView, 0, len(orders))
	for _, order := range orders {
		lines := make([]domain.OrderLineView, 0, len(order.Items))
		for _, item := range order.Items {
			line := domain.OrderLineView{
				ProductName: item.ProductName,
				Quantity:    item.Quantity,
				Price:       item.Price,
				Subtotal:    item.Subtotal().Round(2),
				ImageURL:    v.images.Placeholder(),
			}
			if p, ok := products[item.ProductName]; ok {
				line.ImageURL = v.images.Resolve(p.ImageURL)
				line.Available = true
			}
			lines = append(lines, line)
		}

		views = append(views, domain.OrderView{
			ID:            order.ID,
			Status:        order.Status,
			PaymentMethod: order.PaymentMethod,
			Address:       order.Address,
			Total:         order.Total,
			Items:         lines,
			CreatedAt:     order.CreatedAt,
		})
	}
	return views
}

// lookupProducts is best effort: a failed catalog read degrades every line to
// the placeholder image instead of failing the history.
func (v *HistoryView) lookupProducts(ctx context.Context, orders []domain.Order) map[string]domain.Product {
	seen := make(map[string]bool)
	var names []string
	for _, order := range orders {
		for _, item := range order.Items {
			if !seen[item.ProductName] {
				seen[item.ProductName] = true
				names = append(names, item.ProductName)
			}
		}
	}
	if len(names) == 0 {
		return nil
	}

	products, err := v.products.FindByNames(ctx, names)
	if err != nil {
		v.logger.Warn("failed to look up order product images", "error", err, "names", len(names))
		return nil
	}
	return products
}
