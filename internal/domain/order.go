package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "Pending"
	OrderStatusUnpaid    OrderStatus = "Unpaid"
	OrderStatusToShip    OrderStatus = "To ship"
	OrderStatusShipped   OrderStatus = "Shipped"
	OrderStatusDelivered OrderStatus = "Delivered"
)

var orderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusUnpaid,
	OrderStatusToShip,
	OrderStatusShipped,
	OrderStatusDelivered,
}

// normalizeStatus folds case and drops separators so "To ship", "to_ship" and
// "TO-SHIP" compare equal.
func normalizeStatus(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(s)))
}

func ParseOrderStatus(s string) (OrderStatus, error) {
	key := normalizeStatus(s)
	for _, status := range orderStatuses {
		if normalizeStatus(string(status)) == key {
			return status, nil
		}
	}
	return "", fmt.Errorf("unknown order status %q", s)
}

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending: {OrderStatusToShip, OrderStatusUnpaid},
	OrderStatusToShip:  {OrderStatusShipped},
	OrderStatusShipped: {OrderStatusDelivered},
}

// CanTransition reports whether an order paid with paymentMethod may move from
// one status to another. Unpaid is only reachable for methods that require
// prepayment.
func CanTransition(from, to OrderStatus, paymentMethod string) error {
	if to == OrderStatusUnpaid && !RequiresPrepayment(paymentMethod) {
		return fmt.Errorf("%w: %s orders are never unpaid", ErrInvalidTransition, paymentMethod)
	}
	for _, next := range orderTransitions[from] {
		if next == to {
			return nil
		}
	}
	return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
}

const PaymentCashOnDelivery = "cod"

func RequiresPrepayment(paymentMethod string) bool {
	return !strings.EqualFold(strings.TrimSpace(paymentMethod), PaymentCashOnDelivery)
}

// StatusFilter selects orders by status. The zero value and "All" match every order.
type StatusFilter string

const StatusFilterAll StatusFilter = "All"

func (f StatusFilter) All() bool {
	key := normalizeStatus(string(f))
	return key == "" || key == normalizeStatus(string(StatusFilterAll))
}

func (f StatusFilter) Matches(status OrderStatus) bool {
	if f.All() {
		return true
	}
	return normalizeStatus(string(f)) == normalizeStatus(string(status))
}

type OrderLineItem struct {
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
}

func NewOrderLineItem(productName string, quantity int, price decimal.Decimal) (OrderLineItem, error) {
	if strings.TrimSpace(productName) == "" {
		return OrderLineItem{}, fmt.Errorf("%w: product name is required", ErrInvalidLineItem)
	}
	if quantity < 1 {
		return OrderLineItem{}, fmt.Errorf("%w: quantity %d", ErrInvalidLineItem, quantity)
	}
	if price.IsNegative() {
		return OrderLineItem{}, fmt.Errorf("%w: negative price %s", ErrInvalidLineItem, price)
	}
	return OrderLineItem{
		ProductName: productName,
		Quantity:    quantity,
		Price:       price.Round(2),
	}, nil
}

func (i OrderLineItem) Subtotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

func SumLineItems(items []OrderLineItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Subtotal())
	}
	return total.Round(2)
}

type Order struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	Address       string          `json:"address"`
	PaymentMethod string          `json:"payment_method"`
	Total         decimal.Decimal `json:"total"`
	Items         []OrderLineItem `json:"items"`
	Status        OrderStatus     `json:"status"`
	CreatedAt     time.Time       `json:"created_at"`
}

// OrderView is an order prepared for the history page: every line carries an
// image resolved against the current catalog.
type OrderView struct {
	ID            string          `json:"id"`
	Status        OrderStatus     `json:"status"`
	PaymentMethod string          `json:"payment_method"`
	Address       string          `json:"address"`
	Total         decimal.Decimal `json:"total"`
	Items         []OrderLineView `json:"items"`
	CreatedAt     time.Time       `json:"created_at"`
}

type OrderLineView struct {
	ProductName string          `json:"product_name"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"price"`
	Subtotal    decimal.Decimal `json:"subtotal"`
	ImageURL    string          `json:"image_url"`
	Available   bool            `json:"available"`
}

type SalesSummary struct {
	OrderCount int             `json:"order_count"`
	TotalSales decimal.Decimal `json:"total_sales"`
}
