package domain

import "time"

const EventOrderPlaced = "order.placed"

type OrderPlacedEvent struct {
	OrderID       string          `json:"order_id"`
	UserID        string          `json:"user_id"`
	Email         string          `json:"email"`
	PaymentMethod string          `json:"payment_method"`
	Total         string          `json:"total"`
	Items         []OrderLineItem `json:"items"`
	Timestamp     time.Time       `json:"timestamp"`
}

func NewOrderPlacedEvent(order *Order) OrderPlacedEvent {
	return OrderPlacedEvent{
		OrderID:       order.ID,
		UserID:        order.UserID,
		Email:         order.Email,
		PaymentMethod: order.PaymentMethod,
		Total:         order.Total.StringFixed(2),
		Items:         order.Items,
		Timestamp:     order.CreatedAt,
	}
}
