package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/joao-fontenele/storefront-checkout/internal/domain"
)

// FulfillmentHandler reacts to placed orders: it emails the customer a
// confirmation and moves the order out of Pending.
type FulfillmentHandler struct {
	emailServiceURL      string
	storefrontServiceURL string
	httpClient           *http.Client
	logger               *slog.Logger
}

func NewFulfillmentHandler(emailServiceURL, storefrontServiceURL string, client *http.Client, logger *slog.Logger) *FulfillmentHandler {
	return &FulfillmentHandler{
		emailServiceURL:      emailServiceURL,
		storefrontServiceURL: storefrontServiceURL,
		httpClient:           client,
		logger:               logger,
	}
}

// NextStatus is where a freshly placed order goes: prepaid orders wait for
// payment, cash on delivery goes straight to shipping.
func NextStatus(paymentMethod string) domain.OrderStatus {
	if domain.RequiresPrepayment(paymentMethod) {
		return domain.OrderStatusUnpaid
	}
	return domain.OrderStatusToShip
}

func (h *FulfillmentHandler) HandleOrderPlaced(ctx context.Context, payload []byte) error {
	var event domain.OrderPlacedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal order placed event: %w", err)
	}

	h.logger.Info("processing order placed event", "order_id", event.OrderID, "user_id", event.UserID)

	if event.Email != "" {
		if err := h.sendConfirmationEmail(ctx, event); err != nil {
			h.logger.Error("failed to send confirmation email", "error", err, "order_id", event.OrderID)
			return fmt.Errorf("send confirmation email: %w", err)
		}
	} else {
		h.logger.Warn("order has no email, skipping confirmation", "order_id", event.OrderID)
	}

	next := NextStatus(event.PaymentMethod)
	advanced, err := h.updateOrderStatus(ctx, event.OrderID, next)
	if err != nil {
		h.logger.Error("failed to update order status", "error", err, "order_id", event.OrderID)
		return fmt.Errorf("update order status: %w", err)
	}

	if !advanced {
		h.logger.Info("order already left pending, nothing to do", "order_id", event.OrderID)
		return nil
	}

	h.logger.Info("order processing complete", "order_id", event.OrderID, "status", next)
	return nil
}

func (h *FulfillmentHandler) sendConfirmationEmail(ctx context.Context, event domain.OrderPlacedEvent) error {
	names := make([]string, 0, len(event.Items))
	for _, item := range event.Items {
		names = append(names, fmt.Sprintf("%d x %s", item.Quantity, item.ProductName))
	}

	body := map[string]string{
		"to":      event.Email,
		"subject": "Order Confirmation: " + event.OrderID,
		"body": fmt.Sprintf("Your order %s totalling %s has been received: %s.",
			event.OrderID, event.Total, strings.Join(names, ", ")),
	}

	return h.sendEmail(ctx, body)
}

func (h *FulfillmentHandler) sendEmail(ctx context.Context, body map[string]string) error {
	data, err := json.Marshal(body)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, h.emailServiceURL+"/send", bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("email service returned status %d", resp.StatusCode)
	}

	return nil
}

// updateOrderStatus reports false when the storefront refuses the transition
// because the order already moved on, which happens on redelivery.
func (h *FulfillmentHandler) updateOrderStatus(ctx context.Context, orderID string, status domain.OrderStatus) (bool, error) {
	data, err := json.Marshal(map[string]string{"status": string(status)})
	if err != nil {
		return false, err
	}

	url := fmt.Sprintf("%s/orders/%s/status", h.storefrontServiceURL, orderID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, url, bytes.NewReader(data))
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := h.httpClient.Do(req)
	if err != nil {
		return false, err
	}
	defer func() { _ = resp.Body.Close() }()

	switch resp.StatusCode {
	case http.StatusOK:
		return true, nil
	case http.StatusConflict:
		return false, nil
	default:
		return false, fmt.Errorf("storefront service returned status %d", resp.StatusCode)
	}
}
