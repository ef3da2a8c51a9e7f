package checkout

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/joao-fontenele/storefront-checkout/internal/domain"
)

var meter = otel.Meter("storefront/checkout")

type instruments struct {
	orders       metric.Int64Counter
	reservations metric.Int64Counter
	duration     metric.Float64Histogram
}

func newInstruments() (*instruments, error) {
	orders, err := meter.Int64Counter("storefront.checkout.orders",
		metric.WithDescription("Checkout attempts by result"),
	)
	if err != nil {
		return nil, err
	}

	reservations, err := meter.Int64Counter("storefront.inventory.reservations",
		metric.WithDescription("Stock reservations attempted during checkout by outcome"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram("storefront.checkout.duration",
		metric.WithDescription("Time to place an order"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	return &instruments{orders: orders, reservations: reservations, duration: duration}, nil
}

func (m *instruments) recordReservation(ctx context.Context, outcome string) {
	m.reservations.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}

func (m *instruments) recordCheckout(ctx context.Context, started time.Time, err error) {
	result := checkoutResult(err)
	attrs := metric.WithAttributes(attribute.String("result", result))
	m.orders.Add(ctx, 1, attrs)
	m.duration.Record(ctx, time.Since(started).Seconds(), attrs)
}

func checkoutResult(err error) string {
	switch {
	case err == nil:
		return "placed"
	case errors.Is(err, domain.ErrUnauthenticated):
		return "unauthenticated"
	case errors.Is(err, domain.ErrMissingAddress):
		return "missing_address"
	case errors.Is(err, domain.ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, domain.ErrInsufficientStock):
		return "insufficient_stock"
	case errors.Is(err, domain.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
