// Package checkout turns a user's cart into an immutable order while
// reserving stock for every line.
package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/joao-fontenele/storefront-checkout/internal/cart"
	"github.com/joao-fontenele/storefront-checkout/internal/domain"
)

var tracer = otel.Tracer("storefront/checkout")

const DefaultStepTimeout = 5 * time.Second

type CartSource interface {
	Snapshot(ctx context.Context, userID string) (*cart.Snapshot, error)
	Clear(ctx context.Context, userID string) error
}

type Ledger interface {
	Reserve(ctx context.Context, productID string, quantity int) (int, error)
	Release(ctx context.Context, productID string, quantity int) (int, error)
}

type OrderStore interface {
	Create(ctx context.Context, order *domain.Order) error
}

type Profiles interface {
	Get(ctx context.Context, userID string) (*domain.Profile, error)
}

type Publisher interface {
	Publish(ctx context.Context, eventType, key string, event any) error
}

type Request struct {
	UserID string
	// Email from the session, used when the profile has none.
	Email string
	// Address overrides the profile's shipping address when set.
	Address       string
	PaymentMethod string
}

type Placement struct {
	Order *domain.Order `json:"order"`
	// Skipped lists products whose stock was not decremented. Only the
	// lenient policy ever fills it.
	Skipped []string `json:"skipped,omitempty"`
}

type Assembler struct {
	carts       CartSource
	ledger      Ledger
	orders      OrderStore
	profiles    Profiles
	publisher   Publisher
	policy      Policy
	stepTimeout time.Duration
	now         func() time.Time
	metrics     *instruments
	logger      *slog.Logger
}

type Option func(*Assembler)

func WithPolicy(p Policy) Option {
	return func(a *Assembler) {
		a.policy = p
	}
}

func WithPublisher(p Publisher) Option {
	return func(a *Assembler) {
		a.publisher = p
	}
}

func WithStepTimeout(d time.Duration) Option {
	return func(a *Assembler) {
		if d > 0 {
			a.stepTimeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(a *Assembler) {
		a.now = now
	}
}

func NewAssembler(carts CartSource, ledger Ledger, orders OrderStore, profiles Profiles, logger *slog.Logger, opts ...Option) (*Assembler, error) {
	metrics, err := newInstruments()
	if err != nil {
		return nil, fmt.Errorf("create checkout instruments: %w", err)
	}

	a := &Assembler{
		carts:       carts,
		ledger:      ledger,
		orders:      orders,
		profiles:    profiles,
		policy:      PolicyStrict,
		stepTimeout: DefaultStepTimeout,
		now:         func() time.Time { return time.Now().UTC() },
		metrics:     metrics,
		logger:      logger,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

func (a *Assembler) Policy() Policy {
	return a.policy
}

type reservation struct {
	productID string
	quantity  int
}

// PlaceOrder validates the request, freezes the cart into order line items,
// reserves stock, persists the order and clears the cart.
//
// Validation and the cart snapshot honor ctx. Once the first reservation is
// attempted the remaining steps ignore cancellation of ctx and are bounded
// only by the per-step timeout, so an abandoned request cannot leave stock
// reserved without an order.
func (a *Assembler) PlaceOrder(ctx context.Context, req Request) (placement *Placement, err error) {
	started := time.Now()
	ctx, span := tracer.Start(ctx, "checkout.PlaceOrder",
		trace.WithAttributes(
			attribute.String("user.id", req.UserID),
			attribute.String("checkout.policy", a.policy.String()),
		),
	)
	defer func() {
		a.metrics.recordCheckout(ctx, started, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if strings.TrimSpace(req.UserID) == "" {
		return nil, domain.ErrUnauthenticated
	}

	profile, err := a.profiles.Get(ctx, req.UserID)
	if err != nil {
		return nil, &StepError{Step: StepProfile, Err: persistenceError(err)}
	}
	if profile == nil {
		profile = &domain.Profile{UserID: req.UserID}
	}

	address := strings.TrimSpace(req.Address)
	if address == "" {
		address = strings.TrimSpace(profile.Address)
	}
	if address == "" {
		return nil, domain.ErrMissingAddress
	}

	snapshot, err := a.carts.Snapshot(ctx, req.UserID)
	if err != nil {
		return nil, &StepError{Step: StepSnapshot, Err: persistenceError(err)}
	}
	if snapshot.Empty() {
		return nil, domain.ErrEmptyCart
	}

	items, reservations, err := freeze(snapshot)
	if err != nil {
		return nil, err
	}

	email := profile.Email
	if email == "" {
		email = req.Email
	}
	paymentMethod := strings.TrimSpace(req.PaymentMethod)
	if paymentMethod == "" {
		paymentMethod = domain.PaymentCashOnDelivery
	}

	order := &domain.Order{
		UserID:        req.UserID,
		Name:          profile.Name,
		Email:         email,
		Address:       address,
		PaymentMethod: paymentMethod,
		Total:         domain.SumLineItems(items),
		Items:         items,
		Status:        domain.OrderStatusPending,
	}

	mctx := context.WithoutCancel(ctx)

	reserved, skipped, err := a.reserveAll(mctx, reservations)
	if err != nil {
		return nil, err
	}

	order.CreatedAt = a.now()
	if err := a.step(mctx, func(ctx context.Context) error { return a.orders.Create(ctx, order) }); err != nil {
		a.releaseAll(mctx, reserved)
		return nil, &StepError{Step: StepPersist, Err: persistenceError(err)}
	}
	span.SetAttributes(attribute.String("order.id", order.ID))

	if err := a.step(mctx, func(ctx context.Context) error { return a.carts.Clear(ctx, req.UserID) }); err != nil {
		a.logger.Error("failed to clear cart after checkout", "error", err, "user_id", req.UserID, "order_id", order.ID)
	}

	a.publish(mctx, order)

	a.logger.Info("order placed",
		"order_id", order.ID,
		"user_id", order.UserID,
		"total", order.Total.StringFixed(2),
		"items", len(order.Items),
		"skipped", len(skipped),
	)

	return &Placement{Order: order, Skipped: skipped}, nil
}

// freeze copies name and price out of the live cart join. A line whose product
// no longer exists cannot be priced and fails the checkout.
func freeze(snapshot *cart.Snapshot) ([]domain.OrderLineItem, []reservation, error) {
	items := make([]domain.OrderLineItem, 0, len(snapshot.Lines))
	var reservations []reservation
	index := make(map[string]int, len(snapshot.Lines))

	for _, line := range snapshot.Lines {
		if line.Product == nil {
			return nil, nil, &StepError{
				Step:      StepSnapshot,
				ProductID: line.Item.ProductID,
				Err:       fmt.Errorf("product %s: %w", line.Item.ProductID, domain.ErrNotFound),
			}
		}

		item, err := domain.NewOrderLineItem(line.Product.Name, line.Item.Quantity, line.Product.Price)
		if err != nil {
			return nil, nil, &StepError{Step: StepSnapshot, ProductID: line.Item.ProductID, Err: err}
		}
		items = append(items, item)

		if i, ok := index[line.Item.ProductID]; ok {
			reservations[i].quantity += line.Item.Quantity
			continue
		}
		index[line.Item.ProductID] = len(reservations)
		reservations = append(reservations, reservation{productID: line.Item.ProductID, quantity: line.Item.Quantity})
	}

	return items, reservations, nil
}

func (a *Assembler) reserveAll(ctx context.Context, reservations []reservation) ([]reservation, []string, error) {
	reserved := make([]reservation, 0, len(reservations))
	var skipped []string

	for _, r := range reservations {
		err := a.step(ctx, func(ctx context.Context) error {
			_, err := a.ledger.Reserve(ctx, r.productID, r.quantity)
			return err
		})
		if err == nil {
			a.metrics.recordReservation(ctx, "reserved")
			reserved = append(reserved, r)
			continue
		}

		if errors.Is(err, domain.ErrInsufficientStock) && a.policy == PolicyLenient {
			a.metrics.recordReservation(ctx, "skipped")
			a.logger.Warn("insufficient stock, skipping reservation", "product_id", r.productID, "quantity", r.quantity)
			skipped = append(skipped, r.productID)
			continue
		}

		a.metrics.recordReservation(ctx, "failed")
		a.releaseAll(ctx, reserved)
		if !errors.Is(err, domain.ErrInsufficientStock) && !errors.Is(err, domain.ErrNotFound) {
			err = persistenceError(err)
		}
		return nil, nil, &StepError{Step: StepReserve, ProductID: r.productID, Err: err}
	}

	return reserved, skipped, nil
}

func (a *Assembler) releaseAll(ctx context.Context, reserved []reservation) {
	for _, r := range reserved {
		err := a.step(ctx, func(ctx context.Context) error {
			_, err := a.ledger.Release(ctx, r.productID, r.quantity)
			return err
		})
		if err != nil {
			a.logger.Error("failed to release stock", "error", err, "product_id", r.productID, "quantity", r.quantity)
			continue
		}
		a.metrics.recordReservation(ctx, "released")
	}
}

func (a *Assembler) publish(ctx context.Context, order *domain.Order) {
	if a.publisher == nil {
		return
	}
	err := a.step(ctx, func(ctx context.Context) error {
		return a.publisher.Publish(ctx, domain.EventOrderPlaced, order.ID, domain.NewOrderPlacedEvent(order))
	})
	if err != nil {
		a.logger.Error("failed to publish order placed event", "error", err, "order_id", order.ID)
	}
}

func (a *Assembler) step(ctx context.Context, fn func(context.Context) error) error {
	ctx, cancel := context.WithTimeout(ctx, a.stepTimeout)
	defer cancel()
	return fn(ctx)
}

func persistenceError(err error) error {
	if errors.Is(err, domain.ErrPersistence) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrPersistence, err)
}
