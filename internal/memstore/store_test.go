package memstore

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/goleak"

	"github.com/joao-fontenele/storefront-checkout/internal/domain"
)

func TestLedger_Reserve(t *testing.T) {
	ctx := context.Background()

	t.Run("decrements and reports new stock", func(t *testing.T) {
		s := New()
		s.PutProduct(domain.Product{ID: "p1", Name: "Bracelet", Stock: 3})

		stock, err := s.Ledger().Reserve(ctx, "p1", 2)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if stock != 1 {
			t.Errorf("expected stock 1, got %d", stock)
		}
	})

	t.Run("insufficient stock leaves stock unchanged", func(t *testing.T) {
		s := New()
		s.PutProduct(domain.Product{ID: "p1", Stock: 1})

		_, err := s.Ledger().Reserve(ctx, "p1", 2)
		if !errors.Is(err, domain.ErrInsufficientStock) {
			t.Fatalf("expected ErrInsufficientStock, got %v", err)
		}

		level, _ := s.Ledger().GetStock(ctx, "p1")
		if level.Stock != 1 {
			t.Errorf("expected stock 1, got %d", level.Stock)
		}
	})

	t.Run("unknown product", func(t *testing.T) {
		s := New()
		if _, err := s.Ledger().Reserve(ctx, "missing", 1); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("rejects non-positive quantities", func(t *testing.T) {
		s := New()
		s.PutProduct(domain.Product{ID: "p1", Stock: 5})
		if _, err := s.Ledger().Reserve(ctx, "p1", 0); !errors.Is(err, domain.ErrInvalidQuantity) {
			t.Errorf("expected ErrInvalidQuantity, got %v", err)
		}
		if _, err := s.Ledger().Release(ctx, "p1", -1); !errors.Is(err, domain.ErrInvalidQuantity) {
			t.Errorf("expected ErrInvalidQuantity, got %v", err)
		}
	})
}

func TestLedger_ConcurrentReserveNeverOversells(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx := context.Background()
	s := New()
	const initial = 37
	s.PutProduct(domain.Product{ID: "p1", Stock: initial})

	var (
		wg        sync.WaitGroup
		succeeded atomic.Int64
	)
	for i := 0; i < 200; i++ {
		qty := i%3 + 1
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Ledger().Reserve(ctx, "p1", qty)
			switch {
			case err == nil:
				succeeded.Add(int64(qty))
			case errors.Is(err, domain.ErrInsufficientStock):
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	level, _ := s.Ledger().GetStock(ctx, "p1")
	if level.Stock < 0 {
		t.Fatalf("stock went negative: %d", level.Stock)
	}
	if got := initial - int(succeeded.Load()); level.Stock != got {
		t.Errorf("expected stock %d (initial minus successful reservations), got %d", got, level.Stock)
	}
}

func TestLedger_ProductsDoNotBlockEachOther(t *testing.T) {
	s := New()
	s.PutProduct(domain.Product{ID: "busy", Stock: 1})
	s.PutProduct(domain.Product{ID: "free", Stock: 1})

	busy := s.slot("busy")
	busy.mu.Lock()
	defer busy.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		_, err := s.Ledger().Reserve(context.Background(), "free", 1)
		done <- err
	}()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("reservation on another product blocked behind a held product lock")
	}
}

func TestCarts(t *testing.T) {
	ctx := context.Background()

	t.Run("add increments existing item", func(t *testing.T) {
		carts := New().Carts()

		first, _ := carts.AddOrIncrement(ctx, "u1", "p1")
		second, _ := carts.AddOrIncrement(ctx, "u1", "p1")

		if first.ID != second.ID {
			t.Errorf("expected same cart item, got %s and %s", first.ID, second.ID)
		}
		if second.Quantity != 2 {
			t.Errorf("expected quantity 2, got %d", second.Quantity)
		}

		items, _ := carts.List(ctx, "u1")
		if len(items) != 1 {
			t.Errorf("expected 1 item, got %d", len(items))
		}
	})

	t.Run("set quantity below one is rejected", func(t *testing.T) {
		carts := New().Carts()
		item, _ := carts.AddOrIncrement(ctx, "u1", "p1")

		if _, err := carts.SetQuantity(ctx, "u1", item.ID, 0); !errors.Is(err, domain.ErrInvalidQuantity) {
			t.Fatalf("expected ErrInvalidQuantity, got %v", err)
		}

		items, _ := carts.List(ctx, "u1")
		if items[0].Quantity != 1 {
			t.Errorf("expected quantity to stay 1, got %d", items[0].Quantity)
		}
	})

	t.Run("items are scoped to their owner", func(t *testing.T) {
		carts := New().Carts()
		item, _ := carts.AddOrIncrement(ctx, "u1", "p1")

		if _, err := carts.SetQuantity(ctx, "u2", item.ID, 5); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound for another user's item, got %v", err)
		}
		if err := carts.Remove(ctx, "u2", item.ID); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
		items, _ := carts.List(ctx, "u1")
		if len(items) != 1 {
			t.Errorf("expected item to survive another user's remove, got %d items", len(items))
		}
	})

	t.Run("remove is idempotent", func(t *testing.T) {
		carts := New().Carts()
		item, _ := carts.AddOrIncrement(ctx, "u1", "p1")

		for i := 0; i < 2; i++ {
			if err := carts.Remove(ctx, "u1", item.ID); err != nil {
				t.Fatalf("remove %d: unexpected error: %v", i, err)
			}
		}
		items, _ := carts.List(ctx, "u1")
		if len(items) != 0 {
			t.Errorf("expected empty cart, got %d items", len(items))
		}
	})
}

func TestOrders(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	orders := New().Orders()
	for i, total := range []int64{100, 250, 50} {
		order := &domain.Order{
			UserID:    "u1",
			Total:     decimal.NewFromInt(total),
			Items:     []domain.OrderLineItem{{ProductName: "A", Quantity: 1, Price: decimal.NewFromInt(total)}},
			Status:    domain.OrderStatusPending,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		if err := orders.Create(ctx, order); err != nil {
			t.Fatalf("create: %v", err)
		}
		if order.ID == "" {
			t.Fatal("expected order id to be assigned")
		}
	}

	t.Run("lists newest first", func(t *testing.T) {
		list, _ := orders.ListByUser(ctx, "u1")
		if len(list) != 3 {
			t.Fatalf("expected 3 orders, got %d", len(list))
		}
		for i := 1; i < len(list); i++ {
			if list[i].CreatedAt.After(list[i-1].CreatedAt) {
				t.Errorf("orders not in descending creation order at %d", i)
			}
		}
	})

	t.Run("returned orders are copies", func(t *testing.T) {
		list, _ := orders.ListByUser(ctx, "u1")
		list[0].Items[0].ProductName = "mutated"

		again, _ := orders.GetByID(ctx, list[0].ID)
		if again.Items[0].ProductName != "A" {
			t.Errorf("stored order was mutated through a returned copy")
		}
	})

	t.Run("status update is compare-and-set", func(t *testing.T) {
		list, _ := orders.ListByUser(ctx, "u1")
		id := list[0].ID

		updated, err := orders.UpdateStatus(ctx, id, domain.OrderStatusPending, domain.OrderStatusToShip)
		if err != nil || updated == nil {
			t.Fatalf("expected update to succeed, got %v, %v", updated, err)
		}
		stale, err := orders.UpdateStatus(ctx, id, domain.OrderStatusPending, domain.OrderStatusToShip)
		if err != nil || stale != nil {
			t.Errorf("expected stale update to be a no-op, got %v, %v", stale, err)
		}
	})

	t.Run("summary", func(t *testing.T) {
		summary, _ := orders.Summary(ctx)
		if summary.OrderCount != 3 {
			t.Errorf("expected 3 orders, got %d", summary.OrderCount)
		}
		if !summary.TotalSales.Equal(decimal.NewFromInt(400)) {
			t.Errorf("expected total sales 400, got %s", summary.TotalSales)
		}
	})
}
