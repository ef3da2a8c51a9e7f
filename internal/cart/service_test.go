package cart

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront-checkout/internal/domain"
	"github.com/joao-fontenele/storefront-checkout/internal/memstore"
)

func newTestService() (*Service, *memstore.Store) {
	store := memstore.New()
	store.PutProduct(domain.Product{ID: "A", Name: "Bead Bracelet", Price: decimal.NewFromInt(100), Stock: 2})
	store.PutProduct(domain.Product{ID: "B", Name: "Charm Chain", Price: decimal.RequireFromString("49.75"), Stock: 1})
	return NewService(store.Carts(), store.Catalog()), store
}

func TestService_Add(t *testing.T) {
	ctx := context.Background()

	t.Run("adding twice increments quantity", func(t *testing.T) {
		svc, _ := newTestService()

		if _, err := svc.Add(ctx, "u1", "A"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		item, err := svc.Add(ctx, "u1", "A")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if item.Quantity != 2 {
			t.Errorf("expected quantity 2, got %d", item.Quantity)
		}
	})

	t.Run("unknown product", func(t *testing.T) {
		svc, _ := newTestService()
		if _, err := svc.Add(ctx, "u1", "missing"); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("requires a user", func(t *testing.T) {
		svc, _ := newTestService()
		if _, err := svc.Add(ctx, "", "A"); !errors.Is(err, domain.ErrUnauthenticated) {
			t.Errorf("expected ErrUnauthenticated, got %v", err)
		}
		if _, err := svc.Snapshot(ctx, " "); !errors.Is(err, domain.ErrUnauthenticated) {
			t.Errorf("expected ErrUnauthenticated, got %v", err)
		}
	})
}

func TestService_Snapshot(t *testing.T) {
	ctx := context.Background()

	t.Run("prices lines at current catalog prices", func(t *testing.T) {
		svc, store := newTestService()
		_, _ = svc.Add(ctx, "u1", "A")
		_, _ = svc.Add(ctx, "u1", "B")
		_, _ = svc.Add(ctx, "u1", "B")

		snapshot, err := svc.Snapshot(ctx, "u1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !snapshot.Total.Equal(decimal.RequireFromString("199.50")) {
			t.Errorf("expected total 199.50, got %s", snapshot.Total)
		}

		store.PutProduct(domain.Product{ID: "A", Name: "Bead Bracelet", Price: decimal.NewFromInt(120), Stock: 2})
		snapshot, _ = svc.Snapshot(ctx, "u1")
		if !snapshot.Total.Equal(decimal.RequireFromString("219.50")) {
			t.Errorf("expected total to follow the catalog, got %s", snapshot.Total)
		}
	})

	t.Run("deleted products leave orphaned lines", func(t *testing.T) {
		svc, store := newTestService()
		_, _ = svc.Add(ctx, "u1", "A")
		_, _ = svc.Add(ctx, "u1", "B")
		store.DeleteProduct("B")

		snapshot, err := svc.Snapshot(ctx, "u1")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(snapshot.Lines) != 2 {
			t.Fatalf("expected 2 lines, got %d", len(snapshot.Lines))
		}

		var orphans int
		for _, line := range snapshot.Lines {
			if line.Product == nil {
				orphans++
			}
		}
		if orphans != 1 {
			t.Errorf("expected 1 orphaned line, got %d", orphans)
		}
		if !snapshot.Total.Equal(decimal.NewFromInt(100)) {
			t.Errorf("expected total 100, got %s", snapshot.Total)
		}
	})

	t.Run("carts are private to their owner", func(t *testing.T) {
		svc, _ := newTestService()
		_, _ = svc.Add(ctx, "u1", "A")

		snapshot, _ := svc.Snapshot(ctx, "u2")
		if !snapshot.Empty() {
			t.Errorf("expected u2 cart to be empty, got %d lines", len(snapshot.Lines))
		}
	})
}
