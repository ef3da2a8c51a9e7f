package main

import (
	"database/sql"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront-checkout/internal/cart"
	"github.com/joao-fontenele/storefront-checkout/internal/catalog"
	"github.com/joao-fontenele/storefront-checkout/internal/checkout"
	"github.com/joao-fontenele/storefront-checkout/internal/domain"
	"github.com/joao-fontenele/storefront-checkout/internal/inventory"
	"github.com/joao-fontenele/storefront-checkout/internal/memstore"
	"github.com/joao-fontenele/storefront-checkout/internal/orders"
	"github.com/joao-fontenele/storefront-checkout/internal/profile"
)

type productStore interface {
	catalog.Reader
	cart.Catalog
	orders.ProductFinder
}

type orderStore interface {
	orders.Store
	checkout.OrderStore
}

// storage is the set of backends the service runs on, either all Postgres or
// all in memory.
type storage struct {
	products productStore
	ledger   inventory.Store
	carts    cart.Store
	orders   orderStore
	profiles profile.Store
}

func newPostgresStorage(db *sql.DB) *storage {
	return &storage{
		products: catalog.NewProductRepository(db),
		ledger:   inventory.NewStockRepository(db),
		carts:    cart.NewCartRepository(db),
		orders:   orders.NewOrderRepository(db),
		profiles: profile.NewProfileRepository(db),
	}
}

// newMemoryStorage seeds the same catalog as the initial migration.
func newMemoryStorage() *storage {
	store := memstore.New()
	for _, p := range []domain.Product{
		{ID: "PRD-001", Name: "Classic Bead Bracelet", Price: decimal.NewFromInt(100), Stock: 100, Description: "Hand-strung wooden beads.", ImageURL: "classic-bead.png"},
		{ID: "PRD-002", Name: "Braided Leather Cuff", Price: decimal.NewFromInt(50), Stock: 100, Description: "Adjustable braided leather.", ImageURL: "leather-cuff.png"},
		{ID: "PRD-003", Name: "Charm Chain", Price: decimal.NewFromInt(250), Stock: 5, Description: "Silver chain with a single charm.", ImageURL: "https://cdn.example.com/charm-chain.png"},
	} {
		store.PutProduct(p)
	}

	return &storage{
		products: store.Catalog(),
		ledger:   store.Ledger(),
		carts:    store.Carts(),
		orders:   store.Orders(),
		profiles: store.Profiles(),
	}
}

