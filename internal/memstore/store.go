// Package memstore is an in-memory storage backend for the storefront. It
// backs STORAGE_DRIVER=memory and the unit tests of the service packages.
package memstore

import (
	"sort"
	"sync"
	"time"

	"github.com/joao-fontenele/storefront-checkout/internal/domain"
)

type productSlot struct {
	mu      sync.Mutex
	product domain.Product
}

// Store holds products, carts, orders and profiles. Product stock is guarded
// per product: the map lock is only taken exclusively when products are added
// or removed, so reservations on different products never contend.
type Store struct {
	mu       sync.RWMutex
	products map[string]*productSlot

	cartMu sync.Mutex
	carts  map[string][]domain.CartItem

	orderMu sync.RWMutex
	orders  []domain.Order

	profileMu sync.RWMutex
	profiles  map[string]domain.Profile

	now func() time.Time
}

type Option func(*Store)

func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

func New(opts ...Option) *Store {
	s := &Store{
		products: make(map[string]*productSlot),
		carts:    make(map[string][]domain.CartItem),
		profiles: make(map[string]domain.Profile),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PutProduct creates or replaces a catalog entry, including its stock.
func (s *Store) PutProduct(p domain.Product) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if slot, ok := s.products[p.ID]; ok {
		slot.mu.Lock()
		slot.product = p
		slot.mu.Unlock()
		return
	}
	s.products[p.ID] = &productSlot{product: p}
}

func (s *Store) DeleteProduct(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.products, id)
}

func (s *Store) slot(id string) *productSlot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.products[id]
}

func (s *Store) snapshotProducts() []domain.Product {
	s.mu.RLock()
	slots := make([]*productSlot, 0, len(s.products))
	for _, slot := range s.products {
		slots = append(slots, slot)
	}
	s.mu.RUnlock()

	products := make([]domain.Product, 0, len(slots))
	for _, slot := range slots {
		slot.mu.Lock()
		products = append(products, slot.product)
		slot.mu.Unlock()
	}
	sort.Slice(products, func(i, j int) bool { return products[i].ID < products[j].ID })
	return products
}

func (s *Store) Catalog() *Catalog   { return &Catalog{s: s} }
func (s *Store) Ledger() *Ledger     { return &Ledger{s: s} }
func (s *Store) Carts() *Carts       { return &Carts{s: s} }
func (s *Store) Orders() *Orders     { return &Orders{s: s} }
func (s *Store) Profiles() *Profiles { return &Profiles{s: s} }

func copyOrder(o domain.Order) domain.Order {
	o.Items = append([]domain.OrderLineItem(nil), o.Items...)
	return o
}
