package catalog

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront-checkout/internal/domain"
	"github.com/joao-fontenele/storefront-checkout/internal/memstore"
)

func newTestMux() *http.ServeMux {
	store := memstore.New()
	store.PutProduct(domain.Product{ID: "p1", Name: "Bead Bracelet", Price: decimal.NewFromInt(100), Stock: 3, ImageURL: "bead.png"})
	store.PutProduct(domain.Product{ID: "p2", Name: "Leather Cuff", Price: decimal.NewFromInt(50), Stock: 1})

	images := NewImageResolver("https://cdn.example.com", "product-images", "")
	h := NewHandler(store.Catalog(), images, slog.New(slog.NewTextHandler(io.Discard, nil)))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /products", h.HandleList)
	mux.HandleFunc("GET /products/{id}", h.HandleGet)
	return mux
}

func TestHandler_HandleList(t *testing.T) {
	mux := newTestMux()

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var products []domain.Product
	if err := json.NewDecoder(rec.Body).Decode(&products); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(products) != 2 {
		t.Fatalf("expected 2 products, got %d", len(products))
	}
	if want := "https://cdn.example.com/storage/v1/object/public/product-images/bead.png"; products[0].ImageURL != want {
		t.Errorf("expected resolved image %q, got %q", want, products[0].ImageURL)
	}
	if products[1].ImageURL != DefaultPlaceholderImage {
		t.Errorf("expected placeholder for product without image, got %q", products[1].ImageURL)
	}
}

func TestHandler_HandleGet(t *testing.T) {
	mux := newTestMux()

	t.Run("found", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/p1", nil))

		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}

		var product domain.Product
		if err := json.NewDecoder(rec.Body).Decode(&product); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if !product.Price.Equal(decimal.NewFromInt(100)) {
			t.Errorf("expected price 100, got %s", product.Price)
		}
	})

	t.Run("missing", func(t *testing.T) {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/nope", nil))

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rec.Code)
		}
	})
}
