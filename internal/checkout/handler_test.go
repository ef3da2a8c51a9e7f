package checkout

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/storefront-checkout/internal/auth"
	"github.com/joao-fontenele/storefront-checkout/internal/idempotency"
)

func newCheckoutRequest(body, key string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	auth.SetIdentity(req.Header, auth.User{ID: "u1", Email: "ana@example.com"})
	if key != "" {
		req.Header.Set(HeaderIdempotencyKey, key)
	}
	return req
}

func TestHandler_HandleCheckout(t *testing.T) {
	t.Run("places an order", func(t *testing.T) {
		f := newFixture(t, 3, 1)
		handler := NewHandler(f.assembler, f.store.Orders(), nil, testLogger)

		rec := httptest.NewRecorder()
		handler.HandleCheckout(rec, newCheckoutRequest(`{"payment_method":"cod"}`, ""))

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
		}

		var placement Placement
		if err := json.NewDecoder(rec.Body).Decode(&placement); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if placement.Order == nil || !placement.Order.Total.Equal(decimal.NewFromInt(250)) {
			t.Errorf("unexpected placement: %+v", placement.Order)
		}
	})

	t.Run("accepts an empty body", func(t *testing.T) {
		f := newFixture(t, 3, 1)
		handler := NewHandler(f.assembler, f.store.Orders(), nil, testLogger)

		rec := httptest.NewRecorder()
		handler.HandleCheckout(rec, newCheckoutRequest("", ""))

		if rec.Code != http.StatusCreated {
			t.Errorf("expected status 201, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("replays a repeated idempotency key", func(t *testing.T) {
		f := newFixture(t, 3, 1)
		handler := NewHandler(f.assembler, f.store.Orders(), idempotency.NewMemoryStore(time.Hour), testLogger)

		first := httptest.NewRecorder()
		handler.HandleCheckout(first, newCheckoutRequest(`{}`, "key-1"))
		if first.Code != http.StatusCreated {
			t.Fatalf("expected status 201, got %d: %s", first.Code, first.Body.String())
		}

		second := httptest.NewRecorder()
		handler.HandleCheckout(second, newCheckoutRequest(`{}`, "key-1"))
		if second.Code != http.StatusOK {
			t.Fatalf("expected status 200 on replay, got %d: %s", second.Code, second.Body.String())
		}

		var a, b Placement
		_ = json.NewDecoder(first.Body).Decode(&a)
		_ = json.NewDecoder(second.Body).Decode(&b)
		if a.Order.ID != b.Order.ID {
			t.Errorf("expected replay of %s, got %s", a.Order.ID, b.Order.ID)
		}

		orders, _ := f.store.Orders().ListByUser(t.Context(), "u1")
		if len(orders) != 1 {
			t.Errorf("expected a single order, got %d", len(orders))
		}
	})

	t.Run("failed checkout frees the idempotency key", func(t *testing.T) {
		f := newFixture(t, 3, 0)
		keys := idempotency.NewMemoryStore(time.Hour)
		handler := NewHandler(f.assembler, f.store.Orders(), keys, testLogger)

		rec := httptest.NewRecorder()
		handler.HandleCheckout(rec, newCheckoutRequest(`{}`, "key-1"))
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected status 409, got %d", rec.Code)
		}

		var body map[string]string
		_ = json.NewDecoder(rec.Body).Decode(&body)
		if body["step"] != StepReserve || body["product_id"] != "B" {
			t.Errorf("unexpected error body: %v", body)
		}

		if _, started, err := keys.Begin(t.Context(), "u1:key-1"); err != nil || !started {
			t.Errorf("expected key to be claimable again, got started=%v err=%v", started, err)
		}
	})

	t.Run("in-flight key is a conflict", func(t *testing.T) {
		f := newFixture(t, 3, 1)
		keys := idempotency.NewMemoryStore(time.Hour)
		_, _, _ = keys.Begin(t.Context(), "u1:key-1")
		handler := NewHandler(f.assembler, f.store.Orders(), keys, testLogger)

		rec := httptest.NewRecorder()
		handler.HandleCheckout(rec, newCheckoutRequest(`{}`, "key-1"))
		if rec.Code != http.StatusConflict {
			t.Errorf("expected status 409, got %d", rec.Code)
		}
	})

	t.Run("empty cart is unprocessable", func(t *testing.T) {
		f := newFixture(t, 3, 1)
		_ = f.carts.Clear(t.Context(), "u1")
		handler := NewHandler(f.assembler, f.store.Orders(), nil, testLogger)

		rec := httptest.NewRecorder()
		handler.HandleCheckout(rec, newCheckoutRequest(`{}`, ""))
		if rec.Code != http.StatusUnprocessableEntity {
			t.Errorf("expected status 422, got %d", rec.Code)
		}
	})

	t.Run("requires a user", func(t *testing.T) {
		f := newFixture(t, 3, 1)
		handler := NewHandler(f.assembler, f.store.Orders(), nil, testLogger)

		rec := httptest.NewRecorder()
		handler.HandleCheckout(rec, httptest.NewRequest(http.MethodPost, "/checkout", strings.NewReader(`{}`)))
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected status 401, got %d", rec.Code)
		}
	})
}
