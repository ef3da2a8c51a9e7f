package cart

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/joao-fontenele/storefront-checkout/internal/auth"
	"github.com/joao-fontenele/storefront-checkout/internal/catalog"
)

func newTestHandler() *Handler {
	svc, _ := newTestService()
	return NewHandler(
		svc,
		catalog.NewImageResolver("", "product-images", ""),
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func withUser(req *http.Request, userID string) *http.Request {
	auth.SetIdentity(req.Header, auth.User{ID: userID})
	return req
}

func TestHandler(t *testing.T) {
	t.Run("rejects requests without a user", func(t *testing.T) {
		handler := newTestHandler()

		rec := httptest.NewRecorder()
		handler.HandleGet(rec, httptest.NewRequest(http.MethodGet, "/cart", nil))

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected status 401, got %d", rec.Code)
		}
	})

	t.Run("add then get", func(t *testing.T) {
		handler := newTestHandler()

		rec := httptest.NewRecorder()
		req := withUser(httptest.NewRequest(http.MethodPost, "/cart/items", strings.NewReader(`{"product_id":"A"}`)), "u1")
		handler.HandleAddItem(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
		}

		rec = httptest.NewRecorder()
		handler.HandleGet(rec, withUser(httptest.NewRequest(http.MethodGet, "/cart", nil), "u1"))
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status 200, got %d", rec.Code)
		}

		var snapshot Snapshot
		if err := json.NewDecoder(rec.Body).Decode(&snapshot); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if len(snapshot.Lines) != 1 {
			t.Fatalf("expected 1 line, got %d", len(snapshot.Lines))
		}
		if snapshot.Lines[0].Product.ImageURL != catalog.DefaultPlaceholderImage {
			t.Errorf("expected placeholder image, got %q", snapshot.Lines[0].Product.ImageURL)
		}
	})

	t.Run("add unknown product is 404", func(t *testing.T) {
		handler := newTestHandler()

		rec := httptest.NewRecorder()
		req := withUser(httptest.NewRequest(http.MethodPost, "/cart/items", strings.NewReader(`{"product_id":"nope"}`)), "u1")
		handler.HandleAddItem(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("expected status 404, got %d", rec.Code)
		}
	})

	t.Run("quantity below one is 400", func(t *testing.T) {
		handler := newTestHandler()
		item, _ := handler.service.Add(t.Context(), "u1", "A")

		rec := httptest.NewRecorder()
		req := withUser(httptest.NewRequest(http.MethodPatch, "/cart/items/"+item.ID, strings.NewReader(`{"quantity":0}`)), "u1")
		req.SetPathValue("id", item.ID)
		handler.HandleSetQuantity(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected status 400, got %d", rec.Code)
		}
	})

	t.Run("remove returns 204", func(t *testing.T) {
		handler := newTestHandler()
		item, _ := handler.service.Add(t.Context(), "u1", "A")

		rec := httptest.NewRecorder()
		req := withUser(httptest.NewRequest(http.MethodDelete, "/cart/items/"+item.ID, nil), "u1")
		req.SetPathValue("id", item.ID)
		handler.HandleRemoveItem(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Errorf("expected status 204, got %d", rec.Code)
		}

		snapshot, _ := handler.service.Snapshot(t.Context(), "u1")
		if !snapshot.Empty() {
			t.Errorf("expected empty cart, got %d lines", len(snapshot.Lines))
		}
	})
}
