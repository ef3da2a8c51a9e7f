package cart

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/storefront-checkout/internal/auth"
	"github.com/joao-fontenele/storefront-checkout/internal/catalog"
	"github.com/joao-fontenele/storefront-checkout/internal/domain"
)

type Handler struct {
	service *Service
	images  *catalog.ImageResolver
	logger  *slog.Logger
}

func NewHandler(service *Service, images *catalog.ImageResolver, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		images:  images,
		logger:  logger,
	}
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromRequest(r)
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	snapshot, err := h.service.Snapshot(r.Context(), user.ID)
	if err != nil {
		h.logger.Error("failed to load cart", "error", err, "user_id", user.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	for _, line := range snapshot.Lines {
		if line.Product != nil {
			line.Product.ImageURL = h.images.Resolve(line.Product.ImageURL)
		}
	}

	h.writeJSON(w, http.StatusOK, snapshot)
}

type addItemRequest struct {
	ProductID string `json:"product_id"`
}

func (h *Handler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromRequest(r)
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if req.ProductID == "" {
		h.writeError(w, http.StatusBadRequest, "product_id is required")
		return
	}

	item, err := h.service.Add(r.Context(), user.ID, req.ProductID)
	if err != nil {
		h.writeServiceError(w, err, "failed to add cart item", "product_id", req.ProductID)
		return
	}

	h.logger.Info("cart item added", "user_id", user.ID, "product_id", req.ProductID, "quantity", item.Quantity)
	h.writeJSON(w, http.StatusOK, item)
}

type setQuantityRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) HandleSetQuantity(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromRequest(r)
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	itemID := r.PathValue("id")
	var req setQuantityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	item, err := h.service.SetQuantity(r.Context(), user.ID, itemID, req.Quantity)
	if err != nil {
		h.writeServiceError(w, err, "failed to update cart item", "item_id", itemID)
		return
	}

	h.writeJSON(w, http.StatusOK, item)
}

func (h *Handler) HandleRemoveItem(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromRequest(r)
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	itemID := r.PathValue("id")
	if err := h.service.Remove(r.Context(), user.ID, itemID); err != nil {
		h.writeServiceError(w, err, "failed to remove cart item", "item_id", itemID)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error, msg string, args ...any) {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		h.writeError(w, http.StatusUnauthorized, "unauthenticated")
	case errors.Is(err, domain.ErrInvalidQuantity):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	default:
		h.logger.Error(msg, append([]any{"error", err}, args...)...)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
