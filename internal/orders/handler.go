package orders

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/storefront-checkout/internal/auth"
	"github.com/joao-fontenele/storefront-checkout/internal/domain"
)

type Handler struct {
	orders  Store
	history *HistoryView
	logger  *slog.Logger
}

func NewHandler(orders Store, history *HistoryView, logger *slog.Logger) *Handler {
	return &Handler{
		orders:  orders,
		history: history,
		logger:  logger,
	}
}

func parseFilter(r *http.Request) (domain.StatusFilter, error) {
	filter := domain.StatusFilter(r.URL.Query().Get("status"))
	if filter.All() {
		return filter, nil
	}
	if _, err := domain.ParseOrderStatus(string(filter)); err != nil {
		return "", err
	}
	return filter, nil
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromRequest(r)
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	filter, err := parseFilter(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	views, err := h.history.ListOrders(r.Context(), user.ID, filter)
	if err != nil {
		h.logger.Error("failed to list orders", "error", err, "user_id", user.ID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("orders listed", "user_id", user.ID, "status", string(filter), "count", len(views))
	h.writeJSON(w, http.StatusOK, views)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromRequest(r)
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	view, err := h.history.GetOrder(r.Context(), user.ID, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "order not found")
			return
		}
		h.logger.Error("failed to get order", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, view)
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

// HandleUpdateStatus advances an order through its fulfillment states. It is
// called by the fulfillment worker and, through the gateway, by admins.
func (h *Handler) HandleUpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		h.writeError(w, http.StatusBadRequest, "missing order id")
		return
	}

	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	to, err := domain.ParseOrderStatus(req.Status)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := h.orders.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get order", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if order == nil {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	if err := domain.CanTransition(order.Status, to, order.PaymentMethod); err != nil {
		h.writeError(w, http.StatusConflict, err.Error())
		return
	}

	updated, err := h.orders.UpdateStatus(r.Context(), id, order.Status, to)
	if err != nil {
		h.logger.Error("failed to update order status", "error", err, "id", id)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if updated == nil {
		h.writeError(w, http.StatusConflict, "order status changed concurrently")
		return
	}

	h.logger.Info("order status updated", "order_id", updated.ID, "from", order.Status, "status", updated.Status)
	h.writeJSON(w, http.StatusOK, updated)
}

func (h *Handler) HandleAdminList(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	filter, err := parseFilter(r)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	orders, err := h.orders.ListAll(r.Context())
	if err != nil {
		h.logger.Error("failed to list all orders", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	matching := make([]domain.Order, 0, len(orders))
	for _, order := range orders {
		if filter.Matches(order.Status) {
			matching = append(matching, order)
		}
	}

	h.logger.Info("admin orders listed", "count", len(matching))
	h.writeJSON(w, http.StatusOK, matching)
}

func (h *Handler) HandleSalesSummary(w http.ResponseWriter, r *http.Request) {
	if !h.requireAdmin(w, r) {
		return
	}

	summary, err := h.orders.Summary(r.Context())
	if err != nil {
		h.logger.Error("failed to summarize sales", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	user, err := auth.UserFromRequest(r)
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, "unauthenticated")
		return false
	}
	if !user.IsAdmin() {
		h.writeError(w, http.StatusForbidden, "forbidden")
		return false
	}
	return true
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
