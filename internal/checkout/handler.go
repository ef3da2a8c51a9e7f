package checkout

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/joao-fontenele/storefront-checkout/internal/auth"
	"github.com/joao-fontenele/storefront-checkout/internal/domain"
	"github.com/joao-fontenele/storefront-checkout/internal/idempotency"
)

const HeaderIdempotencyKey = "Idempotency-Key"

type OrderReader interface {
	GetByID(ctx context.Context, id string) (*domain.Order, error)
}

type Handler struct {
	assembler *Assembler
	orders    OrderReader
	keys      idempotency.Store
	logger    *slog.Logger
}

func NewHandler(assembler *Assembler, orders OrderReader, keys idempotency.Store, logger *slog.Logger) *Handler {
	return &Handler{
		assembler: assembler,
		orders:    orders,
		keys:      keys,
		logger:    logger,
	}
}

type checkoutRequest struct {
	PaymentMethod string `json:"payment_method"`
	Address       string `json:"address"`
}

func (h *Handler) HandleCheckout(w http.ResponseWriter, r *http.Request) {
	user, err := auth.UserFromRequest(r)
	if err != nil {
		h.writeError(w, http.StatusUnauthorized, "unauthenticated")
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	key := strings.TrimSpace(r.Header.Get(HeaderIdempotencyKey))
	if key != "" && h.keys != nil {
		// keys are per user so one user cannot replay another's order
		key = user.ID + ":" + key

		orderID, started, err := h.keys.Begin(r.Context(), key)
		if err != nil {
			if errors.Is(err, idempotency.ErrInProgress) {
				h.writeError(w, http.StatusConflict, "a checkout with this idempotency key is in progress")
				return
			}
			h.logger.Error("failed to claim idempotency key", "error", err, "user_id", user.ID)
			h.writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		if !started {
			h.replay(w, r, orderID)
			return
		}
	} else {
		key = ""
	}

	placement, err := h.assembler.PlaceOrder(r.Context(), Request{
		UserID:        user.ID,
		Email:         user.Email,
		Address:       req.Address,
		PaymentMethod: req.PaymentMethod,
	})

	if key != "" {
		// record the outcome even if the client went away
		ctx := context.WithoutCancel(r.Context())
		if err != nil {
			if abortErr := h.keys.Abort(ctx, key); abortErr != nil {
				h.logger.Error("failed to release idempotency key", "error", abortErr, "user_id", user.ID)
			}
		} else if completeErr := h.keys.Complete(ctx, key, placement.Order.ID); completeErr != nil {
			h.logger.Error("failed to record idempotency key", "error", completeErr, "order_id", placement.Order.ID)
		}
	}

	if err != nil {
		h.writeCheckoutError(w, err, user.ID)
		return
	}

	h.writeJSON(w, http.StatusCreated, placement)
}

func (h *Handler) replay(w http.ResponseWriter, r *http.Request, orderID string) {
	order, err := h.orders.GetByID(r.Context(), orderID)
	if err != nil {
		h.logger.Error("failed to load replayed order", "error", err, "order_id", orderID)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if order == nil {
		h.writeError(w, http.StatusNotFound, "order not found")
		return
	}

	h.logger.Info("checkout replayed", "order_id", orderID)
	h.writeJSON(w, http.StatusOK, Placement{Order: order})
}

func (h *Handler) writeCheckoutError(w http.ResponseWriter, err error, userID string) {
	body := map[string]string{"error": err.Error()}

	var stepErr *StepError
	if errors.As(err, &stepErr) {
		body["step"] = stepErr.Step
		if stepErr.ProductID != "" {
			body["product_id"] = stepErr.ProductID
		}
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.Is(err, domain.ErrInsufficientStock):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrEmptyCart),
		errors.Is(err, domain.ErrMissingAddress),
		errors.Is(err, domain.ErrInvalidLineItem),
		errors.Is(err, domain.ErrNotFound):
		status = http.StatusUnprocessableEntity
	default:
		h.logger.Error("checkout failed", "error", err, "user_id", userID)
		body["error"] = "internal server error"
	}

	h.writeJSON(w, status, body)
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
