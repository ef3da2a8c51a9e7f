package gateway

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/joao-fontenele/storefront-checkout/internal/auth"
)

type Handler struct {
	storefront *ServiceProxy
	verifier   *auth.Verifier
	logger     *slog.Logger
}

func NewHandler(storefront *ServiceProxy, verifier *auth.Verifier, logger *slog.Logger) *Handler {
	return &Handler{
		storefront: storefront,
		verifier:   verifier,
		logger:     logger,
	}
}

// Public forwards a request that needs no session. Identity headers sent by
// the client are dropped so upstream services never trust them.
func (h *Handler) Public(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth.StripIdentity(r.Header)
		next(w, r)
	}
}

// Authenticated verifies the bearer token and forwards the caller's identity.
func (h *Handler) Authenticated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		auth.StripIdentity(r.Header)

		user, err := h.verifier.VerifyHeader(r.Header.Get("Authorization"))
		if err != nil {
			h.logger.Info("rejected unauthenticated request", "path", r.URL.Path, "reason", err.Error())
			h.writeError(w, http.StatusUnauthorized, "unauthenticated")
			return
		}

		auth.SetIdentity(r.Header, user)
		next(w, r)
	}
}

func (h *Handler) Admin(next http.HandlerFunc) http.HandlerFunc {
	return h.Authenticated(func(w http.ResponseWriter, r *http.Request) {
		user, err := auth.UserFromRequest(r)
		if err != nil || !user.IsAdmin() {
			h.writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		next(w, r)
	})
}

// HandleStorefront forwards the request to the storefront service unchanged.
func (h *Handler) HandleStorefront(w http.ResponseWriter, r *http.Request) {
	h.proxyRequest(w, r, h.storefront, r.URL.Path)
}

// HandleAdminOrderStatus maps the admin status route onto the storefront's
// order status endpoint.
func (h *Handler) HandleAdminOrderStatus(w http.ResponseWriter, r *http.Request) {
	h.proxyRequest(w, r, h.storefront, "/orders/"+r.PathValue("id")+"/status")
}

func (h *Handler) proxyRequest(w http.ResponseWriter, r *http.Request, proxy *ServiceProxy, path string) {
	resp, err := proxy.ForwardRequest(r.Context(), r, path)
	if err != nil {
		h.logger.Error("failed to forward request", "error", err, "path", path)
		h.writeError(w, http.StatusBadGateway, "service unavailable")
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if contentType := resp.Header.Get("Content-Type"); contentType != "" {
		w.Header().Set("Content-Type", contentType)
	}

	w.WriteHeader(resp.StatusCode)

	h.logger.Info("request proxied", "method", r.Method, "path", path, "status", resp.StatusCode)

	if _, err := io.Copy(w, resp.Body); err != nil {
		h.logger.Error("failed to copy response body", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(map[string]string{"error": message}); err != nil {
		h.logger.Error("failed to encode error response", "error", err)
	}
}
