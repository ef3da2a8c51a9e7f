package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/joao-fontenele/storefront-checkout/internal/auth"
	"github.com/joao-fontenele/storefront-checkout/internal/gateway"
	"github.com/joao-fontenele/storefront-checkout/internal/telemetry"
)

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "gateway", "0.1.0")
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	storefrontServiceURL := os.Getenv("STOREFRONT_SERVICE_URL")
	if storefrontServiceURL == "" {
		logger.Error("STOREFRONT_SERVICE_URL is required")
		os.Exit(1)
	}

	verifier, err := auth.NewVerifier(os.Getenv("JWT_SECRET"))
	if err != nil {
		logger.Error("JWT_SECRET is required", "error", err)
		os.Exit(1)
	}

	httpClient := &http.Client{
		Timeout:   10 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	storefront := gateway.NewServiceProxy(storefrontServiceURL, httpClient)
	handler := gateway.NewHandler(storefront, verifier, logger)

	public := func(h http.HandlerFunc) http.HandlerFunc {
		return telemetry.WithHTTPRoute(handler.Public(h))
	}
	authenticated := func(h http.HandlerFunc) http.HandlerFunc {
		return telemetry.WithHTTPRoute(handler.Authenticated(h))
	}
	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return telemetry.WithHTTPRoute(handler.Admin(h))
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /products", public(handler.HandleStorefront))
	mux.HandleFunc("GET /products/{id}", public(handler.HandleStorefront))
	mux.HandleFunc("GET /stock", public(handler.HandleStorefront))
	mux.HandleFunc("GET /stock/{productId}", public(handler.HandleStorefront))

	mux.HandleFunc("GET /cart", authenticated(handler.HandleStorefront))
	mux.HandleFunc("POST /cart/items", authenticated(handler.HandleStorefront))
	mux.HandleFunc("PATCH /cart/items/{id}", authenticated(handler.HandleStorefront))
	mux.HandleFunc("DELETE /cart/items/{id}", authenticated(handler.HandleStorefront))
	mux.HandleFunc("GET /profile", authenticated(handler.HandleStorefront))
	mux.HandleFunc("PUT /profile", authenticated(handler.HandleStorefront))
	mux.HandleFunc("POST /checkout", authenticated(handler.HandleStorefront))
	mux.HandleFunc("GET /orders", authenticated(handler.HandleStorefront))
	mux.HandleFunc("GET /orders/{id}", authenticated(handler.HandleStorefront))

	mux.HandleFunc("GET /admin/orders", admin(handler.HandleStorefront))
	mux.HandleFunc("GET /admin/sales", admin(handler.HandleStorefront))
	mux.HandleFunc("PATCH /admin/orders/{id}/status", admin(handler.HandleAdminOrderStatus))

	server := &http.Server{
		Addr: ":" + port,
		Handler: otelhttp.NewHandler(mux, "gateway",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if r.Pattern != "" {
					return r.Pattern
				}
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("starting gateway service", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}
