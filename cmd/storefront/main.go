package main

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/joao-fontenele/storefront-checkout/internal/cart"
	"github.com/joao-fontenele/storefront-checkout/internal/catalog"
	"github.com/joao-fontenele/storefront-checkout/internal/checkout"
	"github.com/joao-fontenele/storefront-checkout/internal/config"
	"github.com/joao-fontenele/storefront-checkout/internal/idempotency"
	"github.com/joao-fontenele/storefront-checkout/internal/inventory"
	"github.com/joao-fontenele/storefront-checkout/internal/messaging"
	"github.com/joao-fontenele/storefront-checkout/internal/orders"
	"github.com/joao-fontenele/storefront-checkout/internal/profile"
	"github.com/joao-fontenele/storefront-checkout/internal/telemetry"
)

const serviceVersion = "0.1.0"

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	policy, err := checkout.ParsePolicy(cfg.ReservationMode)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "storefront", serviceVersion)
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider("storefront", serviceVersion)
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	var st *storage
	switch cfg.StorageDriver {
	case config.DriverMemory:
		st = newMemoryStorage()
		logger.Warn("using in-memory storage, data is lost on restart")
	default:
		db, err := openPostgres(cfg)
		if err != nil {
			logger.Error("failed to connect to database", "error", err)
			os.Exit(1)
		}
		defer func() { _ = db.Close() }()
		st = newPostgresStorage(db)
	}

	var keys idempotency.Store
	if cfg.RedisURL != "" {
		redisStore, err := idempotency.NewRedisStore(cfg.RedisURL, cfg.IdempotencyTTL)
		if err != nil {
			logger.Error("failed to connect to redis", "error", err)
			os.Exit(1)
		}
		defer func() { _ = redisStore.Close() }()
		keys = redisStore
	} else {
		keys = idempotency.NewMemoryStore(cfg.IdempotencyTTL)
	}

	opts := []checkout.Option{
		checkout.WithPolicy(policy),
		checkout.WithStepTimeout(cfg.StepTimeout),
	}
	if len(cfg.KafkaBrokers) > 0 {
		producer := messaging.NewProducer(cfg.KafkaBrokers, cfg.OrderEventsTopic)
		defer func() { _ = producer.Close() }()
		opts = append(opts, checkout.WithPublisher(producer))
	}

	images := catalog.NewImageResolver(cfg.ImageBaseURL, cfg.ImageBucket, cfg.PlaceholderImage)
	cartService := cart.NewService(st.carts, st.products)

	assembler, err := checkout.NewAssembler(cartService, st.ledger, st.orders, st.profiles, logger, opts...)
	if err != nil {
		logger.Error("failed to create checkout", "error", err)
		os.Exit(1)
	}

	catalogHandler := catalog.NewHandler(st.products, images, logger)
	inventoryHandler := inventory.NewHandler(st.ledger, logger)
	cartHandler := cart.NewHandler(cartService, images, logger)
	profileHandler := profile.NewHandler(st.profiles, logger)
	checkoutHandler := checkout.NewHandler(assembler, st.orders, keys, logger)
	history := orders.NewHistoryView(st.orders, st.products, images, logger)
	ordersHandler := orders.NewHandler(st.orders, history, logger)

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", metricsHandler)

	mux.HandleFunc("GET /products", telemetry.WithHTTPRoute(catalogHandler.HandleList))
	mux.HandleFunc("GET /products/{id}", telemetry.WithHTTPRoute(catalogHandler.HandleGet))

	mux.HandleFunc("GET /stock", telemetry.WithHTTPRoute(inventoryHandler.HandleListStock))
	mux.HandleFunc("GET /stock/{productId}", telemetry.WithHTTPRoute(inventoryHandler.HandleGetStock))
	mux.HandleFunc("POST /stock/{productId}/reserve", telemetry.WithHTTPRoute(inventoryHandler.HandleReserve))
	mux.HandleFunc("POST /stock/{productId}/release", telemetry.WithHTTPRoute(inventoryHandler.HandleRelease))

	mux.HandleFunc("GET /cart", telemetry.WithHTTPRoute(cartHandler.HandleGet))
	mux.HandleFunc("POST /cart/items", telemetry.WithHTTPRoute(cartHandler.HandleAddItem))
	mux.HandleFunc("PATCH /cart/items/{id}", telemetry.WithHTTPRoute(cartHandler.HandleSetQuantity))
	mux.HandleFunc("DELETE /cart/items/{id}", telemetry.WithHTTPRoute(cartHandler.HandleRemoveItem))

	mux.HandleFunc("GET /profile", telemetry.WithHTTPRoute(profileHandler.HandleGet))
	mux.HandleFunc("PUT /profile", telemetry.WithHTTPRoute(profileHandler.HandlePut))

	mux.HandleFunc("POST /checkout", telemetry.WithHTTPRoute(checkoutHandler.HandleCheckout))

	mux.HandleFunc("GET /orders", telemetry.WithHTTPRoute(ordersHandler.HandleList))
	mux.HandleFunc("GET /orders/{id}", telemetry.WithHTTPRoute(ordersHandler.HandleGet))
	mux.HandleFunc("PATCH /orders/{id}/status", telemetry.WithHTTPRoute(ordersHandler.HandleUpdateStatus))
	mux.HandleFunc("GET /admin/orders", telemetry.WithHTTPRoute(ordersHandler.HandleAdminList))
	mux.HandleFunc("GET /admin/sales", telemetry.WithHTTPRoute(ordersHandler.HandleSalesSummary))

	server := &http.Server{
		Addr: ":" + cfg.Port,
		Handler: otelhttp.NewHandler(mux, "storefront",
			otelhttp.WithSpanNameFormatter(func(_ string, r *http.Request) string {
				if r.Pattern != "" {
					return r.Pattern
				}
				return r.Method + " " + r.URL.Path
			}),
		),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info("starting storefront service",
			"port", cfg.Port,
			"storage", cfg.StorageDriver,
			"reservation_policy", policy.String(),
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown error", "error", err)
		os.Exit(1)
	}
}

func openPostgres(cfg *config.Config) (*sql.DB, error) {
	dsn, err := telemetry.WithSearchPath(cfg.PostgresURL, cfg.DBSchema)
	if err != nil {
		return nil, err
	}

	db, err := telemetry.OpenDB("postgres", dsn)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}
