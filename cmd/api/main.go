package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/contrib/instrumentation/runtime"

	"github.com/shopme-store/shopme-backend/internal/auth"
	"github.com/shopme-store/shopme-backend/internal/catalog"
	"github.com/shopme-store/shopme-backend/internal/messaging"
	"github.com/shopme-store/shopme-backend/internal/notify"
	"github.com/shopme-store/shopme-backend/internal/orders"
	"github.com/shopme-store/shopme-backend/internal/telemetry"
)

const serviceVersion = "0.1.0"

func main() {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, "shopme-api", serviceVersion)
	if err != nil {
		logger.Error("failed to initialize tracer", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownTracer(ctx) }()

	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider("shopme-api", serviceVersion)
	if err != nil {
		logger.Error("failed to initialize meter", "error", err)
		os.Exit(1)
	}
	defer func() { _ = shutdownMeter(ctx) }()

	if err := runtime.Start(); err != nil {
		logger.Error("failed to start runtime instrumentation", "error", err)
		os.Exit(1)
	}

	postgresURL := os.Getenv("POSTGRES_URL")
	if postgresURL == "" {
		logger.Error("POSTGRES_URL environment variable is required")
		os.Exit(1)
	}

	db, err := telemetry.OpenDB("postgres", postgresURL)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer func() { _ = db.Close() }()

	if err := db.Ping(); err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		logger.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}

	var producer *messaging.Producer
	kafkaBrokers := os.Getenv("KAFKA_BROKERS")
	if kafkaBrokers != "" {
		producer = messaging.NewProducer(strings.Split(kafkaBrokers, ","))
		defer func() { _ = producer.Close() }()
	} else {
		logger.Info("KAFKA_BROKERS not set, order notifications disabled")
	}

	httpClient := &http.Client{
		Timeout:   10 * time.Second,
		Transport: otelhttp.NewTransport(http.DefaultTransport),
	}

	var mailer notify.Mailer
	if emailServiceURL := os.Getenv("EMAIL_SERVICE_URL"); emailServiceURL != "" {
		mailer = notify.NewHTTPMailer(emailServiceURL, httpClient)
	} else {
		mailer = notify.NewNoopMailer(logger)
	}

	clientURL := os.Getenv("CLIENT_URL")
	if clientURL == "" {
		clientURL = "http://localhost:5173"
	}

	uploadsDir := os.Getenv("UPLOADS_DIR")
	if uploadsDir == "" {
		uploadsDir = "uploads"
	}
	uploader := catalog.NewDiskUploader(uploadsDir, "/uploads")

	tokens := auth.NewTokenManager([]byte(jwtSecret))
	userRepo := auth.NewUserRepository(db)
	guard := auth.NewGuard(tokens, userRepo, logger)
	authHandler := auth.NewHandler(userRepo, tokens, mailer, clientURL, logger)

	orderRepo := orders.NewOrderRepository(db)
	orderHandler := orders.NewHandler(orderRepo, producer, logger)

	productHandler := catalog.NewHandler(catalog.NewProductRepository(db), uploader, "Product", logger)
	topProductHandler := catalog.NewHandler(catalog.NewTopProductRepository(db), uploader, "TopProduct", logger)

	mux := http.NewServeMux()

	route := func(pattern string, h http.HandlerFunc) {
		mux.HandleFunc(pattern, telemetry.WithHTTPRoute(h))
	}

	route("POST /api/orders", orderHandler.HandleCreate)
	route("GET /api/orders", guard.RequireAdmin(orderHandler.HandleList))
	route("GET /api/orders/user/{userId}", guard.RequireCustomer(orderHandler.HandleListByUser))
	route("GET /api/orders/email/{email}", guard.RequireCustomer(orderHandler.HandleListByEmail))
	route("PATCH /api/orders/{orderId}/status", guard.RequireAdmin(orderHandler.HandleUpdateStatus))

	route("GET /api/products", productHandler.HandleList)
	route("GET /api/products/{id}", productHandler.HandleGet)
	route("POST /api/products", guard.RequireAdmin(productHandler.HandleCreate))
	route("PUT /api/products/{id}", guard.RequireAdmin(productHandler.HandleUpdate))
	route("DELETE /api/products/{id}", guard.RequireAdmin(productHandler.HandleDelete))

	route("GET /api/top-products", topProductHandler.HandleList)
	route("GET /api/top-products/{id}", topProductHandler.HandleGet)
	route("POST /api/top-products", guard.RequireAdmin(topProductHandler.HandleCreate))
	route("PUT /api/top-products/{id}", guard.RequireAdmin(topProductHandler.HandleUpdate))
	route("DELETE /api/top-products/{id}", guard.RequireAdmin(topProductHandler.HandleDelete))

	route("POST /api/auth/register", authHandler.HandleRegister)
	route("POST /api/auth/login", authHandler.HandleLogin)
	route("GET /api/auth/me", authHandler.HandleMe)
	route("POST /api/auth/forgot-password", authHandler.HandleForgotPassword)
	route("POST /api/auth/reset-password/{token}", authHandler.HandleResetPassword)
	route("POST /api/admin/login", authHandler.HandleAdminLogin)

	mux.Handle("GET /uploads/", http.StripPrefix("/uploads/", http.FileServer(http.Dir(uploadsDir))))
	mux.Handle("GET /metrics", metricsHandler)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"OK","timestamp":"` + time.Now().UTC().Format(time.RFC3339) + `"}`))
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	server := &http.Server{
		Addr: ":" + port,
		Handler: otelhttp.NewHandler(mux, "shopme-api",
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
		logger.Info("starting api service", "port", port)
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
