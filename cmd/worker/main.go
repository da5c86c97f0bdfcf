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

	"golang.org/x/sync/errgroup"

	"github.com/shopme-store/shopme-backend/internal/domain"
	"github.com/shopme-store/shopme-backend/internal/messaging"
	"github.com/shopme-store/shopme-backend/internal/notify"
	"github.com/shopme-store/shopme-backend/internal/worker"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	kafkaBrokers := os.Getenv("KAFKA_BROKERS")
	if kafkaBrokers == "" {
		logger.Error("KAFKA_BROKERS environment variable is required")
		os.Exit(1)
	}

	emailServiceURL := os.Getenv("EMAIL_SERVICE_URL")
	if emailServiceURL == "" {
		logger.Error("EMAIL_SERVICE_URL environment variable is required")
		os.Exit(1)
	}

	brokers := strings.Split(kafkaBrokers, ",")

	createdConsumer := messaging.NewConsumer(brokers, domain.TopicOrderCreated, "mail-worker", logger)
	defer func() { _ = createdConsumer.Close() }()

	statusConsumer := messaging.NewConsumer(brokers, domain.TopicOrderStatusUpdated, "mail-worker", logger)
	defer func() { _ = statusConsumer.Close() }()

	httpClient := &http.Client{
		Timeout: 10 * time.Second,
	}

	mailer := notify.NewHTTPMailer(emailServiceURL, httpClient)
	handler := worker.NewMailHandler(mailer, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
		<-stop
		logger.Info("shutting down")
		cancel()
	}()

	logger.Info("starting mail worker", "brokers", brokers)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return createdConsumer.Consume(gctx, handler.HandleOrderCreated)
	})
	g.Go(func() error {
		return statusConsumer.Consume(gctx, handler.HandleStatusUpdated)
	})

	if err := g.Wait(); err != nil {
		if ctx.Err() == context.Canceled {
			logger.Info("consumers stopped")
			return
		}
		logger.Error("consumer error", "error", err)
		os.Exit(1)
	}
}
