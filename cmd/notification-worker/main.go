package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmanzer2/lead-gen/cmd/mainconfig"
	"github.com/dmanzer2/lead-gen/internal/app/bootstrap"
	appconfig "github.com/dmanzer2/lead-gen/internal/config"
	"github.com/dmanzer2/lead-gen/internal/database"
	"github.com/dmanzer2/lead-gen/internal/notify"
	"github.com/dmanzer2/lead-gen/internal/observability/metrics"
	"github.com/dmanzer2/lead-gen/internal/referencedata"
	"github.com/dmanzer2/lead-gen/pkg/logging"
)

var errInProcessQueue = errors.New("notification-worker requires NOTIFY_QUEUE=redis or sqs")

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()
	logger := logging.New(cfg.LogLevel)

	if err := run(cfg, logger); err != nil {
		logger.Error("notification worker failed", "error", err)
		os.Exit(1)
	}
	logger.Info("notification worker stopped")
}

func run(cfg *appconfig.Config, logger *logging.Logger) error {
	if cfg.NotifyQueue == "" || cfg.NotifyQueue == bootstrap.QueueMemory {
		return errInProcessQueue
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	awsCfg, err := mainconfig.LoadOptionalAWSConfig(ctx, cfg)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	leadMetrics := metrics.NewLeadMetrics(reg)

	// Label lookups are optional: without a database the emails show raw ids.
	var labels notify.ReferenceLabels
	if cfg.DatabaseURL != "" {
		provider, err := database.NewProvider(database.Options{
			URL:      cfg.DatabaseURL,
			SSL:      cfg.DatabaseSSL,
			MaxConns: int32(cfg.DatabaseMaxConns),
		}, logger)
		if err != nil {
			return err
		}
		defer provider.Close()
		db, err := provider.DB(ctx)
		if err != nil {
			return fmt.Errorf("open database: %w", err)
		}
		labels = referencedata.NewGateway(referencedata.NewStore(db), logger).WithMetrics(leadMetrics)
	} else {
		logger.Warn("DATABASE_URL not set; notification emails will show reference ids")
	}

	notifications, err := bootstrap.BuildNotifications(ctx, cfg, awsCfg, labels, leadMetrics, logger)
	if err != nil {
		return err
	}
	defer notifications.Close()

	worker := notify.NewWorker(notifications.Dispatcher, notifications.Queue, logger,
		notify.WithWorkerCount(cfg.NotifyWorkers),
		notify.WithReceiveWaitSeconds(20),
		notify.WithReceiveBatchSize(10),
	)
	worker.Start(ctx)
	logger.Info("notification worker started", "queue", cfg.NotifyQueue, "workers", cfg.NotifyWorkers, "email_provider", notifications.Provider)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	srv := &http.Server{Addr: ":" + cfg.Port, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down notification worker...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	worker.Wait()
	return nil
}
