package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/dmanzer2/lead-gen/cmd/mainconfig"
	"github.com/dmanzer2/lead-gen/internal/app/bootstrap"
	appconfig "github.com/dmanzer2/lead-gen/internal/config"
	"github.com/dmanzer2/lead-gen/internal/notify"
	"github.com/dmanzer2/lead-gen/pkg/logging"
)

func main() {
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting lead-gen API server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	if err := run(cfg, logger); err != nil {
		logger.Error("api server failed", "error", err)
		os.Exit(1)
	}
	logger.Info("server stopped")
}

func run(cfg *appconfig.Config, logger *logging.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	awsCfg, err := mainconfig.LoadOptionalAWSConfig(ctx, cfg)
	if err != nil {
		return err
	}

	api, err := bootstrap.BuildAPI(ctx, cfg, awsCfg, logger)
	if err != nil {
		return err
	}
	defer api.Database.Close()
	defer api.Notifications.Close()

	// Memory-queued jobs are drained by workers in this process. They get
	// their own context so in-flight emails can finish during shutdown.
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	var worker *notify.Worker
	if api.Notifications.InProcess {
		worker = notify.NewWorker(api.Notifications.Dispatcher, api.Notifications.Queue, logger,
			notify.WithWorkerCount(cfg.NotifyWorkers))
		worker.Start(workerCtx)
	}

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      api.Handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		stopWorkers()
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		stopWorkers()
		return err
	}

	if worker != nil {
		drainQueue(api.Notifications.Queue, cfg.NotifyTimeout)
		stopWorkers()
		worker.Wait()
	} else {
		stopWorkers()
	}
	return nil
}

// drainQueue waits, up to limit, for the in-memory queue to empty so jobs
// accepted before shutdown still get their emails.
func drainQueue(q notify.Queue, limit time.Duration) {
	mq, ok := q.(*notify.MemoryQueue)
	if !ok {
		return
	}
	deadline := time.Now().Add(limit)
	for mq.Len() > 0 && time.Now().Before(deadline) {
		time.Sleep(50 * time.Millisecond)
	}
}
