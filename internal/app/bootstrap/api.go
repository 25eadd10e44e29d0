package bootstrap

import (
	"context"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmanzer2/lead-gen/internal/api/router"
	appconfig "github.com/dmanzer2/lead-gen/internal/config"
	"github.com/dmanzer2/lead-gen/internal/database"
	"github.com/dmanzer2/lead-gen/internal/leads"
	"github.com/dmanzer2/lead-gen/internal/observability/metrics"
	"github.com/dmanzer2/lead-gen/internal/referencedata"
	"github.com/dmanzer2/lead-gen/pkg/logging"
)

// API is the fully wired HTTP surface shared by cmd/api and cmd/lambda.
type API struct {
	Handler       http.Handler
	Notifications *Notifications
	Gateway       *referencedata.Gateway
	Database      *database.Provider
}

// BuildAPI opens the shared pool, builds every component and mounts the
// routes. The caller owns Database.Close.
func BuildAPI(ctx context.Context, cfg *appconfig.Config, awsCfg *aws.Config, logger *logging.Logger) (*API, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = logging.Default()
	}

	provider, err := database.NewProvider(database.Options{
		URL:      cfg.DatabaseURL,
		SSL:      cfg.DatabaseSSL,
		MaxConns: int32(cfg.DatabaseMaxConns),
	}, logger)
	if err != nil {
		return nil, err
	}
	pool, err := provider.Pool(ctx)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: open database pool: %w", err)
	}
	sqlDB, err := provider.DB(ctx)
	if err != nil {
		provider.Close()
		return nil, fmt.Errorf("bootstrap: open database handle: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	leadMetrics := metrics.NewLeadMetrics(reg)

	refStore := referencedata.NewStore(sqlDB)
	gateway := referencedata.NewGateway(refStore, logger).WithMetrics(leadMetrics)

	notifications, err := BuildNotifications(ctx, cfg, awsCfg, gateway, leadMetrics, logger)
	if err != nil {
		provider.Close()
		return nil, err
	}

	handler := router.New(&router.Config{
		Logger:             logger,
		LeadsHandler:       leads.NewHandler(leads.NewPostgresRepository(pool), gateway, notifications.Dispatcher, leadMetrics, logger),
		ReferenceHandler:   referencedata.NewHandler(refStore, logger),
		MetricsHandler:     promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		Database:           pool,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	return &API{
		Handler:       handler,
		Notifications: notifications,
		Gateway:       gateway,
		Database:      provider,
	}, nil
}
