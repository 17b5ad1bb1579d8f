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
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/tradecert/tradecert-backend/api/routes"
	"github.com/tradecert/tradecert-backend/internal/app"
	"github.com/tradecert/tradecert-backend/pkg/config"
	"github.com/tradecert/tradecert-backend/pkg/db"
	"github.com/tradecert/tradecert-backend/pkg/instance"
	"github.com/tradecert/tradecert-backend/pkg/logger"
	"github.com/tradecert/tradecert-backend/pkg/mailer"
	"github.com/tradecert/tradecert-backend/pkg/metrics"
	"github.com/tradecert/tradecert-backend/pkg/migrate"
	"github.com/tradecert/tradecert-backend/pkg/pdf"
	"github.com/tradecert/tradecert-backend/pkg/redis"
	"github.com/tradecert/tradecert-backend/pkg/storage/s3"
)

const shutdownTimeout = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	s3Client, err := s3.NewClient(context.Background(), cfg.S3)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap s3", err)
		os.Exit(1)
	}

	var sender mailer.Sender = mailer.NoopSender{}
	if cfg.SMTP.Enabled() {
		smtpSender, err := mailer.NewSMTPSender(cfg.SMTP)
		if err != nil {
			logg.Error(context.Background(), "failed to configure smtp", err)
			os.Exit(1)
		}
		sender = smtpSender
	} else {
		logg.Warn(context.Background(), "smtp not configured; wholesaler emails will not be delivered")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	services, err := app.NewServices(app.Deps{
		DB:      dbClient,
		Config:  cfg,
		Logger:  logg,
		Metrics: metrics.NewDomainMetrics(registry),
		Sender:  sender,
		Store:   s3Client,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to build services", err)
		os.Exit(1)
	}

	handler := routes.NewRouter(cfg, logg, routes.Infra{
		DB:          dbClient,
		Cache:       redisClient,
		S3:          s3Client,
		Gatherer:    registry,
		HTTPMetrics: metrics.NewHTTPMetrics(registry),
	}, routes.Services{
		Projects:     services.Projects,
		Calculations: services.Calculations,
		Materials:    services.Materials,
		Quotes:       services.Quotes,
		Wholesaler:   services.Wholesaler,
		Gate:         services.Gate,
		Invoices:     services.Invoices,
		Evidence:     services.Evidence,
		InvoicePDF:   pdf.Invoice,
	})

	addr := ":" + cfg.App.Port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":      cfg.App.Env,
		"addr":     addr,
		"instance": instance.GetID(),
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-sigCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
		}
		logg.Info(ctx, "api server stopped")
	}
}
