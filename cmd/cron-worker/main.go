// Command cron-worker runs the scheduled jobs: today that is the invoice
// overdue sweep. Several replicas may run; a Redis lease lets one act per cycle.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/tradecert/tradecert-backend/internal/cron"
	"github.com/tradecert/tradecert-backend/internal/invoices"
	"github.com/tradecert/tradecert-backend/pkg/config"
	"github.com/tradecert/tradecert-backend/pkg/db"
	"github.com/tradecert/tradecert-backend/pkg/instance"
	"github.com/tradecert/tradecert-backend/pkg/logger"
	"github.com/tradecert/tradecert-backend/pkg/metrics"
	"github.com/tradecert/tradecert-backend/pkg/migrate"
	"github.com/tradecert/tradecert-backend/pkg/redis"
)

const serviceName = "cron-worker"

var errJobsFailed = errors.New("one or more jobs failed")

func main() {
	once := flag.Bool("once", false, "run a single cycle and exit")
	flag.Parse()

	boot := logger.New(logger.Options{ServiceName: serviceName})
	if err := godotenv.Load(); err != nil {
		boot.Warn(context.Background(), ".env file not found, relying on environment")
	}
	cfg, err := config.Load()
	if err != nil {
		boot.Error(context.Background(), "config.load_failed", err)
		os.Exit(1)
	}
	cfg.Service.Kind = serviceName

	logg := logger.New(logger.Options{
		ServiceName: serviceName,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	ctx = logg.WithFields(ctx, map[string]any{
		"env":      cfg.App.Env,
		"instance": instance.GetID(),
	})

	err = run(ctx, cfg, logg, *once)
	stop()
	if err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron_worker.exit", err)
		os.Exit(1)
	}
	logg.Info(ctx, "cron_worker.stopped")
}

func run(ctx context.Context, cfg *config.Config, logg *logger.Logger, once bool) error {
	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer closeQuietly(ctx, logg, "database", dbClient.Close)

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("dev migrations: %w", err)
	}

	redisClient, err := redis.New(ctx, cfg.Redis, logg)
	if err != nil {
		return fmt.Errorf("redis: %w", err)
	}
	defer closeQuietly(ctx, logg, "redis", redisClient.Close)

	service, err := buildService(cfg, logg, dbClient, redisClient)
	if err != nil {
		return err
	}

	if !once {
		logg.Info(ctx, "cron_worker.started")
		return service.Run(ctx)
	}

	results, err := service.RunOnce(ctx)
	if err != nil {
		return err
	}
	for _, res := range results {
		if res.Err != nil {
			return errJobsFailed
		}
	}
	return nil
}

func buildService(cfg *config.Config, logg *logger.Logger, dbClient *db.Client, redisClient *redis.Client) (*cron.Service, error) {
	reg := prometheus.DefaultRegisterer

	sweeper, err := invoices.NewOverdueSweeper(invoices.NewRepository(dbClient.DB()), dbClient, metrics.NewDomainMetrics(reg))
	if err != nil {
		return nil, fmt.Errorf("overdue sweeper: %w", err)
	}
	overdue, err := cron.NewInvoiceOverdueJob(cron.InvoiceOverdueJobParams{Logger: logg, Sweeper: sweeper})
	if err != nil {
		return nil, fmt.Errorf("overdue job: %w", err)
	}
	registry, err := cron.NewRegistry(overdue)
	if err != nil {
		return nil, err
	}

	env := cfg.App.Env
	if env == "" {
		env = "local"
	}
	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey(serviceName, env), instance.GetID(), 0)
	if err != nil {
		return nil, fmt.Errorf("cron lock: %w", err)
	}

	return cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: registry,
		Lock:     lock,
		Metrics:  metrics.NewJobMetrics(reg),
		Interval: cfg.Invoices.OverdueSweepInterval,
	})
}

func closeQuietly(ctx context.Context, logg *logger.Logger, what string, closeFn func() error) {
	if err := closeFn(); err != nil {
		logg.Error(logg.WithField(ctx, "resource", what), "cron_worker.close_failed", err)
	}
}
