package migrate

import (
	"context"
	"fmt"

	"github.com/tradecert/tradecert-backend/pkg/config"
	"github.com/tradecert/tradecert-backend/pkg/db"
	"github.com/tradecert/tradecert-backend/pkg/logger"
)

// MaybeRunDev brings the schema up at boot where that is allowed: always for
// SQLite, and for Postgres only in dev with TRADECERT_AUTO_MIGRATE set.
// Other environments run cmd/migrate explicitly.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	switch {
	case cfg.DB.IsSQLite():
		logg.Info(ctx, "migration.sqlite_schema")
		return ApplySQLiteSchema(client.DB())
	case !cfg.App.IsDev(), !cfg.FeatureFlags.AutoMigrate:
		return nil
	}

	pool, err := client.DB().DB()
	if err != nil {
		return fmt.Errorf("sql handle: %w", err)
	}
	runner, err := NewRunner(pool, DefaultDir, logg)
	if err != nil {
		return err
	}
	logg.Info(logg.WithField(ctx, "dir", DefaultDir), "migration.autorun")
	return runner.Up(ctx)
}
