package migrate

import (
	"context"
	"fmt"

	"github.com/carins/carins-backend/pkg/config"
	"github.com/carins/carins-backend/pkg/db"
	"github.com/carins/carins-backend/pkg/db/models"
	"github.com/carins/carins-backend/pkg/logger"
)

// MaybeRunDev migrates the schema automatically when running in dev mode with
// the auto-migrate flag on. SQLite databases are built from the GORM models
// since the goose migrations target Postgres.
func MaybeRunDev(ctx context.Context, cfg *config.Config, logg *logger.Logger, client *db.Client) error {
	if !cfg.App.IsDev() || !cfg.FeatureFlags.AutoMigrate {
		return nil
	}

	if cfg.DB.IsSQLite() {
		ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "driver": config.DBDriverSQLite})
		logg.Info(ctx, "running GORM auto-migrate (dev auto-run)")
		if err := AutoMigrateModels(ctx, client); err != nil {
			return err
		}
		logg.Info(ctx, "GORM auto-migrate completed")
		return nil
	}

	sqlDB, err := client.SQL()
	if err != nil {
		return fmt.Errorf("extracting sql.DB: %w", err)
	}

	ctx = logg.WithFields(ctx, map[string]any{"env": cfg.App.Env, "dir": DefaultDir})
	logg.Info(ctx, "running Goose migrations (dev auto-run)")

	if err := Run(ctx, sqlDB, DefaultDir, "up"); err != nil {
		return fmt.Errorf("running goose up: %w", err)
	}

	logg.Info(ctx, "Goose migrations completed")
	return nil
}

// AutoMigrateModels creates or updates every table from the GORM models.
func AutoMigrateModels(ctx context.Context, client *db.Client) error {
	if client == nil {
		return fmt.Errorf("db client is required")
	}
	if err := client.DB().WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("auto-migrating models: %w", err)
	}
	return nil
}
