package migration

import (
	"embed"

	"github.com/dwfit/pos-backend-sub000/internal/config"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

const migrationsDir = "migrations"

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		// Migrations target postgres; other dialects are covered by tests
		// that AutoMigrate their own schema.
		if cfg.DBType != "postgres" {
			return nil
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}

		return RunMigrations(sqlDB)
	}),
)
