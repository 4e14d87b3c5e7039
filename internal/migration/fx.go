package migration

import (
	checkoutdomain "github.com/privehub/privehub/internal/checkout/domain"
	"github.com/privehub/privehub/internal/config"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType != "postgres" {
			// Versioned migrations target postgres; other dialects are for
			// local development and tests.
			return conn.AutoMigrate(&checkoutdomain.PaymentAttempt{})
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		return RunMigrations(sqlDB)
	}),
)
