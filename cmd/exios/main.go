package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Emad-Khatrush/Exios-Api/internal/allocation"
	allocdomain "github.com/Emad-Khatrush/Exios-Api/internal/allocation/domain"
	"github.com/Emad-Khatrush/Exios-Api/internal/audit"
	"github.com/Emad-Khatrush/Exios-Api/internal/clock"
	"github.com/Emad-Khatrush/Exios-Api/internal/config"
	"github.com/Emad-Khatrush/Exios-Api/internal/dispatch"
	"github.com/Emad-Khatrush/Exios-Api/internal/events"
	"github.com/Emad-Khatrush/Exios-Api/internal/invoice"
	"github.com/Emad-Khatrush/Exios-Api/internal/migration"
	"github.com/Emad-Khatrush/Exios-Api/internal/observability/logger"
	"github.com/Emad-Khatrush/Exios-Api/internal/observability/metrics"
	"github.com/Emad-Khatrush/Exios-Api/internal/observability/tracing"
	"github.com/Emad-Khatrush/Exios-Api/internal/order"
	"github.com/Emad-Khatrush/Exios-Api/internal/orderhistory"
	"github.com/Emad-Khatrush/Exios-Api/internal/rates"
	"github.com/Emad-Khatrush/Exios-Api/internal/seed"
	"github.com/Emad-Khatrush/Exios-Api/internal/wallet"
	"github.com/Emad-Khatrush/Exios-Api/internal/warehouse"
	"github.com/Emad-Khatrush/Exios-Api/pkg/db"
)

var version = "dev"

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(func() (*snowflake.Node, error) {
			return snowflake.NewNode(1)
		}),
		clock.Module,
		db.Module,
		fx.Invoke(func(conn *gorm.DB) error {
			if err := migration.RunMigrations(conn); err != nil {
				return err
			}
			return seed.EnsureExchangeRate(conn)
		}),
		tracing.Module,
		metrics.Module,
		events.Module,
		wallet.Module,
		order.Module,
		invoice.Module,
		orderhistory.Module,
		warehouse.Module,
		audit.Module,
		rates.Module,
		allocation.Module,
		dispatch.Module,
		// The HTTP layer consumes the allocation service from a separate
		// deployment; here it only has to be constructible.
		fx.Invoke(func(log *zap.Logger, svc allocdomain.Service) {
			log.Info("allocation core ready", zap.String("version", version))
		}),
	)
	app.Run()
}
