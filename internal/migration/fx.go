// Package migration creates the schema on startup so a fresh outlet install
// works out of the box, with no external migration tooling.
package migration

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/treadstone/maxtt-billing/internal/config"
	franchiseedomain "github.com/treadstone/maxtt-billing/internal/franchisee/domain"
	invoicedomain "github.com/treadstone/maxtt-billing/internal/invoice/domain"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, genID *snowflake.Node, log *zap.Logger) error {
		if err := conn.AutoMigrate(
			&franchiseedomain.Profile{},
			&invoicedomain.Invoice{},
		); err != nil {
			return err
		}
		return ensureDefaultFranchisee(conn, cfg, genID, log.Named("migration"))
	}),
)

// ensureDefaultFranchisee seeds one profile on an empty database so the API
// is usable immediately after install. The operator fills in the real details
// through the profile endpoint.
func ensureDefaultFranchisee(conn *gorm.DB, cfg config.Config, genID *snowflake.Node, log *zap.Logger) error {
	var count int64
	if err := conn.Model(&franchiseedomain.Profile{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	profile := &franchiseedomain.Profile{
		ID:   genID.Generate(),
		Name: cfg.AppName,
		Code: "FR001",
	}
	if err := conn.Create(profile).Error; err != nil {
		return err
	}
	log.Info("seeded default franchisee", zap.String("franchisee_id", profile.ID.String()))
	return nil
}
