package main

import (
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"

	"github.com/treadstone/maxtt-billing/internal/clock"
	"github.com/treadstone/maxtt-billing/internal/config"
	"github.com/treadstone/maxtt-billing/internal/logger"
	"github.com/treadstone/maxtt-billing/internal/migration"
	"github.com/treadstone/maxtt-billing/internal/server"
	"github.com/treadstone/maxtt-billing/pkg/db"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		migration.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
