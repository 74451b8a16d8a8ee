package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/rentalops/internal/clock"
	"github.com/smallbiznis/rentalops/internal/config"
	"github.com/smallbiznis/rentalops/internal/migration"
	"github.com/smallbiznis/rentalops/internal/observability"
	"github.com/smallbiznis/rentalops/internal/server"
	"github.com/smallbiznis/rentalops/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		// schema must be ready before handlers are served
		migration.Module,
		server.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}
