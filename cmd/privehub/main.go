package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/privehub/privehub/internal/checkout"
	"github.com/privehub/privehub/internal/clock"
	"github.com/privehub/privehub/internal/config"
	"github.com/privehub/privehub/internal/migration"
	"github.com/privehub/privehub/internal/observability"
	"github.com/privehub/privehub/internal/pixgateway"
	"github.com/privehub/privehub/internal/providers/email"
	"github.com/privehub/privehub/internal/ratelimit"
	"github.com/privehub/privehub/internal/recovery"
	"github.com/privehub/privehub/internal/scheduler"
	"github.com/privehub/privehub/internal/server"
	"github.com/privehub/privehub/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Functional domains
		checkout.Module,
		pixgateway.Module,
		email.Module,
		recovery.Module,
		ratelimit.Module,
		scheduler.Module,

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
