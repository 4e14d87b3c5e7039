package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/privehub/privehub/internal/checkout"
	"github.com/privehub/privehub/internal/clock"
	"github.com/privehub/privehub/internal/config"
	"github.com/privehub/privehub/internal/observability"
	"github.com/privehub/privehub/internal/pixgateway"
	"github.com/privehub/privehub/internal/providers/email"
	"github.com/privehub/privehub/internal/ratelimit"
	"github.com/privehub/privehub/internal/recovery"
	"github.com/privehub/privehub/internal/scheduler"
	"github.com/privehub/privehub/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		// Domain services required by the scheduler
		checkout.Module,
		pixgateway.Module,
		email.Module,
		recovery.Module,
		ratelimit.Module,
		scheduler.Module,

		// No server module!
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
