package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/partdesk/internal/clock"
	"github.com/smallbiznis/partdesk/internal/config"
	"github.com/smallbiznis/partdesk/internal/observability"
	"github.com/smallbiznis/partdesk/internal/server"
	"github.com/smallbiznis/partdesk/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
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
