package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/voluntaria/platform/internal/migration"
	"github.com/voluntaria/platform/internal/observability"
	"github.com/voluntaria/platform/internal/server"
	"github.com/voluntaria/platform/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// server.Module pulls in config, clock and the domain modules.
		server.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
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
