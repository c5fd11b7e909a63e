package main

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/voluntaria/platform/internal/clock"
	"github.com/voluntaria/platform/internal/config"
	"github.com/voluntaria/platform/internal/event"
	"github.com/voluntaria/platform/internal/migration"
	"github.com/voluntaria/platform/internal/observability"
	"github.com/voluntaria/platform/internal/sweeper"
	"github.com/voluntaria/platform/pkg/db"
	"go.uber.org/fx"
)

// Standalone sweep worker for deployments that want expired events completed
// on a fixed interval instead of piggybacking on read traffic.
func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		event.Module,
		sweeper.Module,
		migration.Module,

		// No server module.
		fx.Invoke(StartSweeper),
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

func StartSweeper(lc fx.Lifecycle, s *sweeper.Scheduler) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go s.RunForever(context.Background())
			return nil
		},
	})
}
