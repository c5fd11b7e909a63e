package sweeper

import (
	redis "github.com/redis/go-redis/v9"
	"github.com/voluntaria/platform/internal/config"
	"go.uber.org/fx"
)

var Module = fx.Module("sweeper",
	fx.Provide(provideConfig),
	fx.Provide(provideLocker),
	fx.Provide(New),
	fx.Provide(NewScheduler),
)

func provideConfig(cfg config.Config) Config {
	return Config{
		RefreshInterval: cfg.Sweep.RefreshInterval,
		LockTTL:         cfg.Sweep.LockTTL,
	}.withDefaults()
}

func provideLocker(cfg config.Config) *Locker {
	if cfg.Sweep.RedisAddr == "" {
		return nil
	}
	return NewLocker(redis.NewClient(&redis.Options{
		Addr:     cfg.Sweep.RedisAddr,
		Password: cfg.Sweep.RedisPassword,
	}))
}
