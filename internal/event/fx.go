package event

import (
	"github.com/voluntaria/platform/internal/event/repository"
	"go.uber.org/fx"
)

var Module = fx.Module("event",
	fx.Provide(repository.Provide),
)
