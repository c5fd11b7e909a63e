package notification

import (
	"github.com/voluntaria/platform/internal/notification/repository"
	"github.com/voluntaria/platform/internal/notification/service"
	"go.uber.org/fx"
)

var Module = fx.Module("notification.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.NewDispatcher),
	fx.Provide(service.New),
)
