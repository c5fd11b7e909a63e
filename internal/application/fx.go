package application

import (
	"github.com/voluntaria/platform/internal/application/repository"
	"github.com/voluntaria/platform/internal/application/service"
	"go.uber.org/fx"
)

var Module = fx.Module("application.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
