package setting

import (
	"github.com/smallbiznis/rentalops/internal/setting/repository"
	"github.com/smallbiznis/rentalops/internal/setting/service"
	"go.uber.org/fx"
)

var Module = fx.Module("setting.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
