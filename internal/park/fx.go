package park

import (
	"github.com/smallbiznis/rentalops/internal/park/repository"
	"github.com/smallbiznis/rentalops/internal/park/service"
	"go.uber.org/fx"
)

var Module = fx.Module("park.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
