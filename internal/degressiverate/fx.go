package degressiverate

import (
	"github.com/smallbiznis/rentalops/internal/degressiverate/repository"
	"github.com/smallbiznis/rentalops/internal/degressiverate/service"
	"go.uber.org/fx"
)

var Module = fx.Module("degressiverate.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
