package material

import (
	"github.com/smallbiznis/rentalops/internal/material/repository"
	"github.com/smallbiznis/rentalops/internal/material/service"
	"go.uber.org/fx"
)

var Module = fx.Module("material.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
