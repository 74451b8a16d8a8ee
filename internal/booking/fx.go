package booking

import (
	"github.com/smallbiznis/rentalops/internal/booking/repository"
	"github.com/smallbiznis/rentalops/internal/booking/service"
	"go.uber.org/fx"
)

var Module = fx.Module("booking.service",
	fx.Provide(repository.NewRepository),
	fx.Provide(service.NewService),
)
