package order

import (
	"go.uber.org/fx"

	"github.com/Emad-Khatrush/Exios-Api/internal/order/service"
)

var Module = fx.Module("order.service",
	fx.Provide(service.NewService),
)
