package orderhistory

import (
	"go.uber.org/fx"

	"github.com/Emad-Khatrush/Exios-Api/internal/orderhistory/service"
)

var Module = fx.Module("orderhistory.service",
	fx.Provide(service.NewService),
)
