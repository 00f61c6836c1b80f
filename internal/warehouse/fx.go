package warehouse

import (
	"go.uber.org/fx"

	"github.com/Emad-Khatrush/Exios-Api/internal/warehouse/service"
)

var Module = fx.Module("warehouse.service",
	fx.Provide(service.NewService),
)
