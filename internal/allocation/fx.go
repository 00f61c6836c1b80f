package allocation

import (
	"go.uber.org/fx"

	"github.com/Emad-Khatrush/Exios-Api/internal/allocation/service"
)

var Module = fx.Module("allocation.service",
	fx.Provide(service.NewService),
)
