package rates

import (
	"go.uber.org/fx"

	"github.com/Emad-Khatrush/Exios-Api/internal/rates/service"
)

var Module = fx.Module("rates.service",
	fx.Provide(service.NewService),
)
