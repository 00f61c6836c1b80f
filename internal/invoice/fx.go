package invoice

import (
	"go.uber.org/fx"

	"github.com/Emad-Khatrush/Exios-Api/internal/invoice/service"
)

var Module = fx.Module("invoice.service",
	fx.Provide(service.NewService),
)
