package audit

import (
	"go.uber.org/fx"

	"github.com/Emad-Khatrush/Exios-Api/internal/audit/service"
)

var Module = fx.Module("audit.service",
	fx.Provide(service.NewService),
)
