package wallet

import (
	"go.uber.org/fx"

	"github.com/Emad-Khatrush/Exios-Api/internal/wallet/service"
)

var Module = fx.Module("wallet.service",
	fx.Provide(service.NewService),
)
