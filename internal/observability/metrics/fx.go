package metrics

import (
	"go.uber.org/fx"

	appconfig "github.com/Emad-Khatrush/Exios-Api/internal/config"
)

var Module = fx.Module("metrics",
	fx.Provide(NewAllocation),
)

func NewAllocation(cfg appconfig.Config) *AllocationMetrics {
	return AllocationWithConfig(Config{
		ServiceName: cfg.ServiceName,
		Environment: cfg.Environment,
	})
}
