package tracing

import (
	"go.uber.org/fx"

	appconfig "github.com/Emad-Khatrush/Exios-Api/internal/config"
)

var Module = fx.Module("tracing",
	fx.Provide(NewConfig),
	fx.Invoke(NewProvider),
)

// NewConfig maps process configuration onto the tracer setup.
func NewConfig(cfg appconfig.Config) Config {
	return Config{
		Enabled:          cfg.TracingEnabled,
		ServiceName:      cfg.ServiceName,
		Environment:      cfg.Environment,
		ExporterEndpoint: cfg.OTLPExporterEndpoint,
		ExporterProtocol: cfg.OTLPExporterProtocol,
		SamplingRatio:    cfg.TracingSamplingRatio,
	}
}
