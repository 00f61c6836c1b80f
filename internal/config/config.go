package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/fx"
)

// Config carries the process configuration, read once from the
// environment at boot.
type Config struct {
	Environment string
	ServiceName string

	DatabaseDSN string

	DispatchBatchSize    int
	DispatchPollInterval time.Duration

	BroadcastWebhookURL   string
	BroadcastWebhookToken string

	TracingEnabled       bool
	OTLPExporterEndpoint string
	OTLPExporterProtocol string
	TracingSamplingRatio float64
}

func Load() Config {
	return Config{
		Environment: getString("EXIOS_ENV", "development"),
		ServiceName: getString("EXIOS_SERVICE_NAME", "exios"),

		DatabaseDSN: getString("EXIOS_DATABASE_DSN",
			"host=localhost user=exios password=exios dbname=exios port=5432 sslmode=disable"),

		DispatchBatchSize:    getInt("EXIOS_DISPATCH_BATCH_SIZE", 50),
		DispatchPollInterval: getDuration("EXIOS_DISPATCH_POLL_INTERVAL", 2*time.Second),

		BroadcastWebhookURL:   getString("EXIOS_BROADCAST_WEBHOOK_URL", ""),
		BroadcastWebhookToken: getString("EXIOS_BROADCAST_WEBHOOK_TOKEN", ""),

		TracingEnabled:       getBool("EXIOS_TRACING_ENABLED", false),
		OTLPExporterEndpoint: getString("EXIOS_OTLP_ENDPOINT", ""),
		OTLPExporterProtocol: getString("EXIOS_OTLP_PROTOCOL", "grpc"),
		TracingSamplingRatio: getFloat("EXIOS_TRACING_SAMPLING_RATIO", 0.1),
	}
}

func (c Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

var Module = fx.Module("config",
	fx.Provide(Load),
)

func getString(key, fallback string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return fallback
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}

func getBool(key string, fallback bool) bool {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseBool(raw)
	if err != nil {
		return fallback
	}
	return value
}

func getFloat(key string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return value
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return value
}
