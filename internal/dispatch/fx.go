package dispatch

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"

	appconfig "github.com/Emad-Khatrush/Exios-Api/internal/config"
)

var Module = fx.Module("dispatch.worker",
	fx.Provide(NewConfig),
	fx.Provide(NewSender),
	fx.Provide(NewWorker),
	fx.Invoke(runWorker),
)

func NewConfig(cfg appconfig.Config) Config {
	return Config{
		BatchSize:    cfg.DispatchBatchSize,
		PollInterval: cfg.DispatchPollInterval,
	}.withDefaults()
}

func NewSender(cfg appconfig.Config, log *zap.Logger) Sender {
	return NewWebhookSender(cfg.BroadcastWebhookURL, cfg.BroadcastWebhookToken, log)
}

func runWorker(lc fx.Lifecycle, worker *Worker) {
	var cancel context.CancelFunc
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			var runCtx context.Context
			runCtx, cancel = context.WithCancel(context.Background())
			go worker.RunForever(runCtx)
			return nil
		},
		OnStop: func(context.Context) error {
			if cancel != nil {
				cancel()
			}
			return nil
		},
	})
}
