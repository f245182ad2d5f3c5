package healthcheck

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"verge-groups/internal/config"
	"verge-groups/internal/domain"
	"verge-groups/internal/headstate"
	"verge-groups/internal/interfaces"
)

var Module = fx.Options(
	fx.Provide(func(cfg *config.Config) *Cadence {
		return NewCadence(cfg.Probe.AutoCheckEvery())
	}),
	fx.Provide(func(
		cfg *config.Config,
		store *headstate.Store,
		prober interfaces.Prober,
		cadence *Cadence,
		metrics domain.MetricsCollector,
		logger *zap.Logger,
	) *Dispatcher {
		// The controller enforces the probe timeout itself; leave room for the round trip.
		return NewDispatcher(store, prober, cadence, 2*cfg.Probe.Timeout(), metrics, logger)
	}),
	fx.Invoke(registerHooks),
)

func registerHooks(lc fx.Lifecycle, d *Dispatcher) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			return d.Wait(ctx)
		},
	})
}
