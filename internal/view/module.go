package view

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"verge-groups/internal/config"
	"verge-groups/internal/headstate"
	"verge-groups/internal/healthcheck"
	"verge-groups/internal/iconcache"
	"verge-groups/internal/interfaces"
	"verge-groups/internal/render"
)

var Module = fx.Options(
	fx.Provide(NewProxiesCache),
	fx.Provide(NewVergeCache),
	fx.Provide(func(
		cfg *config.Config,
		backend interfaces.ProxyBackend,
		proxies *ProxiesCache,
		verge *VergeCache,
		logger *zap.Logger,
	) interfaces.Prober {
		return NewProber(backend, proxies, verge, cfg.Probe.TestURL, cfg.Probe.Timeout(), logger)
	}),
	fx.Provide(newSession),
	fx.Invoke(registerHooks),
)

type sessionParams struct {
	fx.In

	Proxies *ProxiesCache
	Verge   *VergeCache
	Heads   *headstate.Store
	Builder *render.Builder
	Icons   *iconcache.Cache
	Checks  *healthcheck.Dispatcher
	Cadence *healthcheck.Cadence
	Backend interfaces.ProxyBackend
	VergeIO interfaces.VergeBackend
	Logger  *zap.Logger
}

func newSession(p sessionParams) *Session {
	return NewSession(SessionParams{
		Proxies: p.Proxies,
		Verge:   p.Verge,
		Heads:   p.Heads,
		Builder: p.Builder,
		Icons:   p.Icons,
		Checks:  p.Checks,
		Cadence: p.Cadence,
		Backend: p.Backend,
		VergeIO: p.VergeIO,
		Logger:  p.Logger,
	})
}

func registerHooks(lc fx.Lifecycle, s *Session, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			// An unreachable controller is not fatal; rows stay pending until
			// the next refresh succeeds.
			if err := s.Start(ctx); err != nil {
				logger.Warn("initial load failed", zap.Error(err))
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return s.Wait(ctx)
		},
	})
}
