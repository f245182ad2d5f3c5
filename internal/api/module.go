package api

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"verge-groups/internal/config"
	"verge-groups/internal/interfaces"
	"verge-groups/internal/view"
)

var Module = fx.Options(
	fx.Provide(func(
		cfg *config.Config,
		session *view.Session,
		scheduler interfaces.Scheduler,
		gatherer prometheus.Gatherer,
		logger *zap.Logger,
	) *Server {
		return NewServer(cfg.API, session, scheduler, gatherer, logger)
	}),
	fx.Invoke(registerHooks),
)

func registerHooks(lc fx.Lifecycle, s *Server) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return s.Start()
		},
		OnStop: func(ctx context.Context) error {
			return s.Shutdown(ctx)
		},
	})
}
