package refresh

import (
	"context"
	"sync"

	"go.uber.org/fx"
	"go.uber.org/zap"
	"verge-groups/internal/config"
	"verge-groups/internal/interfaces"
	"verge-groups/internal/view"
)

var Module = fx.Options(
	fx.Provide(func(cfg *config.Config, session *view.Session, logger *zap.Logger) *Scheduler {
		return NewScheduler(cfg.RefreshEvery(), cfg.Controller.Timeout(), session, logger)
	}),
	fx.Provide(func(s *Scheduler) interfaces.Scheduler { return s }),
	fx.Invoke(registerHooks),
)

func registerHooks(lc fx.Lifecycle, s *Scheduler) {
	var (
		cancel context.CancelFunc
		wg     sync.WaitGroup
	)
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			var ctx context.Context
			ctx, cancel = context.WithCancel(context.Background())
			wg.Add(1)
			go func() {
				defer wg.Done()
				s.Start(ctx)
			}()
			return nil
		},
		OnStop: func(context.Context) error {
			cancel()
			wg.Wait()
			return s.Stop()
		},
	})
}
