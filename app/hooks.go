package app

import (
	"context"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

type hookParams struct {
	fx.In

	Logger    *zap.Logger
	Lifecycle fx.Lifecycle
	Env       string `name:"env"`
}

func registerHooks(p hookParams) {
	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			p.Logger.Info("starting application", zap.String("env", p.Env))
			return nil
		},
		OnStop: func(ctx context.Context) error {
			p.Logger.Info("stopping application")
			return nil
		},
	})
}
