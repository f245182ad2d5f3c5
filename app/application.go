package app

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
	"verge-groups/internal/common"
)

type Application struct {
	app    *fx.App
	logger *zap.Logger
}

func NewApplication(opts ...common.Option) *Application {
	options := &common.ServiceOptions{}
	for _, opt := range opts {
		opt(options)
	}

	// Ensure required options are set
	if options.Logger == nil {
		options.Logger = zap.NewNop()
	}

	app := &Application{
		logger: options.Logger,
	}

	// Build fx application
	app.app = fx.New(
		baseOptions(options),
		fx.StopTimeout(30*time.Second),
		fx.StartTimeout(30*time.Second),
	)

	return app
}

// baseOptions is the graph shared by the real and the test application.
func baseOptions(options *common.ServiceOptions) fx.Option {
	opts := []fx.Option{
		Modules,

		// Provide base dependencies
		fx.Provide(
			func() *zap.Logger { return options.Logger },
			fx.Annotated{
				Name:   "env",
				Target: func() string { return options.Env },
			},
		),

		// Configure fx
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger}
		}),

		// Register lifecycle hooks
		fx.Invoke(registerHooks),
	}

	if options.Registry != nil {
		opts = append(opts,
			fx.Decorate(func(prometheus.Registerer) prometheus.Registerer { return options.Registry }),
			fx.Decorate(func(prometheus.Gatherer) prometheus.Gatherer { return options.Registry }),
		)
	}
	return fx.Options(opts...)
}

func (a *Application) Start(ctx context.Context) error {
	return a.app.Start(ctx)
}

func (a *Application) Stop(ctx context.Context) error {
	return a.app.Stop(ctx)
}
