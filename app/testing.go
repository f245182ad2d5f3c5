package app

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap"
	"verge-groups/internal/common"
	"verge-groups/internal/interfaces"
)

// TestApplication runs the full graph under fxtest with an isolated metrics
// registry and optionally faked collaborators.
type TestApplication struct {
	tb      testing.TB
	testApp *fxtest.App
	service *common.ServiceOptions
	options []fx.Option
}

func NewTestApplication(tb testing.TB, opts ...common.Option) *TestApplication {
	service := &common.ServiceOptions{
		Logger:   zap.NewNop(),
		Env:      "test",
		Registry: prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(service)
	}

	return &TestApplication{
		tb:      tb,
		service: service,
	}
}

func (ta *TestApplication) WithOption(opt fx.Option) *TestApplication {
	ta.options = append(ta.options, opt)
	return ta
}

func (ta *TestApplication) WithProxyBackend(b interfaces.ProxyBackend) *TestApplication {
	return ta.WithOption(fx.Decorate(func(interfaces.ProxyBackend) interfaces.ProxyBackend { return b }))
}

func (ta *TestApplication) WithVergeBackend(b interfaces.VergeBackend) *TestApplication {
	return ta.WithOption(fx.Decorate(func(interfaces.VergeBackend) interfaces.VergeBackend { return b }))
}

func (ta *TestApplication) Start(ctx context.Context) error {
	testOptions := []fx.Option{
		baseOptions(ta.service),
		fx.StartTimeout(10 * time.Second),
		fx.StopTimeout(10 * time.Second),
	}
	testOptions = append(testOptions, ta.options...)

	ta.testApp = fxtest.New(ta.tb, testOptions...)
	return ta.testApp.Start(ctx)
}

func (ta *TestApplication) Stop(ctx context.Context) error {
	if ta.testApp != nil {
		return ta.testApp.Stop(ctx)
	}
	return nil
}
