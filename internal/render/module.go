package render

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"verge-groups/internal/config"
	"verge-groups/internal/domain"
)

var Module = fx.Options(
	fx.Provide(func(cfg *config.Config, metrics domain.MetricsCollector, logger *zap.Logger) *Builder {
		return NewBuilder(OptionsFromConfig(cfg.View), metrics, logger)
	}),
)
