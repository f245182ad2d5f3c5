package verge

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"verge-groups/internal/config"
	"verge-groups/internal/interfaces"
)

var Module = fx.Options(
	fx.Provide(func(cfg *config.Config, logger *zap.Logger) (*FileStore, error) {
		return NewFileStore(cfg.VergeConfigPath, logger)
	}),
	fx.Provide(func(s *FileStore) interfaces.VergeBackend { return s }),
)

var _ interfaces.VergeBackend = (*FileStore)(nil)
