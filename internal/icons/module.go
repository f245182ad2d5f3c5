package icons

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"verge-groups/internal/config"
	"verge-groups/internal/interfaces"
)

var Module = fx.Options(
	fx.Provide(func(cfg *config.Config, logger *zap.Logger) (*Downloader, error) {
		return NewDownloader(cfg.IconCacheDir, logger)
	}),
	fx.Provide(func(d *Downloader) interfaces.IconFetcher { return d }),
	fx.Provide(func() interfaces.Locator { return NewAssetLocator() }),
)

var (
	_ interfaces.IconFetcher = (*Downloader)(nil)
	_ interfaces.Locator     = AssetLocator{}
)
