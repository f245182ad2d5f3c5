package clash

import (
	"go.uber.org/fx"
	"go.uber.org/zap"
	"verge-groups/internal/config"
	"verge-groups/internal/interfaces"
)

// Module exports the controller client as the proxy backend
var Module = fx.Options(
	fx.Provide(func(cfg *config.Config, logger *zap.Logger) *Client {
		return NewClient(cfg.Controller.URL, cfg.Controller.Secret, cfg.Controller.Timeout(), logger)
	}),
	fx.Provide(func(c *Client) interfaces.ProxyBackend { return c }),
)

var _ interfaces.ProxyBackend = (*Client)(nil)
