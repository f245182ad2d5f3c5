package view

import (
	"go.uber.org/zap"
	"verge-groups/internal/domain"
	"verge-groups/internal/interfaces"
	"verge-groups/internal/syncache"
)

const (
	ProxiesKey = "proxies"
	VergeKey   = "verge-config"
)

type (
	ProxiesCache = syncache.Cache[[]domain.Group]
	VergeCache   = syncache.Cache[domain.VergeConfig]
)

func NewProxiesCache(backend interfaces.ProxyBackend, metrics domain.MetricsCollector, logger *zap.Logger) *ProxiesCache {
	return syncache.New(ProxiesKey, backend.Groups, metrics, logger)
}

func NewVergeCache(backend interfaces.VergeBackend, metrics domain.MetricsCollector, logger *zap.Logger) *VergeCache {
	return syncache.New(VergeKey, backend.Verge, metrics, logger)
}
