package view

import (
	"context"
	"time"

	"go.uber.org/zap"
	"verge-groups/internal/domain"
	"verge-groups/internal/interfaces"
)

// Prober asks the controller to measure every member of a group. The test
// URL is the group's own, then the verge default, then the configured one.
type Prober struct {
	backend    interfaces.ProxyBackend
	proxies    *ProxiesCache
	verge      *VergeCache
	defaultURL string
	timeout    time.Duration
	logger     *zap.Logger
}

func NewProber(
	backend interfaces.ProxyBackend,
	proxies *ProxiesCache,
	verge *VergeCache,
	defaultURL string,
	timeout time.Duration,
	logger *zap.Logger,
) *Prober {
	return &Prober{
		backend:    backend,
		proxies:    proxies,
		verge:      verge,
		defaultURL: defaultURL,
		timeout:    timeout,
		logger:     logger.With(zap.String("component", "prober")),
	}
}

func (p *Prober) Probe(ctx context.Context, group domain.GroupName) error {
	testURL := p.testURL(group)
	delays, err := p.backend.GroupDelay(ctx, group, testURL, p.timeout)
	if err != nil {
		return err
	}
	p.logger.Debug("group probed",
		zap.String("group", string(group)),
		zap.String("url", testURL),
		zap.Int("measured", len(delays)))
	return nil
}

func (p *Prober) testURL(group domain.GroupName) string {
	if groups, ok := p.proxies.Read(); ok {
		for _, g := range groups {
			if g.Name == group && g.TestURL != "" {
				return g.TestURL
			}
		}
	}
	if v, ok := p.verge.Read(); ok && v.DefaultLatencyTest != "" {
		return v.DefaultLatencyTest
	}
	return p.defaultURL
}

var _ interfaces.Prober = (*Prober)(nil)
