package interfaces

import (
	"context"
	"time"

	"verge-groups/internal/domain"
	"verge-groups/internal/syncache"
)

// ProxyBackend is the controller that owns the authoritative group model.
type ProxyBackend interface {
	Groups(ctx context.Context) ([]domain.Group, error)
	SelectProxy(ctx context.Context, group domain.GroupName, proxy string) error
	GroupDelay(ctx context.Context, group domain.GroupName, testURL string, timeout time.Duration) (map[string]int, error)
}

// VergeBackend owns the global client configuration.
type VergeBackend interface {
	Verge(ctx context.Context) (domain.VergeConfig, error)
	PatchVerge(ctx context.Context, patch domain.VergePatch) error
}

// IconFetcher downloads a remote icon into the local cache and returns its file path.
type IconFetcher interface {
	FetchIcon(ctx context.Context, url, fileName string) (string, error)
}

// Locator maps a cached file path to a locator the view can render.
type Locator interface {
	Locate(path string) string
}

// Prober runs a latency probe over every member of a group.
type Prober interface {
	Probe(ctx context.Context, group domain.GroupName) error
}

// Scheduler periodically refreshes the group model.
type Scheduler interface {
	Start(ctx context.Context)
	Stop() error
	IsHealthy() bool
}

// GroupView is the row list with the actions its rows expose.
type GroupView interface {
	Rows() ([]domain.Row, error)
	Realize(rows []domain.Row)
	Icon(group domain.Group) string
	OnLocation(group domain.GroupName) (int, error)
	OnCheckAll(group domain.GroupName) (bool, error)
	HeadState(group domain.GroupName) (domain.HeadState, error)
	OnHeadState(group domain.GroupName, patch domain.HeadPatch) (domain.HeadState, error)
	OnChangeProxy(ctx context.Context, group domain.GroupName, proxy string) error
	Verge() (domain.VergeConfig, error)
	PatchVerge(ctx context.Context, patch domain.VergePatch) error
	SyncState() []syncache.State
}
