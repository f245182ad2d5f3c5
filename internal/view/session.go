package view

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"verge-groups/internal/domain"
	"verge-groups/internal/headstate"
	"verge-groups/internal/healthcheck"
	"verge-groups/internal/iconcache"
	"verge-groups/internal/interfaces"
	"verge-groups/internal/render"
	"verge-groups/internal/syncache"
)

const revalidateTimeout = 15 * time.Second

// Session is the group list as seen by one view: it projects the synced
// model into rows and carries out the actions rows expose.
type Session struct {
	proxies *ProxiesCache
	verge   *VergeCache
	heads   *headstate.Store
	builder *render.Builder
	icons   *iconcache.Cache
	checks  *healthcheck.Dispatcher
	cadence *healthcheck.Cadence
	backend interfaces.ProxyBackend
	vergeIO interfaces.VergeBackend
	logger  *zap.Logger

	realizing sync.WaitGroup
}

type SessionParams struct {
	Proxies *ProxiesCache
	Verge   *VergeCache
	Heads   *headstate.Store
	Builder *render.Builder
	Icons   *iconcache.Cache
	Checks  *healthcheck.Dispatcher
	Cadence *healthcheck.Cadence
	Backend interfaces.ProxyBackend
	VergeIO interfaces.VergeBackend
	Logger  *zap.Logger
}

func NewSession(p SessionParams) *Session {
	s := &Session{
		proxies: p.Proxies,
		verge:   p.Verge,
		heads:   p.Heads,
		builder: p.Builder,
		icons:   p.Icons,
		checks:  p.Checks,
		cadence: p.Cadence,
		backend: p.Backend,
		vergeIO: p.VergeIO,
		logger:  p.Logger.With(zap.String("component", "session")),
	}
	// New delays only exist on the controller; pull them in after each probe.
	s.checks.OnComplete(func(group domain.GroupName, err error) {
		ctx, cancel := context.WithTimeout(context.Background(), revalidateTimeout)
		defer cancel()
		if err := s.Refresh(ctx); err != nil {
			s.logger.Warn("refresh after probe failed",
				zap.String("group", string(group)), zap.Error(err))
		}
	})
	return s
}

// Start loads both synced values in parallel.
func (s *Session) Start(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.Refresh(gctx) })
	g.Go(func() error { return s.RefreshVerge(gctx) })
	return g.Wait()
}

// RefreshVerge reloads the verge settings, picking up edits made outside
// this process.
func (s *Session) RefreshVerge(ctx context.Context) error {
	return s.verge.Revalidate(ctx)
}

// Refresh revalidates the group model and drops per-group state of groups
// that no longer exist.
func (s *Session) Refresh(ctx context.Context) error {
	if err := s.proxies.Revalidate(ctx); err != nil {
		return err
	}
	groups, ok := s.proxies.Read()
	if !ok {
		return nil
	}
	live := make([]domain.GroupName, 0, len(groups))
	for _, g := range groups {
		live = append(live, g.Name)
	}
	if n := s.heads.Prune(live); n > 0 {
		s.logger.Debug("pruned head state",
			zap.Int("removed", n),
			zap.Int("remaining", s.heads.Len()))
	}
	s.cadence.Forget(live)
	return nil
}

// Rows builds the current row sequence. It returns syncache.ErrPending
// until the group model has been loaded once.
func (s *Session) Rows() ([]domain.Row, error) {
	groups, err := s.proxies.MustRead()
	if err != nil {
		return nil, err
	}
	builder := s.builder
	if v, ok := s.verge.Read(); ok && v.ProxyLayoutColumn > 0 {
		builder = builder.WithColumns(v.ProxyLayoutColumn)
	}
	return builder.Build(groups, s.heads.Snapshot()), nil
}

// Realize runs the side effects of rows becoming visible: icon resolution
// for group headers and the automatic probe of every group shown. It
// returns immediately; the work continues in the background.
func (s *Session) Realize(rows []domain.Row) {
	icons := true
	if v, ok := s.verge.Read(); ok {
		icons = v.GroupIconsEnabled()
	}

	seen := make(map[domain.GroupName]struct{})
	for _, row := range rows {
		name := row.GroupName()
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}

		if icons {
			if g, ok := headerGroup(row); ok && iconcache.IsRemote(g.Icon) {
				s.resolveIcon(g)
			}
		}
		s.checks.AutoTrigger(name)
	}
}

func headerGroup(row domain.Row) (domain.Group, bool) {
	switch r := row.(type) {
	case domain.GroupHeader:
		return r.Group, true
	case domain.GroupBody:
		return r.Group, true
	default:
		return domain.Group{}, false
	}
}

func (s *Session) resolveIcon(g domain.Group) {
	if entry, ok := s.icons.Peek(g.Name, g.Icon); ok && entry.Status != iconcache.StatusPending {
		return
	}
	s.realizing.Add(1)
	go func() {
		defer s.realizing.Done()
		s.icons.Resolve(context.Background(), g.Name, g.Icon)
	}()
}

// Icon returns the resolved icon resource for a group, or "" when there is
// none yet. It never fetches.
func (s *Session) Icon(g domain.Group) string {
	if v, ok := s.verge.Read(); ok && !v.GroupIconsEnabled() {
		return ""
	}
	if !iconcache.IsRemote(g.Icon) {
		return g.Icon
	}
	entry, ok := s.icons.Peek(g.Name, g.Icon)
	if !ok || entry.Status != iconcache.StatusReady {
		return ""
	}
	return entry.Resource
}

// OnLocation returns the index of the row holding the group's selected
// proxy, or -1 when that proxy is not currently displayed.
func (s *Session) OnLocation(group domain.GroupName) (int, error) {
	g, err := s.group(group)
	if err != nil {
		return -1, err
	}
	rows, err := s.Rows()
	if err != nil {
		return -1, err
	}
	for i, row := range rows {
		switch r := row.(type) {
		case domain.ProxyEntry:
			if r.Group.Name == group && r.Proxy.Name == g.Now {
				return i, nil
			}
		case domain.ProxyGrid:
			if r.Group.Name == group && r.Contains(g.Now) {
				return i, nil
			}
		}
	}
	return -1, nil
}

// OnCheckAll starts a probe of every member of the group. It reports false
// when one is already running.
func (s *Session) OnCheckAll(group domain.GroupName) (bool, error) {
	if _, err := s.group(group); err != nil {
		return false, err
	}
	return s.checks.Trigger(group), nil
}

// OnHeadState merges patch into the group's head state. Testing is owned by
// the probe dispatcher and is ignored here.
func (s *Session) OnHeadState(group domain.GroupName, patch domain.HeadPatch) (domain.HeadState, error) {
	if _, err := s.group(group); err != nil {
		return domain.HeadState{}, err
	}
	patch.Testing = nil
	return s.heads.Patch(group, patch), nil
}

func (s *Session) HeadState(group domain.GroupName) (domain.HeadState, error) {
	if _, err := s.group(group); err != nil {
		return domain.HeadState{}, err
	}
	return s.heads.Get(group), nil
}

// OnChangeProxy selects proxy in a selector group. The selection shows
// immediately and is then confirmed against the controller. A rejected
// write comes back as *syncache.MutationError.
func (s *Session) OnChangeProxy(ctx context.Context, group domain.GroupName, proxy string) error {
	g, err := s.group(group)
	if err != nil {
		return err
	}
	if !g.Selectable() {
		return fmt.Errorf("%s (%s): %w", group, g.Type, ErrNotSelectable)
	}
	if _, ok := g.Member(proxy); !ok {
		return fmt.Errorf("%s in %s: %w", proxy, group, ErrUnknownProxy)
	}

	return s.proxies.Mutate(ctx,
		func(groups []domain.Group) []domain.Group {
			next := domain.CloneGroups(groups)
			for i := range next {
				if next[i].Name == group {
					next[i].Now = proxy
				}
			}
			return next
		},
		func(ctx context.Context) error {
			return s.backend.SelectProxy(ctx, group, proxy)
		},
	)
}

func (s *Session) Verge() (domain.VergeConfig, error) {
	return s.verge.MustRead()
}

// PatchVerge writes patch to the settings file and reloads it.
func (s *Session) PatchVerge(ctx context.Context, patch domain.VergePatch) error {
	return s.verge.Mutate(ctx, patch.Apply, func(ctx context.Context) error {
		return s.vergeIO.PatchVerge(ctx, patch)
	})
}

// SyncState reports the load and mutation state of both synced values.
func (s *Session) SyncState() []syncache.State {
	return []syncache.State{s.proxies.State(), s.verge.State()}
}

// Wait blocks until background icon resolutions and probes are done.
func (s *Session) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.realizing.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return fmt.Errorf("waiting for icons: %w", ctx.Err())
	}
	return s.checks.Wait(ctx)
}

func (s *Session) group(name domain.GroupName) (domain.Group, error) {
	groups, err := s.proxies.MustRead()
	if err != nil {
		return domain.Group{}, err
	}
	for _, g := range groups {
		if g.Name == name {
			return g, nil
		}
	}
	return domain.Group{}, fmt.Errorf("%s: %w", name, ErrUnknownGroup)
}

var _ interfaces.GroupView = (*Session)(nil)
