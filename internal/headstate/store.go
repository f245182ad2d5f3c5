package headstate

import (
	"sync"

	"go.uber.org/zap"
	"verge-groups/internal/domain"
)

// Store holds the head state of every group the view has touched. A patch is
// merged under the write lock, so any Get issued after Patch returns sees it.
type Store struct {
	mu     sync.RWMutex
	states map[domain.GroupName]domain.HeadState
	logger *zap.Logger
}

func NewStore(logger *zap.Logger) *Store {
	return &Store{
		states: make(map[domain.GroupName]domain.HeadState),
		logger: logger.With(zap.String("component", "headstate")),
	}
}

// Get returns the head state of name, or the zero state if none was recorded.
func (s *Store) Get(name domain.GroupName) domain.HeadState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.states[name]
}

// Patch merges the non-nil fields of patch into the state of name and
// returns the merged state.
func (s *Store) Patch(name domain.GroupName, patch domain.HeadPatch) domain.HeadState {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := patch.Apply(s.states[name])
	s.states[name] = next
	return next
}

// PatchExisting is Patch for a group that already has an entry. It never
// creates one and reports whether the entry was found.
func (s *Store) PatchExisting(name domain.GroupName, patch domain.HeadPatch) (domain.HeadState, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.states[name]
	if !ok {
		return domain.HeadState{}, false
	}
	next := patch.Apply(cur)
	s.states[name] = next
	return next, true
}

// Snapshot copies the current states. Builders read from a snapshot so that
// every row of one pass observes the same head state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := make(Snapshot, len(s.states))
	for name, st := range s.states {
		snap[name] = st
	}
	return snap
}

// Prune forgets the state of every group that is not in live. A vanished
// group that is still being checked keeps only its testing flag, so a group that
// later reappears under the same name starts from the default state.
func (s *Store) Prune(live []domain.GroupName) int {
	keep := make(map[domain.GroupName]struct{}, len(live))
	for _, name := range live {
		keep[name] = struct{}{}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for name, st := range s.states {
		if _, ok := keep[name]; ok {
			continue
		}
		if st.Testing {
			s.states[name] = domain.HeadState{Testing: true}
			continue
		}
		delete(s.states, name)
		removed++
	}
	if removed > 0 {
		s.logger.Debug("pruned stale head states", zap.Int("removed", removed))
	}
	return removed
}

// Len is the number of groups with a recorded state.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.states)
}

// Snapshot is an immutable copy of the store.
type Snapshot map[domain.GroupName]domain.HeadState

func (s Snapshot) Get(name domain.GroupName) domain.HeadState {
	return s[name]
}

var (
	_ domain.HeadReader = (*Store)(nil)
	_ domain.HeadReader = Snapshot(nil)
)
