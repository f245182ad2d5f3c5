package headstate

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"verge-groups/internal/domain"
)

func ptr[T any](v T) *T { return &v }

func TestGetDefaultsWhenAbsent(t *testing.T) {
	s := NewStore(zap.NewNop())
	assert.Equal(t, domain.HeadState{}, s.Get("Proxy"))
	assert.Equal(t, 0, s.Len())
}

func TestPatchMergesFields(t *testing.T) {
	s := NewStore(zap.NewNop())

	s.Patch("Proxy", domain.HeadPatch{Open: ptr(true)})
	s.Patch("Proxy", domain.HeadPatch{SortType: ptr(domain.SortDelay)})
	got := s.Patch("Proxy", domain.HeadPatch{FilterText: ptr("hk")})

	want := domain.HeadState{Open: true, SortType: domain.SortDelay, FilterText: "hk"}
	assert.Equal(t, want, got)
	assert.Equal(t, want, s.Get("Proxy"))
	assert.Equal(t, domain.HeadState{}, s.Get("Other"))
	assert.Equal(t, 1, s.Len())
}

func TestSnapshotIsDetached(t *testing.T) {
	s := NewStore(zap.NewNop())
	s.Patch("Proxy", domain.HeadPatch{Open: ptr(true)})

	snap := s.Snapshot()
	s.Patch("Proxy", domain.HeadPatch{Open: ptr(false)})

	assert.True(t, snap.Get("Proxy").Open)
	assert.False(t, s.Get("Proxy").Open)
}

func TestPruneKeepsLiveAndTesting(t *testing.T) {
	s := NewStore(zap.NewNop())
	s.Patch("Live", domain.HeadPatch{Open: ptr(true)})
	s.Patch("Gone", domain.HeadPatch{Open: ptr(true)})
	s.Patch("Probing", domain.HeadPatch{Testing: ptr(true), Open: ptr(true), SortType: ptr(domain.SortName)})

	removed := s.Prune([]domain.GroupName{"Live"})

	assert.Equal(t, 1, removed)
	assert.True(t, s.Get("Live").Open)
	assert.Equal(t, domain.HeadState{}, s.Get("Gone"))
	assert.Equal(t, domain.HeadState{Testing: true}, s.Get("Probing"))
	assert.Equal(t, 2, s.Len())
}

func TestPatchExisting(t *testing.T) {
	tests := []struct {
		name   string
		seed   bool
		want   domain.HeadState
		wantOK bool
		len    int
	}{
		{"absent entry is not created", false, domain.HeadState{}, false, 0},
		{"present entry is merged", true, domain.HeadState{Open: true}, true, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(zap.NewNop())
			if tt.seed {
				s.Patch("Proxy", domain.HeadPatch{Open: ptr(true), Testing: ptr(true)})
			}

			got, ok := s.PatchExisting("Proxy", domain.HeadPatch{Testing: ptr(false)})

			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.len, s.Len())
		})
	}
}

func TestConcurrentPatchesAreNotLost(t *testing.T) {
	s := NewStore(zap.NewNop())

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			s.Patch("Proxy", domain.HeadPatch{Open: ptr(true)})
		}()
		go func() {
			defer wg.Done()
			s.Patch("Proxy", domain.HeadPatch{ShowType: ptr(true)})
		}()
	}
	wg.Wait()

	st := s.Get("Proxy")
	require.True(t, st.Open)
	require.True(t, st.ShowType)
}
