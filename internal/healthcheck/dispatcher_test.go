package healthcheck

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"verge-groups/internal/domain"
	"verge-groups/internal/headstate"
	"verge-groups/internal/metrics"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type gatedProber struct {
	calls   atomic.Int32
	started chan domain.GroupName
	release chan struct{}
	err     error
	panics  bool
}

func newGatedProber() *gatedProber {
	return &gatedProber{
		started: make(chan domain.GroupName, 8),
		release: make(chan struct{}),
	}
}

func (p *gatedProber) Probe(ctx context.Context, group domain.GroupName) error {
	p.calls.Add(1)
	p.started <- group
	<-p.release
	if p.panics {
		panic("controller went away")
	}
	return p.err
}

func newDispatcher(t *testing.T, p *gatedProber, cadence *Cadence) (*Dispatcher, *headstate.Store) {
	t.Helper()
	store := headstate.NewStore(zap.NewNop())
	return NewDispatcher(store, p, cadence, time.Second, metrics.Nop{}, zap.NewNop()), store
}

func waitProbes(t *testing.T, d *Dispatcher) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, d.Wait(ctx))
}

func TestTriggerTwiceRunsOneProbe(t *testing.T) {
	p := newGatedProber()
	d, store := newDispatcher(t, p, nil)

	assert.True(t, d.Trigger("Proxy"))
	<-p.started
	assert.False(t, d.Trigger("Proxy"))

	assert.True(t, store.Get("Proxy").Testing)
	assert.True(t, d.Testing("Proxy"))

	close(p.release)
	waitProbes(t, d)

	assert.EqualValues(t, 1, p.calls.Load())
	assert.False(t, store.Get("Proxy").Testing)
	assert.False(t, d.Testing("Proxy"))
}

func TestTriggerWhileTestingKeepsFlagUntilResolved(t *testing.T) {
	p := newGatedProber()
	d, store := newDispatcher(t, p, nil)

	d.Trigger("Proxy")
	<-p.started
	require.True(t, store.Get("Proxy").Testing)

	for i := 0; i < 10; i++ {
		d.Trigger("Proxy")
	}
	assert.True(t, store.Get("Proxy").Testing)

	close(p.release)
	waitProbes(t, d)

	assert.False(t, store.Get("Proxy").Testing)
	assert.EqualValues(t, 1, p.calls.Load())
}

func TestGroupsProbeIndependently(t *testing.T) {
	p := newGatedProber()
	d, store := newDispatcher(t, p, nil)

	assert.True(t, d.Trigger("A"))
	assert.True(t, d.Trigger("B"))
	<-p.started
	<-p.started
	assert.True(t, store.Get("A").Testing)
	assert.True(t, store.Get("B").Testing)

	close(p.release)
	waitProbes(t, d)
	assert.EqualValues(t, 2, p.calls.Load())
}

func TestFlagClearedOnFailureAndPanic(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		panics bool
	}{
		{name: "probe error", err: errors.New("timeout")},
		{name: "probe panic", panics: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newGatedProber()
			p.err = tt.err
			p.panics = tt.panics
			d, store := newDispatcher(t, p, nil)

			var hookErr error
			var mu sync.Mutex
			d.OnComplete(func(group domain.GroupName, err error) {
				mu.Lock()
				defer mu.Unlock()
				hookErr = err
			})

			d.Trigger("Proxy")
			<-p.started
			close(p.release)
			waitProbes(t, d)

			assert.False(t, store.Get("Proxy").Testing)
			mu.Lock()
			assert.Error(t, hookErr)
			mu.Unlock()

			// A fresh trigger is accepted once the failed probe is gone.
			p.release = make(chan struct{})
			p.panics = false
			assert.True(t, d.Trigger("Proxy"))
			<-p.started
			close(p.release)
			waitProbes(t, d)
		})
	}
}

func TestAutoTriggerHonoursCadence(t *testing.T) {
	p := newGatedProber()
	close(p.release)
	d, _ := newDispatcher(t, p, NewCadence(0))

	assert.True(t, d.AutoTrigger("Proxy"))
	<-p.started
	waitProbes(t, d)

	assert.False(t, d.AutoTrigger("Proxy"))
	assert.EqualValues(t, 1, p.calls.Load())

	// Explicit triggers bypass the cadence.
	assert.True(t, d.Trigger("Proxy"))
	<-p.started
	waitProbes(t, d)
	assert.EqualValues(t, 2, p.calls.Load())
}

func TestCadence(t *testing.T) {
	c := NewCadence(time.Hour)
	assert.True(t, c.Allow("A"))
	assert.False(t, c.Allow("A"))
	assert.True(t, c.Allow("B"))

	c.Forget([]domain.GroupName{"B"})
	assert.True(t, c.Allow("A"))
	assert.False(t, c.Allow("B"))
}

func TestCheckOfPrunedGroupLeavesNoState(t *testing.T) {
	p := newGatedProber()
	d, store := newDispatcher(t, p, nil)
	open := true
	store.Patch("Gone", domain.HeadPatch{Open: &open})

	require.True(t, d.Trigger("Gone"))
	<-p.started
	store.Prune(nil)
	require.Equal(t, domain.HeadState{Testing: true}, store.Get("Gone"))

	close(p.release)
	waitProbes(t, d)

	assert.Equal(t, domain.HeadState{}, store.Get("Gone"))
	store.Prune(nil)
	assert.Zero(t, store.Len())
}
