package healthcheck

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"verge-groups/internal/domain"
	"verge-groups/internal/interfaces"
)

// HeadStore is the part of the head state store the dispatcher writes to.
type HeadStore interface {
	Patch(name domain.GroupName, patch domain.HeadPatch) domain.HeadState
	PatchExisting(name domain.GroupName, patch domain.HeadPatch) (domain.HeadState, bool)
}

// CompletionFunc runs after a probe finished and the testing flag was cleared.
type CompletionFunc func(group domain.GroupName, err error)

// Dispatcher runs at most one latency probe per group at a time and mirrors
// the in-flight state into HeadState.Testing.
type Dispatcher struct {
	store   HeadStore
	prober  interfaces.Prober
	cadence *Cadence
	metrics domain.MetricsCollector
	logger  *zap.Logger
	timeout time.Duration

	mu         sync.Mutex
	inflight   map[domain.GroupName]struct{}
	onComplete []CompletionFunc
	wg         sync.WaitGroup
}

func NewDispatcher(
	store HeadStore,
	prober interfaces.Prober,
	cadence *Cadence,
	timeout time.Duration,
	metrics domain.MetricsCollector,
	logger *zap.Logger,
) *Dispatcher {
	return &Dispatcher{
		store:    store,
		prober:   prober,
		cadence:  cadence,
		metrics:  metrics,
		logger:   logger.With(zap.String("component", "healthcheck")),
		timeout:  timeout,
		inflight: make(map[domain.GroupName]struct{}),
	}
}

// OnComplete registers fn to run after every probe.
func (d *Dispatcher) OnComplete(fn CompletionFunc) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onComplete = append(d.onComplete, fn)
}

// Trigger starts a probe for group unless one is already running. It never
// blocks on the probe and reports whether a new probe was started.
func (d *Dispatcher) Trigger(group domain.GroupName) bool {
	d.mu.Lock()
	if _, busy := d.inflight[group]; busy {
		d.mu.Unlock()
		d.metrics.RecordProbeSkipped(group, "in_flight")
		d.logger.Debug("probe already in flight", zap.String("group", string(group)))
		return false
	}
	d.inflight[group] = struct{}{}
	testing := true
	d.store.Patch(group, domain.HeadPatch{Testing: &testing})
	d.wg.Add(1)
	d.mu.Unlock()

	go d.run(group)
	return true
}

// AutoTrigger is Trigger for probes started by a row being realized; it is
// additionally throttled by the cadence.
func (d *Dispatcher) AutoTrigger(group domain.GroupName) bool {
	if d.cadence != nil && !d.cadence.Allow(group) {
		d.metrics.RecordProbeSkipped(group, "cadence")
		return false
	}
	return d.Trigger(group)
}

// Testing reports whether a probe for group is in flight.
func (d *Dispatcher) Testing(group domain.GroupName) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, busy := d.inflight[group]
	return busy
}

// Wait blocks until every started probe has finished or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for probes: %w", ctx.Err())
	}
}

func (d *Dispatcher) run(group domain.GroupName) {
	defer d.wg.Done()

	start := time.Now()
	var err error
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("probe panicked: %v", r)
			d.logger.Error("probe panic recovered",
				zap.String("group", string(group)),
				zap.Any("panic", r),
				zap.Stack("stack"))
		}
		d.finish(group, err, time.Since(start))
	}()

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	err = d.prober.Probe(ctx, group)
}

func (d *Dispatcher) finish(group domain.GroupName, err error, took time.Duration) {
	d.mu.Lock()
	delete(d.inflight, group)
	// The group may have been pruned while the check ran.
	testing := false
	d.store.PatchExisting(group, domain.HeadPatch{Testing: &testing})
	hooks := append([]CompletionFunc(nil), d.onComplete...)
	d.mu.Unlock()

	result := "success"
	if err != nil {
		result = "error"
		d.logger.Warn("probe failed",
			zap.String("group", string(group)),
			zap.Duration("duration", took),
			zap.Error(err))
	} else {
		d.logger.Debug("probe finished",
			zap.String("group", string(group)),
			zap.Duration("duration", took))
	}
	d.metrics.RecordProbe(group, result, took)

	for _, hook := range hooks {
		hook(group, err)
	}
}
