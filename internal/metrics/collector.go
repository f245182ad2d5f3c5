package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"verge-groups/internal/domain"
)

// Module provides the metrics collector
var Module = fx.Options(
	fx.Provide(func() prometheus.Registerer { return prometheus.DefaultRegisterer }),
	fx.Provide(func() prometheus.Gatherer { return prometheus.DefaultGatherer }),
	fx.Provide(NewCollector),
	fx.Provide(func(c *Collector) domain.MetricsCollector { return c }),
)

type Collector struct {
	logger         *zap.Logger
	iconFetches    *prometheus.CounterVec
	probesTotal    *prometheus.CounterVec
	probeDuration  *prometheus.HistogramVec
	probesSkipped  *prometheus.CounterVec
	mutationsTotal *prometheus.CounterVec
	revalidations  *prometheus.CounterVec
	duplicateRows  *prometheus.CounterVec
	renderedRows   prometheus.Gauge
}

func NewCollector(reg prometheus.Registerer, logger *zap.Logger) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		logger: logger,
		iconFetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "groupview_icon_fetches_total",
				Help: "Total number of remote group icon fetches",
			},
			[]string{"result"},
		),
		probesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "groupview_probes_total",
				Help: "Total number of group latency probes performed",
			},
			[]string{"group", "result"},
		),
		probeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "groupview_probe_duration_seconds",
				Help:    "Duration of group latency probes",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"group"},
		),
		probesSkipped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "groupview_probes_skipped_total",
				Help: "Probe triggers that did not start a probe",
			},
			[]string{"group", "reason"},
		),
		mutationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "groupview_mutations_total",
				Help: "Total number of optimistic cache mutations",
			},
			[]string{"key", "result"},
		),
		revalidations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "groupview_revalidations_total",
				Help: "Total number of authoritative cache refetches",
			},
			[]string{"key", "result"},
		),
		duplicateRows: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "groupview_duplicate_rows_total",
				Help: "Rows dropped because their key was already emitted",
			},
			[]string{"group"},
		),
		renderedRows: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "groupview_rendered_rows",
				Help: "Number of rows in the most recently built list",
			},
		),
	}
}

func (c *Collector) RecordIconFetch(result string) {
	c.iconFetches.WithLabelValues(result).Inc()
}

func (c *Collector) RecordProbe(group domain.GroupName, result string, duration time.Duration) {
	c.probesTotal.WithLabelValues(string(group), result).Inc()
	c.probeDuration.WithLabelValues(string(group)).Observe(duration.Seconds())
}

func (c *Collector) RecordProbeSkipped(group domain.GroupName, reason string) {
	c.probesSkipped.WithLabelValues(string(group), reason).Inc()
}

func (c *Collector) RecordMutation(key string, result string) {
	c.mutationsTotal.WithLabelValues(key, result).Inc()
}

func (c *Collector) RecordRevalidation(key string, result string) {
	c.revalidations.WithLabelValues(key, result).Inc()
}

func (c *Collector) RecordDuplicateRow(group domain.GroupName) {
	c.logger.Debug("duplicate row recorded", zap.String("group", string(group)))
	c.duplicateRows.WithLabelValues(string(group)).Inc()
}

func (c *Collector) RecordRowsBuilt(count int) {
	c.renderedRows.Set(float64(count))
}

// Nop discards every measurement. Used by tests and by components built without a collector.
type Nop struct{}

func (Nop) RecordIconFetch(string)                              {}
func (Nop) RecordProbe(domain.GroupName, string, time.Duration) {}
func (Nop) RecordProbeSkipped(domain.GroupName, string)         {}
func (Nop) RecordMutation(string, string)                       {}
func (Nop) RecordRevalidation(string, string)                   {}
func (Nop) RecordDuplicateRow(domain.GroupName)                 {}
func (Nop) RecordRowsBuilt(int)                                 {}

var _ domain.MetricsCollector = (*Collector)(nil)
var _ domain.MetricsCollector = Nop{}
