package prometheus

import (
	"errors"
	"fmt"
	"time"

	"github.com/mochi-browser/taskbridge/core"
	prom "github.com/prometheus/client_golang/prometheus"
)

// ExporterOptions controls collector configuration.
type ExporterOptions struct {
	DurationBuckets []float64
}

// MetricsExporter adapts core.Metrics to Prometheus collectors.
type MetricsExporter struct {
	taskDurationSeconds *prom.HistogramVec
	taskSpawnedTotal    *prom.CounterVec
	taskOutcomeTotal    *prom.CounterVec
	taskPanicTotal      *prom.CounterVec
	taskRejectedTotal   *prom.CounterVec
	pendingTasks        *prom.GaugeVec
}

var _ core.Metrics = (*MetricsExporter)(nil)

// NewMetricsExporter creates and registers Prometheus collectors for core.Metrics.
func NewMetricsExporter(namespace string, reg prom.Registerer, opts ExporterOptions) (*MetricsExporter, error) {
	if namespace == "" {
		namespace = "taskbridge"
	}
	if reg == nil {
		reg = prom.DefaultRegisterer
	}
	buckets := opts.DurationBuckets
	if len(buckets) == 0 {
		buckets = prom.DefBuckets
	}

	durationVec := prom.NewHistogramVec(prom.HistogramOpts{
		Namespace: namespace,
		Name:      "task_duration_seconds",
		Help:      "Time from task start to produced outcome, in seconds.",
		Buckets:   buckets,
	}, []string{"bridge", "outcome"})
	spawnedVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_spawned_total",
		Help:      "Total number of accepted spawns.",
	}, []string{"bridge"})
	outcomeVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_outcome_total",
		Help:      "Total number of dispatched outcomes by kind.",
	}, []string{"bridge", "outcome"})
	panicVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_panic_total",
		Help:      "Total number of task panics.",
	}, []string{"bridge"})
	rejectedVec := prom.NewCounterVec(prom.CounterOpts{
		Namespace: namespace,
		Name:      "task_rejected_total",
		Help:      "Total number of spawns that failed synchronously.",
	}, []string{"bridge", "reason"})
	pendingVec := prom.NewGaugeVec(prom.GaugeOpts{
		Namespace: namespace,
		Name:      "pending_tasks",
		Help:      "Spawned tasks whose outcome has not been dispatched.",
	}, []string{"bridge"})

	var err error
	if durationVec, err = registerCollector(reg, durationVec); err != nil {
		return nil, err
	}
	if spawnedVec, err = registerCollector(reg, spawnedVec); err != nil {
		return nil, err
	}
	if outcomeVec, err = registerCollector(reg, outcomeVec); err != nil {
		return nil, err
	}
	if panicVec, err = registerCollector(reg, panicVec); err != nil {
		return nil, err
	}
	if rejectedVec, err = registerCollector(reg, rejectedVec); err != nil {
		return nil, err
	}
	if pendingVec, err = registerCollector(reg, pendingVec); err != nil {
		return nil, err
	}

	return &MetricsExporter{
		taskDurationSeconds: durationVec,
		taskSpawnedTotal:    spawnedVec,
		taskOutcomeTotal:    outcomeVec,
		taskPanicTotal:      panicVec,
		taskRejectedTotal:   rejectedVec,
		pendingTasks:        pendingVec,
	}, nil
}

// RecordTaskSpawned records an accepted spawn.
func (m *MetricsExporter) RecordTaskSpawned(bridgeName string) {
	if m == nil {
		return
	}
	m.taskSpawnedTotal.WithLabelValues(normalizeLabel(bridgeName, "unknown")).Inc()
}

// RecordTaskDelivered records a dispatched outcome and its run time.
func (m *MetricsExporter) RecordTaskDelivered(bridgeName string, kind core.Kind, duration time.Duration) {
	if m == nil {
		return
	}
	bridge := normalizeLabel(bridgeName, "unknown")
	outcome := kind.String()
	m.taskOutcomeTotal.WithLabelValues(bridge, outcome).Inc()
	m.taskDurationSeconds.WithLabelValues(bridge, outcome).Observe(duration.Seconds())
}

// RecordTaskPanic records task panic events.
func (m *MetricsExporter) RecordTaskPanic(bridgeName string, panicInfo any) {
	if m == nil {
		return
	}
	m.taskPanicTotal.WithLabelValues(normalizeLabel(bridgeName, "unknown")).Inc()
}

// RecordPending records the pending-task count.
func (m *MetricsExporter) RecordPending(bridgeName string, pending int) {
	if m == nil {
		return
	}
	m.pendingTasks.WithLabelValues(normalizeLabel(bridgeName, "unknown")).Set(float64(pending))
}

// RecordTaskRejected records task rejection events.
func (m *MetricsExporter) RecordTaskRejected(bridgeName string, reason string) {
	if m == nil {
		return
	}
	m.taskRejectedTotal.WithLabelValues(normalizeLabel(bridgeName, "unknown"), normalizeLabel(reason, "unknown")).Inc()
}

func normalizeLabel(v string, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}

func registerCollector[T prom.Collector](reg prom.Registerer, collector T) (T, error) {
	err := reg.Register(collector)
	if err == nil {
		return collector, nil
	}

	var alreadyRegisteredErr prom.AlreadyRegisteredError
	if errors.As(err, &alreadyRegisteredErr) {
		existing, ok := alreadyRegisteredErr.ExistingCollector.(T)
		if !ok {
			return collector, fmt.Errorf("collector type mismatch for %T", collector)
		}
		return existing, nil
	}

	return collector, err
}
