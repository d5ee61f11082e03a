package metrics

import (
	"strconv"

	"browser-bench/internal/application/port/output"
	"browser-bench/internal/domain/entity"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var _ output.MetricsPort = (*Collector)(nil)

// Collector registers run metrics on its own registry so several runs (or
// tests) in one process never collide.
type Collector struct {
	registry *prometheus.Registry

	tasksStarted  prometheus.Counter
	tasksFinished *prometheus.CounterVec
	taskDuration  prometheus.Histogram
	tasksFaulted  prometheus.Counter
	judgeRetries  *prometheus.CounterVec
}

func NewCollector(namespace string) *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,
		tasksStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_started_total",
			Help:      "Tasks handed to the agent.",
		}),
		tasksFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_finished_total",
			Help:      "Tasks with a recorded outcome, by verdict.",
		}, []string{"verdict", "resumed"}),
		taskDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "task_duration_seconds",
			Help:      "Wall time from agent start to persisted outcome.",
			Buckets:   []float64{10, 30, 60, 120, 300, 600, 1200},
		}),
		tasksFaulted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "tasks_faulted_total",
			Help:      "Tasks that ended with a fault and no outcome.",
		}),
		judgeRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "judge_retries_total",
			Help:      "Judge backend calls retried, by fault kind.",
		}, []string{"kind"}),
	}
}

func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

func (c *Collector) TaskStarted() {
	c.tasksStarted.Inc()
}

func (c *Collector) TaskFinished(verdict entity.Verdict, seconds float64, resumed bool) {
	c.tasksFinished.WithLabelValues(string(verdict), strconv.FormatBool(resumed)).Inc()
	if !resumed {
		c.taskDuration.Observe(seconds)
	}
}

func (c *Collector) TaskFaulted() {
	c.tasksFaulted.Inc()
}

func (c *Collector) JudgeRetry(kind output.FaultKind) {
	c.judgeRetries.WithLabelValues(kind.String()).Inc()
}
