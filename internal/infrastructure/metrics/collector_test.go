package metrics

import (
	"testing"

	"browser-bench/internal/application/port/output"
	"browser-bench/internal/domain/entity"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollector_TaskLifecycle(t *testing.T) {
	c := NewCollector("bench")

	c.TaskStarted()
	c.TaskStarted()
	assert.Equal(t, 2.0, testutil.ToFloat64(c.tasksStarted))

	c.TaskFinished(entity.VerdictSuccess, 42, false)
	c.TaskFinished(entity.VerdictFailed, 0, true)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.tasksFinished.WithLabelValues("success", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.tasksFinished.WithLabelValues("failed", "true")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.taskDuration))
}

func TestCollector_FaultsAndRetries(t *testing.T) {
	c := NewCollector("bench")

	c.TaskFaulted()
	c.JudgeRetry(output.FaultRateLimited)
	c.JudgeRetry(output.FaultRateLimited)
	c.JudgeRetry(output.FaultAPIError)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.tasksFaulted))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.judgeRetries.WithLabelValues(output.FaultRateLimited.String())))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.judgeRetries.WithLabelValues(output.FaultAPIError.String())))
}

func TestCollector_SeparateRegistries(t *testing.T) {
	a := NewCollector("bench")
	b := NewCollector("bench")

	a.TaskFaulted()

	families, err := b.Registry().Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == "bench_tasks_faulted_total" {
			assert.Zero(t, f.GetMetric()[0].GetCounter().GetValue())
		}
	}
}
