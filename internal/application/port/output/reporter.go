package output

import (
	"fmt"

	"browser-bench/internal/domain/entity"
)

// StatsSnapshot is a point-in-time copy of the run statistics.
type StatsSnapshot struct {
	TotalTasks int      `json:"total_tasks"`
	Completed  int      `json:"completed"`
	Success    []string `json:"success"`
	Failed     []string `json:"failed"`
	Unknown    []string `json:"unknown"`
	Faulted    []string `json:"faulted,omitempty"`
}

func (s StatsSnapshot) SuccessRate() string {
	return fmt.Sprintf("%d/%d", len(s.Success), s.Completed)
}

type ReporterPort interface {
	TaskStarted(task entity.Task)
	TaskProgress(outcome entity.TaskOutcome, snap StatsSnapshot)
	Summary(snap StatsSnapshot)
}

type MetricsPort interface {
	TaskStarted()
	TaskFinished(verdict entity.Verdict, seconds float64, resumed bool)
	TaskFaulted()
	JudgeRetry(kind FaultKind)
}

type NopMetrics struct{}

func (NopMetrics) TaskStarted()                                {}
func (NopMetrics) TaskFinished(entity.Verdict, float64, bool) {}
func (NopMetrics) TaskFaulted()                                {}
func (NopMetrics) JudgeRetry(FaultKind)                        {}
