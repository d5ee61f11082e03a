package service

import (
	"sort"
	"sync"

	"browser-bench/internal/application/port/output"
	"browser-bench/internal/domain/entity"
)

// RunStats is shared by every task of a run. Record is the only mutation
// path for verdicts and it holds the lock for the whole update.
type RunStats struct {
	mu         sync.Mutex
	totalTasks int
	completed  int
	success    map[string]struct{}
	failed     map[string]struct{}
	unknown    map[string]struct{}
	faulted    map[string]struct{}
}

func NewRunStats(totalTasks int) *RunStats {
	return &RunStats{
		totalTasks: totalTasks,
		success:    make(map[string]struct{}),
		failed:     make(map[string]struct{}),
		unknown:    make(map[string]struct{}),
		faulted:    make(map[string]struct{}),
	}
}

// Record counts one completed task and returns the snapshot that includes it.
func (s *RunStats) Record(taskID string, verdict entity.Verdict) output.StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch verdict {
	case entity.VerdictSuccess:
		s.success[taskID] = struct{}{}
	case entity.VerdictFailed:
		s.failed[taskID] = struct{}{}
	default:
		s.unknown[taskID] = struct{}{}
	}
	s.completed++
	return s.snapshotLocked()
}

func (s *RunStats) RecordFault(taskID string) {
	s.mu.Lock()
	s.faulted[taskID] = struct{}{}
	s.mu.Unlock()
}

func (s *RunStats) Snapshot() output.StatsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *RunStats) snapshotLocked() output.StatsSnapshot {
	return output.StatsSnapshot{
		TotalTasks: s.totalTasks,
		Completed:  s.completed,
		Success:    sortedKeys(s.success),
		Failed:     sortedKeys(s.failed),
		Unknown:    sortedKeys(s.unknown),
		Faulted:    sortedKeys(s.faulted),
	}
}

func sortedKeys(m map[string]struct{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
