package dataset

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"os"
	"strings"

	"browser-bench/internal/domain/entity"
)

var ErrEmptyTaskSet = errors.New("task set is empty")

const maxLineSize = 1 << 20

// LoadTasks reads one task object per line. Blank lines are skipped.
func LoadTasks(path string) ([]entity.Task, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open task set: %w", err)
	}
	defer f.Close()
	return ReadTasks(f)
}

func ReadTasks(r io.Reader) ([]entity.Task, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)

	var tasks []entity.Task
	seen := make(map[string]bool)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var task entity.Task
		if err := json.Unmarshal([]byte(text), &task); err != nil {
			return nil, fmt.Errorf("task set line %d: %w", line, err)
		}
		if task.ID == "" {
			return nil, fmt.Errorf("task set line %d: missing id", line)
		}
		if seen[task.ID] {
			return nil, fmt.Errorf("task set line %d: duplicate id %q", line, task.ID)
		}
		seen[task.ID] = true
		tasks = append(tasks, task)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read task set: %w", err)
	}
	return tasks, nil
}

// LoadExclusions reads a JSON array of task ids. A missing file means no
// exclusions.
func LoadExclusions(path string) (map[string]bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]bool{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read exclusion list: %w", err)
	}

	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, fmt.Errorf("parse exclusion list: %w", err)
	}
	result := make(map[string]bool, len(ids))
	for _, id := range ids {
		result[id] = true
	}
	return result, nil
}

func Exclude(tasks []entity.Task, excluded map[string]bool) []entity.Task {
	result := make([]entity.Task, 0, len(tasks))
	for _, t := range tasks {
		if !excluded[t.ID] {
			result = append(result, t)
		}
	}
	return result
}

// Shuffle reorders tasks in place; the same seed always gives the same order.
func Shuffle(tasks []entity.Task, seed int64) {
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(tasks), func(i, j int) {
		tasks[i], tasks[j] = tasks[j], tasks[i]
	})
}

type Options struct {
	TasksPath     string
	ExclusionPath string
	Seed          int64
}

// Load is the full task-set pipeline: read, drop excluded ids, shuffle.
func Load(opts Options) ([]entity.Task, error) {
	tasks, err := LoadTasks(opts.TasksPath)
	if err != nil {
		return nil, err
	}

	if opts.ExclusionPath != "" {
		excluded, err := LoadExclusions(opts.ExclusionPath)
		if err != nil {
			return nil, err
		}
		tasks = Exclude(tasks, excluded)
	}

	if len(tasks) == 0 {
		return nil, ErrEmptyTaskSet
	}

	Shuffle(tasks, opts.Seed)
	return tasks, nil
}
