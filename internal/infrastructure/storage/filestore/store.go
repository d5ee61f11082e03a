package filestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"browser-bench/internal/application/port/output"
	"browser-bench/internal/domain/entity"
)

const (
	ResultFile    = "task_result.json"
	AggregateFile = "experiment_results.json"
	HistoryFile   = "history.json"
	EvalFile      = "eval_result.json"
	ScreenshotDir = "screenshots"
)

var ErrNotFound = errors.New("task result not found")

var _ output.ResultStore = (*Store)(nil)

// Store keeps one directory per task under root plus the aggregate file at
// the root. Every file is written through a temp file and rename, so a reader
// never sees a partial document.
type Store struct {
	root string
}

func New(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create results root: %w", err)
	}
	return &Store{root: root}, nil
}

// Open attaches to an existing results root without creating anything.
func Open(root string) (*Store, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("open results root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("open results root: %s is not a directory", root)
	}
	return &Store{root: root}, nil
}

func (s *Store) Root() string {
	return s.root
}

func (s *Store) TaskDir(taskID string) string {
	return filepath.Join(s.root, taskID)
}

func (s *Store) Exists(ctx context.Context, taskID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	info, err := os.Stat(filepath.Join(s.TaskDir(taskID), ResultFile))
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("stat result %s: %w", taskID, err)
	}
	return !info.IsDir(), nil
}

func (s *Store) Load(ctx context.Context, taskID string) (*entity.TaskOutcome, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.TaskDir(taskID), ResultFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", taskID, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read result %s: %w", taskID, err)
	}

	var outcome entity.TaskOutcome
	if err := json.Unmarshal(data, &outcome); err != nil {
		return nil, fmt.Errorf("decode result %s: %w", taskID, err)
	}
	if err := outcome.Validate(); err != nil {
		return nil, err
	}
	return &outcome, nil
}

func (s *Store) Write(ctx context.Context, outcome entity.TaskOutcome) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := outcome.Validate(); err != nil {
		return err
	}
	return writeJSON(filepath.Join(s.TaskDir(outcome.TaskID), ResultFile), outcome)
}

func (s *Store) WriteAggregate(ctx context.Context, record entity.AggregateRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if record.AllTasks == nil {
		record.AllTasks = []entity.TaskOutcome{}
	}
	return writeJSON(filepath.Join(s.root, AggregateFile), record)
}

func (s *Store) LoadAggregate(ctx context.Context) (*entity.AggregateRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(s.root, AggregateFile))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("aggregate: %w", ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("read aggregate: %w", err)
	}
	var record entity.AggregateRecord
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("decode aggregate: %w", err)
	}
	return &record, nil
}

// WriteScreenshots replaces the task's screenshot directory with the given
// frames, numbered from 0001 in capture order.
func (s *Store) WriteScreenshots(ctx context.Context, taskID string, shots []entity.Screenshot) error {
	dir := filepath.Join(s.TaskDir(taskID), ScreenshotDir)
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("clear screenshots %s: %w", taskID, err)
	}
	if len(shots) == 0 {
		return nil
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create screenshot dir %s: %w", taskID, err)
	}

	for i, shot := range shots {
		if err := ctx.Err(); err != nil {
			return err
		}
		name := fmt.Sprintf("%04d.%s", i+1, extension(shot))
		if err := writeFile(filepath.Join(dir, name), shot.Data); err != nil {
			return fmt.Errorf("write screenshot %s/%s: %w", taskID, name, err)
		}
	}
	return nil
}

// LoadScreenshots returns the stored frames in capture order.
func (s *Store) LoadScreenshots(ctx context.Context, taskID string) ([]entity.Screenshot, error) {
	dir := filepath.Join(s.TaskDir(taskID), ScreenshotDir)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list screenshots %s: %w", taskID, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	shots := make([]entity.Screenshot, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read screenshot %s/%s: %w", taskID, name, err)
		}
		format := strings.TrimPrefix(filepath.Ext(name), ".")
		if format == "jpg" {
			format = "jpeg"
		}
		shots = append(shots, entity.Screenshot{Data: data, Format: format})
	}
	return shots, nil
}

func (s *Store) WriteHistory(ctx context.Context, taskID string, history []entity.StepRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if history == nil {
		history = []entity.StepRecord{}
	}
	return writeJSON(filepath.Join(s.TaskDir(taskID), HistoryFile), history)
}

func (s *Store) WriteEval(ctx context.Context, taskID string, record entity.EvalRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return writeJSON(filepath.Join(s.TaskDir(taskID), EvalFile), record)
}

// TaskIDs lists task directories that hold a result file, sorted.
func (s *Store) TaskIDs(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		return nil, fmt.Errorf("list results root: %w", err)
	}
	var ids []string
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		ok, err := s.Exists(ctx, e.Name())
		if err != nil {
			return nil, err
		}
		if ok {
			ids = append(ids, e.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

func extension(shot entity.Screenshot) string {
	switch shot.Format {
	case "png", "webp":
		return shot.Format
	default:
		return "jpeg"
	}
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", filepath.Base(path), err)
	}
	return writeFile(path, append(data, '\n'))
}

func writeFile(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
