package scoring

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"browser-bench/internal/domain/entity"
)

// ResultReader is the read side of a result store.
type ResultReader interface {
	TaskIDs(ctx context.Context) ([]string, error)
	Load(ctx context.Context, taskID string) (*entity.TaskOutcome, error)
}

type Opener func(dir string) (ResultReader, error)

type Score struct {
	Folder  string
	Total   int
	Success int
	Failed  int
	Unknown int
	// Unreadable lists task ids whose result file could not be loaded.
	Unreadable []string
}

func (s Score) Rate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Success) / float64(s.Total)
}

func (s Score) String() string {
	return fmt.Sprintf("%.2f=%d/%d", s.Rate(), s.Success, s.Total)
}

// Tally counts every stored outcome. It never writes.
func Tally(ctx context.Context, reader ResultReader) (Score, error) {
	ids, err := reader.TaskIDs(ctx)
	if err != nil {
		return Score{}, err
	}

	var score Score
	for _, id := range ids {
		outcome, err := reader.Load(ctx, id)
		if err != nil {
			score.Unreadable = append(score.Unreadable, id)
			continue
		}
		score.Total++
		switch outcome.Success {
		case entity.VerdictSuccess:
			score.Success++
		case entity.VerdictFailed:
			score.Failed++
		default:
			score.Unknown++
		}
	}
	return score, nil
}

// TallyFolders scores each immediate subdirectory of root as its own run.
func TallyFolders(ctx context.Context, root string, open Opener) ([]Score, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read results root: %w", err)
	}

	var scores []Score
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(root, e.Name())
		reader, err := open(dir)
		if err != nil {
			return nil, err
		}
		score, err := Tally(ctx, reader)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", e.Name(), err)
		}
		score.Folder = e.Name()
		scores = append(scores, score)
	}
	sort.Slice(scores, func(i, j int) bool {
		return scores[i].Folder < scores[j].Folder
	})
	return scores, nil
}

// Report prints one block per folder in the order given.
func Report(w io.Writer, scores []Score) {
	for _, s := range scores {
		fmt.Fprintf(w, "Processing %s\n", s.Folder)
		fmt.Fprintf(w, "Success rate : %s\n", s)
		if n := len(s.Unreadable); n > 0 {
			fmt.Fprintf(w, "  (%d unreadable results skipped: %v)\n", n, s.Unreadable)
		}
	}
}
