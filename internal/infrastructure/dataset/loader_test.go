package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"browser-bench/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `{"id": "Allrecipes--0", "web": "Allrecipes", "ques": "Find a vegetarian lasagna recipe"}

{"id": "Amazon--1", "web": "Amazon", "ques": "Search for an xbox wireless controller"}
{"id": "Apple--2", "web": "Apple", "ques": "Compare the prices of the latest models of MacBook Air"}
`

func TestReadTasks(t *testing.T) {
	tasks, err := ReadTasks(strings.NewReader(sample))
	require.NoError(t, err)
	require.Len(t, tasks, 3)

	assert.Equal(t, "Amazon--1", tasks[1].ID)
	assert.Equal(t, "Amazon", tasks[1].Site)
	assert.Equal(t, "Search for an xbox wireless controller on Amazon", tasks[1].Prompt())
}

func TestReadTasks_Errors(t *testing.T) {
	_, err := ReadTasks(strings.NewReader(`{"id": "a"}` + "\n" + `not json`))
	assert.ErrorContains(t, err, "line 2")

	_, err = ReadTasks(strings.NewReader(`{"web": "x"}`))
	assert.ErrorContains(t, err, "missing id")

	_, err = ReadTasks(strings.NewReader(`{"id": "a"}` + "\n" + `{"id": "a"}`))
	assert.ErrorContains(t, err, "duplicate")
}

func TestLoad_ExcludesAndShufflesDeterministically(t *testing.T) {
	dir := t.TempDir()
	tasksPath := filepath.Join(dir, "tasks.jsonl")
	exclPath := filepath.Join(dir, "impossible.json")
	require.NoError(t, os.WriteFile(tasksPath, []byte(sample), 0644))
	require.NoError(t, os.WriteFile(exclPath, []byte(`["Apple--2"]`), 0644))

	first, err := Load(Options{TasksPath: tasksPath, ExclusionPath: exclPath, Seed: 42})
	require.NoError(t, err)
	second, err := Load(Options{TasksPath: tasksPath, ExclusionPath: exclPath, Seed: 42})
	require.NoError(t, err)

	assert.Len(t, first, 2)
	assert.Equal(t, first, second)
	for _, task := range first {
		assert.NotEqual(t, "Apple--2", task.ID)
	}
}

func TestLoad_MissingExclusionFileIsEmpty(t *testing.T) {
	dir := t.TempDir()
	tasksPath := filepath.Join(dir, "tasks.jsonl")
	require.NoError(t, os.WriteFile(tasksPath, []byte(sample), 0644))

	tasks, err := Load(Options{TasksPath: tasksPath, ExclusionPath: filepath.Join(dir, "nope.json"), Seed: 1})
	require.NoError(t, err)
	assert.Len(t, tasks, 3)
}

func TestLoad_EverythingExcluded(t *testing.T) {
	dir := t.TempDir()
	tasksPath := filepath.Join(dir, "tasks.jsonl")
	exclPath := filepath.Join(dir, "impossible.json")
	require.NoError(t, os.WriteFile(tasksPath, []byte(`{"id":"a","web":"w","ques":"q"}`), 0644))
	require.NoError(t, os.WriteFile(exclPath, []byte(`["a"]`), 0644))

	_, err := Load(Options{TasksPath: tasksPath, ExclusionPath: exclPath})
	assert.ErrorIs(t, err, ErrEmptyTaskSet)
}

func TestShuffle_KeepsElements(t *testing.T) {
	tasks := []entity.Task{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}
	Shuffle(tasks, 42)

	ids := map[string]bool{}
	for _, task := range tasks {
		ids[task.ID] = true
	}
	assert.Len(t, ids, 4)
}
