package entity

import "fmt"

// Task is one benchmark item loaded from the task set.
type Task struct {
	ID          string `json:"id"`
	Site        string `json:"web"`
	Instruction string `json:"ques"`
}

// Prompt is the text handed to the agent and to the judge.
func (t Task) Prompt() string {
	return fmt.Sprintf("%s on %s", t.Instruction, t.Site)
}

type TaskState string

const (
	TaskStatePending   TaskState = "pending"
	TaskStateResumed   TaskState = "resumed"
	TaskStateRunning   TaskState = "running"
	TaskStateJudged    TaskState = "judged"
	TaskStatePersisted TaskState = "persisted"
)
