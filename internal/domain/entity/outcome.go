package entity

import (
	"fmt"
	"time"
)

type Verdict string

const (
	VerdictSuccess Verdict = "success"
	VerdictFailed  Verdict = "failed"
	VerdictUnknown Verdict = "unknown"
)

func (v Verdict) Valid() bool {
	switch v {
	case VerdictSuccess, VerdictFailed, VerdictUnknown:
		return true
	}
	return false
}

// Glyph is the one-character marker used in progress lines.
func (v Verdict) Glyph() string {
	switch v {
	case VerdictSuccess:
		return "✓"
	case VerdictFailed:
		return "✗"
	default:
		return "?"
	}
}

const NoFinalAnswer = "<NO FINAL ANSWER>"

// TaskOutcome is the persisted result of one task. Field names match task_result.json.
type TaskOutcome struct {
	TaskID          string    `json:"task_id"`
	WebName         string    `json:"web_name"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationSeconds float64   `json:"duration_seconds"`
	NumSteps        int       `json:"num_steps"`
	Success         Verdict   `json:"success"`
	TaskPrompt      string    `json:"task_prompt"`
	FinalAnswer     string    `json:"final_answer"`
	JudgeResponse   string    `json:"gpt_4v_res"`
}

func NewTaskOutcome(task Task, start, end time.Time, verdict Verdict, steps int, finalAnswer, rationale string) TaskOutcome {
	if finalAnswer == "" {
		finalAnswer = NoFinalAnswer
	}
	return TaskOutcome{
		TaskID:          task.ID,
		WebName:         task.Site,
		StartTime:       start,
		EndTime:         end,
		DurationSeconds: end.Sub(start).Seconds(),
		NumSteps:        steps,
		Success:         verdict,
		TaskPrompt:      task.Prompt(),
		FinalAnswer:     finalAnswer,
		JudgeResponse:   rationale,
	}
}

func (o TaskOutcome) Validate() error {
	if o.TaskID == "" {
		return fmt.Errorf("task outcome: empty task_id")
	}
	if !o.Success.Valid() {
		return fmt.Errorf("task outcome %s: invalid verdict %q", o.TaskID, o.Success)
	}
	return nil
}

// AggregateRecord is the whole-run summary rewritten after every completion.
type AggregateRecord struct {
	RunID        string        `json:"run_id,omitempty"`
	UpdatedAt    time.Time     `json:"updated_at"`
	TotalTasks   int           `json:"total_tasks"`
	TotalSuccess int           `json:"total_success"`
	TotalFailed  int           `json:"total_failed"`
	TotalUnknown int           `json:"total_unknown"`
	AllTasks     []TaskOutcome `json:"all_tasks"`
}

// Add appends an outcome and bumps the matching counter.
func (r *AggregateRecord) Add(o TaskOutcome) {
	r.AllTasks = append(r.AllTasks, o)
	r.TotalTasks++
	switch o.Success {
	case VerdictSuccess:
		r.TotalSuccess++
	case VerdictFailed:
		r.TotalFailed++
	default:
		r.TotalUnknown++
	}
}

// Clone returns a copy whose task list does not alias the receiver's.
func (r *AggregateRecord) Clone() AggregateRecord {
	c := *r
	c.AllTasks = append([]TaskOutcome(nil), r.AllTasks...)
	return c
}

// EvalRecord is what a standalone re-judge writes to eval_result.json.
type EvalRecord struct {
	EvalResult    Verdict `json:"eval_result"`
	JudgeResponse string  `json:"gpt_4v_response"`
}
