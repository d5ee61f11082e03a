package entity

import "time"

// DriveResult is what one agent drive produced.
type DriveResult struct {
	Done        bool
	FinalAnswer string
	Steps       int
	Screenshots []Screenshot
	History     []StepRecord
}

type StepRecord struct {
	Step      int       `json:"step"`
	Thought   string    `json:"thought,omitempty"`
	Actions   []string  `json:"actions,omitempty"`
	URL       string    `json:"url,omitempty"`
	Error     string    `json:"error,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

type JudgeInput struct {
	Instruction string
	FinalAnswer string
	Completed   bool
	Screenshots []Screenshot
}

type Judgement struct {
	Verdict   Verdict
	Rationale string
}
