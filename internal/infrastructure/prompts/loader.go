package prompts

import (
	_ "embed"
)

//go:embed agent_system.txt
var AgentSystemTemplate string

//go:embed judge_system.txt
var JudgeSystemPrompt string

//go:embed judge_user.tmpl
var JudgeUserTemplate string

// JudgeVerdictCue closes the judge's user message, after the screenshots.
const JudgeVerdictCue = "Your verdict:\n"
