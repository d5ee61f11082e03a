package prompts

import (
	"bytes"
	"sort"
	"text/template"

	"browser-bench/internal/domain/entity"
)

var (
	agentTmpl = template.Must(template.New("agent").Parse(AgentSystemTemplate))
	judgeTmpl = template.Must(template.New("judge").Parse(JudgeUserTemplate))
)

type ToolInfo struct {
	Name        string
	Description string
}

type AgentPromptData struct {
	Tools    []ToolInfo
	MaxSteps int
}

type JudgeUserData struct {
	Task   string
	Answer string
	Count  int
}

// GenerateAgentPrompt renders the agent system prompt for the given tool set.
func GenerateAgentPrompt(defs []entity.ToolDefinition, maxSteps int) (string, error) {
	tools := make([]ToolInfo, 0, len(defs))
	for _, d := range defs {
		tools = append(tools, ToolInfo{Name: d.Name, Description: d.Description})
	}
	sort.Slice(tools, func(i, j int) bool {
		return tools[i].Name < tools[j].Name
	})

	var buf bytes.Buffer
	if err := agentTmpl.Execute(&buf, AgentPromptData{Tools: tools, MaxSteps: maxSteps}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func GenerateJudgeUserPrompt(task, answer string, screenshots int) (string, error) {
	var buf bytes.Buffer
	if err := judgeTmpl.Execute(&buf, JudgeUserData{Task: task, Answer: answer, Count: screenshots}); err != nil {
		return "", err
	}
	return buf.String(), nil
}
