package prompts

import (
	"strings"
	"testing"

	"browser-bench/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAgentPrompt(t *testing.T) {
	defs := []entity.ToolDefinition{
		{Name: "navigate", Description: "Opens a URL."},
		{Name: "click", Description: "Clicks an element."},
	}

	prompt, err := GenerateAgentPrompt(defs, 30)
	require.NoError(t, err)

	assert.Contains(t, prompt, "- click: Clicks an element.\n- navigate: Opens a URL.")
	assert.Contains(t, prompt, "at most 30 steps")
	assert.NotContains(t, prompt, "{{")
}

func TestGenerateJudgeUserPrompt(t *testing.T) {
	prompt, err := GenerateJudgeUserPrompt("What is the capital of France? on Wiki", "Paris", 4)
	require.NoError(t, err)

	assert.Equal(t, "TASK: What is the capital of France? on Wiki\nResult Response: Paris\n4 screenshot at the end: ", prompt)
}

func TestJudgeSystemPrompt_NamesAllVerdicts(t *testing.T) {
	assert.True(t, strings.HasPrefix(JudgeSystemPrompt, "As an evaluator"))
	for _, kw := range []string{"'SUCCESS'", "'NOT SUCCESS'", "'UNKNOWN'"} {
		assert.Contains(t, JudgeSystemPrompt, kw)
	}
}
