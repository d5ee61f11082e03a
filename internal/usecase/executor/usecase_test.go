package executor

import (
	"context"
	"errors"
	"testing"

	"browser-bench/internal/adapter/tool"
	"browser-bench/internal/application/port/output"
	"browser-bench/internal/domain/entity"
	"browser-bench/internal/infrastructure/browser/fake"
	llmfake "browser-bench/internal/infrastructure/llm/fake"
	"browser-bench/internal/infrastructure/logger"
	"browser-bench/internal/usecase/agent"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var task = entity.Task{ID: "Wiki--1", Site: "Wiki", Instruction: "What is the capital of France?"}

func newUseCase(factory *fake.Factory) *UseCase {
	return New(agent.NewDriver(tool.NewBrowserToolset), factory, logger.NewNop(), 10)
}

func TestExecute_UsesAssignedEndpointAndClosesBrowser(t *testing.T) {
	factory := &fake.Factory{}
	llm := llmfake.New(llmfake.Call("done", `{"answer": "Paris"}`))

	result, err := newUseCase(factory).Execute(context.Background(), task, &output.Endpoint{Name: "WEST_EU", Weight: 2, LLM: llm})
	require.NoError(t, err)

	assert.True(t, result.Done)
	assert.Equal(t, "Paris", result.FinalAnswer)
	assert.Equal(t, 1, llm.Calls())
	assert.Equal(t, "What is the capital of France? on Wiki", llm.Requests()[0].Messages[1].Content)

	opened := factory.Opened()
	require.Len(t, opened, 1)
	assert.True(t, opened[0].IsClosed())
}

func TestExecute_ClosesBrowserOnFault(t *testing.T) {
	factory := &fake.Factory{}
	llm := llmfake.New(llmfake.Fail(output.NewLLMError(output.FaultInvalidRequest, "E", errors.New("400"))))

	_, err := newUseCase(factory).Execute(context.Background(), task, &output.Endpoint{Name: "E", LLM: llm})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Wiki--1")
	assert.True(t, factory.Opened()[0].IsClosed())
}

func TestExecute_BrowserPerTask(t *testing.T) {
	factory := &fake.Factory{}
	uc := newUseCase(factory)
	llm := llmfake.New(llmfake.Text("ok"))

	for i := 0; i < 3; i++ {
		_, err := uc.Execute(context.Background(), task, &output.Endpoint{Name: "E", LLM: llm})
		require.NoError(t, err)
	}
	assert.Len(t, factory.Opened(), 3)
}

func TestExecute_OpenFailure(t *testing.T) {
	factory := &fake.Factory{OpenErr: errors.New("no chrome")}

	_, err := newUseCase(factory).Execute(context.Background(), task, &output.Endpoint{Name: "E", LLM: llmfake.New()})
	assert.ErrorContains(t, err, "open browser")
}

func TestExecute_RequiresEndpoint(t *testing.T) {
	_, err := newUseCase(&fake.Factory{}).Execute(context.Background(), task, nil)
	assert.Error(t, err)
}
