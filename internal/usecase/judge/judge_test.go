package judge

import (
	"context"
	"errors"
	"testing"
	"time"

	"browser-bench/internal/application/port/output"
	"browser-bench/internal/application/service"
	"browser-bench/internal/domain/entity"
	llmfake "browser-bench/internal/infrastructure/llm/fake"
	"browser-bench/internal/infrastructure/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

type recordingSleep struct {
	delays []time.Duration
}

func (r *recordingSleep) sleep(ctx context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return ctx.Err()
}

type retryCounter struct {
	output.NopMetrics
	kinds []output.FaultKind
}

func (r *retryCounter) JudgeRetry(kind output.FaultKind) {
	r.kinds = append(r.kinds, kind)
}

func frames(n int) []entity.Screenshot {
	shots := make([]entity.Screenshot, n)
	for i := range shots {
		shots[i] = entity.Screenshot{Data: []byte{byte(i)}, Format: "jpeg"}
	}
	return shots
}

func completed(answer string, shots int) entity.JudgeInput {
	return entity.JudgeInput{
		Instruction: "What is the capital of France? on Wiki",
		FinalAnswer: answer,
		Completed:   true,
		Screenshots: frames(shots),
	}
}

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		text string
		want entity.Verdict
	}{
		{"The task was completed. Verdict: SUCCESS", entity.VerdictSuccess},
		{"Verdict: NOT SUCCESS", entity.VerdictFailed},
		{"NOT SUCCESS even though it says SUCCESS later", entity.VerdictFailed},
		{"I cannot tell. UNKNOWN", entity.VerdictUnknown},
		{"UNKNOWN at first, then SUCCESS", entity.VerdictSuccess},
		{"success in lower case does not count", entity.VerdictFailed},
		{"", entity.VerdictFailed},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseVerdict(tt.text), tt.text)
	}
}

func TestParseVerdict_FailClosed(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		prefix := rapid.String().Draw(t, "prefix")
		suffix := rapid.String().Draw(t, "suffix")

		if got := ParseVerdict(prefix + "NOT SUCCESS" + suffix); got != entity.VerdictFailed {
			t.Fatalf("NOT SUCCESS parsed as %s", got)
		}

		text := rapid.StringMatching(`[a-z0-9 .,]*`).Draw(t, "text")
		if got := ParseVerdict(text); got != entity.VerdictFailed {
			t.Fatalf("keyword-free text %q parsed as %s", text, got)
		}
	})
}

func TestJudge_ShortCircuitsWithoutCall(t *testing.T) {
	llm := llmfake.New(llmfake.Text("SUCCESS"))
	j := New(logger.NewNop(), nil)

	for _, in := range []entity.JudgeInput{
		{Instruction: "x", FinalAnswer: "Paris", Completed: false},
		{Instruction: "x", FinalAnswer: "   ", Completed: true},
	} {
		got, err := j.Judge(context.Background(), llm, in)
		require.NoError(t, err)
		assert.Equal(t, entity.VerdictFailed, got.Verdict)
		assert.Empty(t, got.Rationale)
	}
	assert.Zero(t, llm.Calls())
}

func TestJudge_RequestShape(t *testing.T) {
	llm := llmfake.New(llmfake.Text("Looks right. SUCCESS"))

	got, err := New(logger.NewNop(), nil).Judge(context.Background(), llm, completed("Paris", 9))
	require.NoError(t, err)
	assert.Equal(t, entity.VerdictSuccess, got.Verdict)
	assert.Equal(t, "Looks right. SUCCESS", got.Rationale)

	req := llm.Requests()[0]
	assert.Equal(t, 1000, req.MaxTokens)
	assert.Zero(t, req.Temperature)
	require.Len(t, req.Messages, 2)
	assert.Contains(t, req.Messages[0].Content, "As an evaluator")

	parts := req.Messages[1].Parts
	require.Len(t, parts, 6)
	assert.Equal(t, "TASK: What is the capital of France? on Wiki\nResult Response: Paris\n4 screenshot at the end: ", parts[0].Text)
	for i, p := range parts[1:5] {
		require.Equal(t, entity.PartImage, p.Type)
		assert.Equal(t, []byte{byte(5 + i)}, p.Image.Data, "expected trailing frames in order")
	}
	assert.Equal(t, "Your verdict:\n", parts[5].Text)
}

func TestLastScreenshots(t *testing.T) {
	assert.Len(t, LastScreenshots(frames(2), 4), 2)
	assert.Empty(t, LastScreenshots(nil, 4))

	last := LastScreenshots(frames(6), 4)
	require.Len(t, last, 4)
	assert.Equal(t, []byte{2}, last[0].Data)
	assert.Equal(t, []byte{5}, last[3].Data)
}

func TestJudge_RetriesWithPolicyDelays(t *testing.T) {
	llm := llmfake.New(
		llmfake.Fail(output.NewLLMError(output.FaultRateLimited, "E", errors.New("429"))),
		llmfake.Fail(output.NewLLMError(output.FaultAPIError, "E", errors.New("500"))),
		llmfake.Fail(errors.New("connection reset")),
		llmfake.Text("UNKNOWN"),
	)
	sleeper := &recordingSleep{}
	metrics := &retryCounter{}

	got, err := New(logger.NewNop(), metrics, WithSleep(sleeper.sleep)).Judge(context.Background(), llm, completed("Paris", 1))
	require.NoError(t, err)

	assert.Equal(t, entity.VerdictUnknown, got.Verdict)
	assert.Equal(t, 4, llm.Calls())
	assert.Equal(t, []time.Duration{10 * time.Second, 15 * time.Second, 10 * time.Second}, sleeper.delays)
	assert.Equal(t, []output.FaultKind{output.FaultRateLimited, output.FaultAPIError, output.FaultOther}, metrics.kinds)
}

func TestJudge_InvalidRequestIsFatal(t *testing.T) {
	fault := output.NewLLMError(output.FaultInvalidRequest, "E", errors.New("content filter"))
	llm := llmfake.New(llmfake.Fail(fault), llmfake.Text("SUCCESS"))
	sleeper := &recordingSleep{}

	_, err := New(logger.NewNop(), nil, WithSleep(sleeper.sleep)).Judge(context.Background(), llm, completed("Paris", 1))

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFatal)
	assert.Equal(t, output.FaultInvalidRequest, output.FaultKindOf(err))
	assert.Equal(t, 1, llm.Calls())
	assert.Empty(t, sleeper.delays)
}

func TestJudge_CancelledWhileBackingOff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	llm := llmfake.New(llmfake.Fail(output.NewLLMError(output.FaultRateLimited, "E", errors.New("429"))))

	j := New(logger.NewNop(), nil, WithSleep(func(ctx context.Context, d time.Duration) error {
		cancel()
		return service.SleepContext(ctx, d)
	}))

	_, err := j.Judge(ctx, llm, completed("Paris", 1))
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrFatal)
}

func TestJudge_CustomPolicy(t *testing.T) {
	llm := llmfake.New(llmfake.Fail(output.NewLLMError(output.FaultRateLimited, "E", errors.New("429"))))
	policy := Policy{output.FaultRateLimited: {Abort: true}}

	_, err := New(logger.NewNop(), nil, WithPolicy(policy)).Judge(context.Background(), llm, completed("Paris", 1))
	assert.ErrorIs(t, err, ErrFatal)
}

// A final answer that contradicts the screenshot still yields a valid verdict;
// the verdict is whatever keyword the rubric-following model emits.
func TestJudge_ContradictingAnswerAndScreenshot(t *testing.T) {
	llm := llmfake.New(llmfake.Text("The screenshot shows London, which contradicts the response 'Paris'. The screenshot prevails. NOT SUCCESS"))
	in := entity.JudgeInput{
		Instruction: "Find the capital shown on Wiki",
		FinalAnswer: "Paris",
		Completed:   true,
		Screenshots: []entity.Screenshot{{Data: []byte("london.jpeg"), Format: "jpeg"}},
	}

	got, err := New(logger.NewNop(), nil).Judge(context.Background(), llm, in)
	require.NoError(t, err)
	assert.True(t, got.Verdict.Valid())
	assert.Equal(t, entity.VerdictFailed, got.Verdict)
}
